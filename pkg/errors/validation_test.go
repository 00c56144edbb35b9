package errors

import (
	"strings"
	"testing"
)

func TestValidateInputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid relative", "drawings/site.dxf", false},
		{"valid absolute", "/data/survey/plan.dxf", false},
		{"valid with spaces", "my drawing.dxf", false},
		{"valid current dir", "./plan.dxf", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"parent traversal", "foo/../bar.dxf", true},
		{"leading traversal", "../secret.dxf", true},
		{"null byte", "plan\x00.dxf", true},
		{"control char", "plan\x01.dxf", true},
		{"newline", "plan\n.dxf", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("error code = %v, want INVALID_PATH", GetCode(err))
			}
		})
	}
}

func TestValidateLayerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "WALLS", false},
		{"valid default", "0", false},
		{"valid with dash", "A-DOOR-FRAME", false},
		{"valid with dollar", "G$SURVEY", false},
		{"valid with space", "SITE PLAN", false},

		{"empty", "", true},
		{"too long", strings.Repeat("x", 256), true},
		{"angle bracket", "A<B", true},
		{"slash", "A/B", true},
		{"backslash", "A\\B", true},
		{"quote", "A\"B", true},
		{"colon", "A:B", true},
		{"semicolon", "A;B", true},
		{"question mark", "A?B", true},
		{"asterisk", "A*B", true},
		{"pipe", "A|B", true},
		{"equals", "A=B", true},
		{"backtick", "A`B", true},
		{"control char", "A\x07B", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLayerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLayerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSRID(t *testing.T) {
	tests := []struct {
		name    string
		srid    int
		wantErr bool
	}{
		{"zero means undetermined", 0, false},
		{"wgs84", 4326, false},
		{"lv95", 2056, false},
		{"range floor", 1024, false},
		{"range ceiling", 32767, false},

		{"below range", 1023, true},
		{"above range", 32768, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSRID(tt.srid)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSRID(%d) error = %v, wantErr %v", tt.srid, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidSRID) {
				t.Errorf("error code = %v, want INVALID_SRID", GetCode(err))
			}
		})
	}
}
