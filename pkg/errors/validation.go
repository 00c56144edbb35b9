package errors

import (
	"strings"
	"unicode"
)

// ValidateInputPath validates a DXF file path for safety and correctness.
// It rejects paths that could be used for traversal outside the working
// tree when the path is later joined by a caller.
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - No control characters or null bytes
//   - No parent-directory traversal sequences
//   - Maximum length of 500 characters
func ValidateInputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "input path cannot be empty")
	}

	if len(path) > 500 {
		return New(ErrCodeInvalidPath, "input path too long (max 500 characters)")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "input path contains invalid control characters")
		}
	}

	if strings.Contains(path, "\x00") {
		return New(ErrCodeInvalidPath, "input path contains a null byte")
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "input path contains parent-directory traversal")
		}
	}

	return nil
}

// ValidateLayerName validates a DXF layer name per the reference table
// rules: non-empty, at most 255 characters, and none of the characters
// AutoCAD reserves for other syntax.
func ValidateLayerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "layer name cannot be empty")
	}

	if len(name) > 255 {
		return New(ErrCodeInvalidInput, "layer name too long (max 255 characters)")
	}

	if strings.ContainsAny(name, "<>/\\\":;?*|=`") {
		return New(ErrCodeInvalidInput, "layer name contains reserved characters")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "layer name contains control characters")
		}
	}

	return nil
}

// ValidateSRID checks that a spatial reference identifier falls inside the
// EPSG numeric range. Zero is allowed and means "undetermined".
func ValidateSRID(srid int) error {
	if srid == 0 {
		return nil
	}
	if srid < 1024 || srid > 32767 {
		return New(ErrCodeInvalidSRID, "SRID %d outside the EPSG range [1024, 32767]", srid)
	}
	return nil
}
