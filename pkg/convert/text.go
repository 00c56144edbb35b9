package convert

import (
	"strings"

	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/geom"
)

func convertText(e dxf.Entity, opts Options) (Output, error) {
	t := e.(*dxf.Text)
	props := map[string]any{
		"text":     t.Value,
		"height":   t.Height,
		"rotation": t.Rotation,
	}
	if t.Style != "" {
		props["style"] = t.Style
	}
	return Output{Geometry: geom.NewPoint(t.Position), Properties: props}, nil
}

func convertMText(e dxf.Entity, opts Options) (Output, error) {
	m := e.(*dxf.MText)
	props := map[string]any{
		"text":   StripMTextFormatting(m.Value),
		"height": m.Height,
	}
	if m.Width > 0 {
		props["width"] = m.Width
	}
	if m.Style != "" {
		props["style"] = m.Style
	}
	return Output{Geometry: geom.NewPoint(m.Position), Properties: props}, nil
}

// StripMTextFormatting removes MTEXT inline formatting codes, leaving
// plain text. Handled tokens: paragraph breaks (\P), non-breaking spaces
// (\~), font/height/width/color/alignment overrides (\f \F \H \W \C \Q
// \T \A ... ;), stacked fractions (\S...^...;), case and
// underscore/overstrike toggles (\L \l \O \o \K \k \X), and
// brace-delimited grouping.
func StripMTextFormatting(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '{', '}':
			i++
		case '\\':
			if i+1 >= len(s) {
				i++
				continue
			}
			code := s[i+1]
			switch code {
			case 'P', 'p':
				sb.WriteByte('\n')
				i += 2
			case '~':
				sb.WriteByte(' ')
				i += 2
			case '\\', '{', '}':
				sb.WriteByte(code)
				i += 2
			case 'f', 'F', 'H', 'W', 'C', 'c', 'Q', 'T', 'A':
				// Parameterized override: skip through the terminator.
				end := strings.IndexByte(s[i+2:], ';')
				if end < 0 {
					i = len(s)
				} else {
					i += 2 + end + 1
				}
			case 'S':
				// Stacked fraction: keep the content, render the stack
				// separator as a slash.
				end := strings.IndexByte(s[i+2:], ';')
				if end < 0 {
					i = len(s)
					continue
				}
				frac := s[i+2 : i+2+end]
				frac = strings.Map(func(r rune) rune {
					switch r {
					case '^', '#':
						return '/'
					}
					return r
				}, frac)
				sb.WriteString(frac)
				i += 2 + end + 1
			case 'L', 'l', 'O', 'o', 'K', 'k', 'X':
				i += 2
			default:
				// Unknown escape: drop the backslash, keep the character.
				sb.WriteByte(code)
				i += 2
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}
