package export

import (
	"strconv"
	"strings"
)

// RowStyle describes the visual treatment of a single dataset row.
// Colours are hex strings such as "#808080"; empty means default.
type RowStyle struct {
	Color      string
	Background string
	Bold       bool
	Italic     bool
}

// IsZero reports whether the style carries no formatting.
func (s RowStyle) IsZero() bool {
	return s == RowStyle{}
}

// CSS renders the style as an inline declaration list.
func (s RowStyle) CSS() string {
	parts := make([]string, 0, 4)
	if c := normalizeHex(s.Color); c != "" {
		parts = append(parts, "color:#"+c)
	}
	if c := normalizeHex(s.Background); c != "" {
		parts = append(parts, "background-color:#"+c)
	}
	if s.Bold {
		parts = append(parts, "font-weight:bold")
	}
	if s.Italic {
		parts = append(parts, "font-style:italic")
	}
	return strings.Join(parts, ";")
}

// fontStyle maps bold/italic onto gofpdf style letters.
func (s RowStyle) fontStyle() string {
	out := ""
	if s.Bold {
		out += "B"
	}
	if s.Italic {
		out += "I"
	}
	return out
}

// styleAt returns the style for row i, tolerating short style slices.
func (d Dataset) styleAt(i int) RowStyle {
	if i < 0 || i >= len(d.Styles) {
		return RowStyle{}
	}
	return d.Styles[i]
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}

// normalizeHex returns an upper-case six digit hex colour without '#', or ""
// when the input is not a valid colour.
func normalizeHex(raw string) string {
	value := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if len(value) != 6 {
		return ""
	}
	if _, err := strconv.ParseUint(value, 16, 32); err != nil {
		return ""
	}
	return strings.ToUpper(value)
}

func hexToRGB(raw string) (int, int, int, bool) {
	value := normalizeHex(raw)
	if value == "" {
		return 0, 0, 0, false
	}
	n, _ := strconv.ParseUint(value, 16, 32)
	return int(n >> 16 & 0xFF), int(n >> 8 & 0xFF), int(n & 0xFF), true
}
