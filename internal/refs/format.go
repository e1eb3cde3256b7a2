package refs

import (
	"strconv"
	"strings"
)

// palette holds the highlight colors, assigned round-robin by parse order and
// by insertion order. The renderer maps them straight to lipgloss colors.
var palette = []string{
	"#4a7fd4", // blue
	"#d44a4a", // red
	"#3f9e57", // green
	"#9a4ad4", // purple
	"#d4894a", // orange
	"#2aa1a8", // teal
	"#c23e8f", // magenta
}

// ColorAt returns the palette color for the nth reference.
func ColorAt(n int) string {
	if n < 0 {
		n = 0
	}
	return palette[n%len(palette)]
}

// PaletteSize returns the number of distinct highlight colors.
func PaletteSize() int { return len(palette) }

// Format renders a reference as formula text: relative markers only, sheet
// prefix when SheetName is set, collapsed to a single token for single cells.
// Full-column and full-row references render as A:C / 3:5 regardless of the
// capped highlight bounds.
func Format(r Reference) string {
	var b strings.Builder
	if r.SheetName != "" {
		b.WriteString(formatSheetPrefix(r.SheetName))
	}
	switch {
	case r.FullColumn:
		b.WriteString(ColumnLabel(r.StartCol))
		b.WriteByte(':')
		b.WriteString(ColumnLabel(r.EndCol))
	case r.FullRow:
		b.WriteString(strconv.Itoa(r.StartRow + 1))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(r.EndRow + 1))
	case r.SingleCell():
		b.WriteString(cellText(r.StartRow, r.StartCol, false, false))
	default:
		b.WriteString(cellText(r.StartRow, r.StartCol, false, false))
		b.WriteByte(':')
		b.WriteString(cellText(r.EndRow, r.EndCol, false, false))
	}
	return b.String()
}

func cellText(row, col int, colAbs, rowAbs bool) string {
	var b strings.Builder
	if colAbs {
		b.WriteByte('$')
	}
	b.WriteString(ColumnLabel(col))
	if rowAbs {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(row + 1))
	return b.String()
}

// formatSheetPrefix quotes the sheet name when it is not a bare identifier,
// doubling internal quotes, and appends the '!' separator.
func formatSheetPrefix(name string) string {
	if isBareIdent(name) {
		return name + "!"
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'!"
}

func isBareIdent(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		b := name[i]
		if isIdentByte(b) {
			continue
		}
		return false
	}
	return name[0] == '_' || (name[0] >= 'a' && name[0] <= 'z') || (name[0] >= 'A' && name[0] <= 'Z')
}

// ExpectsReference classifies whether formula text is in a position where a
// clicked or arrow-navigated reference may be appended: it is a formula and
// ends (ignoring trailing spaces) in an operator, comparison, open paren,
// argument separator, or the bare '='.
func ExpectsReference(text string) bool {
	if !strings.HasPrefix(text, "=") {
		return false
	}
	t := strings.TrimRight(text, " ")
	last := t[len(t)-1]
	switch last {
	case '=', '+', '-', '*', '/', '^', '&', '<', '>', '(', ',', ';':
		return !insideString(t, len(t)-1)
	}
	return false
}

// AutoClose completes a formula for commit: a dangling string literal gets
// its closing quote, then unmatched open parens get closed. Non-formula text
// is returned unchanged.
func AutoClose(text string) string {
	if !strings.HasPrefix(text, "=") {
		return text
	}
	open := 0
	in := false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"':
			in = !in
		case '(':
			if !in {
				open++
			}
		case ')':
			if !in && open > 0 {
				open--
			}
		}
	}
	if in {
		text += `"`
	}
	if open > 0 {
		text += strings.Repeat(")", open)
	}
	return text
}
