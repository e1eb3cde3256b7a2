package refs

import (
	"strconv"
	"strings"
)

// Bounds is a target bounding box for a rewrite, 0-based inclusive.
type Bounds struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// Normalize swaps corners so start <= end on both axes.
func (b Bounds) Normalize() Bounds {
	if b.StartRow > b.EndRow {
		b.StartRow, b.EndRow = b.EndRow, b.StartRow
	}
	if b.StartCol > b.EndCol {
		b.StartCol, b.EndCol = b.EndCol, b.StartCol
	}
	return b
}

// Shift moves the box by the given deltas, clamping at the sheet origin
// without changing its size.
func (b Bounds) Shift(rowDelta, colDelta int) Bounds {
	if b.StartRow+rowDelta < 0 {
		rowDelta = -b.StartRow
	}
	if b.StartCol+colDelta < 0 {
		colDelta = -b.StartCol
	}
	b.StartRow += rowDelta
	b.EndRow += rowDelta
	b.StartCol += colDelta
	b.EndCol += colDelta
	return b
}

// Rewrite returns formula with the one reference at p's span replaced by a
// token for the new bounds. Each of the four absolute markers and the sheet
// prefix are carried over from the original token byte-for-byte; all text
// outside the span is untouched.
func Rewrite(formula string, p ParsedReference, nb Bounds) string {
	if p.Start < 0 || p.End > len(formula) || p.Start > p.End {
		return formula
	}
	nb = nb.Normalize()
	token := originalSheetPrefix(formula[p.Start:p.End]) + markedToken(p, nb)
	return formula[:p.Start] + token + formula[p.End:]
}

// markedToken renders the bounds using p's absolute markers. Full-column and
// full-row tokens keep their form; cell tokens collapse to a single cell when
// the bounds do.
func markedToken(p ParsedReference, nb Bounds) string {
	switch {
	case p.FullColumn:
		return abs(p.StartColAbs) + ColumnLabel(nb.StartCol) + ":" + abs(p.EndColAbs) + ColumnLabel(nb.EndCol)
	case p.FullRow:
		return abs(p.StartRowAbs) + strconv.Itoa(nb.StartRow+1) + ":" + abs(p.EndRowAbs) + strconv.Itoa(nb.EndRow+1)
	}
	start := cellText(nb.StartRow, nb.StartCol, p.StartColAbs, p.StartRowAbs)
	if nb.StartRow == nb.EndRow && nb.StartCol == nb.EndCol && p.SingleCell() {
		return start
	}
	return start + ":" + cellText(nb.EndRow, nb.EndCol, p.EndColAbs, p.EndRowAbs)
}

// FormatParsed renders a parsed reference back to formula text, preserving
// its sheet qualifier and absolute markers.
func FormatParsed(p ParsedReference) string {
	prefix := ""
	if p.SheetName != "" {
		prefix = formatSheetPrefix(p.SheetName)
	}
	nb := Bounds{StartRow: p.StartRow, StartCol: p.StartCol, EndRow: p.EndRow, EndCol: p.EndCol}
	return prefix + markedToken(p, nb)
}

func abs(on bool) string {
	if on {
		return "$"
	}
	return ""
}

// originalSheetPrefix returns the sheet-qualifier bytes of a token, through
// the '!', or "" when the token is unqualified.
func originalSheetPrefix(token string) string {
	if strings.HasPrefix(token, "'") {
		// closing quote is the first ' not doubled
		for i := 1; i < len(token); i++ {
			if token[i] != '\'' {
				continue
			}
			if i+1 < len(token) && token[i+1] == '\'' {
				i++ // escaped quote, keep scanning
				continue
			}
			if i+1 < len(token) && token[i+1] == '!' {
				return token[:i+2]
			}
			return ""
		}
		return ""
	}
	if i := strings.IndexByte(token, '!'); i >= 0 {
		return token[:i+1]
	}
	return ""
}
