// Package refs parses, formats and rewrites A1-style cell references in
// formula text. It is the shared vocabulary between the edit session
// controller (reference highlighting, drag, resize) and the fill engine.
package refs

import (
	"regexp"
	"strconv"
	"strings"
)

// Highlight extents for whole-column and whole-row references are capped so
// the renderer never walks an unbounded range. The literal formula text still
// denotes the full column/row.
const (
	MaxHighlightRows = 1000
	MaxHighlightCols = 100
)

// Reference is a single cell or rectangular range mentioned in a formula,
// normalized so start <= end on both axes.
type Reference struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int

	// Color is the highlight color assigned from the palette, round-robin
	// in parse order.
	Color string

	// SheetName is set only for cross-sheet references; empty means the
	// sheet the formula lives on.
	SheetName string

	// FullRow/FullColumn mark references that span an entire row or column
	// in the formula text; the bounds above are capped for rendering.
	FullRow    bool
	FullColumn bool

	// Passive marks references highlighted for display only (the cell under
	// the cursor has a formula but is not being edited).
	Passive bool
}

// SingleCell reports whether the reference covers exactly one cell.
func (r Reference) SingleCell() bool {
	return r.StartRow == r.EndRow && r.StartCol == r.EndCol
}

// Contains reports whether the given cell lies inside the reference bounds.
func (r Reference) Contains(row, col int) bool {
	return row >= r.StartRow && row <= r.EndRow && col >= r.StartCol && col <= r.EndCol
}

// ParsedReference is a Reference plus everything needed to rewrite its exact
// occurrence in the formula text: the byte span it occupies and the four
// absolute markers as they appeared in the token.
type ParsedReference struct {
	Reference

	// Start and End are byte offsets into the formula text, End exclusive.
	Start int
	End   int

	// Absolute ($) markers, independently for each corner and axis.
	StartColAbs bool
	StartRowAbs bool
	EndColAbs   bool
	EndRowAbs   bool
}

// Token groups:
//  1 quoted sheet name ('' escaped)   2 bare sheet name
//  3/4 start col abs+letters  5/6 start row abs+digits
//  7  range tail              8/9 end col  10/11 end row
var cellTokenRe = regexp.MustCompile(
	`(?:(?:'((?:[^']|'')+)'|([A-Za-z_][A-Za-z0-9_]*))!)?` +
		`(\$?)([A-Za-z]{1,3})(\$?)([0-9]+)` +
		`(:(\$?)([A-Za-z]{1,3})(\$?)([0-9]+))?`)

// Whole-column (A:A, $B:$D) and whole-row (5:5, $2:$10) tokens, optionally
// sheet-qualified. Recognized so a re-parse after an insert keeps the
// highlight; grounded in the same token forms the backend shifter handles.
var colTokenRe = regexp.MustCompile(
	`(?:(?:'((?:[^']|'')+)'|([A-Za-z_][A-Za-z0-9_]*))!)?(\$?)([A-Za-z]{1,3}):(\$?)([A-Za-z]{1,3})`)
var rowTokenRe = regexp.MustCompile(
	`(?:(?:'((?:[^']|'')+)'|([A-Za-z_][A-Za-z0-9_]*))!)?(\$?)([0-9]+):(\$?)([0-9]+)`)

// Parse returns the references in formula text in order of appearance, with
// palette colors assigned round-robin. Malformed tokens are skipped, never
// reported.
func Parse(formula string) []Reference {
	parsed := ParseWithSpans(formula)
	out := make([]Reference, len(parsed))
	for i, p := range parsed {
		out[i] = p.Reference
	}
	return out
}

// ParsePassive parses a formula for display-only highlighting of a cell
// that is not being edited; the references render faint.
func ParsePassive(formula string) []Reference {
	out := Parse(formula)
	for i := range out {
		out[i].Passive = true
	}
	return out
}

// ParseWithSpans is Parse plus the text span and absolute markers per
// reference, so callers can map a grid cell back to the token that produced
// it and rewrite that one token in place.
func ParseWithSpans(formula string) []ParsedReference {
	if !strings.HasPrefix(formula, "=") {
		return nil
	}

	var out []ParsedReference
	taken := make([]bool, len(formula))

	add := func(p ParsedReference) {
		for i := p.Start; i < p.End; i++ {
			taken[i] = true
		}
		out = append(out, p)
	}

	for _, m := range cellTokenRe.FindAllStringSubmatchIndex(formula, -1) {
		p, ok := cellTokenAt(formula, m)
		if !ok || overlaps(taken, m[0], m[1]) {
			continue
		}
		add(p)
	}
	for _, m := range colTokenRe.FindAllStringSubmatchIndex(formula, -1) {
		p, ok := colTokenAt(formula, m)
		if !ok || overlaps(taken, m[0], m[1]) {
			continue
		}
		add(p)
	}
	for _, m := range rowTokenRe.FindAllStringSubmatchIndex(formula, -1) {
		p, ok := rowTokenAt(formula, m)
		if !ok || overlaps(taken, m[0], m[1]) {
			continue
		}
		add(p)
	}

	// Regex passes emit col/row tokens after cell tokens; restore text order
	// so colors stay stable under re-parse.
	sortBySpan(out)
	for i := range out {
		out[i].Color = ColorAt(i)
	}
	return out
}

// ReferenceAt finds the first parsed reference containing the given cell.
// activeSheet is the sheet the click happened on and sourceSheet the sheet
// the formula lives on: a reference with no explicit sheet only matches
// clicks on the source sheet, a qualified one only clicks on its own sheet.
func ReferenceAt(formula string, row, col int, activeSheet, sourceSheet string) (ParsedReference, bool) {
	for _, p := range ParseWithSpans(formula) {
		want := p.SheetName
		if want == "" {
			want = sourceSheet
		}
		if want != activeSheet {
			continue
		}
		if p.Contains(row, col) {
			return p, true
		}
	}
	return ParsedReference{}, false
}

func overlaps(taken []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if taken[i] {
			return true
		}
	}
	return false
}

func sortBySpan(ps []ParsedReference) {
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && ps[j].Start < ps[j-1].Start; j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}
}

func cellTokenAt(formula string, m []int) (ParsedReference, bool) {
	if !tokenBoundaryOK(formula, m[0], m[1]) {
		return ParsedReference{}, false
	}
	// A letters+digits run directly followed by '(' is a function name
	// (LOG10, ATAN2), not a cell.
	if m[1] < len(formula) && formula[m[1]] == '(' {
		return ParsedReference{}, false
	}

	p := ParsedReference{Start: m[0], End: m[1]}
	p.SheetName = sheetNameFrom(formula, m)

	startCol, ok := ColumnIndex(group(formula, m, 4))
	if !ok {
		return ParsedReference{}, false
	}
	startRow, ok := rowIndex(group(formula, m, 6))
	if !ok {
		return ParsedReference{}, false
	}
	p.StartColAbs = group(formula, m, 3) == "$"
	p.StartRowAbs = group(formula, m, 5) == "$"
	p.StartRow, p.StartCol = startRow, startCol
	p.EndRow, p.EndCol = startRow, startCol
	p.EndColAbs, p.EndRowAbs = p.StartColAbs, p.StartRowAbs

	if m[14] >= 0 { // range tail present
		endCol, ok := ColumnIndex(group(formula, m, 9))
		if !ok {
			return ParsedReference{}, false
		}
		endRow, ok := rowIndex(group(formula, m, 11))
		if !ok {
			return ParsedReference{}, false
		}
		p.EndColAbs = group(formula, m, 8) == "$"
		p.EndRowAbs = group(formula, m, 10) == "$"
		p.EndRow, p.EndCol = endRow, endCol
		if p.StartRow > p.EndRow {
			p.StartRow, p.EndRow = p.EndRow, p.StartRow
		}
		if p.StartCol > p.EndCol {
			p.StartCol, p.EndCol = p.EndCol, p.StartCol
		}
	}
	return p, true
}

func colTokenAt(formula string, m []int) (ParsedReference, bool) {
	if !tokenBoundaryOK(formula, m[0], m[1]) {
		return ParsedReference{}, false
	}
	p := ParsedReference{Start: m[0], End: m[1], StartColAbs: group(formula, m, 3) == "$", EndColAbs: group(formula, m, 5) == "$"}
	p.SheetName = sheetNameFrom(formula, m)
	startCol, ok := ColumnIndex(group(formula, m, 4))
	if !ok {
		return ParsedReference{}, false
	}
	endCol, ok := ColumnIndex(group(formula, m, 6))
	if !ok {
		return ParsedReference{}, false
	}
	if startCol > endCol {
		startCol, endCol = endCol, startCol
	}
	p.StartCol, p.EndCol = startCol, endCol
	p.StartRow, p.EndRow = 0, MaxHighlightRows-1
	p.FullColumn = true
	return p, true
}

func rowTokenAt(formula string, m []int) (ParsedReference, bool) {
	if !tokenBoundaryOK(formula, m[0], m[1]) {
		return ParsedReference{}, false
	}
	p := ParsedReference{Start: m[0], End: m[1], StartRowAbs: group(formula, m, 3) == "$", EndRowAbs: group(formula, m, 5) == "$"}
	p.SheetName = sheetNameFrom(formula, m)
	startRow, ok := rowIndex(group(formula, m, 4))
	if !ok {
		return ParsedReference{}, false
	}
	endRow, ok := rowIndex(group(formula, m, 6))
	if !ok {
		return ParsedReference{}, false
	}
	if startRow > endRow {
		startRow, endRow = endRow, startRow
	}
	p.StartRow, p.EndRow = startRow, endRow
	p.StartCol, p.EndCol = 0, MaxHighlightCols-1
	p.FullRow = true
	return p, true
}

// tokenBoundaryOK rejects matches glued to surrounding identifier text
// (MX1 inside SUMX1) and matches inside string literals.
func tokenBoundaryOK(formula string, start, end int) bool {
	if start > 0 {
		prev := formula[start-1]
		if isIdentByte(prev) || prev == '$' || prev == ':' || prev == '!' || prev == '\'' {
			return false
		}
	}
	if end < len(formula) && isIdentByte(formula[end]) {
		return false
	}
	return !insideString(formula, start)
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// insideString reports whether pos falls inside a double-quoted literal.
// Doubled quotes escape, same as the formula language.
func insideString(formula string, pos int) bool {
	in := false
	for i := 0; i < pos && i < len(formula); i++ {
		if formula[i] == '"' {
			in = !in
		}
	}
	return in
}

func sheetNameFrom(formula string, m []int) string {
	if m[2] >= 0 { // quoted
		return strings.ReplaceAll(formula[m[2]:m[3]], "''", "'")
	}
	if m[4] >= 0 { // bare
		return formula[m[4]:m[5]]
	}
	return ""
}

func group(formula string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return formula[m[2*n]:m[2*n+1]]
}

// ColumnIndex converts column letters to a 0-based index (A=0, Z=25, AA=26).
func ColumnIndex(letters string) (int, bool) {
	if letters == "" {
		return 0, false
	}
	idx := 0
	for _, ch := range strings.ToUpper(letters) {
		if ch < 'A' || ch > 'Z' {
			return 0, false
		}
		idx = idx*26 + int(ch-'A') + 1
	}
	return idx - 1, true
}

// ColumnLabel is the inverse of ColumnIndex (0 -> "A", 26 -> "AA").
func ColumnLabel(idx int) string {
	if idx < 0 {
		idx = 0
	}
	var b [4]byte
	i := len(b)
	for {
		i--
		b[i] = byte('A' + idx%26)
		if idx < 26 {
			break
		}
		idx = idx/26 - 1
	}
	return string(b[i:])
}

// rowIndex converts a 1-based row number in text to a 0-based index.
func rowIndex(digits string) (int, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}
