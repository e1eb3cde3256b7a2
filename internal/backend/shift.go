package backend

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/DanielSallander/Calcula-sub003/internal/refs"
)

// Cell tokens (A5, $A$5, A$5, $A5), whole-row spans (5:5, $2:$10) and
// whole-column spans (B:B, $A:$C).
var (
	shiftCellRe = regexp.MustCompile(`(\$?)([A-Za-z]+)(\$?)([0-9]+)`)
	shiftRowRe  = regexp.MustCompile(`(\$?)([0-9]+):(\$?)([0-9]+)`)
	shiftColRe  = regexp.MustCompile(`(\$?)([A-Za-z]+):(\$?)([A-Za-z]+)`)
)

// ShiftFormula rewrites every relative reference in formula by the given
// deltas. A $ before a column or row pins that axis. Rows clamp at 1 and
// columns at A rather than going negative.
func ShiftFormula(formula string, rowDelta, colDelta int) string {
	if !strings.HasPrefix(formula, "=") {
		return formula
	}
	out := formula
	if rowDelta != 0 {
		out = replaceTokens(out, shiftCellRe, func(m []string) string {
			if m[3] == "$" {
				return m[0]
			}
			n, err := strconv.Atoi(m[4])
			if err != nil {
				return m[0]
			}
			return m[1] + m[2] + m[3] + strconv.Itoa(max(1, n+rowDelta))
		})
		out = replaceTokens(out, shiftRowRe, func(m []string) string {
			a, errA := strconv.Atoi(m[2])
			b, errB := strconv.Atoi(m[4])
			if errA != nil || errB != nil {
				return m[0]
			}
			if m[1] != "$" {
				a = max(1, a+rowDelta)
			}
			if m[3] != "$" {
				b = max(1, b+rowDelta)
			}
			return m[1] + strconv.Itoa(a) + ":" + m[3] + strconv.Itoa(b)
		})
	}
	if colDelta != 0 {
		out = replaceTokens(out, shiftCellRe, func(m []string) string {
			if m[1] == "$" {
				return m[0]
			}
			idx, ok := refs.ColumnIndex(m[2])
			if !ok {
				return m[0]
			}
			return m[1] + refs.ColumnLabel(max(0, idx+colDelta)) + m[3] + m[4]
		})
		out = replaceTokens(out, shiftColRe, func(m []string) string {
			a, okA := refs.ColumnIndex(m[2])
			b, okB := refs.ColumnIndex(m[4])
			if !okA || !okB {
				return m[0]
			}
			if m[1] != "$" {
				a = max(0, a+colDelta)
			}
			if m[3] != "$" {
				b = max(0, b+colDelta)
			}
			return m[1] + refs.ColumnLabel(a) + ":" + m[3] + refs.ColumnLabel(b)
		})
	}
	return out
}

// replaceTokens is ReplaceAllStringFunc with submatches and a token
// boundary check, so LOG10 or ATAN2 never shift as if they were cells.
func replaceTokens(s string, re *regexp.Regexp, fn func(m []string) string) string {
	var b strings.Builder
	last := 0
	for _, idx := range re.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(s[last:idx[0]])
		last = idx[1]
		tok := s[idx[0]:idx[1]]
		if !shiftBoundaryOK(s, idx[0], idx[1]) {
			b.WriteString(tok)
			continue
		}
		m := make([]string, len(idx)/2)
		m[0] = tok
		for g := 1; g < len(m); g++ {
			if idx[2*g] >= 0 {
				m[g] = s[idx[2*g]:idx[2*g+1]]
			}
		}
		b.WriteString(fn(m))
	}
	b.WriteString(s[last:])
	return b.String()
}

func shiftBoundaryOK(s string, start, end int) bool {
	if start > 0 {
		prev := s[start-1]
		if isWordByte(prev) || prev == '$' {
			return false
		}
	}
	if end < len(s) {
		next := s[end]
		if isWordByte(next) || next == '(' {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
