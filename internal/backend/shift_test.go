package backend

import "testing"

func TestShiftFormula(t *testing.T) {
	cases := []struct {
		formula  string
		rowDelta int
		colDelta int
		want     string
	}{
		{"=A1", 1, 0, "=A2"},
		{"=A1", 0, 1, "=B1"},
		{"=A1", 2, 3, "=D3"},
		{"=SUM(A1:B2)", 1, 1, "=SUM(B2:C3)"},
		{"=A1+B2*C3", 1, 0, "=A2+B3*C4"},

		// $ pins an axis, independently per corner
		{"=$A$1", 5, 5, "=$A$1"},
		{"=A$1", 1, 1, "=B$1"},
		{"=$A1", 1, 1, "=$A2"},
		{"=SUM($A$1:B2)", 1, 1, "=SUM($A$1:C3)"},

		// whole-row and whole-column spans
		{"=SUM(5:5)", 1, 0, "=SUM(6:6)"},
		{"=SUM($2:$4)", 5, 0, "=SUM($2:$4)"},
		{"=SUM(B:B)", 0, 1, "=SUM(C:C)"},
		{"=SUM($A:$C)", 0, 2, "=SUM($A:$C)"},
		{"=SUM(5:5)", 0, 3, "=SUM(5:5)"},
		{"=SUM(B:B)", 3, 0, "=SUM(B:B)"},

		// clamping at the sheet edge
		{"=A1", -5, 0, "=A1"},
		{"=A1", 0, -5, "=A1"},
		{"=C4", -1, -1, "=B3"},
		{"=SUM(2:3)", -5, 0, "=SUM(1:1)"},

		// things that must not shift
		{"hello", 1, 1, "hello"},
		{"42", 1, 1, "42"},
		{"=LOG10(A1)", 1, 0, "=LOG10(A2)"},
		{"=ATAN2(A1,B1)", 1, 0, "=ATAN2(A2,B2)"},
		{"=A1", 0, 0, "=A1"},
	}
	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			got := ShiftFormula(tc.formula, tc.rowDelta, tc.colDelta)
			if got != tc.want {
				t.Errorf("ShiftFormula(%q, %d, %d) = %q, want %q",
					tc.formula, tc.rowDelta, tc.colDelta, got, tc.want)
			}
		})
	}
}
