package refs

import "testing"

func firstRef(t *testing.T, formula string) ParsedReference {
	t.Helper()
	ps := ParseWithSpans(formula)
	if len(ps) == 0 {
		t.Fatalf("no references in %q", formula)
	}
	return ps[0]
}

func TestBoundsNormalize(t *testing.T) {
	b := Bounds{StartRow: 5, StartCol: 3, EndRow: 1, EndCol: 0}.Normalize()
	if b.StartRow != 1 || b.EndRow != 5 || b.StartCol != 0 || b.EndCol != 3 {
		t.Errorf("Normalize = %+v", b)
	}
}

func TestBoundsShiftClampsAtOrigin(t *testing.T) {
	b := Bounds{StartRow: 1, StartCol: 1, EndRow: 3, EndCol: 2}.Shift(-10, -10)
	if b.StartRow != 0 || b.StartCol != 0 {
		t.Errorf("start = %d,%d, want 0,0", b.StartRow, b.StartCol)
	}
	// size preserved
	if b.EndRow-b.StartRow != 2 || b.EndCol-b.StartCol != 1 {
		t.Errorf("size changed: %+v", b)
	}
}

func TestRewriteShift(t *testing.T) {
	formula := "=SUM(A1:B2)+C3"
	p := firstRef(t, formula)
	got := Rewrite(formula, p, boundsFor(p).Shift(1, 1))
	if got != "=SUM(B2:C3)+C3" {
		t.Errorf("Rewrite = %q, want =SUM(B2:C3)+C3", got)
	}
}

func TestRewritePreservesAbsoluteMarkers(t *testing.T) {
	cases := []struct {
		formula string
		want    string
	}{
		{"=$A$1", "=$B$2"},
		{"=A$1", "=B$2"},
		{"=$A1", "=$B2"},
		{"=$A$1:B2", "=$B$2:C3"},
		{"=A$1:$B2", "=B$2:$C3"},
	}
	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			p := firstRef(t, tc.formula)
			got := Rewrite(tc.formula, p, boundsFor(p).Shift(1, 1))
			if got != tc.want {
				t.Errorf("Rewrite(%q) = %q, want %q", tc.formula, got, tc.want)
			}
		})
	}
}

func TestRewriteKeepsSheetPrefix(t *testing.T) {
	cases := []struct {
		formula string
		want    string
	}{
		{"=Sheet2!A1", "=Sheet2!B2"},
		{"='My Sheet'!A1", "='My Sheet'!B2"},
		{"='It''s'!A1", "='It''s'!B2"},
	}
	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			p := firstRef(t, tc.formula)
			got := Rewrite(tc.formula, p, boundsFor(p).Shift(1, 1))
			if got != tc.want {
				t.Errorf("Rewrite(%q) = %q, want %q", tc.formula, got, tc.want)
			}
		})
	}
}

func TestRewriteResize(t *testing.T) {
	formula := "=SUM(A1:B2)"
	p := firstRef(t, formula)
	got := Rewrite(formula, p, Bounds{StartRow: 0, StartCol: 0, EndRow: 2, EndCol: 2})
	if got != "=SUM(A1:C3)" {
		t.Errorf("Rewrite = %q, want =SUM(A1:C3)", got)
	}
}

func TestRewriteResizeToOwnBoundsIsIdentity(t *testing.T) {
	formulas := []string{"=A1", "=SUM(A1:B2)", "=Sheet2!C3", "=$A$1:$B$2"}
	for _, formula := range formulas {
		p := firstRef(t, formula)
		if got := Rewrite(formula, p, boundsFor(p)); got != formula {
			t.Errorf("Rewrite(%q) to own bounds = %q", formula, got)
		}
	}
}

func TestRewriteSingleCellGrowsToRange(t *testing.T) {
	formula := "=A1"
	p := firstRef(t, formula)
	got := Rewrite(formula, p, Bounds{StartRow: 0, StartCol: 0, EndRow: 1, EndCol: 1})
	if got != "=A1:B2" {
		t.Errorf("Rewrite = %q, want =A1:B2", got)
	}
}

func TestRewriteFullColumnAndRow(t *testing.T) {
	formula := "=SUM(B:B)"
	p := firstRef(t, formula)
	got := Rewrite(formula, p, Bounds{StartRow: 0, StartCol: 2, EndRow: MaxHighlightRows - 1, EndCol: 2})
	if got != "=SUM(C:C)" {
		t.Errorf("Rewrite = %q, want =SUM(C:C)", got)
	}

	formula = "=SUM(3:5)"
	p = firstRef(t, formula)
	got = Rewrite(formula, p, Bounds{StartRow: 3, StartCol: 0, EndRow: 5, EndCol: MaxHighlightCols - 1})
	if got != "=SUM(4:6)" {
		t.Errorf("Rewrite = %q, want =SUM(4:6)", got)
	}
}

func TestFormatParsedRoundTrip(t *testing.T) {
	formulas := []string{
		"=A1",
		"=$A$1",
		"=A$1:$B2",
		"=SUM(B2:D10)",
		"=Sheet2!A1",
		"='My Sheet'!A1:B2",
		"=B:B",
		"=$A:$C",
		"=3:5",
	}
	for _, formula := range formulas {
		t.Run(formula, func(t *testing.T) {
			p := firstRef(t, formula)
			want := formula[p.Start:p.End]
			if got := FormatParsed(p); got != want {
				t.Errorf("FormatParsed = %q, want %q", got, want)
			}
		})
	}
}

func boundsFor(p ParsedReference) Bounds {
	return Bounds{StartRow: p.StartRow, StartCol: p.StartCol, EndRow: p.EndRow, EndCol: p.EndCol}
}
