package refs

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		name string
		ref  Reference
		want string
	}{
		{"single cell", Reference{StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 0}, "A1"},
		{"range", Reference{StartRow: 0, StartCol: 0, EndRow: 1, EndCol: 1}, "A1:B2"},
		{"wide range", Reference{StartRow: 2, StartCol: 1, EndRow: 9, EndCol: 3}, "B3:D10"},
		{"sheet qualified", Reference{SheetName: "Data", EndRow: 0, EndCol: 0}, "Data!A1"},
		{"quoted sheet", Reference{SheetName: "My Sheet", EndRow: 0, EndCol: 0}, "'My Sheet'!A1"},
		{"quote in sheet name", Reference{SheetName: "It's", EndRow: 0, EndCol: 0}, "'It''s'!A1"},
		{"full column", Reference{StartCol: 0, EndCol: 2, EndRow: MaxHighlightRows - 1, FullColumn: true}, "A:C"},
		{"full row", Reference{StartRow: 2, EndRow: 4, EndCol: MaxHighlightCols - 1, FullRow: true}, "3:5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Format(tc.ref); got != tc.want {
				t.Errorf("Format = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	refs := []Reference{
		{StartRow: 4, StartCol: 2, EndRow: 4, EndCol: 2},
		{StartRow: 0, StartCol: 0, EndRow: 9, EndCol: 1},
		{SheetName: "Sheet2", StartRow: 1, StartCol: 1, EndRow: 1, EndCol: 1},
	}
	for _, ref := range refs {
		text := "=" + Format(ref)
		got := Parse(text)
		if len(got) != 1 {
			t.Fatalf("Parse(%q) = %d references, want 1", text, len(got))
		}
		r := got[0]
		if r.StartRow != ref.StartRow || r.StartCol != ref.StartCol ||
			r.EndRow != ref.EndRow || r.EndCol != ref.EndCol || r.SheetName != ref.SheetName {
			t.Errorf("round trip of %q changed bounds: %+v", text, r)
		}
	}
}

func TestExpectsReference(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"=", true},
		{"=1+", true},
		{"=SUM(", true},
		{"=A1,", true},
		{"=A1;", true},
		{"=A1*", true},
		{"=A1<", true},
		{"=SUM(A1, ", true},
		{"=A1", false},
		{"=SUM(A1)", false},
		{"", false},
		{"hello+", false},
		{"123", false},
		{`="text(`, false}, // operator inside a string literal
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			if got := ExpectsReference(tc.text); got != tc.want {
				t.Errorf("ExpectsReference(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestAutoClose(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"=SUM(A1:B2", "=SUM(A1:B2)"},
		{"=SUM(A1:B2)", "=SUM(A1:B2)"},
		{"=IF(SUM(A1", "=IF(SUM(A1))"},
		{`="abc`, `="abc"`},
		{`=CONCAT("a(b`, `=CONCAT("a(b")`},
		{"=A1", "=A1"},
		{"hello(", "hello("},
		{"=)", "=)"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := AutoClose(tc.in); got != tc.want {
				t.Errorf("AutoClose(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestColorPalette(t *testing.T) {
	if PaletteSize() < 2 {
		t.Fatal("palette needs at least two colors")
	}
	if ColorAt(0) == ColorAt(1) {
		t.Error("consecutive colors should differ")
	}
	if ColorAt(0) != ColorAt(PaletteSize()) {
		t.Error("colors should cycle after the palette is exhausted")
	}
	if ColorAt(-1) != ColorAt(0) {
		t.Error("negative index should clamp to the first color")
	}
}
