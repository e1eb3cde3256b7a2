package backend

import (
	"fmt"
	"strings"

	"github.com/DanielSallander/Calcula-sub003/internal/refs"
)

type cellKey struct{ row, col int }

type sheetData struct {
	name   string
	cells  map[cellKey]Cell
	merges []MergeRegion
}

// Memory is the in-process engine stand-in: multi-sheet cell storage,
// merge registry, $-aware formula shifting, and dependent discovery by
// re-parsing stored formulas. Evaluation is not its job; a formula cell
// displays its text.
type Memory struct {
	sheets []*sheetData
	active int
}

// NewMemory creates a store with the given sheet names ("Sheet1" when none).
func NewMemory(sheetNames ...string) *Memory {
	if len(sheetNames) == 0 {
		sheetNames = []string{"Sheet1"}
	}
	m := &Memory{}
	for _, name := range sheetNames {
		m.sheets = append(m.sheets, &sheetData{name: name, cells: make(map[cellKey]Cell)})
	}
	return m
}

// SheetNames returns the sheet names in index order.
func (m *Memory) SheetNames() []string {
	names := make([]string, len(m.sheets))
	for i, s := range m.sheets {
		names[i] = s.name
	}
	return names
}

// ActiveSheet returns the current active sheet index.
func (m *Memory) ActiveSheet() int { return m.active }

// Seed writes a cell on any sheet without dependent bookkeeping; test and
// loader convenience.
func (m *Memory) Seed(sheet, row, col int, text string) {
	if sheet < 0 || sheet >= len(m.sheets) {
		return
	}
	m.sheets[sheet].cells[cellKey{row, col}] = cellFromText(text)
}

// AddMerge registers a merged region on a sheet. Overlapping an existing
// region is an error, matching the engine's merge rules.
func (m *Memory) AddMerge(sheet int, region MergeRegion) error {
	if sheet < 0 || sheet >= len(m.sheets) {
		return fmt.Errorf("add merge: no sheet %d", sheet)
	}
	for _, existing := range m.sheets[sheet].merges {
		if region.StartRow <= existing.EndRow && region.EndRow >= existing.StartRow &&
			region.StartCol <= existing.EndCol && region.EndCol >= existing.StartCol {
			return fmt.Errorf("add merge: overlaps region at %d,%d", existing.StartRow, existing.StartCol)
		}
	}
	m.sheets[sheet].merges = append(m.sheets[sheet].merges, region)
	return nil
}

func (m *Memory) GetCell(row, col int) (Cell, error) {
	c, ok := m.sheets[m.active].cells[cellKey{row, col}]
	if !ok {
		return Cell{}, fmt.Errorf("get cell %d,%d: %w", row, col, ErrNoCell)
	}
	return c, nil
}

func (m *Memory) UpdateCell(row, col int, text string) ([]UpdatedCell, error) {
	sheet := m.sheets[m.active]
	key := cellKey{row, col}
	old := sheet.cells[key]

	var primary Cell
	if strings.TrimSpace(text) == "" {
		delete(sheet.cells, key)
	} else {
		primary = cellFromText(text)
		sheet.cells[key] = primary
	}

	updates := []UpdatedCell{{
		Row:        row,
		Col:        col,
		OldDisplay: old.Display,
		Display:    primary.Display,
		Formula:    primary.Formula,
		SheetIndex: -1,
	}}
	updates = append(updates, m.dependentsOf(row, col)...)
	return updates, nil
}

func (m *Memory) ShiftFormulaForFill(formula string, rowDelta, colDelta int) (string, error) {
	return ShiftFormula(formula, rowDelta, colDelta), nil
}

func (m *Memory) GetMergeInfo(row, col int) (*MergeRegion, error) {
	for _, region := range m.sheets[m.active].merges {
		if region.Contains(row, col) {
			r := region
			return &r, nil
		}
	}
	return nil, nil
}

func (m *Memory) SetActiveSheet(index int) error {
	if index < 0 || index >= len(m.sheets) {
		return fmt.Errorf("set active sheet: no sheet %d", index)
	}
	m.active = index
	return nil
}

// dependentsOf finds formula cells anywhere in the workbook referencing the
// given cell on the active sheet. Cross-sheet dependents carry their sheet
// index; same-sheet ones carry -1.
func (m *Memory) dependentsOf(row, col int) []UpdatedCell {
	activeName := m.sheets[m.active].name
	var out []UpdatedCell
	for si, s := range m.sheets {
		for key, c := range s.cells {
			if c.Formula == "" {
				continue
			}
			if si == m.active && key.row == row && key.col == col {
				continue // the primary cell itself
			}
			if !formulaReferences(c.Formula, s.name, activeName, row, col) {
				continue
			}
			u := UpdatedCell{
				Row:        key.row,
				Col:        key.col,
				OldDisplay: c.Display,
				Display:    c.Display,
				Formula:    c.Formula,
				SheetIndex: -1,
			}
			if si != m.active {
				u.SheetIndex = si
			}
			out = append(out, u)
		}
	}
	return out
}

// formulaReferences reports whether a formula living on ownSheet references
// the cell (row,col) on targetSheet.
func formulaReferences(formula, ownSheet, targetSheet string, row, col int) bool {
	for _, r := range refs.Parse(formula) {
		sheet := r.SheetName
		if sheet == "" {
			sheet = ownSheet
		}
		if sheet != targetSheet {
			continue
		}
		if r.Contains(row, col) {
			return true
		}
	}
	return false
}

func cellFromText(text string) Cell {
	if strings.HasPrefix(text, "=") {
		return Cell{Formula: text, Display: text}
	}
	return Cell{Display: text}
}
