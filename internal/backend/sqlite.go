package backend

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLite persists the same contract as Memory through database/sql. One
// row per non-empty cell, keyed (sheet,row,col); merges and sheet names in
// side tables. Use ":memory:" for a throwaway store.
type SQLite struct {
	db     *sql.DB
	active int
	names  []string
}

// OpenSQLite opens (creating if needed) a cell store at path and registers
// the given sheet names on first use.
func OpenSQLite(path string, sheetNames ...string) (*SQLite, error) {
	if len(sheetNames) == 0 {
		sheetNames = []string{"Sheet1"}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cell store %s: %w", path, err)
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS cells (
			sheet INTEGER NOT NULL,
			row INTEGER NOT NULL,
			col INTEGER NOT NULL,
			formula TEXT NOT NULL DEFAULT '',
			display TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (sheet, row, col)
		)`,
		`CREATE TABLE IF NOT EXISTS merges (
			sheet INTEGER NOT NULL,
			start_row INTEGER NOT NULL,
			start_col INTEGER NOT NULL,
			end_row INTEGER NOT NULL,
			end_col INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sheets (
			idx INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init cell store: %w", err)
		}
	}

	s := &SQLite{db: db}
	var n int
	if err := db.QueryRow(`SELECT count(*) FROM sheets`).Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cell store: %w", err)
	}
	if n == 0 {
		for i, name := range sheetNames {
			if _, err := db.Exec(`INSERT INTO sheets (idx, name) VALUES (?, ?)`, i, name); err != nil {
				db.Close()
				return nil, fmt.Errorf("register sheet %q: %w", name, err)
			}
		}
	}
	rows, err := db.Query(`SELECT name FROM sheets ORDER BY idx`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read sheets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			db.Close()
			return nil, err
		}
		s.names = append(s.names, name)
	}
	if err := rows.Err(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// SheetNames returns the registered sheet names in index order.
func (s *SQLite) SheetNames() []string { return append([]string(nil), s.names...) }

// ActiveSheet returns the current active sheet index.
func (s *SQLite) ActiveSheet() int { return s.active }

// Seed writes a cell on any sheet without dependent bookkeeping.
func (s *SQLite) Seed(sheet, row, col int, text string) {
	c := cellFromText(text)
	s.db.Exec(`INSERT OR REPLACE INTO cells (sheet, row, col, formula, display) VALUES (?, ?, ?, ?, ?)`,
		sheet, row, col, c.Formula, c.Display)
}

// AddMerge registers a merged region on a sheet.
func (s *SQLite) AddMerge(sheet int, region MergeRegion) error {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM merges
		WHERE sheet = ? AND start_row <= ? AND end_row >= ? AND start_col <= ? AND end_col >= ?`,
		sheet, region.EndRow, region.StartRow, region.EndCol, region.StartCol).Scan(&n)
	if err != nil {
		return fmt.Errorf("add merge: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("add merge: overlaps an existing region")
	}
	_, err = s.db.Exec(`INSERT INTO merges (sheet, start_row, start_col, end_row, end_col) VALUES (?, ?, ?, ?, ?)`,
		sheet, region.StartRow, region.StartCol, region.EndRow, region.EndCol)
	if err != nil {
		return fmt.Errorf("add merge: %w", err)
	}
	return nil
}

func (s *SQLite) GetCell(row, col int) (Cell, error) {
	var c Cell
	err := s.db.QueryRow(`SELECT formula, display FROM cells WHERE sheet = ? AND row = ? AND col = ?`,
		s.active, row, col).Scan(&c.Formula, &c.Display)
	if err == sql.ErrNoRows {
		return Cell{}, fmt.Errorf("get cell %d,%d: %w", row, col, ErrNoCell)
	}
	if err != nil {
		return Cell{}, fmt.Errorf("get cell %d,%d: %w", row, col, err)
	}
	return c, nil
}

func (s *SQLite) UpdateCell(row, col int, text string) ([]UpdatedCell, error) {
	old, err := s.GetCell(row, col)
	if err != nil {
		old = Cell{}
	}

	var primary Cell
	if strings.TrimSpace(text) == "" {
		if _, err := s.db.Exec(`DELETE FROM cells WHERE sheet = ? AND row = ? AND col = ?`, s.active, row, col); err != nil {
			return nil, fmt.Errorf("clear cell %d,%d: %w", row, col, err)
		}
	} else {
		primary = cellFromText(text)
		_, err := s.db.Exec(`INSERT OR REPLACE INTO cells (sheet, row, col, formula, display) VALUES (?, ?, ?, ?, ?)`,
			s.active, row, col, primary.Formula, primary.Display)
		if err != nil {
			return nil, fmt.Errorf("write cell %d,%d: %w", row, col, err)
		}
	}

	updates := []UpdatedCell{{
		Row:        row,
		Col:        col,
		OldDisplay: old.Display,
		Display:    primary.Display,
		Formula:    primary.Formula,
		SheetIndex: -1,
	}}
	deps, err := s.dependentsOf(row, col)
	if err != nil {
		return nil, err
	}
	return append(updates, deps...), nil
}

func (s *SQLite) ShiftFormulaForFill(formula string, rowDelta, colDelta int) (string, error) {
	return ShiftFormula(formula, rowDelta, colDelta), nil
}

func (s *SQLite) GetMergeInfo(row, col int) (*MergeRegion, error) {
	var r MergeRegion
	err := s.db.QueryRow(`SELECT start_row, start_col, end_row, end_col FROM merges
		WHERE sheet = ? AND start_row <= ? AND end_row >= ? AND start_col <= ? AND end_col >= ?`,
		s.active, row, row, col, col).Scan(&r.StartRow, &r.StartCol, &r.EndRow, &r.EndCol)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("merge info %d,%d: %w", row, col, err)
	}
	return &r, nil
}

func (s *SQLite) SetActiveSheet(index int) error {
	if index < 0 || index >= len(s.names) {
		return fmt.Errorf("set active sheet: no sheet %d", index)
	}
	s.active = index
	return nil
}

func (s *SQLite) dependentsOf(row, col int) ([]UpdatedCell, error) {
	rows, err := s.db.Query(`SELECT sheet, row, col, formula, display FROM cells WHERE formula != ''`)
	if err != nil {
		return nil, fmt.Errorf("scan dependents: %w", err)
	}
	defer rows.Close()

	activeName := s.names[s.active]
	var out []UpdatedCell
	for rows.Next() {
		var sheet, r, c int
		var formula, display string
		if err := rows.Scan(&sheet, &r, &c, &formula, &display); err != nil {
			return nil, err
		}
		if sheet == s.active && r == row && c == col {
			continue
		}
		ownName := activeName
		if sheet >= 0 && sheet < len(s.names) {
			ownName = s.names[sheet]
		}
		if !formulaReferences(formula, ownName, activeName, row, col) {
			continue
		}
		u := UpdatedCell{Row: r, Col: c, OldDisplay: display, Display: display, Formula: formula, SheetIndex: -1}
		if sheet != s.active {
			u.SheetIndex = sheet
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
