package backend

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T, names ...string) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cells.db"), names...)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteUpdateAndGet(t *testing.T) {
	s := openTestDB(t)

	updates, err := s.UpdateCell(1, 2, "hello")
	if err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	if len(updates) != 1 || updates[0].Display != "hello" || updates[0].SheetIndex != -1 {
		t.Fatalf("updates = %+v", updates)
	}

	cell, err := s.GetCell(1, 2)
	if err != nil {
		t.Fatalf("GetCell: %v", err)
	}
	if cell.Display != "hello" {
		t.Errorf("cell = %+v", cell)
	}

	if _, err := s.GetCell(9, 9); !errors.Is(err, ErrNoCell) {
		t.Errorf("missing cell err = %v, want ErrNoCell", err)
	}
}

func TestSQLiteOldDisplayAndDelete(t *testing.T) {
	s := openTestDB(t)
	s.UpdateCell(0, 0, "first")

	updates, err := s.UpdateCell(0, 0, "second")
	if err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	if updates[0].OldDisplay != "first" {
		t.Errorf("OldDisplay = %q, want first", updates[0].OldDisplay)
	}

	if _, err := s.UpdateCell(0, 0, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.GetCell(0, 0); !errors.Is(err, ErrNoCell) {
		t.Error("cell should be gone after empty write")
	}
}

func TestSQLiteDependents(t *testing.T) {
	s := openTestDB(t, "Sheet1", "Sheet2")
	s.Seed(0, 0, 1, "=A1")
	s.Seed(1, 2, 2, "=Sheet1!A1")

	updates, err := s.UpdateCell(0, 0, "42")
	if err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("updates = %d, want primary + 2 dependents", len(updates))
	}
	var crossSheet bool
	for _, u := range updates[1:] {
		if u.SheetIndex == 1 {
			crossSheet = true
		}
	}
	if !crossSheet {
		t.Error("cross-sheet dependent not tagged with its sheet index")
	}
}

func TestSQLiteMerges(t *testing.T) {
	s := openTestDB(t)
	region := MergeRegion{StartRow: 3, StartCol: 3, EndRow: 4, EndCol: 4}
	if err := s.AddMerge(0, region); err != nil {
		t.Fatalf("AddMerge: %v", err)
	}
	if err := s.AddMerge(0, MergeRegion{StartRow: 4, StartCol: 4, EndRow: 5, EndCol: 5}); err == nil {
		t.Error("overlapping merge should be rejected")
	}

	mi, err := s.GetMergeInfo(3, 4)
	if err != nil || mi == nil || *mi != region {
		t.Errorf("GetMergeInfo = %v, %v", mi, err)
	}
	mi, err = s.GetMergeInfo(0, 0)
	if err != nil || mi != nil {
		t.Errorf("unmerged cell should return nil, got %v, %v", mi, err)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.db")
	s, err := OpenSQLite(path, "Budget", "Notes")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	s.UpdateCell(0, 0, "persisted")
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	// registered names win over the reopen defaults
	if got := s.SheetNames(); len(got) != 2 || got[0] != "Budget" {
		t.Errorf("SheetNames = %v", got)
	}
	cell, err := s.GetCell(0, 0)
	if err != nil || cell.Display != "persisted" {
		t.Errorf("GetCell = %+v, %v", cell, err)
	}
}

func TestSQLiteSheetIsolation(t *testing.T) {
	s := openTestDB(t, "Sheet1", "Sheet2")
	s.UpdateCell(0, 0, "on sheet1")
	if err := s.SetActiveSheet(1); err != nil {
		t.Fatalf("SetActiveSheet: %v", err)
	}
	if _, err := s.GetCell(0, 0); !errors.Is(err, ErrNoCell) {
		t.Error("sheet switch should isolate cells")
	}
}
