package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/automerge/automerge-go"
)

// Workbook persistence on automerge documents: a snapshot directory plus
// optional incremental change files, the same layout the wider app uses for
// its documents. The doc shape is
//
//	{type: "workbook", sheets: [{name, cells: [{row, col, text}],
//	 merges: [{start_row, start_col, end_row, end_col}]}]}

// LoadWorkbook reads an automerge workbook directory into a Memory store.
func LoadWorkbook(docPath string) (*Memory, error) {
	doc, err := loadDoc(docPath)
	if err != nil {
		return nil, err
	}

	sheetsVal, err := doc.Path("sheets").Get()
	if err != nil || sheetsVal.Kind() != automerge.KindList {
		return nil, fmt.Errorf("load workbook %s: no sheets list", docPath)
	}
	sheetsList := sheetsVal.List()

	var names []string
	for i := 0; i < sheetsList.Len(); i++ {
		v, err := sheetsList.Get(i)
		if err != nil || v.Kind() != automerge.KindMap {
			continue
		}
		name := docStr(v.Map(), "name")
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("load workbook %s: empty sheets list", docPath)
	}
	m := NewMemory(names...)

	for i := 0; i < sheetsList.Len(); i++ {
		v, err := sheetsList.Get(i)
		if err != nil || v.Kind() != automerge.KindMap {
			continue
		}
		sheetMap := v.Map()

		if cv, err := sheetMap.Get("cells"); err == nil && cv.Kind() == automerge.KindList {
			cells := cv.List()
			for j := 0; j < cells.Len(); j++ {
				cellVal, err := cells.Get(j)
				if err != nil || cellVal.Kind() != automerge.KindMap {
					continue
				}
				cm := cellVal.Map()
				m.Seed(i, docInt(cm, "row"), docInt(cm, "col"), docStr(cm, "text"))
			}
		}
		if mv, err := sheetMap.Get("merges"); err == nil && mv.Kind() == automerge.KindList {
			merges := mv.List()
			for j := 0; j < merges.Len(); j++ {
				mergeVal, err := merges.Get(j)
				if err != nil || mergeVal.Kind() != automerge.KindMap {
					continue
				}
				mm := mergeVal.Map()
				m.AddMerge(i, MergeRegion{
					StartRow: docInt(mm, "start_row"),
					StartCol: docInt(mm, "start_col"),
					EndRow:   docInt(mm, "end_row"),
					EndCol:   docInt(mm, "end_col"),
				})
			}
		}
	}
	return m, nil
}

// SaveWorkbook writes a Memory store as a fresh snapshot, superseding any
// existing snapshot and incremental files.
func SaveWorkbook(m *Memory, docPath string) error {
	doc := automerge.New()
	if err := doc.Path("type").Set("workbook"); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := doc.Path("sheets").Set(automerge.NewList()); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	for i, sheet := range m.sheets {
		doc.Path("sheets").List().Append(automerge.NewMap())
		doc.Path("sheets", i, "name").Set(sheet.name)
		doc.Path("sheets", i, "cells").Set(automerge.NewList())
		j := 0
		for key, c := range sheet.cells {
			text := c.Formula
			if text == "" {
				text = c.Display
			}
			doc.Path("sheets", i, "cells").List().Append(automerge.NewMap())
			doc.Path("sheets", i, "cells", j, "row").Set(int64(key.row))
			doc.Path("sheets", i, "cells", j, "col").Set(int64(key.col))
			doc.Path("sheets", i, "cells", j, "text").Set(text)
			j++
		}
		doc.Path("sheets", i, "merges").Set(automerge.NewList())
		for k, region := range sheet.merges {
			doc.Path("sheets", i, "merges").List().Append(automerge.NewMap())
			doc.Path("sheets", i, "merges", k, "start_row").Set(int64(region.StartRow))
			doc.Path("sheets", i, "merges", k, "start_col").Set(int64(region.StartCol))
			doc.Path("sheets", i, "merges", k, "end_row").Set(int64(region.EndRow))
			doc.Path("sheets", i, "merges", k, "end_col").Set(int64(region.EndCol))
		}
	}
	doc.Commit("save workbook")
	return saveDoc(doc, docPath)
}

// SeedDemo fills sheet 0 with a small sales table so the grid starts
// usable without any document.
func SeedDemo(m *Memory) {
	m.Seed(0, 0, 0, "Item")
	m.Seed(0, 0, 1, "Q1")
	m.Seed(0, 0, 2, "Q2")
	items := []string{"Widgets", "Gadgets", "Gizmos"}
	q1 := []string{"120", "85", "240"}
	q2 := []string{"150", "90", "310"}
	for i := range items {
		m.Seed(0, i+1, 0, items[i])
		m.Seed(0, i+1, 1, q1[i])
		m.Seed(0, i+1, 2, q2[i])
	}
	m.Seed(0, 4, 0, "Total")
	m.Seed(0, 4, 1, "=SUM(B2:B4)")
	m.Seed(0, 4, 2, "=SUM(C2:C4)")
}

func loadDoc(docPath string) (*automerge.Doc, error) {
	var doc *automerge.Doc

	snapDir := filepath.Join(docPath, "snapshot")
	if entries, err := os.ReadDir(snapDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			data, err := os.ReadFile(filepath.Join(snapDir, e.Name()))
			if err != nil {
				continue
			}
			doc, err = automerge.Load(data)
			if err != nil {
				return nil, fmt.Errorf("load snapshot: %w", err)
			}
			break // only one snapshot
		}
	}

	incDir := filepath.Join(docPath, "incremental")
	if entries, err := os.ReadDir(incDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			data, err := os.ReadFile(filepath.Join(incDir, e.Name()))
			if err != nil {
				continue
			}
			if doc == nil {
				doc, err = automerge.Load(data)
				if err != nil {
					return nil, fmt.Errorf("load incremental as doc: %w", err)
				}
			} else {
				doc.LoadIncremental(data)
			}
		}
	}

	if doc == nil {
		return nil, fmt.Errorf("no data found in %s", docPath)
	}
	return doc, nil
}

func saveDoc(doc *automerge.Doc, docPath string) error {
	data := doc.Save()
	snapDir := filepath.Join(docPath, "snapshot")
	if err := os.MkdirAll(snapDir, 0755); err != nil {
		return fmt.Errorf("save doc: %w", err)
	}

	if entries, err := os.ReadDir(snapDir); err == nil {
		for _, e := range entries {
			os.Remove(filepath.Join(snapDir, e.Name()))
		}
	}
	incDir := filepath.Join(docPath, "incremental")
	if entries, err := os.ReadDir(incDir); err == nil {
		for _, e := range entries {
			os.Remove(filepath.Join(incDir, e.Name()))
		}
	}
	os.Remove(incDir)

	return os.WriteFile(filepath.Join(snapDir, "save"), data, 0644)
}

func docStr(m *automerge.Map, key string) string {
	v, err := m.Get(key)
	if err != nil {
		return ""
	}
	switch v.Kind() {
	case automerge.KindStr:
		return v.Str()
	case automerge.KindText:
		s, _ := v.Text().Get()
		return s
	default:
		return ""
	}
}

func docInt(m *automerge.Map, key string) int {
	v, err := m.Get(key)
	if err != nil {
		return 0
	}
	switch v.Kind() {
	case automerge.KindInt64:
		return int(v.Int64())
	case automerge.KindUint64:
		return int(v.Uint64())
	case automerge.KindFloat64:
		return int(v.Float64())
	default:
		return 0
	}
}
