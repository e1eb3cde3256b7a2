package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DanielSallander/Calcula-sub003/internal/backend"
)

func newTestModel(store *backend.Memory) *Model {
	m := New(Config{Backend: store, Store: store, SheetNames: store.SheetNames()})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func press(m *Model, keys ...tea.KeyMsg) {
	for _, k := range keys {
		m.Update(k)
	}
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) []tea.KeyMsg {
	var out []tea.KeyMsg
	for _, r := range s {
		out = append(out, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return out
}

func TestTypeAndCommit(t *testing.T) {
	store := backend.NewMemory()
	m := newTestModel(store)

	press(m, runes("hi")...)
	if !m.state.IsEditing() {
		t.Fatal("typing should start an edit")
	}
	press(m, key(tea.KeyEnter))

	cell, err := store.GetCell(0, 0)
	if err != nil || cell.Display != "hi" {
		t.Errorf("cell = %+v, %v", cell, err)
	}
	if m.state.IsEditing() {
		t.Error("commit should leave edit mode")
	}
	if m.cur.Row != 1 {
		t.Errorf("cursor row = %d, commit should move down", m.cur.Row)
	}
}

func TestEscapeCancelsEdit(t *testing.T) {
	store := backend.NewMemory()
	store.Seed(0, 0, 0, "keep")
	m := newTestModel(store)

	press(m, key(tea.KeyEnter)) // open the cell
	press(m, runes("scratch")...)
	press(m, key(tea.KeyEsc))

	cell, err := store.GetCell(0, 0)
	if err != nil || cell.Display != "keep" {
		t.Errorf("cell = %+v, %v", cell, err)
	}
	if m.state.IsEditing() {
		t.Error("escape should leave edit mode")
	}
}

func TestArrowPointsReferenceWhileEditing(t *testing.T) {
	store := backend.NewMemory()
	m := newTestModel(store)

	press(m, runes("=")...)
	press(m, key(tea.KeyDown))
	if got := m.state.Value(); got != "=A2" {
		t.Errorf("value = %q, want =A2", got)
	}
	if m.input.Value() != "=A2" {
		t.Errorf("formula bar = %q, want =A2", m.input.Value())
	}

	press(m, key(tea.KeyEnter))
	cell, err := store.GetCell(0, 0)
	if err != nil || cell.Formula != "=A2" {
		t.Errorf("cell = %+v, %v", cell, err)
	}
}

func TestFillDownKeybinding(t *testing.T) {
	store := backend.NewMemory()
	store.Seed(0, 0, 0, "1")
	store.Seed(0, 1, 0, "2")
	m := newTestModel(store)

	press(m, key(tea.KeyShiftDown)) // select A1:A2
	press(m, key(tea.KeyCtrlD))

	cell, err := store.GetCell(2, 0)
	if err != nil || cell.Display != "3" {
		t.Errorf("cell = %+v, %v", cell, err)
	}
}

func TestSheetSwitchClearsCache(t *testing.T) {
	store := backend.NewMemory("Sheet1", "Sheet2")
	store.Seed(0, 0, 0, "alpha")
	m := newTestModel(store)

	if got := m.display(0, 0); got != "alpha" {
		t.Fatalf("display = %q", got)
	}
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	if got := m.display(0, 0); got != "" {
		t.Errorf("display on Sheet2 = %q, want empty", got)
	}
}

func TestViewRendersGrid(t *testing.T) {
	store := backend.NewMemory()
	backend.SeedDemo(store)
	m := newTestModel(store)

	out := m.View()
	if !strings.Contains(out, "calcula") {
		t.Error("title missing")
	}
	if !strings.Contains(out, "Item") || !strings.Contains(out, "Widgets") {
		t.Error("seeded cells not rendered")
	}
	if !strings.Contains(out, "NORMAL") {
		t.Error("status line missing")
	}
}

func TestMouseClickInsertsReference(t *testing.T) {
	store := backend.NewMemory()
	m := newTestModel(store)

	press(m, runes("=")...)
	m.Update(tea.MouseMsg{
		X:      rowNumW + colWidth + 1, // column B
		Y:      gridTop + 2,            // row 3
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
	if got := m.state.Value(); got != "=B3" {
		t.Errorf("value = %q, want =B3", got)
	}
}
