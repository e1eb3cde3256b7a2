// Package tui is the terminal front end for the editing core: a grid view,
// a formula bar, reference highlights, and fill-handle bindings, all
// driving the session controller.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DanielSallander/Calcula-sub003/internal/backend"
	"github.com/DanielSallander/Calcula-sub003/internal/events"
	"github.com/DanielSallander/Calcula-sub003/internal/fill"
	"github.com/DanielSallander/Calcula-sub003/internal/refs"
	"github.com/DanielSallander/Calcula-sub003/internal/session"
)

type cellKey struct{ row, col int }

// Model is the bubbletea model for the spreadsheet shell.
type Model struct {
	width  int
	height int
	err    error
	notice string

	backend backend.Backend
	store   *backend.Memory // non-nil when the workbook can be saved
	docPath string

	state  *session.State
	sheets *session.Sheets
	ctrl   *session.Controller
	filler *fill.Engine
	bus    *events.Bus

	cur     session.CellPos
	anchor  session.CellPos // selection anchor for shift-extension
	scrollR int
	scrollC int
	dirty   bool

	input textinput.Model

	// display cache for the active sheet, refreshed by cell-changed
	// events and invalidated on sheet switches
	cells map[cellKey]string

	dragging bool
	resizing bool
}

// Config carries the pieces the shell is built from.
type Config struct {
	Backend    backend.Backend
	Store      *backend.Memory
	DocPath    string
	SheetNames []string
}

// New wires the editing core to a fresh shell model.
func New(cfg Config) *Model {
	bus := events.NewBus()
	state := session.NewState()
	sheets := session.NewSheets(cfg.Backend, bus, cfg.SheetNames, 0)
	ctrl := session.NewController(cfg.Backend, state, bus, sheets)

	ti := textinput.New()
	ti.Prompt = ""

	m := &Model{
		backend: cfg.Backend,
		store:   cfg.Store,
		docPath: cfg.DocPath,
		state:   state,
		sheets:  sheets,
		ctrl:    ctrl,
		filler:  fill.NewEngine(cfg.Backend, bus),
		bus:     bus,
		input:   ti,
		cells:   make(map[cellKey]string),
	}

	ctrl.OnSelectionChange(func(startRow, startCol, endRow, endCol int) {
		m.cur = session.CellPos{Row: startRow, Col: startCol}
		m.anchor = session.CellPos{Row: endRow, Col: endCol}
	})

	bus.Subscribe(func(ev events.Event) {
		switch e := ev.(type) {
		case events.CellChanged:
			m.cells[cellKey{e.Row, e.Col}] = e.NewDisplay
		case events.SheetSwitched:
			clear(m.cells)
		}
	})
	return m
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case tea.KeyMsg:
		if m.state.IsEditing() {
			return m.updateEdit(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1, 0, false)
	case "down", "j":
		m.moveCursor(1, 0, false)
	case "left", "h":
		m.moveCursor(0, -1, false)
	case "right", "l":
		m.moveCursor(0, 1, false)
	case "shift+up":
		m.moveCursor(-1, 0, true)
	case "shift+down":
		m.moveCursor(1, 0, true)
	case "shift+left":
		m.moveCursor(0, -1, true)
	case "shift+right":
		m.moveCursor(0, 1, true)
	case "ctrl+home":
		m.cur = session.CellPos{}
		m.anchor = m.cur
	case "enter", "f2":
		m.ctrl.StartEdit(m.cur.Row, m.cur.Col)
		m.syncInput()
	case "backspace", "delete":
		if _, err := m.backend.UpdateCell(m.cur.Row, m.cur.Col, ""); err == nil {
			delete(m.cells, cellKey{m.cur.Row, m.cur.Col})
			m.dirty = true
		}
	case "ctrl+d":
		m.fillSelection(fill.Down)
	case "ctrl+u":
		m.fillSelection(fill.Up)
	case "ctrl+r":
		m.fillSelection(fill.Right)
	case "ctrl+l":
		m.fillSelection(fill.Left)
	case "ctrl+e":
		if n, err := m.filler.AutoFillToEdge(m.selection()); err != nil {
			m.err = err
		} else if n > 0 {
			m.dirty = true
		}
	case "[":
		m.switchSheet(-1)
	case "]":
		m.switchSheet(1)
	case "ctrl+s":
		m.save()
	default:
		s := msg.String()
		if len([]rune(s)) == 1 {
			m.ctrl.ReplaceCurrentCell(m.cur.Row, m.cur.Col, s)
			m.syncInput()
		}
	}
	if msg := m.ctrl.Message(); msg != "" {
		m.notice = msg
	}
	return m, nil
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		res := m.ctrl.CommitEdit()
		if res.Retry {
			return m, nil
		}
		if res.Err != nil {
			m.err = res.Err
		}
		if res.Committed {
			m.dirty = true
			m.moveCursor(1, 0, false)
		}
		return m, nil
	case "esc":
		m.ctrl.CancelEdit()
		return m, nil
	case "up", "down", "left", "right", "shift+up", "shift+down", "shift+left", "shift+right":
		dir, extend := arrowFor(msg.String())
		m.ctrl.NavigateReferenceWithArrow(dir, extend)
		m.syncInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.state.Value() {
		m.ctrl.UpdateValue(m.input.Value())
	}
	return m, cmd
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	pos, ok := m.cellAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if m.state.IsEditing() {
			if msg.Alt && m.ctrl.StartRefResize(pos.Row, pos.Col) {
				m.resizing = true
				return m, nil
			}
			if m.ctrl.StartRefDrag(pos.Row, pos.Col) {
				m.dragging = true
				return m, nil
			}
			if refs.ExpectsReference(m.state.Value()) {
				m.ctrl.InsertReference(pos.Row, pos.Col)
				m.syncInput()
				return m, nil
			}
			// clicking elsewhere commits and moves
			m.ctrl.CommitEdit()
		}
		m.cur, m.anchor = pos, pos
	case tea.MouseActionMotion:
		if m.resizing {
			m.ctrl.UpdateRefResize(pos.Row, pos.Col)
		} else if m.dragging {
			m.ctrl.UpdateRefDrag(pos.Row, pos.Col)
		}
	case tea.MouseActionRelease:
		if m.resizing {
			m.ctrl.CompleteRefResize()
			m.resizing = false
			m.syncInput()
		} else if m.dragging {
			m.ctrl.CompleteRefDrag()
			m.dragging = false
			m.syncInput()
		}
	}
	return m, nil
}

func (m *Model) moveCursor(dr, dc int, extend bool) {
	m.cur.Row = max(0, m.cur.Row+dr)
	m.cur.Col = max(0, m.cur.Col+dc)
	if !extend {
		m.anchor = m.cur
	}
}

func (m *Model) selection() fill.Rect {
	return fill.Rect{
		StartRow: min(m.anchor.Row, m.cur.Row),
		StartCol: min(m.anchor.Col, m.cur.Col),
		EndRow:   max(m.anchor.Row, m.cur.Row),
		EndCol:   max(m.anchor.Col, m.cur.Col),
	}
}

func (m *Model) fillSelection(dir fill.Direction) {
	if err := m.filler.Fill(m.selection(), dir, 1); err != nil {
		m.err = err
		return
	}
	m.dirty = true
	// walk the selection along so repeated presses continue the series
	switch dir {
	case fill.Down:
		m.cur.Row++
	case fill.Up:
		if min(m.anchor.Row, m.cur.Row) > 0 {
			m.anchor.Row--
		}
	case fill.Right:
		m.cur.Col++
	case fill.Left:
		if min(m.anchor.Col, m.cur.Col) > 0 {
			m.anchor.Col--
		}
	}
}

func (m *Model) switchSheet(delta int) {
	idx, _ := m.sheets.Active()
	next := idx + delta
	if next < 0 || next >= m.sheets.Count() {
		return
	}
	if err := m.sheets.Activate(next); err != nil {
		m.err = err
	}
}

func (m *Model) save() {
	if m.store == nil || m.docPath == "" || !m.dirty {
		return
	}
	if err := backend.SaveWorkbook(m.store, m.docPath); err != nil {
		m.err = err
		return
	}
	m.dirty = false
	m.notice = "saved"
}

// syncInput pushes the controller's draft into the formula bar after any
// operation that rewrites it outside normal typing.
func (m *Model) syncInput() {
	if !m.state.IsEditing() {
		m.input.Blur()
		m.input.SetValue("")
		return
	}
	m.input.SetValue(m.state.Value())
	m.input.CursorEnd()
	m.input.Focus()
}

// display returns a cell's text, via the event-fed cache when possible.
func (m *Model) display(row, col int) string {
	if s, ok := m.cells[cellKey{row, col}]; ok {
		return s
	}
	cell, err := m.backend.GetCell(row, col)
	if err != nil {
		m.cells[cellKey{row, col}] = ""
		return ""
	}
	m.cells[cellKey{row, col}] = cell.Display
	return cell.Display
}

func arrowFor(key string) (session.Direction, bool) {
	extend := strings.HasPrefix(key, "shift+")
	switch strings.TrimPrefix(key, "shift+") {
	case "up":
		return session.DirUp, extend
	case "down":
		return session.DirDown, extend
	case "left":
		return session.DirLeft, extend
	default:
		return session.DirRight, extend
	}
}
