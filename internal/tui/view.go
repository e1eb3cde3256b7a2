package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DanielSallander/Calcula-sub003/internal/refs"
	"github.com/DanielSallander/Calcula-sub003/internal/session"
)

const (
	colWidth = 10
	rowNumW  = 4
	// rows above the grid: title, formula bar, column header
	gridTop = 3
	// rows below: status and help
	gridBottom = 2
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	cursorStyle  = lipgloss.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selStyle     = lipgloss.NewStyle().Background(lipgloss.Color("237"))
	passiveStyle = lipgloss.NewStyle().Faint(true)
	barStyle     = lipgloss.NewStyle().Bold(true)
)

func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder

	// title
	_, sheetName := m.sheets.Active()
	b.WriteString(titleStyle.Render(" calcula"))
	b.WriteString(dimStyle.Render("  " + sheetName))
	if m.dirty {
		b.WriteString(" *")
	}
	b.WriteString("\n")

	b.WriteString(m.viewFormulaBar())
	b.WriteString("\n")

	rows, cols := m.gridExtent()
	m.adjustScroll(rows, cols)
	highlights := m.visibleHighlights()

	// column header
	b.WriteString(strings.Repeat(" ", rowNumW))
	for c := m.scrollC; c < m.scrollC+cols; c++ {
		b.WriteString(headerStyle.Render(center(refs.ColumnLabel(c), colWidth)))
	}
	b.WriteString("\n")

	for r := m.scrollR; r < m.scrollR+rows; r++ {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%*d", rowNumW-1, r+1)) + " ")
		for c := m.scrollC; c < m.scrollC+cols; c++ {
			b.WriteString(m.renderCell(r, c, highlights))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.viewStatus())
	return b.String()
}

func (m *Model) viewFormulaBar() string {
	label := refs.ColumnLabel(m.cur.Col) + fmt.Sprint(m.cur.Row+1)
	if sess := m.ctrl.Session(); sess != nil {
		label = refs.ColumnLabel(sess.Col) + fmt.Sprint(sess.Row+1)
		return barStyle.Render(" "+label+" ") + dimStyle.Render("| ") + m.input.View()
	}
	content := m.display(m.cur.Row, m.cur.Col)
	if cell, err := m.backend.GetCell(m.cur.Row, m.cur.Col); err == nil && cell.Formula != "" {
		content = cell.Formula
	}
	return barStyle.Render(" "+label+" ") + dimStyle.Render("| ") + content
}

func (m *Model) viewStatus() string {
	var b strings.Builder
	mode := "NORMAL"
	if m.state.IsEditing() {
		mode = "EDIT"
	}
	status := fmt.Sprintf(" %s%d  %s", refs.ColumnLabel(m.cur.Col), m.cur.Row+1, mode)
	if m.err != nil {
		status += "  " + errorStyle.Render("error: "+m.err.Error())
	} else if m.notice != "" {
		status += "  " + m.notice
	}
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")

	help := " hjkl move  enter edit  ctrl+d/u/r/l fill  ctrl+e fill to edge  [ ] sheet  ctrl+s save  q quit"
	if m.state.IsEditing() {
		help = " enter commit  esc cancel  arrows point  shift+arrows extend  click insert ref"
	}
	b.WriteString(dimStyle.Render(help))
	return b.String()
}

func (m *Model) renderCell(row, col int, highlights []refs.Reference) string {
	var text string
	if sess := m.ctrl.Session(); sess != nil && row == sess.Row && col == sess.Col {
		text = m.state.Value()
	} else {
		text = m.display(row, col)
	}
	cell := pad(text, colWidth)

	if sess := m.ctrl.Session(); sess != nil && row == sess.Row && col == sess.Col {
		return cursorStyle.Render(cell)
	}
	for _, h := range highlights {
		if h.Contains(row, col) {
			st := lipgloss.NewStyle().Background(lipgloss.Color(h.Color))
			if h.Passive {
				st = passiveStyle.Background(lipgloss.Color(h.Color))
			}
			return st.Render(cell)
		}
	}
	if !m.state.IsEditing() {
		if row == m.cur.Row && col == m.cur.Col {
			return cursorStyle.Render(cell)
		}
		sel := m.selection()
		if row >= sel.StartRow && row <= sel.EndRow && col >= sel.StartCol && col <= sel.EndCol {
			return selStyle.Render(cell)
		}
	}
	return cell
}

// visibleHighlights collects the references to paint on the active sheet.
// While editing these come from the live draft; otherwise the cursor cell's
// formula gets passive highlights so its inputs are visible at a glance.
func (m *Model) visibleHighlights() []refs.Reference {
	_, activeName := m.sheets.Active()
	if sess := m.ctrl.Session(); sess != nil {
		var out []refs.Reference
		for _, h := range m.ctrl.Highlights() {
			want := h.SheetName
			if want == "" {
				want = sess.SourceSheetName
			}
			if want == activeName {
				out = append(out, h)
			}
		}
		return out
	}
	cell, err := m.backend.GetCell(m.cur.Row, m.cur.Col)
	if err != nil || !strings.HasPrefix(cell.Formula, "=") {
		return nil
	}
	var out []refs.Reference
	for _, h := range refs.ParsePassive(cell.Formula) {
		if h.SheetName == "" || h.SheetName == activeName {
			out = append(out, h)
		}
	}
	return out
}

func (m *Model) gridExtent() (rows, cols int) {
	rows = max(1, m.height-gridTop-gridBottom)
	cols = max(1, (m.width-rowNumW)/colWidth)
	return rows, cols
}

func (m *Model) adjustScroll(rows, cols int) {
	if m.cur.Row < m.scrollR {
		m.scrollR = m.cur.Row
	}
	if m.cur.Row >= m.scrollR+rows {
		m.scrollR = m.cur.Row - rows + 1
	}
	if m.cur.Col < m.scrollC {
		m.scrollC = m.cur.Col
	}
	if m.cur.Col >= m.scrollC+cols {
		m.scrollC = m.cur.Col - cols + 1
	}
}

// cellAt maps a terminal coordinate to a grid cell.
func (m *Model) cellAt(x, y int) (pos session.CellPos, ok bool) {
	if y < gridTop || x < rowNumW {
		return pos, false
	}
	rows, cols := m.gridExtent()
	r := m.scrollR + (y - gridTop)
	c := m.scrollC + (x-rowNumW)/colWidth
	if r >= m.scrollR+rows || c >= m.scrollC+cols {
		return pos, false
	}
	return session.CellPos{Row: r, Col: c}, true
}

func pad(s string, w int) string {
	if len(s) > w {
		return s[:w-1] + "."
	}
	return fmt.Sprintf("%-*s", w, s)
}

func center(s string, w int) string {
	if len(s) >= w {
		return s[:w]
	}
	left := (w - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", w-len(s)-left)
}
