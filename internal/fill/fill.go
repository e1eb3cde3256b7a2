// Package fill implements the fill handle: pattern inference over a source
// run, formula shifting through the engine, directional fill and the
// double-click fill-to-edge.
package fill

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/DanielSallander/Calcula-sub003/internal/backend"
	"github.com/DanielSallander/Calcula-sub003/internal/events"
)

// Direction of a fill drag, away from the selection edge.
type Direction int

const (
	Down Direction = iota
	Up
	Right
	Left
)

// Rect is a 0-based inclusive cell rectangle.
type Rect struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// PatternKind classifies what a source run of non-formula values implies
// for the generated cells.
type PatternKind int

const (
	// Copy repeats the source run cyclically.
	Copy PatternKind = iota
	// Series continues an arithmetic progression.
	Series
	// TextIncrement continues a <text><digits> suffix progression.
	TextIncrement
)

// Pattern is the inferred rule for one source run, consumed immediately by
// the fill that detected it.
type Pattern struct {
	Kind    PatternKind
	Values  []string // the observed run, for Copy
	Base    float64  // last numeric value, for Series
	Step    float64
	Prefix  string // for TextIncrement
	Last    int    // last numeric suffix
	IntStep int
}

var textNumberRe = regexp.MustCompile(`^(.*[^0-9])([0-9]+)$`)

// numTolerance bounds the difference drift accepted when inferring a
// series from floating-point values.
const numTolerance = 1e-9

// DetectPattern infers the fill rule for a run of non-formula values.
// A lone number copies (never a series); a lone <text><digits> value seeds
// a step-1 text increment; uniform numeric differences make a series;
// uniform same-prefix suffix steps make a text increment; anything else
// copies the run cyclically.
func DetectPattern(values []string) Pattern {
	if len(values) == 0 {
		return Pattern{Kind: Copy, Values: []string{""}}
	}
	if len(values) == 1 {
		v := values[0]
		if m := textNumberRe.FindStringSubmatch(v); m != nil {
			n, err := strconv.Atoi(m[2])
			if err == nil {
				return Pattern{Kind: TextIncrement, Prefix: m[1], Last: n, IntStep: 1}
			}
		}
		return Pattern{Kind: Copy, Values: values}
	}

	if nums, ok := parseAllNumbers(values); ok {
		step := nums[1] - nums[0]
		uniform := true
		for i := 2; i < len(nums); i++ {
			if math.Abs((nums[i]-nums[i-1])-step) > numTolerance {
				uniform = false
				break
			}
		}
		if uniform {
			return Pattern{Kind: Series, Base: nums[len(nums)-1], Step: step}
		}
		return Pattern{Kind: Copy, Values: values}
	}

	if prefix, suffixes, ok := parseAllTextNumbers(values); ok {
		step := suffixes[1] - suffixes[0]
		uniform := true
		for i := 2; i < len(suffixes); i++ {
			if suffixes[i]-suffixes[i-1] != step {
				uniform = false
				break
			}
		}
		if uniform {
			return Pattern{Kind: TextIncrement, Prefix: prefix, Last: suffixes[len(suffixes)-1], IntStep: step}
		}
	}

	return Pattern{Kind: Copy, Values: values}
}

// Next produces the i-th generated value (0-based) past the end of the run.
func (p Pattern) Next(i int) string {
	switch p.Kind {
	case Series:
		return formatNumber(p.Base + p.Step*float64(i+1))
	case TextIncrement:
		return p.Prefix + strconv.Itoa(p.Last+p.IntStep*(i+1))
	default:
		return p.Values[i%len(p.Values)]
	}
}

func parseAllNumbers(values []string) ([]float64, bool) {
	nums := make([]float64, len(values))
	for i, v := range values {
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}

func parseAllTextNumbers(values []string) (string, []int, bool) {
	prefix := ""
	suffixes := make([]int, len(values))
	for i, v := range values {
		m := textNumberRe.FindStringSubmatch(v)
		if m == nil {
			return "", nil, false
		}
		if i == 0 {
			prefix = m[1]
		} else if m[1] != prefix {
			return "", nil, false
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return "", nil, false
		}
		suffixes[i] = n
	}
	return prefix, suffixes, true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Engine applies fills through the same engine write primitive as manual
// edits, emitting the same per-cell refresh events.
type Engine struct {
	backend backend.Backend
	bus     *events.Bus
}

func NewEngine(b backend.Backend, bus *events.Bus) *Engine {
	return &Engine{backend: b, bus: bus}
}

// Fill extends the source selection count cells in the given direction.
// Vertical fills treat each column independently, horizontal fills each
// row; formula cells shift through the engine while literal runs follow
// the detected pattern.
func (e *Engine) Fill(src Rect, dir Direction, count int) error {
	if count <= 0 {
		return nil
	}
	switch dir {
	case Down, Up:
		for col := src.StartCol; col <= src.EndCol; col++ {
			if err := e.fillLine(lineOf(src, dir, col), dir, count); err != nil {
				return err
			}
		}
	case Right, Left:
		for row := src.StartRow; row <= src.EndRow; row++ {
			if err := e.fillLine(lineOf(src, dir, row), dir, count); err != nil {
				return err
			}
		}
	}
	return nil
}

// AutoFillToEdge is the double-click behavior: the fill depth is taken
// from the contiguous data run in the column left of the selection (or
// right of it when the left one is empty), and the selection is filled
// down to match. No neighbor data means no fill.
func (e *Engine) AutoFillToEdge(src Rect) (int, error) {
	depth := e.neighborDepth(src, src.StartCol-1)
	if depth == 0 {
		depth = e.neighborDepth(src, src.EndCol+1)
	}
	if depth == 0 {
		return 0, nil
	}
	return depth, e.Fill(src, Down, depth)
}

func (e *Engine) neighborDepth(src Rect, col int) int {
	if col < 0 {
		return 0
	}
	depth := 0
	for row := src.EndRow + 1; ; row++ {
		cell, err := e.backend.GetCell(row, col)
		if err != nil || cell.Display == "" {
			break
		}
		depth++
	}
	return depth
}

// line is one column (for vertical fills) or row (for horizontal) of the
// source selection, ordered from the selection edge outward.
type line struct {
	cells []backend.Cell
	poss  []cellPos
}

type cellPos struct{ row, col int }

func lineOf(src Rect, dir Direction, fixed int) func(e *Engine) line {
	return func(e *Engine) line {
		var l line
		add := func(row, col int) {
			cell, err := e.backend.GetCell(row, col)
			if err != nil {
				cell = backend.Cell{}
			}
			l.cells = append(l.cells, cell)
			l.poss = append(l.poss, cellPos{row, col})
		}
		switch dir {
		case Down:
			for row := src.StartRow; row <= src.EndRow; row++ {
				add(row, fixed)
			}
		case Up:
			// mirror: the far edge is the effective source origin
			for row := src.EndRow; row >= src.StartRow; row-- {
				add(row, fixed)
			}
		case Right:
			for col := src.StartCol; col <= src.EndCol; col++ {
				add(fixed, col)
			}
		case Left:
			for col := src.EndCol; col >= src.StartCol; col-- {
				add(fixed, col)
			}
		}
		return l
	}
}

func (e *Engine) fillLine(load func(*Engine) line, dir Direction, count int) error {
	l := load(e)
	run := l.cells
	n := len(run)
	if n == 0 {
		return nil
	}

	// pattern inference sees only the literal values; formulas are
	// handled per cell by the engine's shifter
	var literals []string
	for _, c := range run {
		if c.Formula == "" {
			literals = append(literals, c.Display)
		}
	}
	pat := DetectPattern(literals)
	allLiteral := len(literals) == n

	for i := 0; i < count; i++ {
		srcIdx := i % n
		source := run[srcIdx]
		srcPos := l.poss[srcIdx]
		target := stepFrom(l.poss[n-1], dir, i+1)
		if target.row < 0 || target.col < 0 {
			break
		}

		var text string
		if source.Formula != "" {
			text = e.shiftedFormula(source.Formula, target.row-srcPos.row, target.col-srcPos.col)
		} else if allLiteral && pat.Kind != Copy {
			text = pat.Next(i)
		} else {
			text = source.Display
		}
		if err := e.write(target.row, target.col, text); err != nil {
			return err
		}
	}
	return nil
}

// shiftedFormula asks the engine to move the formula's relative references
// by the target offset; a shift failure degrades to a verbatim copy so the
// rest of the fill still lands.
func (e *Engine) shiftedFormula(formula string, rowDelta, colDelta int) string {
	shifted, err := e.backend.ShiftFormulaForFill(formula, rowDelta, colDelta)
	if err != nil {
		return formula
	}
	return shifted
}

func (e *Engine) write(row, col int, text string) error {
	updates, err := e.backend.UpdateCell(row, col, text)
	if err != nil {
		return fmt.Errorf("fill write %d,%d: %w", row, col, err)
	}
	for i, u := range updates {
		if i > 0 && u.SheetIndex >= 0 {
			continue // cross-sheet dependents refresh on activation
		}
		e.bus.Publish(events.CellChanged{
			Row:        u.Row,
			Col:        u.Col,
			OldDisplay: u.OldDisplay,
			NewDisplay: u.Display,
			Formula:    u.Formula,
		})
	}
	return nil
}

func stepFrom(edge cellPos, dir Direction, dist int) cellPos {
	switch dir {
	case Down:
		return cellPos{edge.row + dist, edge.col}
	case Up:
		return cellPos{edge.row - dist, edge.col}
	case Right:
		return cellPos{edge.row, edge.col + dist}
	default:
		return cellPos{edge.row, edge.col - dist}
	}
}
