// Package backend is the editing core's contract with the formula engine.
// The engine owns evaluation and storage; this layer only reads cells,
// writes committed text, and asks for formula shifts. Two implementations
// are provided: an in-memory store and a sqlite-backed one.
package backend

import "errors"

// Cell is the fetched content of one cell. Formula is empty for literal
// cells; Display is what the grid shows.
type Cell struct {
	Formula string
	Display string
}

// Input returns what the editor should start from: the formula when there is
// one, the display text otherwise.
func (c Cell) Input() string {
	if c.Formula != "" {
		return c.Formula
	}
	return c.Display
}

// UpdatedCell is one element of an UpdateCell result. The first element is
// always the primary (written) cell; the rest are recalculated dependents.
// SheetIndex is -1 for cells on the active sheet and the owning sheet's
// index otherwise.
type UpdatedCell struct {
	Row        int
	Col        int
	OldDisplay string
	Display    string
	Formula    string
	SheetIndex int
}

// MergeRegion is the extent of a merged cell block, anchored at its
// top-left master cell.
type MergeRegion struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

func (m MergeRegion) Contains(row, col int) bool {
	return row >= m.StartRow && row <= m.EndRow && col >= m.StartCol && col <= m.EndCol
}

// ErrNoCell is returned by GetCell for cells the engine has no record of.
// Callers treat it as "empty".
var ErrNoCell = errors.New("no such cell")

// Backend is the narrow surface the editing core consumes. All methods are
// synchronous; the caller serializes access from its event loop.
type Backend interface {
	// GetCell fetches one cell from the active sheet.
	GetCell(row, col int) (Cell, error)

	// UpdateCell writes text (literal or formula) to a cell on the active
	// sheet and returns the primary cell followed by its recalculated
	// dependents, cross-sheet dependents tagged with their sheet index.
	UpdateCell(row, col int, text string) ([]UpdatedCell, error)

	// ShiftFormulaForFill rewrites a formula's relative references by the
	// given deltas; $-marked axes do not move.
	ShiftFormulaForFill(formula string, rowDelta, colDelta int) (string, error)

	// GetMergeInfo returns the merged region containing the cell, or nil.
	GetMergeInfo(row, col int) (*MergeRegion, error)

	// SetActiveSheet switches the engine's active sheet.
	SetActiveSheet(index int) error
}
