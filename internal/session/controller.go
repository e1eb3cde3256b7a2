package session

import (
	"github.com/DanielSallander/Calcula-sub003/internal/backend"
	"github.com/DanielSallander/Calcula-sub003/internal/events"
	"github.com/DanielSallander/Calcula-sub003/internal/refs"
)

// ErrorDisplay is the sentinel shown for a cell whose commit failed.
const ErrorDisplay = "#ERROR!"

// Direction is an arrow-navigation step.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// EditingSession is the state of one in-progress cell edit. It exists from
// StartEdit/ReplaceCurrentCell until CommitEdit or CancelEdit and is owned
// exclusively by the Controller.
type EditingSession struct {
	Row int
	Col int

	// Value is the uncommitted draft text. The engine owns the committed
	// value; this is never a cache of it.
	Value string

	// The sheet that was active when editing began. Fixed for the whole
	// session; commits from another sheet switch back here first.
	SourceSheetIndex int
	SourceSheetName  string

	// Merged-cell extent of the target, 1x1 for plain cells.
	RowSpan int
	ColSpan int
}

// CommitResult reports the outcome of CommitEdit. Exactly one of Committed
// and Retry is set on a guard-influenced return; Err is set with the
// ErrorDisplay sentinel when the engine write failed.
type CommitResult struct {
	Committed bool
	Retry     bool
	Display   string
	Err       error
}

// Controller orchestrates edit sessions against the engine: start, live
// updates, reference insertion and gestures, commit and cancel. Methods are
// meant to be driven from a single event loop; the explicit commit guard
// covers the one interleaving that loop allows (a second commit trigger
// while the first's engine call is in flight).
type Controller struct {
	backend     backend.Backend
	state       *State
	bus         *events.Bus
	sheets      *Sheets
	editGuard   EditGuard
	commitGuard CommitGuard
	onSelection func(startRow, startCol, endRow, endCol int)

	sess       *EditingSession
	committing bool
	message    string
	lastErr    error

	// Highlights for the current draft, re-parsed on every text change.
	// Drag/resize preview mutates bounds in place; the next re-parse
	// rebuilds from text.
	parsed []refs.ParsedReference
}

func NewController(b backend.Backend, state *State, bus *events.Bus, sheets *Sheets) *Controller {
	return &Controller{backend: b, state: state, bus: bus, sheets: sheets}
}

// SetEditGuard installs the collaborator that may veto starting an edit.
func (c *Controller) SetEditGuard(g EditGuard) { c.editGuard = g }

// SetCommitGuard installs the collaborator consulted before every write.
func (c *Controller) SetCommitGuard(g CommitGuard) { c.commitGuard = g }

// OnSelectionChange registers the callback used to widen the visible
// selection to a merged region's full extent.
func (c *Controller) OnSelectionChange(fn func(startRow, startCol, endRow, endCol int)) {
	c.onSelection = fn
}

// Session returns the active session, or nil.
func (c *Controller) Session() *EditingSession { return c.sess }

// Message returns and clears the last user-facing notice (edit blocked,
// commit guard feedback).
func (c *Controller) Message() string {
	m := c.message
	c.message = ""
	return m
}

// LastError returns the most recent commit failure, if any.
func (c *Controller) LastError() error { return c.lastErr }

// Highlights returns the reference highlights for the current draft,
// including any live drag/resize preview.
func (c *Controller) Highlights() []refs.Reference {
	out := make([]refs.Reference, len(c.parsed))
	for i, p := range c.parsed {
		out[i] = p.Reference
	}
	return out
}

// StartEdit begins editing a cell, fetching its current text from the
// engine. Merged targets resolve to their top-left master cell.
func (c *Controller) StartEdit(row, col int) {
	c.begin(row, col, nil)
}

// ReplaceCurrentCell begins editing with caller-supplied seed text,
// discarding the cell's current content (type-to-replace).
func (c *Controller) ReplaceCurrentCell(row, col int, value string) {
	c.begin(row, col, &value)
}

func (c *Controller) begin(row, col int, seed *string) {
	if c.sess != nil {
		return
	}
	if c.editGuard != nil {
		if ok, msg := c.editGuard.CanEdit(row, col); !ok {
			c.message = msg
			return
		}
	}

	// Raise the global flag before touching the engine so a second input
	// event arriving mid-fetch sees an edit in progress.
	c.state.SetEditing(true)

	srcIdx, srcName := c.sheets.Active()
	rowSpan, colSpan := 1, 1
	if mi, err := c.backend.GetMergeInfo(row, col); err == nil && mi != nil {
		row, col = mi.StartRow, mi.StartCol
		rowSpan = mi.EndRow - mi.StartRow + 1
		colSpan = mi.EndCol - mi.StartCol + 1
		if c.onSelection != nil {
			c.onSelection(mi.StartRow, mi.StartCol, mi.EndRow, mi.EndCol)
		}
	}

	value := ""
	if seed != nil {
		value = *seed
	} else if cell, err := c.backend.GetCell(row, col); err == nil {
		value = cell.Input()
	}
	// fetch failure: edit an empty cell rather than fail the start

	c.sess = &EditingSession{
		Row:              row,
		Col:              col,
		Value:            value,
		SourceSheetIndex: srcIdx,
		SourceSheetName:  srcName,
		RowSpan:          rowSpan,
		ColSpan:          colSpan,
	}
	c.state.SetValue(value)
	c.reparse()
}

// UpdateValue replaces the draft text from free typing. The global mirror
// is updated in the same call, and the arrow cursor is dropped because the
// typed text invalidates "continue from the last arrow move".
func (c *Controller) UpdateValue(text string) {
	if c.sess == nil {
		return
	}
	c.sess.Value = text
	c.state.SetValue(text)
	c.state.ResetArrow()
	c.reparse()
}

func (c *Controller) reparse() {
	c.parsed = refs.ParseWithSpans(c.sess.Value)
}

func (c *Controller) setDraft(text string) {
	c.sess.Value = text
	c.state.SetValue(text)
	c.reparse()
}

// InsertReference appends a single-cell reference to the draft.
func (c *Controller) InsertReference(row, col int) {
	c.insertRef(refs.Reference{StartRow: row, StartCol: col, EndRow: row, EndCol: col})
}

// InsertRangeReference appends a rectangular range reference.
func (c *Controller) InsertRangeReference(startRow, startCol, endRow, endCol int) {
	if startRow > endRow {
		startRow, endRow = endRow, startRow
	}
	if startCol > endCol {
		startCol, endCol = endCol, startCol
	}
	c.insertRef(refs.Reference{StartRow: startRow, StartCol: startCol, EndRow: endRow, EndCol: endCol})
}

// InsertColumnReference appends a whole-column reference (A:A). The
// inserted text denotes the full column; the highlight extent is capped.
func (c *Controller) InsertColumnReference(col int) {
	c.InsertColumnRangeReference(col, col)
}

// InsertColumnRangeReference appends a column span reference (A:C).
func (c *Controller) InsertColumnRangeReference(startCol, endCol int) {
	if startCol > endCol {
		startCol, endCol = endCol, startCol
	}
	c.insertRef(refs.Reference{
		StartRow:   0,
		EndRow:     refs.MaxHighlightRows - 1,
		StartCol:   startCol,
		EndCol:     endCol,
		FullColumn: true,
	})
}

// InsertRowReference appends a whole-row reference (3:3).
func (c *Controller) InsertRowReference(row int) {
	c.InsertRowRangeReference(row, row)
}

// InsertRowRangeReference appends a row span reference (3:5).
func (c *Controller) InsertRowRangeReference(startRow, endRow int) {
	if startRow > endRow {
		startRow, endRow = endRow, startRow
	}
	c.insertRef(refs.Reference{
		StartRow: startRow,
		EndRow:   endRow,
		StartCol: 0,
		EndCol:   refs.MaxHighlightCols - 1,
		FullRow:  true,
	})
}

func (c *Controller) insertRef(ref refs.Reference) {
	if c.sess == nil || !refs.ExpectsReference(c.sess.Value) {
		return
	}

	// When the user has navigated to another sheet, the reference points
	// back at what they are looking at.
	activeIdx, activeName := c.sheets.Active()
	if activeIdx != c.sess.SourceSheetIndex {
		ref.SheetName = activeName
	}
	ref.Color = refs.ColorAt(len(c.parsed))

	offset := len(c.sess.Value)
	c.setDraft(c.sess.Value + refs.Format(ref))

	// Seed the navigation cursor so arrow keys adjust this reference
	// instead of appending another.
	c.state.SetArrow(ArrowState{
		Active: true,
		Anchor: CellPos{Row: ref.StartRow, Col: ref.StartCol},
		Cursor: CellPos{Row: ref.EndRow, Col: ref.EndCol},
		Offset: offset,
		Color:  ref.Color,
	})
	c.bus.Publish(events.ReferenceInserted{})
}

// NavigateReferenceWithArrow moves the reference cursor one cell and
// rewrites the draft from the tracked offset with the resulting token.
// With extend, the reference grows from the fixed anchor; without, it
// collapses to the cursor cell. The color assigned at the start of the
// sequence is kept so the highlight visibly slides.
func (c *Controller) NavigateReferenceWithArrow(dir Direction, extend bool) {
	if c.sess == nil {
		return
	}
	ar := c.state.Arrow()
	if !ar.Active {
		if !refs.ExpectsReference(c.sess.Value) {
			return
		}
		ar = ArrowState{
			Active: true,
			Anchor: CellPos{Row: c.sess.Row, Col: c.sess.Col},
			Cursor: CellPos{Row: c.sess.Row, Col: c.sess.Col},
			Offset: len(c.sess.Value),
			Color:  refs.ColorAt(len(c.parsed)),
		}
	}

	cur := ar.Cursor
	switch dir {
	case DirUp:
		cur.Row--
	case DirDown:
		cur.Row++
	case DirLeft:
		cur.Col--
	case DirRight:
		cur.Col++
	}
	if cur.Row < 0 {
		cur.Row = 0
	}
	if cur.Col < 0 {
		cur.Col = 0
	}
	ar.Cursor = cur
	if !extend {
		ar.Anchor = cur
	}

	ref := refs.Reference{
		StartRow: min(ar.Anchor.Row, cur.Row),
		StartCol: min(ar.Anchor.Col, cur.Col),
		EndRow:   max(ar.Anchor.Row, cur.Row),
		EndCol:   max(ar.Anchor.Col, cur.Col),
	}
	activeIdx, activeName := c.sheets.Active()
	if activeIdx != c.sess.SourceSheetIndex {
		ref.SheetName = activeName
	}

	c.setDraft(c.sess.Value[:ar.Offset] + refs.Format(ref))
	c.state.SetArrow(ar)

	// The re-parse reassigns palette colors by position; pin the navigated
	// token back to the sequence's color.
	for i := range c.parsed {
		if c.parsed[i].Start == ar.Offset {
			c.parsed[i].Color = ar.Color
		}
	}
}

// StartRefDrag begins moving the reference under the given cell. Returns
// false when no eligible reference is there.
func (c *Controller) StartRefDrag(row, col int) bool {
	if c.sess == nil {
		return false
	}
	_, activeName := c.sheets.Active()
	p, ok := refs.ReferenceAt(c.sess.Value, row, col, activeName, c.sess.SourceSheetName)
	if !ok {
		return false
	}
	c.state.SetDrag(DragState{Active: true, Ref: p, GrabRow: row, GrabCol: col})
	c.bus.Publish(events.PreventBlurCommit{})
	return true
}

// UpdateRefDrag previews the moved reference in the highlight set without
// touching the draft text.
func (c *Controller) UpdateRefDrag(row, col int) {
	d := c.state.Drag()
	if !d.Active {
		return
	}
	d.RowDelta = row - d.GrabRow
	d.ColDelta = col - d.GrabCol
	c.state.SetDrag(d)
	c.previewBounds(d.Ref, boundsOf(d.Ref).Shift(d.RowDelta, d.ColDelta))
}

// CompleteRefDrag rewrites the dragged token at its new position and
// re-parses the whole draft so every highlight keeps a consistent color
// and span.
func (c *Controller) CompleteRefDrag() {
	d := c.state.Drag()
	c.state.ResetDrag()
	if !d.Active || c.sess == nil {
		return
	}
	nb := boundsOf(d.Ref).Shift(d.RowDelta, d.ColDelta)
	c.setDraft(refs.Rewrite(c.sess.Value, d.Ref, nb))
}

// CancelRefDrag drops the gesture and restores highlights from the
// unmodified draft.
func (c *Controller) CancelRefDrag() {
	c.state.ResetDrag()
	if c.sess != nil {
		c.reparse()
	}
}

// StartRefResize begins resizing the reference under the given cell; the
// corner opposite the grabbed one is pinned.
func (c *Controller) StartRefResize(row, col int) bool {
	if c.sess == nil {
		return false
	}
	_, activeName := c.sheets.Active()
	p, ok := refs.ReferenceAt(c.sess.Value, row, col, activeName, c.sess.SourceSheetName)
	if !ok {
		return false
	}
	anchorRow := p.StartRow
	if row-p.StartRow <= p.EndRow-row {
		anchorRow = p.EndRow // grabbed the top edge, pin the bottom
	}
	anchorCol := p.StartCol
	if col-p.StartCol <= p.EndCol-col {
		anchorCol = p.EndCol
	}
	c.state.SetResize(ResizeState{
		Active:    true,
		Ref:       p,
		AnchorRow: anchorRow,
		AnchorCol: anchorCol,
		CurRow:    row,
		CurCol:    col,
	})
	c.bus.Publish(events.PreventBlurCommit{})
	return true
}

// UpdateRefResize previews the resized reference, the moving corner
// tracking the pointer.
func (c *Controller) UpdateRefResize(row, col int) {
	r := c.state.Resize()
	if !r.Active {
		return
	}
	if row < 0 {
		row = 0
	}
	if col < 0 {
		col = 0
	}
	r.CurRow, r.CurCol = row, col
	c.state.SetResize(r)
	c.previewBounds(r.Ref, resizeBounds(r))
}

// CompleteRefResize rewrites the resized token and re-parses the draft.
func (c *Controller) CompleteRefResize() {
	r := c.state.Resize()
	c.state.ResetResize()
	if !r.Active || c.sess == nil {
		return
	}
	c.setDraft(refs.Rewrite(c.sess.Value, r.Ref, resizeBounds(r)))
}

// CancelRefResize drops the gesture and restores highlights.
func (c *Controller) CancelRefResize() {
	c.state.ResetResize()
	if c.sess != nil {
		c.reparse()
	}
}

// CommitEdit finalizes the session: auto-closes the draft, runs the commit
// guard, writes through the engine and broadcasts refreshes. A commit
// already in flight makes a second call abort immediately, clearing the
// global editing state instead of racing a double write.
func (c *Controller) CommitEdit() CommitResult {
	if c.sess == nil {
		return CommitResult{}
	}
	if c.committing {
		c.state.SetEditing(false)
		c.state.SetValue("")
		c.state.ResetTransient()
		return CommitResult{}
	}
	c.committing = true
	defer func() { c.committing = false }()

	sess := c.sess

	// A commit issued while viewing another sheet writes to the source
	// sheet; switch back first. Activate's broadcast is the signal for
	// dependents on the source sheet to refresh.
	if activeIdx, _ := c.sheets.Active(); activeIdx != sess.SourceSheetIndex {
		if err := c.sheets.Activate(sess.SourceSheetIndex); err != nil {
			c.lastErr = err
			c.exitEdit()
			return CommitResult{Display: ErrorDisplay, Err: err}
		}
	}

	if c.commitGuard != nil {
		decision, msg := c.commitGuard.CheckCommit(sess.Row, sess.Col, sess.Value)
		switch decision {
		case CommitBlock:
			c.exitEdit()
			return CommitResult{}
		case CommitRetry:
			if msg != "" {
				c.message = msg
			}
			return CommitResult{Retry: true}
		}
	}

	text := refs.AutoClose(sess.Value)
	updates, err := c.backend.UpdateCell(sess.Row, sess.Col, text)
	if err != nil {
		c.lastErr = err
		c.exitEdit()
		return CommitResult{Display: ErrorDisplay, Err: err}
	}

	display := ""
	if len(updates) > 0 {
		primary := updates[0]
		display = primary.Display
		c.bus.Publish(events.CellChanged{
			Row:        primary.Row,
			Col:        primary.Col,
			OldDisplay: primary.OldDisplay,
			NewDisplay: primary.Display,
			Formula:    primary.Formula,
		})
		for _, u := range updates[1:] {
			if u.SheetIndex >= 0 {
				// cross-sheet dependents refresh when their sheet becomes
				// active; announcing them here would flood other views
				continue
			}
			c.bus.Publish(events.CellChanged{
				Row:        u.Row,
				Col:        u.Col,
				OldDisplay: u.OldDisplay,
				NewDisplay: u.Display,
				Formula:    u.Formula,
			})
		}
	}

	c.exitEdit()
	return CommitResult{Committed: true, Display: display}
}

// CancelEdit discards the draft, reversing any pending cross-sheet switch,
// without writing anything.
func (c *Controller) CancelEdit() {
	if c.sess == nil {
		return
	}
	if activeIdx, _ := c.sheets.Active(); activeIdx != c.sess.SourceSheetIndex {
		c.sheets.Activate(c.sess.SourceSheetIndex)
	}
	c.exitEdit()
}

// exitEdit tears the session down. Every commit/cancel path, success or
// failure, must end here so the global flag and transient trackers never
// outlive the session.
func (c *Controller) exitEdit() {
	c.sess = nil
	c.parsed = nil
	c.state.SetEditing(false)
	c.state.SetValue("")
	c.state.ResetTransient()
}

// previewBounds updates one highlight's bounds in place for a live drag or
// resize preview. The draft text is untouched; the next re-parse restores
// text-derived bounds.
func (c *Controller) previewBounds(ref refs.ParsedReference, nb refs.Bounds) {
	nb = nb.Normalize()
	for i := range c.parsed {
		if c.parsed[i].Start != ref.Start {
			continue
		}
		c.parsed[i].StartRow = nb.StartRow
		c.parsed[i].StartCol = nb.StartCol
		c.parsed[i].EndRow = nb.EndRow
		c.parsed[i].EndCol = nb.EndCol
		return
	}
}

func boundsOf(p refs.ParsedReference) refs.Bounds {
	return refs.Bounds{StartRow: p.StartRow, StartCol: p.StartCol, EndRow: p.EndRow, EndCol: p.EndCol}
}

func resizeBounds(r ResizeState) refs.Bounds {
	return refs.Bounds{
		StartRow: r.AnchorRow,
		StartCol: r.AnchorCol,
		EndRow:   r.CurRow,
		EndCol:   r.CurCol,
	}.Normalize()
}
