// Package session implements the in-cell editing core: the process-wide
// editing state shared by every grid surface, and the controller that
// drives one edit from start to commit or cancel.
package session

import (
	"sync"

	"github.com/DanielSallander/Calcula-sub003/internal/refs"
)

// CellPos is a 0-based grid coordinate.
type CellPos struct {
	Row int
	Col int
}

// ArrowState tracks an in-progress arrow-key reference navigation: the
// fixed anchor, the moving cursor, the byte offset in the formula where the
// navigated token starts, and the highlight color the token keeps for the
// whole navigation sequence.
type ArrowState struct {
	Active bool
	Anchor CellPos
	Cursor CellPos
	Offset int
	Color  string
}

// DragState tracks a reference move gesture: the token being moved, the
// cell it was grabbed at, and the current pointer delta.
type DragState struct {
	Active   bool
	Ref      refs.ParsedReference
	GrabRow  int
	GrabCol  int
	RowDelta int
	ColDelta int
}

// ResizeState tracks a reference resize gesture: the token, the pinned
// corner (opposite the grabbed one), and the current pointer cell.
type ResizeState struct {
	Active    bool
	Ref       refs.ParsedReference
	AnchorRow int
	AnchorCol int
	CurRow    int
	CurCol    int
}

// State is the authoritative editing state, shared by reference across all
// editing-aware components. Input handlers read it synchronously instead of
// waiting for a render pass; render-driven consumers subscribe for change
// notifications. At most one of arrow navigation, drag, and resize is
// active at a time.
type State struct {
	mu        sync.Mutex
	editing   bool
	value     string
	arrow     ArrowState
	drag      DragState
	resize    ResizeState
	next      int
	observers map[int]func()
}

func NewState() *State {
	return &State{observers: make(map[int]func())}
}

// IsEditing reports whether an edit session is active.
func (s *State) IsEditing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// Value returns the live (uncommitted) formula text mirror.
func (s *State) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *State) SetEditing(editing bool) {
	s.mu.Lock()
	s.editing = editing
	s.mu.Unlock()
	s.notify()
}

func (s *State) SetValue(value string) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
	s.notify()
}

func (s *State) Arrow() ArrowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arrow
}

// SetArrow activates arrow navigation, displacing any drag or resize.
func (s *State) SetArrow(a ArrowState) {
	s.mu.Lock()
	s.arrow = a
	s.drag = DragState{}
	s.resize = ResizeState{}
	s.mu.Unlock()
	s.notify()
}

// ResetArrow clears the navigation cursor; free typing calls this because
// "continue from the last arrow move" no longer makes sense.
func (s *State) ResetArrow() {
	s.mu.Lock()
	s.arrow = ArrowState{}
	s.mu.Unlock()
	s.notify()
}

func (s *State) Drag() DragState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag
}

func (s *State) SetDrag(d DragState) {
	s.mu.Lock()
	s.drag = d
	s.arrow = ArrowState{}
	s.resize = ResizeState{}
	s.mu.Unlock()
	s.notify()
}

func (s *State) ResetDrag() {
	s.mu.Lock()
	s.drag = DragState{}
	s.mu.Unlock()
	s.notify()
}

func (s *State) Resize() ResizeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resize
}

func (s *State) SetResize(r ResizeState) {
	s.mu.Lock()
	s.resize = r
	s.arrow = ArrowState{}
	s.drag = DragState{}
	s.mu.Unlock()
	s.notify()
}

func (s *State) ResetResize() {
	s.mu.Lock()
	s.resize = ResizeState{}
	s.mu.Unlock()
	s.notify()
}

// ResetTransient clears arrow, drag and resize state together. Every exit
// path from an edit session ends here; leaving any of these set would wedge
// all future editing.
func (s *State) ResetTransient() {
	s.mu.Lock()
	s.arrow = ArrowState{}
	s.drag = DragState{}
	s.resize = ResizeState{}
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers a change observer and returns its removal func.
func (s *State) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *State) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
