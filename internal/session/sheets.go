package session

import (
	"fmt"

	"github.com/DanielSallander/Calcula-sub003/internal/backend"
	"github.com/DanielSallander/Calcula-sub003/internal/events"
)

// Sheets keeps the frontend's view of the active sheet in step with the
// engine. Activate switches the engine first, then the local mirror, then
// broadcasts so dependent views refresh.
type Sheets struct {
	backend backend.Backend
	bus     *events.Bus
	names   []string
	active  int
}

func NewSheets(b backend.Backend, bus *events.Bus, names []string, active int) *Sheets {
	if len(names) == 0 {
		names = []string{"Sheet1"}
	}
	if active < 0 || active >= len(names) {
		active = 0
	}
	return &Sheets{backend: b, bus: bus, names: names, active: active}
}

// Active returns the active sheet's index and name.
func (s *Sheets) Active() (int, string) {
	return s.active, s.names[s.active]
}

// Name returns the name of sheet i, or "" when out of range.
func (s *Sheets) Name(i int) string {
	if i < 0 || i >= len(s.names) {
		return ""
	}
	return s.names[i]
}

// Count returns the number of sheets.
func (s *Sheets) Count() int { return len(s.names) }

// Activate switches the active sheet on the engine and locally, then emits
// SheetSwitched. A no-op when index is already active.
func (s *Sheets) Activate(index int) error {
	if index == s.active {
		return nil
	}
	if index < 0 || index >= len(s.names) {
		return fmt.Errorf("activate sheet: no sheet %d", index)
	}
	if err := s.backend.SetActiveSheet(index); err != nil {
		return fmt.Errorf("activate sheet %d: %w", index, err)
	}
	old := s.active
	s.active = index
	s.bus.Publish(events.SheetSwitched{
		OldIndex: old,
		NewIndex: index,
		OldName:  s.names[old],
		NewName:  s.names[index],
	})
	return nil
}
