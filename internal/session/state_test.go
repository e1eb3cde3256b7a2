package session

import "testing"

func TestStateGesturesAreMutuallyExclusive(t *testing.T) {
	s := NewState()

	s.SetArrow(ArrowState{Active: true})
	s.SetDrag(DragState{Active: true})
	if s.Arrow().Active {
		t.Error("starting a drag should clear arrow navigation")
	}

	s.SetResize(ResizeState{Active: true})
	if s.Drag().Active {
		t.Error("starting a resize should clear the drag")
	}

	s.SetArrow(ArrowState{Active: true})
	if s.Resize().Active {
		t.Error("arrow navigation should clear the resize")
	}
}

func TestStateResetTransient(t *testing.T) {
	s := NewState()
	s.SetArrow(ArrowState{Active: true})
	s.ResetTransient()
	if s.Arrow().Active || s.Drag().Active || s.Resize().Active {
		t.Error("transient state survived reset")
	}
}

func TestStateObservers(t *testing.T) {
	s := NewState()
	calls := 0
	unsub := s.Subscribe(func() { calls++ })

	s.SetEditing(true)
	s.SetValue("=A1")
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	unsub()
	s.SetEditing(false)
	if calls != 2 {
		t.Errorf("calls after unsubscribe = %d, want 2", calls)
	}
}

func TestStateMirrors(t *testing.T) {
	s := NewState()
	if s.IsEditing() || s.Value() != "" {
		t.Error("fresh state should be idle")
	}
	s.SetEditing(true)
	s.SetValue("=SUM(")
	if !s.IsEditing() || s.Value() != "=SUM(" {
		t.Error("mirrors not updated")
	}
}
