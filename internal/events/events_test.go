package events

import "testing"

func TestPublishReachesSubscribersInOrder(t *testing.T) {
	bus := NewBus()
	var order []int
	bus.Subscribe(func(Event) { order = append(order, 1) })
	bus.Subscribe(func(Event) { order = append(order, 2) })
	bus.Subscribe(func(Event) { order = append(order, 3) })

	bus.Publish(CellChanged{Row: 0, Col: 0})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("delivery order = %v, want [1 2 3]", order)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsub := bus.Subscribe(func(Event) { calls++ })

	bus.Publish(ReferenceInserted{})
	unsub()
	bus.Publish(ReferenceInserted{})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPublishFromHandler(t *testing.T) {
	bus := NewBus()
	var got []Event
	bus.Subscribe(func(ev Event) {
		got = append(got, ev)
		if _, ok := ev.(CellChanged); ok {
			bus.Publish(PreventBlurCommit{})
		}
	})

	bus.Publish(CellChanged{Row: 1, Col: 2})

	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if _, ok := got[1].(PreventBlurCommit); !ok {
		t.Errorf("second event = %T, want PreventBlurCommit", got[1])
	}
}

func TestEventPayloads(t *testing.T) {
	bus := NewBus()
	var last Event
	bus.Subscribe(func(ev Event) { last = ev })

	bus.Publish(CellChanged{Row: 3, Col: 4, OldDisplay: "a", NewDisplay: "b", Formula: "=A1"})
	cc, ok := last.(CellChanged)
	if !ok || cc.Row != 3 || cc.Col != 4 || cc.OldDisplay != "a" || cc.NewDisplay != "b" {
		t.Errorf("CellChanged payload = %+v", last)
	}

	bus.Publish(SheetSwitched{OldIndex: 0, NewIndex: 1, OldName: "Sheet1", NewName: "Sheet2"})
	ss, ok := last.(SheetSwitched)
	if !ok || ss.NewIndex != 1 || ss.NewName != "Sheet2" {
		t.Errorf("SheetSwitched payload = %+v", last)
	}
}
