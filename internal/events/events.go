// Package events is the fire-and-forget broadcast channel between the
// editing core and whatever renders it. Publishing never fails and never
// returns anything; any number of listeners may be attached.
package events

import "sync"

// CellChanged fires after a cell write, once for the primary cell and once
// per same-sheet dependent. Dependents on other sheets are deliberately not
// announced; they are fetched fresh when their sheet becomes active.
type CellChanged struct {
	Row        int
	Col        int
	OldDisplay string
	NewDisplay string
	Formula    string
}

// SheetSwitched fires when the active sheet changes, including the switch
// back to the source sheet during a cross-sheet formula commit.
type SheetSwitched struct {
	OldIndex int
	NewIndex int
	OldName  string
	NewName  string
}

// ReferenceInserted signals that a reference was appended to the live
// formula, so the editing input should regain focus.
type ReferenceInserted struct{}

// PreventBlurCommit signals that an imminent blur-triggered commit must be
// suppressed because a reference drag gesture is in progress.
type PreventBlurCommit struct{}

// Event is any of the types above.
type Event any

// Bus fans events out to subscribers in subscription order.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
	keys []int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns its removal func.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.keys = append(b.keys, id)
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		for i, k := range b.keys {
			if k == id {
				b.keys = append(b.keys[:i], b.keys[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}
}

// Publish delivers ev to every subscriber. Listeners run on the caller's
// goroutine; there is no return value and no error path.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.keys))
	for _, k := range b.keys {
		if fn, ok := b.subs[k]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
