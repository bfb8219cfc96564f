package epoch

import (
	"sync"
	"sync/atomic"
)

// counter is shared by every Table in the process. It only moves forward,
// so an epoch observed before Clear can never match an entry issued after.
var counter atomic.Uint64

func next() Epoch {
	return Epoch(counter.Add(1))
}

// Table maps live handles to the epoch of their logical allocation.
type Table struct {
	entries   map[uint64]Epoch
	observers []Observer
	mu        sync.Mutex
	obsMu     sync.RWMutex
}

// NewTable creates an empty table with room for capacity handles.
func NewTable(capacity int) *Table {
	if capacity < 0 {
		capacity = 0
	}
	return &Table{entries: make(map[uint64]Epoch, capacity)}
}

// Issue registers a fresh epoch for handle, superseding any entry left by an
// earlier allocation that used the same number.
func (t *Table) Issue(handle uint64) Epoch {
	e := next()

	t.mu.Lock()
	prev, reused := t.entries[handle]
	t.entries[handle] = e
	t.mu.Unlock()

	if reused {
		t.notify(Event{Type: EventSuperseded, Handle: handle, Epoch: e, Prev: prev})
	}
	t.notify(Event{Type: EventIssued, Handle: handle, Epoch: e})
	return e
}

// Current returns the live epoch for handle.
func (t *Table) Current(handle uint64) (Epoch, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[handle]
	return e, ok
}

// IsCurrent reports whether (handle, e) names the live allocation.
func (t *Table) IsCurrent(handle uint64, e Epoch) bool {
	cur, ok := t.Current(handle)
	return ok && cur == e
}

// ReleaseIfCurrent removes the entry for handle only if it still holds e.
// A release carrying a superseded epoch leaves the newer entry untouched.
func (t *Table) ReleaseIfCurrent(handle uint64, e Epoch) bool {
	t.mu.Lock()
	cur, ok := t.entries[handle]
	if !ok || cur != e {
		t.mu.Unlock()
		return false
	}
	delete(t.entries, handle)
	t.mu.Unlock()

	t.notify(Event{Type: EventReleased, Handle: handle, Epoch: e})
	return true
}

// Clear drops every entry. The epoch counter is not reset.
func (t *Table) Clear() {
	t.mu.Lock()
	n := len(t.entries)
	clear(t.entries)
	t.mu.Unlock()

	t.notify(Event{Type: EventCleared, Count: n})
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Subscribe adds an observer for table events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer added with Subscribe.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnEpochEvent(e)
	}
}
