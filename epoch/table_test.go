package epoch

import (
	"sync"
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnEpochEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable(4)

	e := table.Issue(1)
	if e == 0 {
		t.Fatal("Expected non-zero epoch")
	}

	cur, ok := table.Current(1)
	if !ok || cur != e {
		t.Fatalf("Current(1) = %d, %v; want %d, true", cur, ok, e)
	}
	if !table.IsCurrent(1, e) {
		t.Fatal("IsCurrent should hold after Issue")
	}

	if _, ok := table.Current(2); ok {
		t.Fatal("Current on unknown handle should fail")
	}

	if !table.ReleaseIfCurrent(1, e) {
		t.Fatal("ReleaseIfCurrent failed on live entry")
	}
	if table.Len() != 0 {
		t.Fatalf("Len = %d after release, want 0", table.Len())
	}
}

func TestTable_Monotonic(t *testing.T) {
	table := NewTable(0)
	prev := table.Issue(7)
	for i := 0; i < 10; i++ {
		e := table.Issue(7)
		if e <= prev {
			t.Fatalf("epoch %d not greater than %d", e, prev)
		}
		prev = e
	}
	if Last() < prev {
		t.Fatalf("Last() = %d, want >= %d", Last(), prev)
	}
}

func TestTable_ReleaseIfCurrent_Superseded(t *testing.T) {
	table := NewTable(0)

	old := table.Issue(3)
	if !table.ReleaseIfCurrent(3, old) {
		t.Fatal("first release failed")
	}
	fresh := table.Issue(3)

	// A second release of the old allocation must not touch the new one.
	if table.ReleaseIfCurrent(3, old) {
		t.Fatal("stale release removed a newer entry")
	}
	if !table.IsCurrent(3, fresh) {
		t.Fatal("newer entry lost")
	}
	if table.IsCurrent(3, old) {
		t.Fatal("stale epoch revalidated")
	}
}

func TestTable_ClearKeepsCounter(t *testing.T) {
	table := NewTable(0)
	before := table.Issue(1)
	table.Issue(2)

	table.Clear()
	if table.Len() != 0 {
		t.Fatalf("Len = %d after Clear", table.Len())
	}
	if table.IsCurrent(1, before) {
		t.Fatal("entry survived Clear")
	}

	after := table.Issue(1)
	if after <= before {
		t.Fatalf("epoch after Clear = %d, want > %d", after, before)
	}
	if table.IsCurrent(1, before) {
		t.Fatal("pre-clear epoch revalidated against reused handle")
	}
}

func TestTable_SharedCounter(t *testing.T) {
	a := NewTable(0)
	b := NewTable(0)

	ea := a.Issue(1)
	eb := b.Issue(1)
	if ea == eb {
		t.Fatal("independent tables issued the same epoch")
	}
	if b.IsCurrent(1, ea) {
		t.Fatal("epoch from another table validated")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable(0)
	obs := &testObserver{}
	table.Subscribe(obs)

	e1 := table.Issue(5)
	e2 := table.Issue(5)
	table.ReleaseIfCurrent(5, e1)
	table.ReleaseIfCurrent(5, e2)
	table.Issue(6)
	table.Clear()

	want := []EventType{EventIssued, EventSuperseded, EventIssued, EventReleased, EventIssued, EventCleared}
	if len(obs.events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(obs.events), len(want), obs.events)
	}
	for i, typ := range want {
		if obs.events[i].Type != typ {
			t.Errorf("event %d = %v, want %v", i, obs.events[i].Type, typ)
		}
	}
	if obs.events[1].Prev != e1 || obs.events[1].Epoch != e2 {
		t.Errorf("superseded event = %+v", obs.events[1])
	}
	if obs.events[5].Count != 1 {
		t.Errorf("cleared count = %d, want 1", obs.events[5].Count)
	}

	table.Unsubscribe(obs)
	table.Issue(9)
	if len(obs.events) != len(want) {
		t.Fatal("observer notified after Unsubscribe")
	}
}

func TestTable_Concurrent(t *testing.T) {
	table := NewTable(0)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(base uint64) {
			defer wg.Done()
			for i := uint64(0); i < 100; i++ {
				h := base*1000 + i
				e := table.Issue(h)
				if !table.ReleaseIfCurrent(h, e) {
					t.Errorf("release of %d failed", h)
				}
			}
		}(uint64(g))
	}
	wg.Wait()
	if table.Len() != 0 {
		t.Fatalf("Len = %d, want 0", table.Len())
	}
}
