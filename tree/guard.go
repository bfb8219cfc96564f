package tree

import (
	"sync"
	"sync/atomic"

	"github.com/wippyai/layout-bridge/errors"
)

// guard gives one operation at a time access to the engine. A second
// entry while an operation is in flight is rejected instead of waiting:
// the only way to get there on the host's goroutine is a callback from
// inside the first operation, and waiting would never end.
//
// mu serializes against runtime cleanups, which run on their own
// goroutine and never hold the guard across a host callback.
type guard struct {
	mu     sync.Mutex
	held   atomic.Bool
	holder atomic.Pointer[string]
}

// enter acquires the guard for op or reports ReentrantAccess.
func (g *guard) enter(phase errors.Phase, op string) error {
	if g.held.Load() {
		return errors.ReentrantAccess(phase, op, g.holderName())
	}
	g.mu.Lock()
	g.held.Store(true)
	g.holder.Store(&op)
	return nil
}

// exit releases a guard taken by enter.
func (g *guard) exit() {
	g.holder.Store(nil)
	g.held.Store(false)
	g.mu.Unlock()
}

// lock takes the engine without marking an operation in flight. It
// fails if an operation holds the guard.
func (g *guard) lock() bool {
	if g.held.Load() {
		return false
	}
	g.mu.Lock()
	return true
}

// tryLock is lock without waiting.
func (g *guard) tryLock() bool {
	if g.held.Load() {
		return false
	}
	return g.mu.TryLock()
}

func (g *guard) unlock() {
	g.mu.Unlock()
}

func (g *guard) holderName() string {
	if p := g.holder.Load(); p != nil {
		return *p
	}
	return "another operation"
}
