package tree

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/layout-bridge/engine"
	"github.com/wippyai/layout-bridge/epoch"
	"github.com/wippyai/layout-bridge/errors"
)

// Handle is the numeric id of a node as seen by hosts.
type Handle = engine.NodeID

// Config holds configuration for State creation
type Config struct {
	// Engine to drive. nil creates an engine.Flex from the fields below.
	Engine engine.Engine

	// Logger overrides the package logger for this state.
	Logger *zap.Logger

	// Capacity preallocates room for this many nodes.
	Capacity int

	// DisableRounding makes Layout report fractional geometry.
	DisableRounding bool
}

// State owns one layout engine and the epoch table for its handles.
// Every operation holds the guard for its whole duration, including any
// measure callbacks it makes.
type State struct {
	engine  engine.Engine
	epochs  *epoch.Table
	log     *zap.Logger
	stats   *counters
	pending []pendingRelease
	guard   guard
	clears  atomic.Uint64
	closed  atomic.Bool
	pendMu  sync.Mutex
}

// pendingRelease is an engine removal postponed until the guard is free.
// The node's epoch is already gone; gen pins the Clear generation so a
// Clear in between turns the removal into a no-op.
type pendingRelease struct {
	handle Handle
	gen    uint64
}

var (
	defaultMu    sync.Mutex
	defaultState *State
)

// Default returns the process-wide state, creating it on first use.
func Default() *State {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultState == nil {
		defaultState = New()
	}
	return defaultState
}

// Teardown closes the process-wide state. The next Default call creates
// a fresh one.
func Teardown() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultState == nil {
		return nil
	}
	err := defaultState.Close()
	defaultState = nil
	return err
}

// New creates a state with default configuration.
func New() *State {
	return NewWithConfig(nil)
}

// NewWithConfig creates a state with custom configuration.
func NewWithConfig(cfg *Config) *State {
	if cfg == nil {
		cfg = &Config{}
	}
	eng := cfg.Engine
	if eng == nil {
		eng = engine.NewFlexWithConfig(&engine.Config{
			Capacity:        cfg.Capacity,
			DisableRounding: cfg.DisableRounding,
		})
	}
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}

	s := &State{
		engine: eng,
		epochs: epoch.NewTable(cfg.Capacity),
		log:    log,
		stats:  &counters{log: log},
	}
	s.epochs.Subscribe(s.stats)
	return s
}

// Stats returns a snapshot of the state's counters.
func (s *State) Stats() Stats {
	st := Stats{
		Live:            s.epochs.Len(),
		Issued:          s.stats.issued.Load(),
		Released:        s.stats.released.Load(),
		Deferred:        s.stats.deferred.Load(),
		Leaked:          s.stats.leaked.Load(),
		MeasureFailures: s.stats.measureFailures.Load(),
		Clears:          s.clears.Load(),
	}
	if s.guard.lock() {
		st.Nodes = s.engine.TotalNodeCount()
		s.guard.unlock()
	}
	return st
}

// guarded runs fn with the guard held. Panics inside fn become engine
// failures.
func guarded[T any](s *State, phase errors.Phase, op string, fn func() (T, error)) (out T, err error) {
	if err := s.guard.enter(phase, op); err != nil {
		return out, err
	}
	defer s.leave()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("operation panicked", zap.String("op", op), zap.Any("panic", r))
			err = errors.EngineFailure(phase, op, fmt.Errorf("panic: %v", r))
		}
	}()
	if s.closed.Load() {
		return out, errors.Closed(phase, op)
	}
	return fn()
}

func (s *State) with(phase errors.Phase, op string, fn func() error) error {
	_, err := guarded(s, phase, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (s *State) leave() {
	s.drainPending()
	s.guard.exit()
}

// valid checks that h names a live allocation. Must hold the guard.
func (s *State) valid(phase errors.Phase, op string, h Handle) error {
	if _, ok := s.epochs.Current(uint64(h)); !ok || !s.engine.Contains(h) {
		return errors.InvalidHandle(phase, op, uint64(h))
	}
	return nil
}

// validEpoch checks that (h, e) is the live allocation. Must hold the guard.
func (s *State) validEpoch(phase errors.Phase, op string, h Handle, e epoch.Epoch) error {
	if !s.epochs.IsCurrent(uint64(h), e) || !s.engine.Contains(h) {
		return errors.InvalidHandle(phase, op, uint64(h))
	}
	return nil
}

func (s *State) validAll(phase errors.Phase, op string, hs []Handle) error {
	for _, h := range hs {
		if err := s.valid(phase, op, h); err != nil {
			return err
		}
	}
	return nil
}

// issue registers a fresh allocation and wraps it. Must hold the guard.
func (s *State) issue(h Handle) *Node {
	return newNode(s, h, s.epochs.Issue(uint64(h)))
}

// release is the shared path of Free and runtime cleanup. It never
// panics and never blocks on an in-flight operation.
func (s *State) release(h Handle, e epoch.Epoch, implicit bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("node release panicked", zap.Uint64("handle", uint64(h)), zap.Any("panic", r))
		}
	}()
	if s.closed.Load() {
		return
	}

	if implicit {
		if !s.guard.tryLock() {
			s.stats.leaked.Add(1)
			s.log.Debug("tree busy during node cleanup, leaking node",
				zap.Uint64("handle", uint64(h)), zap.Uint64("epoch", uint64(e)))
			return
		}
	} else if !s.guard.lock() {
		if s.epochs.ReleaseIfCurrent(uint64(h), e) {
			s.stats.deferred.Add(1)
			s.pendMu.Lock()
			s.pending = append(s.pending, pendingRelease{handle: h, gen: s.clears.Load()})
			s.pendMu.Unlock()
		}
		return
	}
	defer s.guard.unlock()

	if s.epochs.ReleaseIfCurrent(uint64(h), e) {
		if _, err := s.engine.Remove(h); err != nil {
			s.log.Debug("engine removal failed", zap.Uint64("handle", uint64(h)), zap.Error(err))
		}
	}
	s.drainPending()
}

// drainPending performs postponed removals. Must hold the engine lock.
func (s *State) drainPending() {
	s.pendMu.Lock()
	pending := s.pending
	s.pending = nil
	s.pendMu.Unlock()

	gen := s.clears.Load()
	for _, p := range pending {
		if p.gen != gen {
			continue
		}
		if _, err := s.engine.Remove(p.handle); err != nil {
			s.log.Debug("deferred removal failed", zap.Uint64("handle", uint64(p.handle)), zap.Error(err))
		}
	}
}

// Close clears the state and rejects further operations.
func (s *State) Close() error {
	return s.with(errors.PhaseRemove, "close", func() error {
		s.engine.Clear()
		s.epochs.Clear()
		s.clears.Add(1)
		s.closed.Store(true)
		return nil
	})
}
