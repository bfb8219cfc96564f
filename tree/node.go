package tree

import (
	"runtime"
	"sync/atomic"

	"github.com/wippyai/layout-bridge/engine"
	"github.com/wippyai/layout-bridge/epoch"
	"github.com/wippyai/layout-bridge/errors"
	"github.com/wippyai/layout-bridge/style"
)

// Node owns one logical allocation: a handle and the epoch it was issued
// under. Free releases it; a Node dropped without Free is released by a
// runtime cleanup some time after it becomes unreachable.
//
// Methods fail with invalid_handle once the node was freed, removed
// through the State, or wiped by Clear, even if the engine has since
// reused the numeric handle.
type Node struct {
	state    *State
	cleanup  runtime.Cleanup
	handle   Handle
	epoch    epoch.Epoch
	released atomic.Bool
}

// nodeRef is what a cleanup needs. It must not point at the Node.
type nodeRef struct {
	state  *State
	handle Handle
	epoch  epoch.Epoch
}

func newNode(s *State, h Handle, e epoch.Epoch) *Node {
	n := &Node{state: s, handle: h, epoch: e}
	n.cleanup = runtime.AddCleanup(n, func(r nodeRef) {
		r.state.release(r.handle, r.epoch, true)
	}, nodeRef{state: s, handle: h, epoch: e})
	return n
}

// ID returns the numeric handle.
func (n *Node) ID() Handle { return n.handle }

// Epoch returns the generation the handle was issued under.
func (n *Node) Epoch() epoch.Epoch { return n.epoch }

// Released reports whether Free was called.
func (n *Node) Released() bool { return n.released.Load() }

// Valid reports whether the node still names its original allocation.
func (n *Node) Valid() bool {
	return !n.released.Load() && n.state.epochs.IsCurrent(uint64(n.handle), n.epoch)
}

// Free releases the node. If the handle is still current the engine node
// is removed; a stale handle is left alone. Free is idempotent and never
// fails. Called from inside a measure callback, the epoch is invalidated
// at once and the engine removal happens when the running operation ends.
func (n *Node) Free() {
	if !n.released.CompareAndSwap(false, true) {
		return
	}
	n.cleanup.Stop()
	n.state.release(n.handle, n.epoch, false)
}

// nodeCall runs fn under the guard after checking that n is current.
func nodeCall[T any](n *Node, phase errors.Phase, op string, fn func(h Handle) (T, error)) (T, error) {
	var zero T
	if n.released.Load() {
		return zero, errors.Released(phase, op, uint64(n.handle))
	}
	return guarded(n.state, phase, op, func() (T, error) {
		if err := n.state.validEpoch(phase, op, n.handle, n.epoch); err != nil {
			return zero, err
		}
		out, err := fn(n.handle)
		runtime.KeepAlive(n)
		return out, err
	})
}

func nodeDo(n *Node, phase errors.Phase, op string, fn func(h Handle) error) error {
	_, err := nodeCall(n, phase, op, func(h Handle) (struct{}, error) {
		return struct{}{}, fn(h)
	})
	return err
}

// checkOther validates a second node taking part in an operation. Must
// hold the guard.
func (n *Node) checkOther(phase errors.Phase, op string, other *Node) error {
	if other == nil {
		return errors.New(phase, errors.KindInvalidHandle).
			Op(op).
			Detail("node is nil").
			Build()
	}
	if other.state != n.state {
		return errors.New(phase, errors.KindInvalidHandle).
			Op(op).
			Handle(uint64(other.handle)).
			Detail("node belongs to a different tree").
			Build()
	}
	if other.released.Load() {
		return errors.Released(phase, op, uint64(other.handle))
	}
	return n.state.validEpoch(phase, op, other.handle, other.epoch)
}

// SetStyle replaces the node's style.
func (n *Node) SetStyle(st style.Style) error {
	return nodeDo(n, errors.PhaseStyle, "set_style", func(h Handle) error {
		return mapEngineError(errors.PhaseStyle, "set_style", h, n.state.engine.SetStyle(h, st))
	})
}

// Style returns a copy of the node's style.
func (n *Node) Style() (style.Style, error) {
	return nodeCall(n, errors.PhaseStyle, "style", func(h Handle) (style.Style, error) {
		st, err := n.state.engine.Style(h)
		return st, mapEngineError(errors.PhaseStyle, "style", h, err)
	})
}

// AddChild appends child to this node.
func (n *Node) AddChild(child *Node) error {
	return nodeDo(n, errors.PhaseChildren, "add_child", func(h Handle) error {
		if err := n.checkOther(errors.PhaseChildren, "add_child", child); err != nil {
			return err
		}
		return mapEngineError(errors.PhaseChildren, "add_child", h, n.state.engine.AddChild(h, child.handle))
	})
}

// RemoveChild detaches child from this node.
func (n *Node) RemoveChild(child *Node) error {
	return nodeDo(n, errors.PhaseChildren, "remove_child", func(h Handle) error {
		if err := n.checkOther(errors.PhaseChildren, "remove_child", child); err != nil {
			return err
		}
		_, err := n.state.engine.RemoveChild(h, child.handle)
		return mapEngineError(errors.PhaseChildren, "remove_child", h, err)
	})
}

// Children returns the handles of this node's children.
func (n *Node) Children() ([]Handle, error) {
	return nodeCall(n, errors.PhaseChildren, "children", func(h Handle) ([]Handle, error) {
		hs, err := n.state.engine.Children(h)
		return hs, mapEngineError(errors.PhaseChildren, "children", h, err)
	})
}

// SetContext attaches a measure context.
func (n *Node) SetContext(ctx any) error {
	return nodeDo(n, errors.PhaseContext, "set_context", func(h Handle) error {
		return mapEngineError(errors.PhaseContext, "set_context", h, n.state.engine.SetContext(h, ctx))
	})
}

// Context returns the node's measure context.
func (n *Node) Context() (any, error) {
	return nodeCall(n, errors.PhaseContext, "context", func(h Handle) (any, error) {
		ctx, _, err := n.state.engine.Context(h)
		return ctx, mapEngineError(errors.PhaseContext, "context", h, err)
	})
}

// MarkDirty flags the node for recomputation.
func (n *Node) MarkDirty() error {
	return nodeDo(n, errors.PhaseStyle, "mark_dirty", func(h Handle) error {
		return mapEngineError(errors.PhaseStyle, "mark_dirty", h, n.state.engine.MarkDirty(h))
	})
}

// Dirty reports whether the node changed since the last layout.
func (n *Node) Dirty() (bool, error) {
	return nodeCall(n, errors.PhaseStyle, "dirty", func(h Handle) (bool, error) {
		d, err := n.state.engine.Dirty(h)
		return d, mapEngineError(errors.PhaseStyle, "dirty", h, err)
	})
}

// ComputeLayout lays out the tree rooted at this node.
func (n *Node) ComputeLayout(available style.Size[style.AvailableSpace], measure MeasureFunc) error {
	return nodeDo(n, errors.PhaseCompute, "compute_layout", func(h Handle) error {
		if err := checkAvailable(available); err != nil {
			return err
		}
		return n.state.compute(h, available, measure)
	})
}

// Layout returns the node's computed geometry.
func (n *Node) Layout() (engine.Layout, error) {
	return nodeCall(n, errors.PhaseLayout, "get_layout", func(h Handle) (engine.Layout, error) {
		l, err := n.state.engine.Layout(h)
		return l, mapEngineError(errors.PhaseLayout, "get_layout", h, err)
	})
}
