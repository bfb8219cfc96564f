package tree

import (
	"go.uber.org/zap"

	"github.com/wippyai/layout-bridge/engine"
	"github.com/wippyai/layout-bridge/errors"
	"github.com/wippyai/layout-bridge/style"
)

// NewLeaf creates a childless node.
func (s *State) NewLeaf(st style.Style) (*Node, error) {
	return guarded(s, errors.PhaseCreate, "new_leaf", func() (*Node, error) {
		id, err := s.engine.NewLeaf(st)
		if err != nil {
			return nil, mapEngineError(errors.PhaseCreate, "new_leaf", 0, err)
		}
		return s.issue(id), nil
	})
}

// NewLeafWithContext creates a childless node carrying a value that is
// handed to measure callbacks.
func (s *State) NewLeafWithContext(st style.Style, ctx any) (*Node, error) {
	return guarded(s, errors.PhaseCreate, "new_leaf_with_context", func() (*Node, error) {
		id, err := s.engine.NewLeafWithContext(st, ctx)
		if err != nil {
			return nil, mapEngineError(errors.PhaseCreate, "new_leaf_with_context", 0, err)
		}
		return s.issue(id), nil
	})
}

// NewWithChildren creates a node with the given children in order.
func (s *State) NewWithChildren(st style.Style, children ...Handle) (*Node, error) {
	const op = "new_with_children"
	return guarded(s, errors.PhaseCreate, op, func() (*Node, error) {
		if err := s.validAll(errors.PhaseCreate, op, children); err != nil {
			return nil, err
		}
		id, err := s.engine.NewWithChildren(st, children)
		if err != nil {
			return nil, mapEngineError(errors.PhaseCreate, op, 0, err)
		}
		return s.issue(id), nil
	})
}

// SetStyle replaces the style of h.
func (s *State) SetStyle(h Handle, st style.Style) error {
	const op = "set_style"
	return s.with(errors.PhaseStyle, op, func() error {
		if err := s.valid(errors.PhaseStyle, op, h); err != nil {
			return err
		}
		return mapEngineError(errors.PhaseStyle, op, h, s.engine.SetStyle(h, st))
	})
}

// Style returns a copy of the style of h.
func (s *State) Style(h Handle) (style.Style, error) {
	const op = "style"
	return guarded(s, errors.PhaseStyle, op, func() (style.Style, error) {
		if err := s.valid(errors.PhaseStyle, op, h); err != nil {
			return style.Style{}, err
		}
		st, err := s.engine.Style(h)
		return st, mapEngineError(errors.PhaseStyle, op, h, err)
	})
}

// AddChild appends child to parent.
func (s *State) AddChild(parent, child Handle) error {
	const op = "add_child"
	return s.with(errors.PhaseChildren, op, func() error {
		if err := s.validAll(errors.PhaseChildren, op, []Handle{parent, child}); err != nil {
			return err
		}
		return mapEngineError(errors.PhaseChildren, op, parent, s.engine.AddChild(parent, child))
	})
}

// InsertChildAtIndex places child at index among parent's children.
func (s *State) InsertChildAtIndex(parent Handle, index int, child Handle) error {
	const op = "insert_child_at_index"
	return s.with(errors.PhaseChildren, op, func() error {
		if err := s.validAll(errors.PhaseChildren, op, []Handle{parent, child}); err != nil {
			return err
		}
		return mapEngineError(errors.PhaseChildren, op, parent, s.engine.InsertChildAtIndex(parent, index, child))
	})
}

// SetChildren replaces parent's children.
func (s *State) SetChildren(parent Handle, children ...Handle) error {
	const op = "set_children"
	return s.with(errors.PhaseChildren, op, func() error {
		if err := s.valid(errors.PhaseChildren, op, parent); err != nil {
			return err
		}
		if err := s.validAll(errors.PhaseChildren, op, children); err != nil {
			return err
		}
		return mapEngineError(errors.PhaseChildren, op, parent, s.engine.SetChildren(parent, children))
	})
}

// RemoveChild detaches child from parent and returns it.
func (s *State) RemoveChild(parent, child Handle) (Handle, error) {
	const op = "remove_child"
	return guarded(s, errors.PhaseChildren, op, func() (Handle, error) {
		if err := s.validAll(errors.PhaseChildren, op, []Handle{parent, child}); err != nil {
			return 0, err
		}
		h, err := s.engine.RemoveChild(parent, child)
		return h, mapEngineError(errors.PhaseChildren, op, parent, err)
	})
}

// RemoveChildAtIndex detaches the child at index and returns it.
func (s *State) RemoveChildAtIndex(parent Handle, index int) (Handle, error) {
	const op = "remove_child_at_index"
	return guarded(s, errors.PhaseChildren, op, func() (Handle, error) {
		if err := s.valid(errors.PhaseChildren, op, parent); err != nil {
			return 0, err
		}
		h, err := s.engine.RemoveChildAtIndex(parent, index)
		return h, mapEngineError(errors.PhaseChildren, op, parent, err)
	})
}

// ReplaceChildAtIndex puts child at index and returns the node it replaced.
func (s *State) ReplaceChildAtIndex(parent Handle, index int, child Handle) (Handle, error) {
	const op = "replace_child_at_index"
	return guarded(s, errors.PhaseChildren, op, func() (Handle, error) {
		if err := s.validAll(errors.PhaseChildren, op, []Handle{parent, child}); err != nil {
			return 0, err
		}
		h, err := s.engine.ReplaceChildAtIndex(parent, index, child)
		return h, mapEngineError(errors.PhaseChildren, op, parent, err)
	})
}

// RemoveChildrenRange detaches parent's children in [start, end).
func (s *State) RemoveChildrenRange(parent Handle, start, end int) error {
	const op = "remove_children_range"
	return s.with(errors.PhaseChildren, op, func() error {
		if err := s.valid(errors.PhaseChildren, op, parent); err != nil {
			return err
		}
		return mapEngineError(errors.PhaseChildren, op, parent, s.engine.RemoveChildrenRange(parent, start, end))
	})
}

// ChildAtIndex returns parent's child at index.
func (s *State) ChildAtIndex(parent Handle, index int) (Handle, error) {
	const op = "child_at_index"
	return guarded(s, errors.PhaseChildren, op, func() (Handle, error) {
		if err := s.valid(errors.PhaseChildren, op, parent); err != nil {
			return 0, err
		}
		h, err := s.engine.ChildAtIndex(parent, index)
		return h, mapEngineError(errors.PhaseChildren, op, parent, err)
	})
}

// Children returns parent's children in order.
func (s *State) Children(parent Handle) ([]Handle, error) {
	const op = "children"
	return guarded(s, errors.PhaseChildren, op, func() ([]Handle, error) {
		if err := s.valid(errors.PhaseChildren, op, parent); err != nil {
			return nil, err
		}
		hs, err := s.engine.Children(parent)
		return hs, mapEngineError(errors.PhaseChildren, op, parent, err)
	})
}

// ChildCount returns the number of parent's children.
func (s *State) ChildCount(parent Handle) (int, error) {
	const op = "child_count"
	return guarded(s, errors.PhaseChildren, op, func() (int, error) {
		if err := s.valid(errors.PhaseChildren, op, parent); err != nil {
			return 0, err
		}
		n, err := s.engine.ChildCount(parent)
		return n, mapEngineError(errors.PhaseChildren, op, parent, err)
	})
}

// Parent returns child's parent, if it has one.
func (s *State) Parent(child Handle) (Handle, bool, error) {
	const op = "parent"
	type result struct {
		h  Handle
		ok bool
	}
	r, err := guarded(s, errors.PhaseChildren, op, func() (result, error) {
		if err := s.valid(errors.PhaseChildren, op, child); err != nil {
			return result{}, err
		}
		h, ok, err := s.engine.Parent(child)
		return result{h, ok}, mapEngineError(errors.PhaseChildren, op, child, err)
	})
	return r.h, r.ok, err
}

// SetContext attaches a measure context to h. nil removes it.
func (s *State) SetContext(h Handle, ctx any) error {
	const op = "set_context"
	return s.with(errors.PhaseContext, op, func() error {
		if err := s.valid(errors.PhaseContext, op, h); err != nil {
			return err
		}
		return mapEngineError(errors.PhaseContext, op, h, s.engine.SetContext(h, ctx))
	})
}

// Context returns the measure context of h, or nil.
func (s *State) Context(h Handle) (any, error) {
	const op = "context"
	return guarded(s, errors.PhaseContext, op, func() (any, error) {
		if err := s.valid(errors.PhaseContext, op, h); err != nil {
			return nil, err
		}
		ctx, _, err := s.engine.Context(h)
		return ctx, mapEngineError(errors.PhaseContext, op, h, err)
	})
}

// MarkDirty flags h and its ancestors for recomputation.
func (s *State) MarkDirty(h Handle) error {
	const op = "mark_dirty"
	return s.with(errors.PhaseStyle, op, func() error {
		if err := s.valid(errors.PhaseStyle, op, h); err != nil {
			return err
		}
		return mapEngineError(errors.PhaseStyle, op, h, s.engine.MarkDirty(h))
	})
}

// Dirty reports whether h changed since the last layout.
func (s *State) Dirty(h Handle) (bool, error) {
	const op = "dirty"
	return guarded(s, errors.PhaseStyle, op, func() (bool, error) {
		if err := s.valid(errors.PhaseStyle, op, h); err != nil {
			return false, err
		}
		d, err := s.engine.Dirty(h)
		return d, mapEngineError(errors.PhaseStyle, op, h, err)
	})
}

// ComputeLayout lays out the tree rooted at root. measure, if not nil,
// sizes leaves through the trampoline.
func (s *State) ComputeLayout(root Handle, available style.Size[style.AvailableSpace], measure MeasureFunc) error {
	const op = "compute_layout"
	return s.with(errors.PhaseCompute, op, func() error {
		if err := s.valid(errors.PhaseCompute, op, root); err != nil {
			return err
		}
		if err := checkAvailable(available); err != nil {
			return err
		}
		return s.compute(root, available, measure)
	})
}

// compute runs a layout pass. Must hold the guard.
func (s *State) compute(root Handle, available style.Size[style.AvailableSpace], measure MeasureFunc) error {
	const op = "compute_layout"
	var fn engine.MeasureFunc
	var t *trampoline
	if measure != nil {
		t = &trampoline{fn: measure, log: s.log, stats: s.stats}
		fn = t.measure
	}
	if err := s.engine.ComputeLayout(root, available, fn); err != nil {
		return mapEngineError(errors.PhaseCompute, op, root, err)
	}
	if t != nil && t.failures > 0 {
		s.log.Debug("layout completed with absorbed measure failures",
			zap.Uint64("root", uint64(root)),
			zap.Int("calls", t.calls),
			zap.Int("failures", t.failures))
	}
	return nil
}

func checkAvailable(a style.Size[style.AvailableSpace]) error {
	axes := [...]struct {
		name string
		v    style.AvailableSpace
	}{{"width", a.Width}, {"height", a.Height}}
	for _, axis := range axes {
		if px, ok := axis.v.Px(); ok && (!style.Finite(px) || px < 0) {
			return errors.Serialization(errors.PhaseCompute, []string{"availableSpace", axis.name},
				"available space must be a finite non-negative number", nil)
		}
	}
	return nil
}

// Layout returns the computed geometry of h.
func (s *State) Layout(h Handle) (engine.Layout, error) {
	const op = "get_layout"
	return guarded(s, errors.PhaseLayout, op, func() (engine.Layout, error) {
		if err := s.valid(errors.PhaseLayout, op, h); err != nil {
			return engine.Layout{}, err
		}
		l, err := s.engine.Layout(h)
		return l, mapEngineError(errors.PhaseLayout, op, h, err)
	})
}

// UnroundedLayout returns the fractional geometry of h.
func (s *State) UnroundedLayout(h Handle) (engine.Layout, error) {
	const op = "unrounded_layout"
	return guarded(s, errors.PhaseLayout, op, func() (engine.Layout, error) {
		if err := s.valid(errors.PhaseLayout, op, h); err != nil {
			return engine.Layout{}, err
		}
		l, err := s.engine.UnroundedLayout(h)
		return l, mapEngineError(errors.PhaseLayout, op, h, err)
	})
}

// EnableRounding snaps reported layouts to whole pixels.
func (s *State) EnableRounding() error {
	return s.with(errors.PhaseLayout, "enable_rounding", func() error {
		s.engine.SetRounding(true)
		return nil
	})
}

// DisableRounding reports fractional layouts.
func (s *State) DisableRounding() error {
	return s.with(errors.PhaseLayout, "disable_rounding", func() error {
		s.engine.SetRounding(false)
		return nil
	})
}

// Remove deletes h from the tree and returns it. Its children become
// roots; outstanding Node wrappers for h turn stale.
func (s *State) Remove(h Handle) (Handle, error) {
	const op = "remove"
	return guarded(s, errors.PhaseRemove, op, func() (Handle, error) {
		e, ok := s.epochs.Current(uint64(h))
		if !ok || !s.engine.Contains(h) {
			return 0, errors.InvalidHandle(errors.PhaseRemove, op, uint64(h))
		}
		removed, err := s.engine.Remove(h)
		if err != nil {
			return 0, mapEngineError(errors.PhaseRemove, op, h, err)
		}
		s.epochs.ReleaseIfCurrent(uint64(h), e)
		return removed, nil
	})
}

// Clear removes every node and invalidates every outstanding handle. The
// engine stays usable; epochs keep counting up.
func (s *State) Clear() error {
	return s.with(errors.PhaseRemove, "clear", func() error {
		s.engine.Clear()
		s.epochs.Clear()
		s.clears.Add(1)
		return nil
	})
}

// TotalNodeCount returns the number of nodes in the engine.
func (s *State) TotalNodeCount() (int, error) {
	return guarded(s, errors.PhaseChildren, "total_node_count", func() (int, error) {
		return s.engine.TotalNodeCount(), nil
	})
}

// PrintTree renders the subtree at h for debugging.
func (s *State) PrintTree(h Handle) (string, error) {
	const op = "print_tree"
	return guarded(s, errors.PhaseLayout, op, func() (string, error) {
		if err := s.valid(errors.PhaseLayout, op, h); err != nil {
			return "", err
		}
		out, err := s.engine.PrintTree(h)
		return out, mapEngineError(errors.PhaseLayout, op, h, err)
	})
}
