package tree

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/layout-bridge/errors"
	"github.com/wippyai/layout-bridge/style"
)

func TestNode_FreeIsIdempotent(t *testing.T) {
	st := New()
	defer st.Close()

	n, err := st.NewLeaf(leaf(1, 1))
	require.NoError(t, err)
	require.True(t, n.Valid())

	n.Free()
	n.Free()
	n.Free()

	assert.True(t, n.Released())
	assert.False(t, n.Valid())
	stats := st.Stats()
	assert.Equal(t, uint64(1), stats.Released)
	assert.Equal(t, 0, stats.Nodes)

	err = n.SetStyle(style.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle))
	assert.Contains(t, err.Error(), "released")
}

func TestNode_ReusedHandle(t *testing.T) {
	st := New()
	defer st.Close()

	a, err := st.NewLeaf(leaf(1, 1))
	require.NoError(t, err)
	a.Free()

	b, err := st.NewLeaf(leaf(2, 2))
	require.NoError(t, err)
	require.Equal(t, a.ID(), b.ID(), "engine recycles freed slots")
	assert.NotEqual(t, a.Epoch(), b.Epoch())

	a.Free()
	assert.True(t, b.Valid(), "freeing the old wrapper must not touch the new node")

	s, err := b.Style()
	require.NoError(t, err)
	assert.Equal(t, style.Length(2), s.Size.Width)
}

func TestNode_StaleWrapperRejected(t *testing.T) {
	st := New()
	defer st.Close()

	c, err := st.NewLeaf(leaf(1, 1))
	require.NoError(t, err)
	_, err = st.Remove(c.ID())
	require.NoError(t, err)

	d, err := st.NewLeaf(leaf(3, 3))
	require.NoError(t, err)
	require.Equal(t, c.ID(), d.ID())

	// The raw handle names d now; the old wrapper does not.
	require.NoError(t, st.SetStyle(c.ID(), leaf(4, 4)))
	err = c.SetStyle(leaf(5, 5))
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle))
	_, err = c.Layout()
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle))

	c.Free()
	assert.True(t, d.Valid())
	s, err := d.Style()
	require.NoError(t, err)
	assert.Equal(t, style.Length(4), s.Size.Width)
}

func TestNode_Methods(t *testing.T) {
	st := New()
	defer st.Close()

	root, err := st.NewLeaf(style.Default())
	require.NoError(t, err)
	child, err := st.NewLeafWithContext(style.Default(), "label")
	require.NoError(t, err)

	require.NoError(t, root.AddChild(child))
	kids, err := root.Children()
	require.NoError(t, err)
	assert.Equal(t, []Handle{child.ID()}, kids)

	require.NoError(t, root.SetStyle(style.Default().WithSize(80, 20)))
	require.NoError(t, root.MarkDirty())

	var seen []any
	measure := func(in MeasureInput) (style.Size[float32], error) {
		seen = append(seen, in.Context)
		return style.Size[float32]{Width: 30, Height: 10}, nil
	}
	require.NoError(t, root.ComputeLayout(style.AvailableSize(80, 20), measure))
	assert.Contains(t, seen, "label")

	l, err := child.Layout()
	require.NoError(t, err)
	assert.Equal(t, float32(30), l.Size.Width)
	assert.Equal(t, float32(20), l.Size.Height, "stretched on the cross axis")

	require.NoError(t, root.RemoveChild(child))
	kids, err = root.Children()
	require.NoError(t, err)
	assert.Empty(t, kids)

	err = root.AddChild(nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle))
	assert.Contains(t, err.Error(), "node is nil")

	other := New()
	defer other.Close()
	foreign, err := other.NewLeaf(style.Default())
	require.NoError(t, err)
	err = root.AddChild(foreign)
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle))

	child.Free()
	err = root.AddChild(child)
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle))
}

func TestNode_ReentrantCallsRejected(t *testing.T) {
	st := New()
	defer st.Close()

	text, err := st.NewLeaf(style.Default())
	require.NoError(t, err)
	root, err := st.NewWithChildren(style.Default(), text.ID())
	require.NoError(t, err)

	var inner []error
	measure := func(in MeasureInput) (style.Size[float32], error) {
		inner = append(inner,
			st.SetStyle(in.Node, leaf(1, 1)),
			text.SetStyle(leaf(1, 1)),
			st.ComputeLayout(root.ID(), style.AvailableSize(10, 10), nil),
		)
		_, err := st.Layout(in.Node)
		inner = append(inner, err)
		return style.Size[float32]{Width: 40, Height: 12}, nil
	}

	require.NoError(t, st.ComputeLayout(root.ID(), style.AvailableSize(300, 200), measure))
	require.NotEmpty(t, inner)
	for _, err := range inner {
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrReentrantAccess), "got %v", err)
		assert.Contains(t, err.Error(), "compute_layout")
	}

	l, err := text.Layout()
	require.NoError(t, err)
	assert.Equal(t, float32(40), l.Size.Width)

	// The guard is free again.
	require.NoError(t, text.SetStyle(leaf(5, 5)))
}

// maxContent leaves a lone root leaf unsized so its measure callback runs.
var maxContent = style.Size[style.AvailableSpace]{Width: style.MaxContent(), Height: style.MaxContent()}

func TestNode_FreeInsideCallbackIsDeferred(t *testing.T) {
	st := New()
	defer st.Close()

	victim, err := st.NewLeaf(leaf(1, 1))
	require.NoError(t, err)
	text, err := st.NewLeaf(style.Default())
	require.NoError(t, err)

	var calls int
	var validInside bool
	measure := func(MeasureInput) (style.Size[float32], error) {
		calls++
		victim.Free()
		validInside = victim.Valid()
		return style.Size[float32]{Width: 1, Height: 1}, nil
	}
	require.NoError(t, text.ComputeLayout(maxContent, measure))

	require.NotZero(t, calls)
	assert.False(t, validInside, "epoch is invalidated immediately")
	stats := st.Stats()
	assert.Equal(t, uint64(1), stats.Deferred)
	assert.Equal(t, 1, stats.Nodes, "engine node removed once the guard was released")
	assert.True(t, text.Valid())
}

func TestNode_DeferredFreeSkippedAfterClear(t *testing.T) {
	st := New()
	defer st.Close()

	victim, err := st.NewLeaf(leaf(1, 1))
	require.NoError(t, err)

	// Queue a removal by hand the way a concurrent Free would, then clear.
	require.True(t, st.epochs.ReleaseIfCurrent(uint64(victim.ID()), victim.Epoch()))
	st.pendMu.Lock()
	st.pending = append(st.pending, pendingRelease{handle: victim.ID(), gen: st.clears.Load()})
	st.pendMu.Unlock()
	st.clears.Add(1)
	st.engine.Clear()
	st.epochs.Clear()

	fresh, err := st.NewLeaf(leaf(2, 2))
	require.NoError(t, err)
	require.Equal(t, victim.ID(), fresh.ID())

	_, err = st.TotalNodeCount()
	require.NoError(t, err)
	assert.True(t, fresh.Valid(), "a removal queued before clear must not hit the reused slot")
	count, err := st.TotalNodeCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNode_CleanupReleasesUnreachable(t *testing.T) {
	st := New()
	defer st.Close()

	func() {
		_, err := st.NewLeaf(leaf(1, 1))
		require.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return st.Stats().Released == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, st.Stats().Nodes)
}

func TestNode_CleanupLeaksWhenBusy(t *testing.T) {
	st := New()
	defer st.Close()

	n, err := st.NewLeaf(leaf(1, 1))
	require.NoError(t, err)
	text, err := st.NewLeaf(style.Default())
	require.NoError(t, err)

	var calls int
	measure := func(MeasureInput) (style.Size[float32], error) {
		calls++
		st.release(n.ID(), n.Epoch(), true)
		return style.Size[float32]{}, nil
	}
	require.NoError(t, text.ComputeLayout(maxContent, measure))

	require.Equal(t, 1, calls)

	stats := st.Stats()
	assert.Equal(t, uint64(1), stats.Leaked)
	assert.Equal(t, 2, stats.Nodes)
	assert.True(t, n.Valid(), "a leaked cleanup leaves the epoch in place")
	n.Free()
}
