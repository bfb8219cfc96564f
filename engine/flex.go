package engine

import (
	"fmt"
	"slices"

	"github.com/wippyai/layout-bridge/style"
)

// Config holds configuration for engine creation
type Config struct {
	// Capacity preallocates room for this many nodes.
	Capacity int

	// DisableRounding makes Layout report fractional geometry. By default
	// positions and sizes are snapped to whole pixels.
	DisableRounding bool
}

type node struct {
	context   any
	style     style.Style
	children  []NodeID
	layout    Layout
	unrounded Layout
	parent    NodeID
	hasCtx    bool
	dirty     bool
	live      bool
}

// Flex is a single-line flexbox Engine. Node slots are recycled
// last-in-first-out, so a removed id is handed to the next allocation.
type Flex struct {
	nodes    []node
	freeList []NodeID
	live     int
	rounding bool
}

var _ Engine = (*Flex)(nil)

// NewFlex creates an engine with default configuration.
func NewFlex() *Flex {
	return NewFlexWithConfig(nil)
}

// NewFlexWithConfig creates an engine with custom configuration.
func NewFlexWithConfig(cfg *Config) *Flex {
	capacity := 16
	rounding := true
	if cfg != nil {
		if cfg.Capacity > 0 {
			capacity = cfg.Capacity
		}
		rounding = !cfg.DisableRounding
	}
	return &Flex{
		nodes:    make([]node, 0, capacity),
		freeList: make([]NodeID, 0, 16),
		rounding: rounding,
	}
}

func notFound(id NodeID) error {
	return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
}

func (f *Flex) get(id NodeID) (*node, error) {
	if id == 0 || id > NodeID(len(f.nodes)) {
		return nil, notFound(id)
	}
	n := &f.nodes[id-1]
	if !n.live {
		return nil, notFound(id)
	}
	return n, nil
}

func (f *Flex) alloc(s style.Style) NodeID {
	n := node{style: s.Clone(), dirty: true, live: true}
	f.live++

	if len(f.freeList) > 0 {
		id := f.freeList[len(f.freeList)-1]
		f.freeList = f.freeList[:len(f.freeList)-1]
		f.nodes[id-1] = n
		return id
	}

	f.nodes = append(f.nodes, n)
	return NodeID(len(f.nodes))
}

// NewLeaf allocates a childless node.
func (f *Flex) NewLeaf(s style.Style) (NodeID, error) {
	return f.alloc(s), nil
}

// NewLeafWithContext allocates a childless node carrying a measure context.
func (f *Flex) NewLeafWithContext(s style.Style, ctx any) (NodeID, error) {
	id := f.alloc(s)
	n := &f.nodes[id-1]
	n.context = ctx
	n.hasCtx = true
	return id, nil
}

// NewWithChildren allocates a node and attaches children in order.
func (f *Flex) NewWithChildren(s style.Style, children []NodeID) (NodeID, error) {
	for _, c := range children {
		if _, err := f.get(c); err != nil {
			return 0, err
		}
	}
	id := f.alloc(s)
	if err := f.SetChildren(id, children); err != nil {
		f.release(id)
		return 0, err
	}
	return id, nil
}

// Remove deletes a node. Its children become roots.
func (f *Flex) Remove(id NodeID) (NodeID, error) {
	n, err := f.get(id)
	if err != nil {
		return 0, err
	}
	if n.parent != 0 {
		f.detach(id)
	}
	for _, c := range n.children {
		f.nodes[c-1].parent = 0
	}
	f.release(id)
	return id, nil
}

func (f *Flex) release(id NodeID) {
	f.nodes[id-1] = node{}
	f.freeList = append(f.freeList, id)
	f.live--
}

// Clear removes every node. Ids start over from 1.
func (f *Flex) Clear() {
	clear(f.nodes)
	f.nodes = f.nodes[:0]
	f.freeList = f.freeList[:0]
	f.live = 0
}

// Contains reports whether id names a live node.
func (f *Flex) Contains(id NodeID) bool {
	_, err := f.get(id)
	return err == nil
}

// TotalNodeCount returns the number of live nodes.
func (f *Flex) TotalNodeCount() int {
	return f.live
}

// detach unlinks id from its parent's child list.
func (f *Flex) detach(id NodeID) {
	n := &f.nodes[id-1]
	p := &f.nodes[n.parent-1]
	if i := slices.Index(p.children, id); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	f.markDirty(n.parent)
	n.parent = 0
}

// checkAttach validates that child can be placed under parent.
func (f *Flex) checkAttach(parent, child NodeID) error {
	if _, err := f.get(child); err != nil {
		return err
	}
	for cur := parent; cur != 0; cur = f.nodes[cur-1].parent {
		if cur == child {
			return fmt.Errorf("%w: %d under %d", ErrCycle, child, parent)
		}
	}
	return nil
}

// AddChild appends child to parent, moving it from any previous parent.
func (f *Flex) AddChild(parent, child NodeID) error {
	p, err := f.get(parent)
	if err != nil {
		return err
	}
	if err := f.checkAttach(parent, child); err != nil {
		return err
	}
	if f.nodes[child-1].parent != 0 {
		f.detach(child)
	}
	p = &f.nodes[parent-1]
	p.children = append(p.children, child)
	f.nodes[child-1].parent = parent
	f.markDirty(parent)
	return nil
}

// InsertChildAtIndex places child at index, shifting later children.
func (f *Flex) InsertChildAtIndex(parent NodeID, index int, child NodeID) error {
	p, err := f.get(parent)
	if err != nil {
		return err
	}
	if err := f.checkAttach(parent, child); err != nil {
		return err
	}
	count := len(p.children)
	if f.nodes[child-1].parent == parent {
		count--
	}
	if index < 0 || index > count {
		return fmt.Errorf("%w: index %d, %d children", ErrChildIndexOutOfBounds, index, count)
	}
	if f.nodes[child-1].parent != 0 {
		f.detach(child)
	}
	p = &f.nodes[parent-1]
	p.children = slices.Insert(p.children, index, child)
	f.nodes[child-1].parent = parent
	f.markDirty(parent)
	return nil
}

// SetChildren replaces the child list of parent.
func (f *Flex) SetChildren(parent NodeID, children []NodeID) error {
	if _, err := f.get(parent); err != nil {
		return err
	}
	for i, c := range children {
		if err := f.checkAttach(parent, c); err != nil {
			return err
		}
		if slices.Contains(children[:i], c) {
			return fmt.Errorf("%w: %d listed twice", ErrInvalidParent, c)
		}
	}

	for _, old := range f.nodes[parent-1].children {
		f.nodes[old-1].parent = 0
	}
	f.nodes[parent-1].children = nil
	for _, c := range children {
		if f.nodes[c-1].parent != 0 {
			f.detach(c)
		}
		f.nodes[c-1].parent = parent
	}
	f.nodes[parent-1].children = slices.Clone(children)
	f.markDirty(parent)
	return nil
}

// RemoveChild detaches child from parent and returns it.
func (f *Flex) RemoveChild(parent, child NodeID) (NodeID, error) {
	p, err := f.get(parent)
	if err != nil {
		return 0, err
	}
	if _, err := f.get(child); err != nil {
		return 0, err
	}
	if !slices.Contains(p.children, child) {
		return 0, fmt.Errorf("%w: %d is not a child of %d", ErrInvalidParent, child, parent)
	}
	f.detach(child)
	return child, nil
}

// RemoveChildAtIndex detaches the child at index and returns it.
func (f *Flex) RemoveChildAtIndex(parent NodeID, index int) (NodeID, error) {
	child, err := f.ChildAtIndex(parent, index)
	if err != nil {
		return 0, err
	}
	f.detach(child)
	return child, nil
}

// ReplaceChildAtIndex swaps the child at index for child and returns the
// previous occupant.
func (f *Flex) ReplaceChildAtIndex(parent NodeID, index int, child NodeID) (NodeID, error) {
	old, err := f.ChildAtIndex(parent, index)
	if err != nil {
		return 0, err
	}
	if old == child {
		return old, nil
	}
	if err := f.checkAttach(parent, child); err != nil {
		return 0, err
	}
	if f.nodes[child-1].parent == parent {
		return 0, fmt.Errorf("%w: %d is already a child of %d", ErrInvalidParent, child, parent)
	}
	if f.nodes[child-1].parent != 0 {
		f.detach(child)
	}
	f.nodes[parent-1].children[index] = child
	f.nodes[child-1].parent = parent
	f.nodes[old-1].parent = 0
	f.markDirty(parent)
	return old, nil
}

// RemoveChildrenRange detaches children in [start, end).
func (f *Flex) RemoveChildrenRange(parent NodeID, start, end int) error {
	p, err := f.get(parent)
	if err != nil {
		return err
	}
	if start < 0 || end > len(p.children) || start > end {
		return fmt.Errorf("%w: range [%d, %d), %d children", ErrChildIndexOutOfBounds, start, end, len(p.children))
	}
	for _, c := range p.children[start:end] {
		f.nodes[c-1].parent = 0
	}
	p.children = slices.Delete(p.children, start, end)
	f.markDirty(parent)
	return nil
}

// ChildAtIndex returns the child at index.
func (f *Flex) ChildAtIndex(parent NodeID, index int) (NodeID, error) {
	p, err := f.get(parent)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(p.children) {
		return 0, fmt.Errorf("%w: index %d, %d children", ErrChildIndexOutOfBounds, index, len(p.children))
	}
	return p.children[index], nil
}

// Children returns a copy of the child list.
func (f *Flex) Children(parent NodeID) ([]NodeID, error) {
	p, err := f.get(parent)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.children), nil
}

// ChildCount returns the number of children.
func (f *Flex) ChildCount(parent NodeID) (int, error) {
	p, err := f.get(parent)
	if err != nil {
		return 0, err
	}
	return len(p.children), nil
}

// Parent returns the parent of child and whether it has one.
func (f *Flex) Parent(child NodeID) (NodeID, bool, error) {
	n, err := f.get(child)
	if err != nil {
		return 0, false, err
	}
	return n.parent, n.parent != 0, nil
}

// SetStyle replaces the style and marks the node dirty.
func (f *Flex) SetStyle(id NodeID, s style.Style) error {
	n, err := f.get(id)
	if err != nil {
		return err
	}
	n.style = s.Clone()
	f.markDirty(id)
	return nil
}

// Style returns a copy of the node's style.
func (f *Flex) Style(id NodeID) (style.Style, error) {
	n, err := f.get(id)
	if err != nil {
		return style.Style{}, err
	}
	return n.style.Clone(), nil
}

// SetContext attaches a measure context. A nil ctx removes it.
func (f *Flex) SetContext(id NodeID, ctx any) error {
	n, err := f.get(id)
	if err != nil {
		return err
	}
	n.context = ctx
	n.hasCtx = ctx != nil
	f.markDirty(id)
	return nil
}

// Context returns the node's measure context and whether one is set.
func (f *Flex) Context(id NodeID) (any, bool, error) {
	n, err := f.get(id)
	if err != nil {
		return nil, false, err
	}
	return n.context, n.hasCtx, nil
}

// MarkDirty flags the node and its ancestors for recomputation.
func (f *Flex) MarkDirty(id NodeID) error {
	if _, err := f.get(id); err != nil {
		return err
	}
	f.markDirty(id)
	return nil
}

func (f *Flex) markDirty(id NodeID) {
	for cur := id; cur != 0; cur = f.nodes[cur-1].parent {
		f.nodes[cur-1].dirty = true
	}
}

// Dirty reports whether the node changed since the last layout.
func (f *Flex) Dirty(id NodeID) (bool, error) {
	n, err := f.get(id)
	if err != nil {
		return false, err
	}
	return n.dirty, nil
}

// Layout returns the computed geometry, rounded unless rounding is off.
func (f *Flex) Layout(id NodeID) (Layout, error) {
	n, err := f.get(id)
	if err != nil {
		return Layout{}, err
	}
	if f.rounding {
		return n.layout, nil
	}
	return n.unrounded, nil
}

// UnroundedLayout returns the fractional geometry.
func (f *Flex) UnroundedLayout(id NodeID) (Layout, error) {
	n, err := f.get(id)
	if err != nil {
		return Layout{}, err
	}
	return n.unrounded, nil
}

// SetRounding toggles snapping of layouts to whole pixels.
func (f *Flex) SetRounding(enabled bool) {
	f.rounding = enabled
}
