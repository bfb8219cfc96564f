package engine

import (
	"errors"

	"github.com/wippyai/layout-bridge/style"
)

var (
	ErrNodeNotFound          = errors.New("node not found")
	ErrChildIndexOutOfBounds = errors.New("child index out of bounds")
	ErrInvalidParent         = errors.New("node is not a child of the given parent")
	ErrCycle                 = errors.New("child is an ancestor of the parent")
)

// NodeID identifies a node inside one engine. IDs of removed nodes are
// reused by later allocations. Zero is never a valid id.
type NodeID uint64

// Known is a dimension that may not be determined yet.
type Known struct {
	Value float32
	Valid bool
}

// Some returns a determined dimension.
func Some(v float32) Known {
	return Known{Value: v, Valid: true}
}

// Get returns the value and whether it is determined.
func (k Known) Get() (float32, bool) {
	return k.Value, k.Valid
}

// MeasureInput is what the engine knows about a leaf it cannot size on its own.
type MeasureInput struct {
	Context   any
	Style     *style.Style // snapshot; mutations are not seen by the engine
	Known     style.Size[Known]
	Available style.Size[style.AvailableSpace]
	Node      NodeID
	HasCtx    bool
}

// MeasureFunc returns the content size of a leaf. It must not call back
// into the engine that invoked it.
type MeasureFunc func(MeasureInput) style.Size[float32]

// Point is a position relative to the parent's border box.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Layout is the computed geometry of one node.
type Layout struct {
	Order       uint32              `json:"order"`
	Location    Point               `json:"location"`
	Size        style.Size[float32] `json:"size"`
	ContentSize style.Size[float32] `json:"contentSize"`
	Border      style.Rect[float32] `json:"border"`
	Padding     style.Rect[float32] `json:"padding"`
	Margin      style.Rect[float32] `json:"margin"`
}

// ContentBox returns the area inside border and padding, relative to the
// node's own origin.
func (l Layout) ContentBox() (x, y, width, height float32) {
	x = l.Border.Left + l.Padding.Left
	y = l.Border.Top + l.Padding.Top
	width = l.Size.Width - x - l.Border.Right - l.Padding.Right
	height = l.Size.Height - y - l.Border.Bottom - l.Padding.Bottom
	return x, y, max(0, width), max(0, height)
}

// Engine is a tree-structured layout engine addressed by numeric ids.
// Implementations are not safe for concurrent use.
type Engine interface {
	NewLeaf(s style.Style) (NodeID, error)
	NewLeafWithContext(s style.Style, ctx any) (NodeID, error)
	NewWithChildren(s style.Style, children []NodeID) (NodeID, error)

	// Remove deletes a node, detaching it from its parent and orphaning its
	// children. It returns the removed id.
	Remove(n NodeID) (NodeID, error)
	Clear()
	Contains(n NodeID) bool
	TotalNodeCount() int

	AddChild(parent, child NodeID) error
	InsertChildAtIndex(parent NodeID, index int, child NodeID) error
	SetChildren(parent NodeID, children []NodeID) error
	RemoveChild(parent, child NodeID) (NodeID, error)
	RemoveChildAtIndex(parent NodeID, index int) (NodeID, error)
	ReplaceChildAtIndex(parent NodeID, index int, child NodeID) (NodeID, error)
	RemoveChildrenRange(parent NodeID, start, end int) error
	ChildAtIndex(parent NodeID, index int) (NodeID, error)
	Children(parent NodeID) ([]NodeID, error)
	ChildCount(parent NodeID) (int, error)
	Parent(child NodeID) (NodeID, bool, error)

	SetStyle(n NodeID, s style.Style) error
	Style(n NodeID) (style.Style, error)
	SetContext(n NodeID, ctx any) error
	Context(n NodeID) (any, bool, error)

	MarkDirty(n NodeID) error
	Dirty(n NodeID) (bool, error)

	// ComputeLayout lays out the subtree at root. measure may be nil.
	ComputeLayout(root NodeID, available style.Size[style.AvailableSpace], measure MeasureFunc) error
	Layout(n NodeID) (Layout, error)
	UnroundedLayout(n NodeID) (Layout, error)
	SetRounding(enabled bool)

	PrintTree(n NodeID) (string, error)
}
