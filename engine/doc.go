// Package engine is the layout engine the bridge drives.
//
// The Engine interface is the whole contract the bridge relies on: nodes
// are addressed by NodeID, carry a style.Style and an optional context
// value, form a tree, and get a Layout after ComputeLayout. The bridge
// never looks inside an implementation.
//
// # Flex
//
// Flex is the bundled implementation: a single-line flexbox supporting
// direction (including reverse), grow, shrink and basis, min/max sizes,
// aspect ratio, gap, margin (including auto), padding, border, justify
// content, align items/self, and display none.
//
// Node slots live in a slice with a free list. A removed id is handed to
// the very next allocation, which is what makes stale numeric handles
// dangerous and why the bridge tags them with epochs.
//
// # Measuring
//
// Leaves that are not fully sized by their style are measured by the
// MeasureFunc passed to ComputeLayout. The function may be called several
// times per leaf per pass (flex basis, automatic minimum, cross size) and
// receives the known content-box dimensions, the available space, the
// node id, its context and a style snapshot.
//
// # Rounding
//
// Computed geometry is kept unrounded. Layout reports pixel-snapped values
// unless rounding is disabled; UnroundedLayout always reports the
// fractional ones.
//
// # Errors
//
// Operations on ids that are not live return ErrNodeNotFound. Structural
// edits can also fail with ErrChildIndexOutOfBounds, ErrInvalidParent, or
// ErrCycle. Errors wrap these sentinels with the ids involved.
package engine
