// Package jsbind exposes a tree.State to JavaScript running in goja.
//
// Bind installs three globals:
//
//	LayoutTree  constructor; each instance drives the bound State
//	NodeHandle  prototype of the handles returned by newLeaf and friends
//	LayoutError thrown for every bridge failure, with kind, op and handle
//
// Methods accept either a NodeHandle, which is checked against the epoch
// it was issued under, or a bare number used as a raw handle. A
// NodeHandle that scripts drop without calling free() is released once
// the Go garbage collector finds it unreachable.
//
// Measure callbacks passed to computeLayout are called as
// measure(known, available, node, context, style) and return
// {width, height}. known has undefined for an axis not yet determined;
// available holds numbers or "min-content" and "max-content".
// Exceptions and malformed results are logged and the leaf gets a zero
// size. Calling back into the tree from a callback throws a LayoutError
// of kind reentrant_access inside the callback.
package jsbind
