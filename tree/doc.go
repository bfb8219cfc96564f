// Package tree is the host-facing side of the layout engine. A State owns
// one engine together with an epoch table, so that every handle a host
// holds is paired with the generation it was issued under.
//
// Raw-handle methods on State accept any handle whose current epoch is
// live. Node wrappers are stricter: they remember their own epoch and go
// invalid as soon as the handle is released, even if the engine later
// hands the same number to another node.
//
// Every State operation holds a guard while it runs. Measure callbacks
// execute under that guard; calling back into the same State from one
// fails with a reentrant_access error instead of deadlocking. Node.Free
// is the exception: it may be called from anywhere, and a removal that
// cannot run immediately is queued until the current operation ends.
//
// Nodes that are dropped without Free are released by a runtime cleanup.
// If the tree is busy when the cleanup runs, the engine node is leaked
// rather than touched concurrently; Stats reports the count.
package tree
