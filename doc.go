// Package layoutbridge connects garbage-collected hosts to a flexbox
// layout engine through numeric node handles.
//
// The engine addresses nodes by recycled slot ids, so a handle alone
// cannot tell a live node from a newer one that reused its slot. The
// bridge pairs every handle with an epoch that is never reissued and
// checks it on each call. It also guards the engine against reentrant
// calls made from measure callbacks while a layout pass is running.
//
// # Architecture Overview
//
//	layoutbridge/
//	├── errors/       Structured errors with phase, kind, op and handle
//	├── style/        Style model and its JSON codec
//	├── engine/       Flexbox engine over recycled node slots
//	├── epoch/        Handle to epoch table with release notifications
//	├── tree/         Guarded bridge state, Node wrappers, measure trampoline
//	├── jsbind/       goja bindings: LayoutTree, NodeHandle, LayoutError
//	├── wasmmeasure/  Measure callbacks implemented by wasm modules (wazero)
//	└── cmd/layout/   CLI and terminal viewer for JSON tree descriptions
//
// # Quick Start
//
//	st := tree.New()
//	defer st.Close()
//
//	a, _ := st.NewLeaf(style.Default().WithSize(100, 50))
//	b, _ := st.NewLeaf(style.Default().WithSize(100, 50))
//	root, _ := st.NewWithChildren(style.Default(), a.ID(), b.ID())
//
//	if err := root.ComputeLayout(style.AvailableSize(300, 200), nil); err != nil {
//		return err
//	}
//	l, _ := b.Layout() // l.Location.X == 100
//
// A Node that becomes unreachable without Free is released by a runtime
// cleanup. Free and cleanups never run engine work while the guard is
// held: Free defers the removal until the current operation returns and
// a cleanup that finds the tree busy leaves the slot allocated.
//
// # Logging
//
// Packages log through zap and default to a no-op logger. Use each
// package's SetLogger, or tree.Config.Logger for a single State.
package layoutbridge
