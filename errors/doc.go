// Package errors provides structured error types for the layout bridge.
//
// Errors are categorized by Phase (which bridge operation failed) and Kind.
// Hosts only ever see four kinds:
//
//	invalid_handle        - handle freed, stale, recycled, or never allocated
//	reentrant_access      - tree entered again while an operation is in flight
//	engine_failure        - the layout engine reported an error
//	serialization_failure - a style or geometry value could not be marshaled
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseStyle, errors.KindInvalidHandle).
//		Op("set_style").
//		Handle(42).
//		Detail("handle was released").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle(errors.PhaseLayout, "get_layout", h)
//	err := errors.ReentrantAccess(errors.PhaseStyle, "set_style", "compute_layout")
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match on kind alone:
//
//	if errors.Is(err, errors.ErrInvalidHandle) { ... }
package errors
