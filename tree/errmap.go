package tree

import (
	"github.com/wippyai/layout-bridge/engine"
	"github.com/wippyai/layout-bridge/errors"
)

// mapEngineError converts an engine error into the bridge taxonomy. A node
// the engine does not know is an invalid handle; everything else is passed
// through as an engine failure with the original error as its cause.
func mapEngineError(phase errors.Phase, op string, h Handle, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*errors.Error); ok {
		return err
	}
	if errors.Is(err, engine.ErrNodeNotFound) {
		e := errors.InvalidHandle(phase, op, uint64(h))
		e.Cause = err
		return e
	}
	e := errors.EngineFailure(phase, op, err)
	e.Handle = uint64(h)
	e.HasHandle = true
	return e
}
