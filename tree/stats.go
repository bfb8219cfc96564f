package tree

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/layout-bridge/epoch"
)

// Stats is a snapshot of a State's bookkeeping.
type Stats struct {
	Live            int    // handles with a current epoch
	Nodes           int    // nodes held by the engine
	Issued          uint64 // epochs issued
	Released        uint64 // epochs released by Free, Remove, or cleanup
	Deferred        uint64 // Free calls made while an operation was in flight
	Leaked          uint64 // cleanups that found the tree busy
	MeasureFailures uint64 // measure callbacks absorbed by the trampoline
	Clears          uint64
}

type counters struct {
	log             *zap.Logger
	issued          atomic.Uint64
	released        atomic.Uint64
	deferred        atomic.Uint64
	leaked          atomic.Uint64
	measureFailures atomic.Uint64
}

// OnEpochEvent counts table events.
func (c *counters) OnEpochEvent(e epoch.Event) {
	switch e.Type {
	case epoch.EventIssued:
		c.issued.Add(1)
	case epoch.EventReleased:
		c.released.Add(1)
	case epoch.EventSuperseded:
		// The engine handed out an id the table still tracked.
		c.log.Warn("handle reused while still registered",
			zap.Uint64("handle", e.Handle),
			zap.Uint64("previous_epoch", uint64(e.Prev)),
			zap.Uint64("epoch", uint64(e.Epoch)))
	}
}
