package tree

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/layout-bridge/engine"
	"github.com/wippyai/layout-bridge/style"
)

// MeasureInput is what a measure callback learns about the leaf being sized.
type MeasureInput = engine.MeasureInput

// MeasureFunc sizes the content of a leaf. Errors and panics are logged
// and the leaf gets a zero size; they never abort the layout pass.
// A MeasureFunc must not call back into the tree that invoked it; such
// calls fail with a reentrant_access error.
type MeasureFunc func(MeasureInput) (style.Size[float32], error)

// trampoline adapts a host MeasureFunc to the engine's infallible
// callback for the duration of one ComputeLayout.
type trampoline struct {
	fn       MeasureFunc
	log      *zap.Logger
	stats    *counters
	calls    int
	failures int
}

func (t *trampoline) measure(in engine.MeasureInput) (size style.Size[float32]) {
	t.calls++
	defer func() {
		if r := recover(); r != nil {
			t.fail(in, "measure callback panicked", zap.Any("panic", r))
			size = style.Size[float32]{}
		}
	}()

	if t.fn == nil {
		t.fail(in, "no measure callback")
		return style.Size[float32]{}
	}

	out, err := t.fn(in)
	if err != nil {
		t.fail(in, "measure callback failed", zap.Error(err))
		return style.Size[float32]{}
	}
	if err := checkSize(out); err != nil {
		t.fail(in, "measure callback returned a malformed size", zap.Error(err))
		return style.Size[float32]{}
	}
	return out
}

func (t *trampoline) fail(in engine.MeasureInput, msg string, fields ...zap.Field) {
	t.failures++
	if t.stats != nil {
		t.stats.measureFailures.Add(1)
	}
	fields = append(fields, zap.Uint64("node", uint64(in.Node)))
	t.log.Warn(msg, fields...)
}

func checkSize(s style.Size[float32]) error {
	for _, v := range [...]float32{s.Width, s.Height} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return fmt.Errorf("size %vx%v is not a finite non-negative pair", s.Width, s.Height)
		}
	}
	return nil
}
