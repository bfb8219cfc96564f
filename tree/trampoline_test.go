package tree

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/layout-bridge/style"
)

func observed(t *testing.T) (*State, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	st := NewWithConfig(&Config{Logger: zap.New(core)})
	t.Cleanup(func() { _ = st.Close() })
	return st, logs
}

func TestTrampoline_FailureIsolation(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name    string
		fail    MeasureFunc
		message string
	}{
		{
			name: "error",
			fail: func(MeasureInput) (style.Size[float32], error) {
				return style.Size[float32]{Width: 99, Height: 99}, fmt.Errorf("font not loaded")
			},
			message: "measure callback failed",
		},
		{
			name: "panic",
			fail: func(MeasureInput) (style.Size[float32], error) {
				panic("boom")
			},
			message: "measure callback panicked",
		},
		{
			name: "nan",
			fail: func(MeasureInput) (style.Size[float32], error) {
				return style.Size[float32]{Width: nan, Height: 10}, nil
			},
			message: "measure callback returned a malformed size",
		},
		{
			name: "negative",
			fail: func(MeasureInput) (style.Size[float32], error) {
				return style.Size[float32]{Width: 10, Height: -1}, nil
			},
			message: "measure callback returned a malformed size",
		},
		{
			name: "infinite",
			fail: func(MeasureInput) (style.Size[float32], error) {
				return style.Size[float32]{Width: float32(math.Inf(1)), Height: 1}, nil
			},
			message: "measure callback returned a malformed size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, logs := observed(t)

			bad, err := st.NewLeafWithContext(style.Default(), "bad")
			require.NoError(t, err)
			good, err := st.NewLeafWithContext(style.Default(), "good")
			require.NoError(t, err)
			root, err := st.NewWithChildren(style.Default(), bad.ID(), good.ID())
			require.NoError(t, err)

			measure := func(in MeasureInput) (style.Size[float32], error) {
				if in.Context == "bad" {
					return tt.fail(in)
				}
				return style.Size[float32]{Width: 40, Height: 12}, nil
			}
			require.NoError(t, root.ComputeLayout(style.AvailableSize(300, 200), measure))

			bl, err := bad.Layout()
			require.NoError(t, err)
			gl, err := good.Layout()
			require.NoError(t, err)

			assert.Equal(t, float32(0), bl.Size.Width, "failed leaf gets a zero size")
			assert.Equal(t, float32(0), gl.Location.X)
			assert.Equal(t, float32(40), gl.Size.Width)

			entries := logs.FilterMessage(tt.message).All()
			require.NotEmpty(t, entries)
			assert.Equal(t, uint64(bad.ID()), entries[0].ContextMap()["node"])
			assert.Equal(t, uint64(len(logs.FilterMessageSnippet("measure callback").All())), st.Stats().MeasureFailures)
		})
	}
}

func TestTrampoline_NilCallback(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tr := &trampoline{log: zap.New(core), stats: &counters{}}

	got := tr.measure(MeasureInput{Node: 3})
	assert.Equal(t, style.Size[float32]{}, got)
	assert.Equal(t, 1, tr.failures)
	assert.Equal(t, uint64(1), tr.stats.measureFailures.Load())
	require.Equal(t, 1, logs.FilterMessage("no measure callback").Len())
}

func TestTrampoline_PassesThroughValidSizes(t *testing.T) {
	tr := &trampoline{
		log: zap.NewNop(),
		fn: func(in MeasureInput) (style.Size[float32], error) {
			w, _ := in.Known.Width.Get()
			return style.Size[float32]{Width: w, Height: 7}, nil
		},
	}
	in := MeasureInput{}
	in.Known.Width.Value, in.Known.Width.Valid = 25, true

	assert.Equal(t, style.Size[float32]{Width: 25, Height: 7}, tr.measure(in))
	assert.Equal(t, 1, tr.calls)
	assert.Zero(t, tr.failures)
}

func TestCheckSize(t *testing.T) {
	assert.NoError(t, checkSize(style.Size[float32]{}))
	assert.NoError(t, checkSize(style.Size[float32]{Width: 1.5, Height: 1e6}))
	assert.Error(t, checkSize(style.Size[float32]{Width: -0.5}))
	assert.Error(t, checkSize(style.Size[float32]{Height: float32(math.Inf(-1))}))
}
