package wasmmeasure

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/layout-bridge/engine"
	"github.com/wippyai/layout-bridge/errors"
	"github.com/wippyai/layout-bridge/style"
	"github.com/wippyai/layout-bridge/tree"
)

const (
	// DefaultExport is the function looked up when Config.Export is empty.
	DefaultExport = "measure"

	// HostModule is the import namespace of the host functions.
	HostModule = "layout"

	minContent = -1
	maxContent = -2
)

var (
	measureParams  = []api.ValueType{api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF32, api.ValueTypeF32, api.ValueTypeF32}
	measureResults = []api.ValueType{api.ValueTypeF32, api.ValueTypeF32}
)

// Config holds configuration for Load
type Config struct {
	// Export names the measure function. Empty means DefaultExport.
	Export string

	// MemoryLimitPages caps guest memory in 64KB pages. 0 keeps the
	// wazero default.
	MemoryLimitPages uint32

	// Timeout bounds each measure call. A call that runs past it is
	// aborted and the module is closed. 0 means no limit.
	Timeout time.Duration
}

// Measurer calls a wasm measure export. It is safe for concurrent use;
// calls are serialized.
type Measurer struct {
	runtime wazero.Runtime
	module  api.Module
	fn      api.Function
	log     *zap.Logger
	timeout time.Duration
	mu      sync.Mutex
}

type inputKey struct{}

// Load compiles and instantiates wasm and resolves its measure export.
func Load(ctx context.Context, wasm []byte, cfg *Config) (*Measurer, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	export := cfg.Export
	if export == "" {
		export = DefaultExport
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.Timeout > 0 {
		runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	m, err := load(ctx, rt, wasm, export)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	m.timeout = cfg.Timeout
	return m, nil
}

func load(ctx context.Context, rt wazero.Runtime, wasm []byte, export string) (*Measurer, error) {
	_, err := rt.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(contextLength), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI32}).
		Export("context_length").
		Instantiate(ctx)
	if err != nil {
		return nil, errors.Load("instantiate host module", err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile measure module", err)
	}

	def, ok := compiled.ExportedFunctions()[export]
	if !ok {
		return nil, errors.Serialization(errors.PhaseLoad, []string{"exports", export},
			fmt.Sprintf("module does not export %q", export), nil)
	}
	if !slices.Equal(def.ParamTypes(), measureParams) || !slices.Equal(def.ResultTypes(), measureResults) {
		return nil, errors.Serialization(errors.PhaseLoad, []string{"exports", export},
			fmt.Sprintf("export %q has signature %s, want (i64, f32, f32, f32, f32) -> (f32, f32)", export, signature(def)), nil)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return nil, errors.Load("instantiate measure module", err)
	}

	log := Logger()
	log.Debug("loaded measure module", zap.String("export", export), zap.Int("bytes", len(wasm)))
	return &Measurer{
		runtime: rt,
		module:  mod,
		fn:      mod.ExportedFunction(export),
		log:     log,
	}, nil
}

// Measure sizes one leaf.
func (m *Measurer) Measure(ctx context.Context, in tree.MeasureInput) (style.Size[float32], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	ctx = context.WithValue(ctx, inputKey{}, &in)

	results, err := m.fn.Call(ctx,
		uint64(in.Node),
		api.EncodeF32(encodeKnown(in.Known.Width)),
		api.EncodeF32(encodeKnown(in.Known.Height)),
		api.EncodeF32(encodeSpace(in.Available.Width)),
		api.EncodeF32(encodeSpace(in.Available.Height)),
	)
	if err != nil {
		m.log.Debug("measure call failed", zap.Uint64("node", uint64(in.Node)), zap.Error(err))
		return style.Size[float32]{}, errors.Wrap(errors.PhaseMeasure, errors.KindEngineFailure, err,
			fmt.Sprintf("measure node %d", in.Node))
	}
	return style.Size[float32]{
		Width:  api.DecodeF32(results[0]),
		Height: api.DecodeF32(results[1]),
	}, nil
}

// Func returns a tree.MeasureFunc backed by m. Traps and timeouts become
// callback errors, which the layout pass absorbs.
func (m *Measurer) Func() tree.MeasureFunc {
	return func(in tree.MeasureInput) (style.Size[float32], error) {
		return m.Measure(context.Background(), in)
	}
}

// Close releases the module and its runtime.
func (m *Measurer) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

func encodeKnown(k engine.Known) float32 {
	if v, ok := k.Get(); ok {
		return v
	}
	return float32(math.NaN())
}

func encodeSpace(a style.AvailableSpace) float32 {
	switch a.Kind {
	case style.SpaceMinContent:
		return minContent
	case style.SpaceMaxContent:
		return maxContent
	default:
		return a.Value
	}
}

// contextLength implements layout.context_length.
func contextLength(ctx context.Context, _ api.Module, stack []uint64) {
	in, _ := ctx.Value(inputKey{}).(*tree.MeasureInput)
	n := int32(-1)
	if in != nil && uint64(in.Node) == stack[0] {
		switch c := in.Context.(type) {
		case string:
			n = int32(len(c))
		case []byte:
			n = int32(len(c))
		case fmt.Stringer:
			n = int32(len(c.String()))
		}
	}
	stack[0] = api.EncodeI32(n)
}

func signature(def api.FunctionDefinition) string {
	names := func(ts []api.ValueType) string {
		out := "("
		for i, t := range ts {
			if i > 0 {
				out += ", "
			}
			out += api.ValueTypeName(t)
		}
		return out + ")"
	}
	return names(def.ParamTypes()) + " -> " + names(def.ResultTypes())
}
