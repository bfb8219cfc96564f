package jsbind

import (
	"fmt"
	"strconv"

	"github.com/dop251/goja"

	"github.com/wippyai/layout-bridge/engine"
	"github.com/wippyai/layout-bridge/errors"
	"github.com/wippyai/layout-bridge/style"
	"github.com/wippyai/layout-bridge/tree"
)

// styleArg decodes a style object. undefined and null mean the default
// style.
func (b *binder) styleArg(v goja.Value) (style.Style, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return style.Default(), nil
	}
	m, ok := v.Export().(map[string]any)
	if !ok {
		return style.Style{}, errors.Serialization(errors.PhaseDecode, []string{"style"}, "style must be an object", nil)
	}
	return style.FromMap(m)
}

func (b *binder) availableArg(v goja.Value) (style.Size[style.AvailableSpace], error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return style.Size[style.AvailableSpace]{Width: style.MaxContent(), Height: style.MaxContent()}, nil
	}
	return style.ParseAvailableSize(v.Export())
}

// contextArg keeps script values as they are so context() hands back the
// identical object.
func contextArg(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) {
		return nil
	}
	return v
}

func (b *binder) contextValue(ctx any) goja.Value {
	switch c := ctx.(type) {
	case nil:
		return goja.Undefined()
	case goja.Value:
		return c
	default:
		return b.vm.ToValue(c)
	}
}

func rectValue(r style.Rect[float32]) map[string]any {
	return map[string]any{
		"left":   float64(r.Left),
		"right":  float64(r.Right),
		"top":    float64(r.Top),
		"bottom": float64(r.Bottom),
	}
}

func sizeValue(s style.Size[float32]) map[string]any {
	return map[string]any{"width": float64(s.Width), "height": float64(s.Height)}
}

// layoutValue renders l with the same field names as its JSON form, plus
// flat x, y, width and height for convenience.
func layoutValue(l engine.Layout) map[string]any {
	return map[string]any{
		"order":       int64(l.Order),
		"location":    map[string]any{"x": float64(l.Location.X), "y": float64(l.Location.Y)},
		"size":        sizeValue(l.Size),
		"contentSize": sizeValue(l.ContentSize),
		"border":      rectValue(l.Border),
		"padding":     rectValue(l.Padding),
		"margin":      rectValue(l.Margin),
		"x":           float64(l.Location.X),
		"y":           float64(l.Location.Y),
		"width":       float64(l.Size.Width),
		"height":      float64(l.Size.Height),
	}
}

func spaceValue(a style.AvailableSpace) any {
	if px, ok := a.Px(); ok {
		return float64(px)
	}
	return a.String()
}

func knownValue(k engine.Known) any {
	if v, ok := k.Get(); ok {
		return float64(v)
	}
	return goja.Undefined()
}

// measureArgs are the positional arguments a script measure callback
// receives: (known, available, node, context, style).
func (b *binder) measureArgs(in tree.MeasureInput) []goja.Value {
	vm := b.vm
	known := vm.ToValue(map[string]any{
		"width":  knownValue(in.Known.Width),
		"height": knownValue(in.Known.Height),
	})
	available := vm.ToValue(map[string]any{
		"width":  spaceValue(in.Available.Width),
		"height": spaceValue(in.Available.Height),
	})
	st := goja.Undefined()
	if in.Style != nil {
		st = vm.ToValue(style.ToMap(*in.Style))
	}
	return []goja.Value{known, available, vm.ToValue(int64(in.Node)), b.contextValue(in.Context), st}
}

// measureFunc adapts a script value to a tree.MeasureFunc. A missing
// callback means no measuring; anything else that is not a function
// fails on every call, which the trampoline absorbs.
func (b *binder) measureFunc(v goja.Value) tree.MeasureFunc {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		kind := v.ExportType()
		return func(tree.MeasureInput) (style.Size[float32], error) {
			return style.Size[float32]{}, fmt.Errorf("measure is not a function (got %v)", kind)
		}
	}
	return func(in tree.MeasureInput) (style.Size[float32], error) {
		res, err := fn(goja.Undefined(), b.measureArgs(in)...)
		if err != nil {
			return style.Size[float32]{}, err
		}
		return measureResult(res)
	}
}

func measureResult(v goja.Value) (style.Size[float32], error) {
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		return style.Size[float32]{}, fmt.Errorf("measure must return {width, height}, got %v", v)
	}
	var out style.Size[float32]
	for _, axis := range [...]struct {
		name string
		dst  *float32
	}{{"width", &out.Width}, {"height", &out.Height}} {
		raw := obj.Get(axis.name)
		if raw == nil || goja.IsUndefined(raw) {
			return style.Size[float32]{}, fmt.Errorf("measure result is missing %s", axis.name)
		}
		f, ok := toFloat(raw.Export())
		if !ok {
			return style.Size[float32]{}, fmt.Errorf("measure result %s is not a number", axis.name)
		}
		*axis.dst = float32(f)
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
