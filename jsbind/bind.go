package jsbind

import (
	"github.com/dop251/goja"

	"github.com/wippyai/layout-bridge/errors"
	"github.com/wippyai/layout-bridge/style"
	"github.com/wippyai/layout-bridge/tree"
)

type binder struct {
	vm         *goja.Runtime
	state      func() *tree.State
	nodeProto  *goja.Object
	errorProto *goja.Object
	nodeKey    *goja.Symbol
}

// Bind installs LayoutTree, NodeHandle and LayoutError in vm. Every
// LayoutTree created by scripts drives st; a nil st means tree.Default().
//
// The runtime is not safe for concurrent use and neither is the binding:
// call into vm from one goroutine at a time.
func Bind(vm *goja.Runtime, st *tree.State) error {
	if vm == nil {
		return errors.Serialization(errors.PhaseHost, nil, "runtime is nil", nil)
	}
	b := &binder{vm: vm, state: func() *tree.State { return st }}
	if st == nil {
		b.state = tree.Default
	}
	b.setupLayoutError()
	b.setupNodeHandle()
	b.setupLayoutTree()
	return nil
}

func (b *binder) setupLayoutTree() {
	vm := b.vm
	proto := vm.NewObject()
	ctor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		obj := call.This
		b.installTree(obj, b.state())
		return obj
	}).ToObject(vm)
	ctor.Set("prototype", proto)
	proto.Set("constructor", ctor)
	vm.Set("LayoutTree", ctor)
}

// installTree defines the LayoutTree methods on obj. Failures are thrown
// as LayoutError.
func (b *binder) installTree(obj *goja.Object, st *tree.State) {
	vm := b.vm
	undef := goja.Undefined()

	node := func(phase errors.Phase, op string, v goja.Value) tree.Handle {
		h, err := b.handle(phase, op, v)
		b.check(err)
		return h
	}
	index := func(v goja.Value) int {
		return int(v.ToInteger())
	}
	handleValue := func(h tree.Handle) goja.Value {
		return vm.ToValue(int64(h))
	}

	obj.Set("newLeaf", func(call goja.FunctionCall) goja.Value {
		s, err := b.styleArg(call.Argument(0))
		b.check(err)
		var n *tree.Node
		if ctx := call.Argument(1); len(call.Arguments) > 1 && !goja.IsUndefined(ctx) {
			n, err = st.NewLeafWithContext(s, contextArg(ctx))
		} else {
			n, err = st.NewLeaf(s)
		}
		b.check(err)
		return b.wrap(n)
	})

	obj.Set("newWithChildren", func(call goja.FunctionCall) goja.Value {
		s, err := b.styleArg(call.Argument(0))
		b.check(err)
		children, err := b.handles(errors.PhaseCreate, "new_with_children", call.Argument(1))
		b.check(err)
		n, err := st.NewWithChildren(s, children...)
		b.check(err)
		return b.wrap(n)
	})

	obj.Set("setStyle", func(call goja.FunctionCall) goja.Value {
		h := node(errors.PhaseStyle, "set_style", call.Argument(0))
		s, err := b.styleArg(call.Argument(1))
		b.check(err)
		b.check(st.SetStyle(h, s))
		return undef
	})

	obj.Set("style", func(call goja.FunctionCall) goja.Value {
		s, err := st.Style(node(errors.PhaseStyle, "style", call.Argument(0)))
		b.check(err)
		return vm.ToValue(style.ToMap(s))
	})

	obj.Set("addChild", func(call goja.FunctionCall) goja.Value {
		parent := node(errors.PhaseChildren, "add_child", call.Argument(0))
		child := node(errors.PhaseChildren, "add_child", call.Argument(1))
		b.check(st.AddChild(parent, child))
		return undef
	})

	obj.Set("insertChildAtIndex", func(call goja.FunctionCall) goja.Value {
		parent := node(errors.PhaseChildren, "insert_child_at_index", call.Argument(0))
		child := node(errors.PhaseChildren, "insert_child_at_index", call.Argument(2))
		b.check(st.InsertChildAtIndex(parent, index(call.Argument(1)), child))
		return undef
	})

	obj.Set("setChildren", func(call goja.FunctionCall) goja.Value {
		parent := node(errors.PhaseChildren, "set_children", call.Argument(0))
		children, err := b.handles(errors.PhaseChildren, "set_children", call.Argument(1))
		b.check(err)
		b.check(st.SetChildren(parent, children...))
		return undef
	})

	obj.Set("removeChild", func(call goja.FunctionCall) goja.Value {
		parent := node(errors.PhaseChildren, "remove_child", call.Argument(0))
		child := node(errors.PhaseChildren, "remove_child", call.Argument(1))
		h, err := st.RemoveChild(parent, child)
		b.check(err)
		return handleValue(h)
	})

	obj.Set("removeChildAtIndex", func(call goja.FunctionCall) goja.Value {
		parent := node(errors.PhaseChildren, "remove_child_at_index", call.Argument(0))
		h, err := st.RemoveChildAtIndex(parent, index(call.Argument(1)))
		b.check(err)
		return handleValue(h)
	})

	obj.Set("replaceChildAtIndex", func(call goja.FunctionCall) goja.Value {
		parent := node(errors.PhaseChildren, "replace_child_at_index", call.Argument(0))
		child := node(errors.PhaseChildren, "replace_child_at_index", call.Argument(2))
		h, err := st.ReplaceChildAtIndex(parent, index(call.Argument(1)), child)
		b.check(err)
		return handleValue(h)
	})

	obj.Set("removeChildrenRange", func(call goja.FunctionCall) goja.Value {
		parent := node(errors.PhaseChildren, "remove_children_range", call.Argument(0))
		b.check(st.RemoveChildrenRange(parent, index(call.Argument(1)), index(call.Argument(2))))
		return undef
	})

	obj.Set("childAtIndex", func(call goja.FunctionCall) goja.Value {
		parent := node(errors.PhaseChildren, "child_at_index", call.Argument(0))
		h, err := st.ChildAtIndex(parent, index(call.Argument(1)))
		b.check(err)
		return handleValue(h)
	})

	obj.Set("children", func(call goja.FunctionCall) goja.Value {
		hs, err := st.Children(node(errors.PhaseChildren, "children", call.Argument(0)))
		b.check(err)
		out := make([]any, len(hs))
		for i, h := range hs {
			out[i] = int64(h)
		}
		return vm.NewArray(out...)
	})

	obj.Set("childCount", func(call goja.FunctionCall) goja.Value {
		n, err := st.ChildCount(node(errors.PhaseChildren, "child_count", call.Argument(0)))
		b.check(err)
		return vm.ToValue(n)
	})

	obj.Set("parent", func(call goja.FunctionCall) goja.Value {
		h, ok, err := st.Parent(node(errors.PhaseChildren, "parent", call.Argument(0)))
		b.check(err)
		if !ok {
			return goja.Null()
		}
		return handleValue(h)
	})

	obj.Set("markDirty", func(call goja.FunctionCall) goja.Value {
		b.check(st.MarkDirty(node(errors.PhaseStyle, "mark_dirty", call.Argument(0))))
		return undef
	})

	obj.Set("dirty", func(call goja.FunctionCall) goja.Value {
		d, err := st.Dirty(node(errors.PhaseStyle, "dirty", call.Argument(0)))
		b.check(err)
		return vm.ToValue(d)
	})

	obj.Set("setContext", func(call goja.FunctionCall) goja.Value {
		h := node(errors.PhaseContext, "set_context", call.Argument(0))
		b.check(st.SetContext(h, contextArg(call.Argument(1))))
		return undef
	})

	obj.Set("context", func(call goja.FunctionCall) goja.Value {
		ctx, err := st.Context(node(errors.PhaseContext, "context", call.Argument(0)))
		b.check(err)
		return b.contextValue(ctx)
	})

	obj.Set("computeLayout", func(call goja.FunctionCall) goja.Value {
		root := node(errors.PhaseCompute, "compute_layout", call.Argument(0))
		space, err := b.availableArg(call.Argument(1))
		b.check(err)
		b.check(st.ComputeLayout(root, space, b.measureFunc(call.Argument(2))))
		return undef
	})

	obj.Set("getLayout", func(call goja.FunctionCall) goja.Value {
		l, err := st.Layout(node(errors.PhaseLayout, "get_layout", call.Argument(0)))
		b.check(err)
		return vm.ToValue(layoutValue(l))
	})

	obj.Set("unroundedLayout", func(call goja.FunctionCall) goja.Value {
		l, err := st.UnroundedLayout(node(errors.PhaseLayout, "unrounded_layout", call.Argument(0)))
		b.check(err)
		return vm.ToValue(layoutValue(l))
	})

	obj.Set("enableRounding", func(goja.FunctionCall) goja.Value {
		b.check(st.EnableRounding())
		return undef
	})

	obj.Set("disableRounding", func(goja.FunctionCall) goja.Value {
		b.check(st.DisableRounding())
		return undef
	})

	obj.Set("remove", func(call goja.FunctionCall) goja.Value {
		h, err := st.Remove(node(errors.PhaseRemove, "remove", call.Argument(0)))
		b.check(err)
		return handleValue(h)
	})

	obj.Set("clear", func(goja.FunctionCall) goja.Value {
		b.check(st.Clear())
		return undef
	})

	obj.Set("totalNodeCount", func(goja.FunctionCall) goja.Value {
		n, err := st.TotalNodeCount()
		b.check(err)
		return vm.ToValue(n)
	})

	obj.Set("printTree", func(call goja.FunctionCall) goja.Value {
		out, err := st.PrintTree(node(errors.PhaseLayout, "print_tree", call.Argument(0)))
		b.check(err)
		return vm.ToValue(out)
	})

	obj.Set("stats", func(goja.FunctionCall) goja.Value {
		s := st.Stats()
		return vm.ToValue(map[string]any{
			"live":            s.Live,
			"nodes":           s.Nodes,
			"issued":          int64(s.Issued),
			"released":        int64(s.Released),
			"deferred":        int64(s.Deferred),
			"leaked":          int64(s.Leaked),
			"measureFailures": int64(s.MeasureFailures),
			"clears":          int64(s.Clears),
		})
	})
}

// MeasureFunc adapts a script function to a tree.MeasureFunc, for hosts
// that drive layout from Go but measure in script. fn is called as
// fn(known, available, node, context, style), like computeLayout callbacks.
func MeasureFunc(vm *goja.Runtime, fn goja.Value) tree.MeasureFunc {
	return (&binder{vm: vm}).measureFunc(fn)
}
