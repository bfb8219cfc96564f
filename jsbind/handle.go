package jsbind

import (
	"math"

	"github.com/dop251/goja"

	"github.com/wippyai/layout-bridge/errors"
	"github.com/wippyai/layout-bridge/tree"
)

// setupNodeHandle installs the NodeHandle prototype. Scripts cannot
// construct handles; they only receive them from a LayoutTree.
func (b *binder) setupNodeHandle() {
	vm := b.vm
	b.nodeKey = goja.NewSymbol("NodeHandle.node")
	b.nodeProto = vm.NewObject()

	b.nodeProto.DefineAccessorProperty("id", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(int64(b.nodeOf(call.This).ID()))
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	b.nodeProto.DefineAccessorProperty("epoch", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(int64(b.nodeOf(call.This).Epoch()))
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	b.nodeProto.DefineAccessorProperty("released", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(b.nodeOf(call.This).Released())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	b.nodeProto.DefineAccessorProperty("valid", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(b.nodeOf(call.This).Valid())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	// free() is idempotent and never throws.
	b.nodeProto.Set("free", func(call goja.FunctionCall) goja.Value {
		b.nodeOf(call.This).Free()
		return goja.Undefined()
	})

	b.nodeProto.Set("toString", func(call goja.FunctionCall) goja.Value {
		n := b.nodeOf(call.This)
		return vm.ToValue("NodeHandle(" + formatUint(uint64(n.ID())) + "@" + formatUint(uint64(n.Epoch())) + ")")
	})

	ctor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		panic(vm.NewTypeError("Illegal constructor"))
	}).ToObject(vm)
	ctor.Set("prototype", b.nodeProto)
	b.nodeProto.Set("constructor", ctor)
	vm.Set("NodeHandle", ctor)
}

// wrap returns a script object that owns n. While the object is
// reachable, so is n; once both are garbage the node's cleanup runs.
func (b *binder) wrap(n *tree.Node) *goja.Object {
	obj := b.vm.NewObject()
	obj.SetPrototype(b.nodeProto)
	obj.DefineDataPropertySymbol(b.nodeKey, b.vm.ToValue(n), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
	return obj
}

// unwrap returns the node behind a NodeHandle object, or nil.
func (b *binder) unwrap(v goja.Value) *tree.Node {
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		return nil
	}
	inner := obj.GetSymbol(b.nodeKey)
	if inner == nil || goja.IsUndefined(inner) {
		return nil
	}
	n, _ := inner.Export().(*tree.Node)
	return n
}

func (b *binder) nodeOf(this goja.Value) *tree.Node {
	n := b.unwrap(this)
	if n == nil {
		panic(b.vm.NewTypeError("Illegal invocation: receiver is not a NodeHandle"))
	}
	return n
}

// handle resolves a node argument: a NodeHandle, checked against its
// epoch, or a bare number used as a raw handle.
func (b *binder) handle(phase errors.Phase, op string, v goja.Value) (tree.Handle, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0, errors.Serialization(errors.PhaseDecode, []string{op, "node"}, "missing node argument", nil)
	}
	if n := b.unwrap(v); n != nil {
		if n.Released() {
			return 0, errors.Released(phase, op, uint64(n.ID()))
		}
		if !n.Valid() {
			return 0, errors.InvalidHandle(phase, op, uint64(n.ID()))
		}
		return n.ID(), nil
	}

	f, ok := toFloat(v.Export())
	if !ok {
		return 0, errors.Serialization(errors.PhaseDecode, []string{op, "node"}, "expected a NodeHandle or a number", nil)
	}
	if f < 0 || f != math.Trunc(f) || f > 1<<53 {
		return 0, errors.InvalidHandle(phase, op, uint64(max(f, 0)))
	}
	return tree.Handle(f), nil
}

// handles resolves an array of node arguments.
func (b *binder) handles(phase errors.Phase, op string, v goja.Value) ([]tree.Handle, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Array" {
		return nil, errors.Serialization(errors.PhaseDecode, []string{op, "children"}, "expected an array", nil)
	}
	length := int(obj.Get("length").ToInteger())
	out := make([]tree.Handle, 0, length)
	for i := range length {
		h, err := b.handle(phase, op, obj.Get(formatUint(uint64(i))))
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
