package jsbind

import (
	"strings"

	"github.com/dop251/goja"

	"github.com/wippyai/layout-bridge/errors"
)

// setupLayoutError installs LayoutError, a subclass of Error carrying the
// bridge error fields.
func (b *binder) setupLayoutError() {
	vm := b.vm
	b.errorProto = vm.NewObject()
	errorProto := vm.Get("Error").ToObject(vm).Get("prototype").ToObject(vm)
	b.errorProto.SetPrototype(errorProto)
	b.errorProto.Set("name", "LayoutError")

	ctor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		exc := call.This
		exc.Set("message", call.Argument(0).String())
		kind := string(errors.KindEngineFailure)
		if arg := call.Argument(1); !goja.IsUndefined(arg) {
			kind = arg.String()
		}
		exc.Set("kind", kind)
		exc.Set("op", goja.Null())
		exc.Set("handle", goja.Null())
		return exc
	}).ToObject(vm)
	ctor.Set("prototype", b.errorProto)
	b.errorProto.Set("constructor", ctor)

	for _, k := range []errors.Kind{
		errors.KindInvalidHandle,
		errors.KindReentrantAccess,
		errors.KindEngineFailure,
		errors.KindSerialization,
	} {
		ctor.Set(strings.ToUpper(string(k)), string(k))
	}
	vm.Set("LayoutError", ctor)
}

// layoutError converts err into a LayoutError object.
func (b *binder) layoutError(err error) *goja.Object {
	vm := b.vm
	exc := vm.NewObject()
	exc.SetPrototype(b.errorProto)
	exc.Set("message", err.Error())

	var e *errors.Error
	if !errors.As(err, &e) {
		exc.Set("kind", string(errors.KindEngineFailure))
		exc.Set("op", goja.Null())
		exc.Set("handle", goja.Null())
		return exc
	}

	exc.Set("kind", string(e.Kind))
	exc.Set("phase", string(e.Phase))
	if e.Op != "" {
		exc.Set("op", e.Op)
	} else {
		exc.Set("op", goja.Null())
	}
	if e.HasHandle {
		exc.Set("handle", int64(e.Handle))
	} else {
		exc.Set("handle", goja.Null())
	}
	if len(e.Path) > 0 {
		exc.Set("path", strings.Join(e.Path, "."))
	}
	return exc
}

// throw raises err in the script as a LayoutError. It does not return.
func (b *binder) throw(err error) {
	panic(b.vm.ToValue(b.layoutError(err)))
}

// check throws if err is not nil.
func (b *binder) check(err error) {
	if err != nil {
		b.throw(err)
	}
}
