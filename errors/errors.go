package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates which bridge operation produced the error
type Phase string

const (
	PhaseCreate   Phase = "create"   // node allocation
	PhaseStyle    Phase = "style"    // style read/write
	PhaseChildren Phase = "children" // structural edits and queries
	PhaseContext  Phase = "context"  // node context values
	PhaseCompute  Phase = "compute"  // layout computation
	PhaseLayout   Phase = "layout"   // layout read-back
	PhaseRemove   Phase = "remove"   // node removal and tree reset
	PhaseMeasure  Phase = "measure"  // measure callback bridging
	PhaseEncode   Phase = "encode"   // Go to host
	PhaseDecode   Phase = "decode"   // host to Go
	PhaseHost     Phase = "host"     // host binding setup
	PhaseLoad     Phase = "load"     // measure module loading
)

// Kind categorizes the error. The set is closed: hosts switch on these
// four values.
type Kind string

const (
	KindInvalidHandle   Kind = "invalid_handle"
	KindReentrantAccess Kind = "reentrant_access"
	KindEngineFailure   Kind = "engine_failure"
	KindSerialization   Kind = "serialization_failure"
)

// Sentinels for errors.Is checks that only care about the kind.
var (
	ErrInvalidHandle   = &Error{Kind: KindInvalidHandle}
	ErrReentrantAccess = &Error{Kind: KindReentrantAccess}
	ErrEngineFailure   = &Error{Kind: KindEngineFailure}
	ErrSerialization   = &Error{Kind: KindSerialization}
)

// Error is the structured error type returned across the bridge
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Op        string
	Detail    string
	Path      []string
	Handle    uint64
	HasHandle bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" || e.HasHandle {
		b.WriteString(": ")
		if e.Op != "" {
			b.WriteString(e.Op)
		}
		if e.HasHandle {
			if e.Op != "" {
				b.WriteString(" on ")
			}
			b.WriteString("node ")
			b.WriteString(strconv.FormatUint(e.Handle, 10))
		}
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		if e.Op != "" || e.HasHandle || len(e.Path) > 0 {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. An empty Phase on the
// target matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the name of the operation that failed
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Handle sets the node handle involved
func (b *Builder) Handle(h uint64) *Builder {
	b.err.Handle = h
	b.err.HasHandle = true
	return b
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the bridge taxonomy

// InvalidHandle reports an operation on a handle whose epoch is not current
func InvalidHandle(phase Phase, op string, handle uint64) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindInvalidHandle,
		Op:        op,
		Handle:    handle,
		HasHandle: true,
		Detail:    "handle is freed, stale, or was never allocated",
	}
}

// Released reports an operation on a NodeHandle that was already freed
func Released(phase Phase, op string, handle uint64) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindInvalidHandle,
		Op:        op,
		Handle:    handle,
		HasHandle: true,
		Detail:    "node handle was released",
	}
}

// ReentrantAccess reports an attempt to enter the tree while another
// operation holds it
func ReentrantAccess(phase Phase, op, holder string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReentrantAccess,
		Op:     op,
		Detail: fmt.Sprintf("tree is in use by %s; do not call back into the tree from a measure callback", holder),
	}
}

// EngineFailure wraps an error reported by the layout engine without
// reinterpreting it
func EngineFailure(phase Phase, op string, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindEngineFailure,
		Op:    op,
		Cause: cause,
	}
}

// Serialization reports a value that could not cross the host boundary
func Serialization(phase Phase, path []string, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSerialization,
		Path:   path,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a measure module loading error. The module could not be
// compiled or instantiated.
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindEngineFailure,
		Detail: detail,
		Cause:  cause,
	}
}

// Closed reports an operation on a tree that was torn down
func Closed(phase Phase, op string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEngineFailure,
		Op:     op,
		Detail: "tree is closed",
	}
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, or "".
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
