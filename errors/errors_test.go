package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "invalid handle",
			err:      InvalidHandle(PhaseStyle, "set_style", 9999999),
			contains: []string{"[style]", "invalid_handle", "set_style on node 9999999", "never allocated"},
		},
		{
			name:     "reentrant",
			err:      ReentrantAccess(PhaseStyle, "set_style", "compute_layout"),
			contains: []string{"[style]", "reentrant_access", "set_style", "in use by compute_layout"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseCompute,
				Kind:  KindEngineFailure,
			},
			contains: []string{"[compute]", "engine_failure"},
		},
		{
			name:     "serialization with path and cause",
			err:      Serialization(PhaseDecode, []string{"style", "size", "width"}, "bad dimension", errors.New("underlying")),
			contains: []string{"[decode]", "serialization_failure", "style.size.width", "bad dimension", "caused by", "underlying"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := EngineFailure(PhaseChildren, "add_child", cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := InvalidHandle(PhaseLayout, "get_layout", 3)

	if !errors.Is(err, ErrInvalidHandle) {
		t.Error("sentinel without phase should match any phase")
	}
	if !errors.Is(err, &Error{Phase: PhaseLayout, Kind: KindInvalidHandle}) {
		t.Error("same phase and kind should match")
	}
	if errors.Is(err, &Error{Phase: PhaseStyle, Kind: KindInvalidHandle}) {
		t.Error("different phase should not match")
	}
	if errors.Is(err, ErrReentrantAccess) {
		t.Error("different kind should not match")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !errors.Is(wrapped, ErrInvalidHandle) {
		t.Error("wrapped error should still match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseChildren, KindEngineFailure).
		Op("insert_child_at_index").
		Handle(7).
		Path("children", "3").
		Value(3).
		Cause(cause).
		Detail("index %d out of %d", 3, 2).
		Build()

	if err.Phase != PhaseChildren {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseChildren)
	}
	if err.Kind != KindEngineFailure {
		t.Errorf("Kind = %v, want %v", err.Kind, KindEngineFailure)
	}
	if !err.HasHandle || err.Handle != 7 {
		t.Errorf("Handle = %d (set %v), want 7", err.Handle, err.HasHandle)
	}
	if err.Detail != "index 3 out of 2" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Value != 3 {
		t.Errorf("Value = %v", err.Value)
	}
	if !errors.Is(err, cause) {
		t.Error("builder cause not reachable")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("x: %w", ReentrantAccess(PhaseCompute, "compute_layout", "compute_layout"))); got != KindReentrantAccess {
		t.Errorf("KindOf = %q", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf plain = %q, want empty", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf nil = %q, want empty", got)
	}
}

func TestReleased(t *testing.T) {
	err := Released(PhaseStyle, "set_style", 4)
	if !errors.Is(err, ErrInvalidHandle) {
		t.Fatal("released handle errors are invalid_handle")
	}
	if !strings.Contains(err.Error(), "released") {
		t.Errorf("message %q should mention release", err.Error())
	}
}

func TestLoad(t *testing.T) {
	cause := errors.New("bad magic")
	err := Load("compile measure module", cause)

	if err.Phase != PhaseLoad || err.Kind != KindEngineFailure {
		t.Errorf("got %s/%s, want load/engine_failure", err.Phase, err.Kind)
	}
	if !errors.Is(err, ErrEngineFailure) {
		t.Error("load error should match ErrEngineFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("load error should unwrap to its cause")
	}
}
