package engine

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/wippyai/layout-bridge/style"
)

func leaf(t *testing.T, f *Flex, w, h float32) NodeID {
	t.Helper()
	id, err := f.NewLeaf(style.Default().WithSize(w, h))
	if err != nil {
		t.Fatalf("NewLeaf: %v", err)
	}
	return id
}

func TestFlex_SlotReuse(t *testing.T) {
	f := NewFlex()
	a := leaf(t, f, 1, 1)
	b := leaf(t, f, 1, 1)
	if a == 0 || b == 0 || a == b {
		t.Fatalf("unexpected ids %d, %d", a, b)
	}

	if _, err := f.Remove(a); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if f.Contains(a) {
		t.Fatal("removed node still present")
	}

	c := leaf(t, f, 1, 1)
	if c != a {
		t.Fatalf("expected LIFO reuse of %d, got %d", a, c)
	}
	if f.TotalNodeCount() != 2 {
		t.Fatalf("TotalNodeCount = %d, want 2", f.TotalNodeCount())
	}

	f.Clear()
	if f.TotalNodeCount() != 0 || f.Contains(b) {
		t.Fatal("Clear left nodes behind")
	}
	if d := leaf(t, f, 1, 1); d != 1 {
		t.Fatalf("first id after Clear = %d, want 1", d)
	}
}

func TestFlex_NotFound(t *testing.T) {
	f := NewFlex()
	tests := []struct {
		name string
		call func() error
	}{
		{"Layout", func() error { _, err := f.Layout(9999999); return err }},
		{"SetStyle", func() error { return f.SetStyle(0, style.Default()) }},
		{"Remove", func() error { _, err := f.Remove(3); return err }},
		{"AddChild", func() error { return f.AddChild(1, 2) }},
		{"MarkDirty", func() error { return f.MarkDirty(7) }},
		{"Children", func() error { _, err := f.Children(7); return err }},
		{"ComputeLayout", func() error {
			return f.ComputeLayout(7, style.AvailableSize(10, 10), nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrNodeNotFound) {
				t.Errorf("err = %v, want ErrNodeNotFound", err)
			}
		})
	}
}

func TestFlex_Structure(t *testing.T) {
	f := NewFlex()
	root := leaf(t, f, 10, 10)
	a := leaf(t, f, 1, 1)
	b := leaf(t, f, 1, 1)
	c := leaf(t, f, 1, 1)

	if err := f.AddChild(root, a); err != nil {
		t.Fatal(err)
	}
	if err := f.AddChild(root, c); err != nil {
		t.Fatal(err)
	}
	if err := f.InsertChildAtIndex(root, 1, b); err != nil {
		t.Fatal(err)
	}
	kids, _ := f.Children(root)
	if !slices.Equal(kids, []NodeID{a, b, c}) {
		t.Fatalf("Children = %v", kids)
	}

	if p, ok, _ := f.Parent(b); !ok || p != root {
		t.Fatalf("Parent(b) = %d, %v", p, ok)
	}
	if got, _ := f.ChildAtIndex(root, 2); got != c {
		t.Fatalf("ChildAtIndex(2) = %d", got)
	}
	if _, err := f.ChildAtIndex(root, 3); !errors.Is(err, ErrChildIndexOutOfBounds) {
		t.Fatalf("ChildAtIndex(3) err = %v", err)
	}
	if err := f.InsertChildAtIndex(root, 5, leaf(t, f, 1, 1)); !errors.Is(err, ErrChildIndexOutOfBounds) {
		t.Fatalf("InsertChildAtIndex(5) err = %v", err)
	}

	d := leaf(t, f, 1, 1)
	old, err := f.ReplaceChildAtIndex(root, 0, d)
	if err != nil || old != a {
		t.Fatalf("ReplaceChildAtIndex = %d, %v", old, err)
	}
	if _, ok, _ := f.Parent(a); ok {
		t.Fatal("replaced child kept its parent")
	}

	if _, err := f.RemoveChild(root, a); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("RemoveChild of non-child err = %v", err)
	}
	if got, err := f.RemoveChildAtIndex(root, 1); err != nil || got != b {
		t.Fatalf("RemoveChildAtIndex = %d, %v", got, err)
	}
	if n, _ := f.ChildCount(root); n != 2 {
		t.Fatalf("ChildCount = %d, want 2", n)
	}

	if err := f.RemoveChildrenRange(root, 0, 3); !errors.Is(err, ErrChildIndexOutOfBounds) {
		t.Fatalf("RemoveChildrenRange out of range err = %v", err)
	}
	if err := f.RemoveChildrenRange(root, 0, 2); err != nil {
		t.Fatal(err)
	}
	if n, _ := f.ChildCount(root); n != 0 {
		t.Fatalf("ChildCount after range = %d", n)
	}
}

func TestFlex_Reparent(t *testing.T) {
	f := NewFlex()
	p1 := leaf(t, f, 1, 1)
	p2 := leaf(t, f, 1, 1)
	child := leaf(t, f, 1, 1)

	if err := f.AddChild(p1, child); err != nil {
		t.Fatal(err)
	}
	if err := f.AddChild(p2, child); err != nil {
		t.Fatal(err)
	}
	if n, _ := f.ChildCount(p1); n != 0 {
		t.Fatal("child still listed under old parent")
	}
	if p, _, _ := f.Parent(child); p != p2 {
		t.Fatalf("Parent = %d, want %d", p, p2)
	}

	if err := f.AddChild(child, p2); !errors.Is(err, ErrCycle) {
		t.Fatalf("cycle err = %v", err)
	}
	if err := f.AddChild(child, child); !errors.Is(err, ErrCycle) {
		t.Fatalf("self cycle err = %v", err)
	}

	if _, err := f.Remove(p2); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := f.Parent(child); ok {
		t.Fatal("child of removed node kept a parent")
	}
}

func TestFlex_SetChildren(t *testing.T) {
	f := NewFlex()
	a := leaf(t, f, 1, 1)
	b := leaf(t, f, 1, 1)
	root, err := f.NewWithChildren(style.Default(), []NodeID{a, b})
	if err != nil {
		t.Fatal(err)
	}

	c := leaf(t, f, 1, 1)
	if err := f.SetChildren(root, []NodeID{c, a}); err != nil {
		t.Fatal(err)
	}
	kids, _ := f.Children(root)
	if !slices.Equal(kids, []NodeID{c, a}) {
		t.Fatalf("Children = %v", kids)
	}
	if _, ok, _ := f.Parent(b); ok {
		t.Fatal("dropped child kept its parent")
	}
	if err := f.SetChildren(root, []NodeID{a, a}); err == nil {
		t.Fatal("duplicate children accepted")
	}

	if _, err := f.NewWithChildren(style.Default(), []NodeID{a, 999}); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("NewWithChildren with bad child err = %v", err)
	}
}

func TestFlex_StyleAndContext(t *testing.T) {
	f := NewFlex()
	id, _ := f.NewLeafWithContext(style.Default(), "text")

	ctx, ok, err := f.Context(id)
	if err != nil || !ok || ctx != "text" {
		t.Fatalf("Context = %v, %v, %v", ctx, ok, err)
	}
	if err := f.SetContext(id, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := f.Context(id); ok {
		t.Fatal("nil context should clear")
	}

	s := style.Default()
	s.FlexGrow = 3
	if err := f.SetStyle(id, s); err != nil {
		t.Fatal(err)
	}
	got, _ := f.Style(id)
	if got.FlexGrow != 3 {
		t.Fatalf("Style().FlexGrow = %v", got.FlexGrow)
	}
}

func TestFlex_Dirty(t *testing.T) {
	f := NewFlex()
	child := leaf(t, f, 10, 10)
	root, _ := f.NewWithChildren(style.Default(), []NodeID{child})

	if d, _ := f.Dirty(root); !d {
		t.Fatal("new node should be dirty")
	}
	if err := f.ComputeLayout(root, style.AvailableSize(100, 100), nil); err != nil {
		t.Fatal(err)
	}
	if d, _ := f.Dirty(root); d {
		t.Fatal("root dirty after layout")
	}
	if d, _ := f.Dirty(child); d {
		t.Fatal("child dirty after layout")
	}

	if err := f.SetStyle(child, style.Default().WithSize(20, 20)); err != nil {
		t.Fatal(err)
	}
	if d, _ := f.Dirty(root); !d {
		t.Fatal("style change should dirty ancestors")
	}
}

func TestFlex_PrintTree(t *testing.T) {
	f := NewFlex()
	a := leaf(t, f, 100, 50)
	root, _ := f.NewWithChildren(style.Default(), []NodeID{a})
	if err := f.ComputeLayout(root, style.AvailableSize(300, 200), nil); err != nil {
		t.Fatal(err)
	}

	out, err := f.PrintTree(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"TREE", "FLEX ROW", "LEAF", "w: 300", "w: 100 h: 50"} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintTree output missing %q:\n%s", want, out)
		}
	}
}
