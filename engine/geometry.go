package engine

import (
	"math"

	"github.com/wippyai/layout-bridge/style"
)

func knownOf(a style.AvailableSpace) Known {
	if v, ok := a.Px(); ok {
		return Some(v)
	}
	return Known{}
}

func resolve(d style.Dimension, basis Known) Known {
	v, ok := d.Resolve(basis.Value, basis.Valid)
	return Known{Value: v, Valid: ok}
}

func innerKnown(k Known, pb float32) Known {
	if !k.Valid {
		return k
	}
	return Some(max(0, k.Value-pb))
}

// edges resolves box edges against the containing block's width. Auto
// and unresolvable percentages become zero.
func edges(r style.Rect[style.Dimension], basis Known) style.Rect[float32] {
	return style.Rect[float32]{
		Left:   r.Left.ResolveOr(basis.Value, basis.Valid, 0),
		Right:  r.Right.ResolveOr(basis.Value, basis.Valid, 0),
		Top:    r.Top.ResolveOr(basis.Value, basis.Valid, 0),
		Bottom: r.Bottom.ResolveOr(basis.Value, basis.Valid, 0),
	}
}

func autoEdges(r style.Rect[style.Dimension]) style.Rect[bool] {
	return style.Rect[bool]{
		Left:   r.Left.IsAuto(),
		Right:  r.Right.IsAuto(),
		Top:    r.Top.IsAuto(),
		Bottom: r.Bottom.IsAuto(),
	}
}

// shrinkSpace removes used pixels from definite space. Content-sized
// space is passed through.
func shrinkSpace(a style.AvailableSpace, used float32) style.AvailableSpace {
	if v, ok := a.Px(); ok {
		return style.Definite(max(0, v-used))
	}
	return a
}

// clampSize applies min then max, with min winning, and never goes below
// floor (the node's own padding and border).
func clampSize(v, lo, hi, floor float32) float32 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return max(v, floor)
}

func sanitize(v float32) float32 {
	if math.IsNaN(float64(v)) || v < 0 {
		return 0
	}
	if math.IsInf(float64(v), 1) {
		return math.MaxFloat32
	}
	return v
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func mainOf[T any](row bool, s style.Size[T]) T {
	if row {
		return s.Width
	}
	return s.Height
}

func crossOf[T any](row bool, s style.Size[T]) T {
	if row {
		return s.Height
	}
	return s.Width
}

func fromAxes[T any](row bool, main, cross T) style.Size[T] {
	if row {
		return style.Size[T]{Width: main, Height: cross}
	}
	return style.Size[T]{Width: cross, Height: main}
}

func mainSum(row bool, r style.Rect[float32]) float32 {
	if row {
		return r.Left + r.Right
	}
	return r.Top + r.Bottom
}

func crossSum(row bool, r style.Rect[float32]) float32 {
	if row {
		return r.Top + r.Bottom
	}
	return r.Left + r.Right
}

// flowMargins returns the margins before and after an item in flow order.
func flowMargins(row, reverse bool, m style.Rect[float32]) (lead, trail float32) {
	if row {
		lead, trail = m.Left, m.Right
	} else {
		lead, trail = m.Top, m.Bottom
	}
	if reverse {
		lead, trail = trail, lead
	}
	return lead, trail
}

func mainStartAuto(row bool, a style.Rect[bool]) bool {
	if row {
		return a.Left
	}
	return a.Top
}

func mainEndAuto(row bool, a style.Rect[bool]) bool {
	if row {
		return a.Right
	}
	return a.Bottom
}

func crossStartAuto(row bool, a style.Rect[bool]) bool {
	if row {
		return a.Top
	}
	return a.Left
}

func crossEndAuto(row bool, a style.Rect[bool]) bool {
	if row {
		return a.Bottom
	}
	return a.Right
}

func setMainStart(row bool, m *style.Rect[float32], v float32) {
	if row {
		m.Left = v
	} else {
		m.Top = v
	}
}

func setMainEnd(row bool, m *style.Rect[float32], v float32) {
	if row {
		m.Right = v
	} else {
		m.Bottom = v
	}
}

func setCrossStart(row bool, m *style.Rect[float32], v float32) {
	if row {
		m.Top = v
	} else {
		m.Left = v
	}
}

func setCrossEnd(row bool, m *style.Rect[float32], v float32) {
	if row {
		m.Bottom = v
	} else {
		m.Right = v
	}
}

func crossStartMargin(row bool, m style.Rect[float32]) float32 {
	if row {
		return m.Top
	}
	return m.Left
}

// aspectMain derives the main size from a cross size and a width/height ratio.
func aspectMain(row bool, cross, ratio float32) float32 {
	if row {
		return cross * ratio
	}
	return cross / ratio
}

// aspectCross derives the cross size from a main size and a width/height ratio.
func aspectCross(row bool, main, ratio float32) float32 {
	if row {
		return main / ratio
	}
	return main * ratio
}
