package style

import (
	"math"
	"strconv"
)

// Unit specifies how a Dimension is interpreted.
type Unit uint8

const (
	UnitAuto    Unit = iota // Size determined by content/flex
	UnitLength              // Absolute pixels
	UnitPercent             // Percentage of the parent's size (0-100 scale)
)

// Dimension is a length, a percentage, or auto.
type Dimension struct {
	Value float32
	Unit  Unit
}

// Auto returns a Dimension that should be computed from content/flex.
func Auto() Dimension {
	return Dimension{Unit: UnitAuto}
}

// Length returns a Dimension of px pixels.
func Length(px float32) Dimension {
	return Dimension{Value: px, Unit: UnitLength}
}

// Percent returns a Dimension relative to the parent. 50 means 50%.
func Percent(p float32) Dimension {
	return Dimension{Value: p, Unit: UnitPercent}
}

// Zero is Length(0).
func Zero() Dimension {
	return Length(0)
}

// IsAuto returns true if this value should be computed from content/flex.
func (d Dimension) IsAuto() bool {
	return d.Unit == UnitAuto
}

// Resolve computes the pixel value against the parent's size. It reports
// false for auto, and for percentages when the parent size is unknown.
func (d Dimension) Resolve(parent float32, parentKnown bool) (float32, bool) {
	switch d.Unit {
	case UnitLength:
		return d.Value, true
	case UnitPercent:
		if !parentKnown {
			return 0, false
		}
		return parent * d.Value / 100, true
	default:
		return 0, false
	}
}

// ResolveOr is Resolve with a fallback for unresolvable values.
func (d Dimension) ResolveOr(parent float32, parentKnown bool, fallback float32) float32 {
	if v, ok := d.Resolve(parent, parentKnown); ok {
		return v
	}
	return fallback
}

func (d Dimension) String() string {
	switch d.Unit {
	case UnitLength:
		return formatFloat(d.Value)
	case UnitPercent:
		return formatFloat(d.Value) + "%"
	default:
		return "auto"
	}
}

// SpaceKind distinguishes definite available space from the two
// content-driven sizing modes.
type SpaceKind uint8

const (
	SpaceDefinite SpaceKind = iota
	SpaceMinContent
	SpaceMaxContent
)

// AvailableSpace is the constraint a node is laid out under on one axis.
type AvailableSpace struct {
	Value float32
	Kind  SpaceKind
}

// Definite returns available space of px pixels.
func Definite(px float32) AvailableSpace {
	return AvailableSpace{Value: px, Kind: SpaceDefinite}
}

// MinContent asks for the smallest size content can take without overflow.
func MinContent() AvailableSpace {
	return AvailableSpace{Kind: SpaceMinContent}
}

// MaxContent asks for the size content takes with unlimited room.
func MaxContent() AvailableSpace {
	return AvailableSpace{Kind: SpaceMaxContent}
}

// IsDefinite reports whether the space is a pixel amount.
func (a AvailableSpace) IsDefinite() bool {
	return a.Kind == SpaceDefinite
}

// Px returns the definite amount and whether it exists.
func (a AvailableSpace) Px() (float32, bool) {
	return a.Value, a.Kind == SpaceDefinite
}

func (a AvailableSpace) String() string {
	switch a.Kind {
	case SpaceMinContent:
		return "min-content"
	case SpaceMaxContent:
		return "max-content"
	default:
		return formatFloat(a.Value)
	}
}

// Size is a width/height pair.
type Size[T any] struct {
	Width  T `json:"width"`
	Height T `json:"height"`
}

// Rect holds one value per box edge.
type Rect[T any] struct {
	Left   T `json:"left"`
	Right  T `json:"right"`
	Top    T `json:"top"`
	Bottom T `json:"bottom"`
}

// Uniform returns a Rect with the same value on all sides.
func Uniform[T any](v T) Rect[T] {
	return Rect[T]{Left: v, Right: v, Top: v, Bottom: v}
}

// AvailableSize returns a Size of definite available space.
func AvailableSize(width, height float32) Size[AvailableSpace] {
	return Size[AvailableSpace]{Width: Definite(width), Height: Definite(height)}
}

// Finite reports whether v is a usable pixel amount.
func Finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
