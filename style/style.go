package style

// Display controls whether a node takes part in layout.
type Display uint8

const (
	DisplayFlex Display = iota
	DisplayNone
)

var displayNames = []string{"flex", "none"}

func (d Display) String() string { return enumName(displayNames, d) }

// FlexDirection specifies the main axis for laying out children.
type FlexDirection uint8

const (
	Row           FlexDirection = iota // Children laid out left-to-right
	Column                             // Children laid out top-to-bottom
	RowReverse                         // Children laid out right-to-left
	ColumnReverse                      // Children laid out bottom-to-top
)

var directionNames = []string{"row", "column", "row-reverse", "column-reverse"}

func (d FlexDirection) String() string { return enumName(directionNames, d) }

// IsRow reports whether the main axis is horizontal.
func (d FlexDirection) IsRow() bool {
	return d == Row || d == RowReverse
}

// IsReverse reports whether children are placed from the main-axis end.
func (d FlexDirection) IsReverse() bool {
	return d == RowReverse || d == ColumnReverse
}

// Justify specifies how children are distributed along the main axis.
type Justify uint8

const (
	JustifyStart        Justify = iota // Pack at start
	JustifyEnd                         // Pack at end
	JustifyCenter                      // Center children
	JustifySpaceBetween                // Even space between, none at edges
	JustifySpaceAround                 // Even space around each child
	JustifySpaceEvenly                 // Equal space between and at edges
)

var justifyNames = []string{"start", "end", "center", "space-between", "space-around", "space-evenly"}

func (j Justify) String() string { return enumName(justifyNames, j) }

// Align specifies how children are positioned on the cross axis.
type Align uint8

const (
	AlignStart   Align = iota // Align to start of cross axis
	AlignEnd                  // Align to end of cross axis
	AlignCenter               // Center on cross axis
	AlignStretch              // Stretch to fill cross axis
)

var alignNames = []string{"start", "end", "center", "stretch"}

func (a Align) String() string { return enumName(alignNames, a) }

// Style contains the layout properties of a node. The engine consumes it
// as-is; the bridge never interprets it beyond marshaling.
type Style struct {
	AlignSelf   *Align   // Override parent's AlignItems (nil = inherit)
	AspectRatio *float32 // width / height, nil when unset

	Size    Size[Dimension]
	MinSize Size[Dimension]
	MaxSize Size[Dimension]
	Gap     Size[Dimension] // lengths or percentages only

	Margin  Rect[Dimension] // lengths, percentages, or auto
	Padding Rect[Dimension] // lengths or percentages only
	Border  Rect[Dimension] // lengths or percentages only

	FlexBasis  Dimension
	FlexGrow   float32
	FlexShrink float32

	Display        Display
	Direction      FlexDirection
	JustifyContent Justify
	AlignItems     Align
}

// Default returns a Style with CSS flexbox initial values.
func Default() Style {
	return Style{
		Size:       Size[Dimension]{Width: Auto(), Height: Auto()},
		MinSize:    Size[Dimension]{Width: Auto(), Height: Auto()},
		MaxSize:    Size[Dimension]{Width: Auto(), Height: Auto()},
		Gap:        Size[Dimension]{Width: Zero(), Height: Zero()},
		Margin:     Uniform(Zero()),
		Padding:    Uniform(Zero()),
		Border:     Uniform(Zero()),
		FlexBasis:  Auto(),
		FlexShrink: 1,
		AlignItems: AlignStretch,
	}
}

// Clone returns a copy that shares no pointers with s.
func (s Style) Clone() Style {
	c := s
	if s.AlignSelf != nil {
		a := *s.AlignSelf
		c.AlignSelf = &a
	}
	if s.AspectRatio != nil {
		r := *s.AspectRatio
		c.AspectRatio = &r
	}
	return c
}

// WithSize returns s with a fixed pixel size.
func (s Style) WithSize(width, height float32) Style {
	s.Size = Size[Dimension]{Width: Length(width), Height: Length(height)}
	return s
}

func enumName[T ~uint8](names []string, v T) string {
	if int(v) < len(names) {
		return names[v]
	}
	return "unknown"
}
