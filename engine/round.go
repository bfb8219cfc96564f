package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/wippyai/layout-bridge/style"
)

func roundf(v float32) float32 {
	return float32(math.Round(float64(v)))
}

// round snaps a subtree to whole pixels. Sizes are derived from rounded
// absolute edges so adjacent boxes never gain or lose a pixel between them.
func (f *Flex) round(id NodeID, parentX, parentY float32) {
	n := &f.nodes[id-1]
	u := n.unrounded
	absX := parentX + u.Location.X
	absY := parentY + u.Location.Y

	r := u
	r.Location = Point{X: roundf(u.Location.X), Y: roundf(u.Location.Y)}
	r.Size.Width = roundf(absX+u.Size.Width) - roundf(absX)
	r.Size.Height = roundf(absY+u.Size.Height) - roundf(absY)
	r.ContentSize.Width = roundf(absX+u.ContentSize.Width) - roundf(absX)
	r.ContentSize.Height = roundf(absY+u.ContentSize.Height) - roundf(absY)
	r.Border = roundEdges(u.Border)
	r.Padding = roundEdges(u.Padding)
	r.Margin = roundEdges(u.Margin)
	n.layout = r

	for _, c := range n.children {
		f.round(c, absX, absY)
	}
}

func roundEdges(e style.Rect[float32]) style.Rect[float32] {
	return style.Rect[float32]{
		Left:   roundf(e.Left),
		Right:  roundf(e.Right),
		Top:    roundf(e.Top),
		Bottom: roundf(e.Bottom),
	}
}

// PrintTree renders the subtree at id with computed geometry.
func (f *Flex) PrintTree(id NodeID) (string, error) {
	if _, err := f.get(id); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("TREE\n")
	f.printNode(&b, id, "", true)
	return b.String(), nil
}

func (f *Flex) printNode(b *strings.Builder, id NodeID, prefix string, last bool) {
	n := &f.nodes[id-1]
	branch := "├── "
	next := prefix + "│   "
	if last {
		branch = "└── "
		next = prefix + "    "
	}

	kind := "LEAF"
	if len(n.children) > 0 {
		kind = "FLEX " + strings.ToUpper(n.style.Direction.String())
	}
	if n.style.Display == style.DisplayNone {
		kind = "NONE"
	}
	l, _ := f.Layout(id)
	fmt.Fprintf(b, "%s%s%s [x: %g y: %g w: %g h: %g content_w: %g content_h: %g] (node %d)\n",
		prefix, branch, kind,
		l.Location.X, l.Location.Y, l.Size.Width, l.Size.Height,
		l.ContentSize.Width, l.ContentSize.Height, id)

	for i, c := range n.children {
		f.printNode(b, c, next, i == len(n.children)-1)
	}
}
