package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/layout-bridge/style"
	"github.com/wippyai/layout-bridge/tree"
)

// description is the JSON form of a tree accepted by -tree.
type description struct {
	Name     string          `json:"name"`
	Style    json.RawMessage `json:"style"`
	Text     string          `json:"text"`
	Children []description   `json:"children"`
}

// box is a built description. It holds the Node wrappers so the handles
// stay live for as long as the box does.
type box struct {
	node     *tree.Node
	name     string
	text     string
	children []*box
}

// placed is a box with its layout resolved to absolute coordinates.
type placed struct {
	name          string
	text          string
	id            tree.Handle
	depth         int
	x, y          float32
	width, height float32
}

func loadDescription(path string) (description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return description{}, fmt.Errorf("read tree: %w", err)
	}
	return parseDescription(data)
}

func parseDescription(data []byte) (description, error) {
	var d description
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return description{}, fmt.Errorf("parse tree: %w", err)
	}
	return d, nil
}

// build creates the nodes of d in st, children first.
func build(st *tree.State, d description) (*box, error) {
	return buildAt(st, d, "root")
}

func buildAt(st *tree.State, d description, path string) (*box, error) {
	s := style.Default()
	if len(d.Style) > 0 && !bytes.Equal(bytes.TrimSpace(d.Style), []byte("null")) {
		var err error
		if s, err = style.Decode(d.Style); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if d.Text != "" && len(d.Children) > 0 {
		return nil, fmt.Errorf("%s: a node with text cannot have children", path)
	}

	b := &box{name: d.Name, text: d.Text}
	if b.name == "" {
		b.name = path
	}

	var err error
	if d.Text != "" {
		b.node, err = st.NewLeafWithContext(s, d.Text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return b, nil
	}

	ids := make([]tree.Handle, 0, len(d.Children))
	for i, c := range d.Children {
		child, err := buildAt(st, c, fmt.Sprintf("%s.%d", path, i))
		if err != nil {
			return nil, err
		}
		b.children = append(b.children, child)
		ids = append(ids, child.node.ID())
	}
	if b.node, err = st.NewWithChildren(s, ids...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// place walks b depth first and returns every node with absolute
// coordinates.
func place(b *box) ([]placed, error) {
	var out []placed
	var walk func(b *box, depth int, ox, oy float32) error
	walk = func(b *box, depth int, ox, oy float32) error {
		l, err := b.node.Layout()
		if err != nil {
			return err
		}
		p := placed{
			name:   b.name,
			text:   b.text,
			id:     b.node.ID(),
			depth:  depth,
			x:      ox + l.Location.X,
			y:      oy + l.Location.Y,
			width:  l.Size.Width,
			height: l.Size.Height,
		}
		out = append(out, p)
		for _, c := range b.children {
			if err := walk(c, depth+1, p.x, p.y); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(b, 0, 0, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// monoMeasure sizes text leaves in terminal cells: words wrap to the
// available width and every line is one cell high.
func monoMeasure(in tree.MeasureInput) (style.Size[float32], error) {
	text, ok := in.Context.(string)
	if !ok {
		return style.Size[float32]{}, nil
	}

	limit := math.MaxInt
	if w, ok := in.Known.Width.Get(); ok {
		limit = int(w)
	} else {
		switch in.Available.Width.Kind {
		case style.SpaceMinContent:
			limit = 0
		case style.SpaceDefinite:
			limit = int(in.Available.Width.Value)
		}
	}

	lines := wrap(text, limit)
	var size style.Size[float32]
	for _, l := range lines {
		size.Width = max(size.Width, float32(lipgloss.Width(l)))
	}
	size.Height = float32(len(lines))
	if w, ok := in.Known.Width.Get(); ok {
		size.Width = w
	}
	if h, ok := in.Known.Height.Get(); ok {
		size.Height = h
	}
	return size, nil
}

// wrap fills lines greedily up to limit cells. A word wider than limit
// gets a line of its own.
func wrap(text string, limit int) []string {
	var lines []string
	var cur strings.Builder
	curWidth := 0
	for _, word := range strings.Fields(text) {
		w := lipgloss.Width(word)
		if curWidth > 0 && curWidth+1+w > limit {
			lines = append(lines, cur.String())
			cur.Reset()
			curWidth = 0
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(word)
		curWidth += w
	}
	if curWidth > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
