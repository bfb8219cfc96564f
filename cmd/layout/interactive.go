package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// chrome is the number of terminal rows the viewer uses outside the
// canvas: title, status and help lines.
const chrome = 4

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Resize   key.Binding
	Fit      key.Binding
	Rounding key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Resize, k.Fit, k.Rounding, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev}, {k.Resize, k.Fit, k.Rounding}, {k.Quit}}
}

var keys = keyMap{
	Next:     key.NewBinding(key.WithKeys("tab", "j"), key.WithHelp("tab", "next node")),
	Prev:     key.NewBinding(key.WithKeys("shift+tab", "k"), key.WithHelp("shift+tab", "prev node")),
	Resize:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "set size")),
	Fit:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit window")),
	Rounding: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "toggle rounding")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type interactiveModel struct {
	err      error
	sess     *session
	input    textinput.Model
	help     help.Model
	nodes    []placed
	width    float32
	height   float32
	termW    int
	termH    int
	selected int
	editing  bool
	fixed    bool
	rounded  bool
}

func newInteractiveModel(s *session, opts options) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "WIDTHxHEIGHT"
	ti.CharLimit = 16
	ti.Width = 16

	m := &interactiveModel{
		sess:    s,
		input:   ti,
		help:    help.New(),
		rounded: !opts.unrounded,
	}
	if opts.width > 0 && opts.height > 0 {
		m.width, m.height = float32(opts.width), float32(opts.height)
		m.fixed = true
	}
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) relayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	if err := m.sess.compute(m.width, m.height); err != nil {
		m.err = err
		return
	}
	nodes, err := place(m.sess.root)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.nodes = nodes
	if m.selected >= len(nodes) {
		m.selected = 0
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termW, m.termH = msg.Width, msg.Height
		m.help.Width = msg.Width
		if !m.fixed {
			m.width = float32(msg.Width)
			m.height = float32(max(1, msg.Height-chrome))
		}
		m.relayout()
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateInput(msg)
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Next):
			if len(m.nodes) > 0 {
				m.selected = (m.selected + 1) % len(m.nodes)
			}

		case key.Matches(msg, keys.Prev):
			if len(m.nodes) > 0 {
				m.selected = (m.selected + len(m.nodes) - 1) % len(m.nodes)
			}

		case key.Matches(msg, keys.Resize):
			m.editing = true
			m.input.SetValue("")
			return m, m.input.Focus()

		case key.Matches(msg, keys.Fit):
			m.fixed = false
			m.width = float32(m.termW)
			m.height = float32(max(1, m.termH-chrome))
			m.relayout()

		case key.Matches(msg, keys.Rounding):
			var err error
			if m.rounded {
				err = m.sess.st.DisableRounding()
			} else {
				err = m.sess.st.EnableRounding()
			}
			if err != nil {
				m.err = err
				return m, nil
			}
			m.rounded = !m.rounded
			m.relayout()
		}
	}
	return m, nil
}

func (m *interactiveModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil

	case "enter":
		w, h, err := parseSize(m.input.Value())
		if err != nil {
			m.err = err
			return m, nil
		}
		m.editing = false
		m.input.Blur()
		m.width, m.height = w, h
		m.fixed = true
		m.relayout()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// parseSize reads "WIDTHxHEIGHT".
func parseSize(s string) (float32, float32, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WIDTHxHEIGHT", s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(ws), 32)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("size %q: bad width", s)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hs), 32)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("size %q: bad height", s)
	}
	return float32(w), float32(h), nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Layout"))
	fmt.Fprintf(&b, " %gx%g", m.width, m.height)
	if !m.rounded {
		b.WriteString(" (unrounded)")
	}
	b.WriteString("\n")

	if len(m.nodes) == 0 && m.err == nil {
		b.WriteString("Waiting for window size...\n")
	} else {
		b.WriteString(m.renderCanvas())
	}

	switch {
	case m.editing:
		b.WriteString("Size: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter apply • esc cancel"))
		return b.String()
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.selected < len(m.nodes):
		n := m.nodes[m.selected]
		b.WriteString(infoStyle.Render(fmt.Sprintf("%s #%d  x=%g y=%g  %gx%g",
			n.name, n.id, n.x, n.y, n.width, n.height)))
		if failures := m.sess.st.Stats().MeasureFailures; failures > 0 {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  %d measure failure(s)", failures)))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

// renderCanvas draws every node as a box outline clipped to the canvas.
// The selected node is drawn last so it stays on top.
func (m *interactiveModel) renderCanvas() string {
	cw, ch := int(m.width), int(m.height)
	if m.termW > 0 {
		cw = min(cw, m.termW)
	}
	if m.termH > 0 {
		ch = min(ch, max(1, m.termH-chrome))
	}
	c := newCanvas(cw, ch)
	for i, n := range m.nodes {
		if i != m.selected {
			c.box(n, false)
		}
	}
	if m.selected < len(m.nodes) {
		c.box(m.nodes[m.selected], true)
	}
	return c.String()
}

type cell struct {
	r        rune
	selected bool
}

type canvas struct {
	cells  [][]cell
	width  int
	height int
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: max(0, width), height: max(0, height)}
	c.cells = make([][]cell, c.height)
	for y := range c.cells {
		c.cells[y] = make([]cell, c.width)
		for x := range c.cells[y] {
			c.cells[y][x] = cell{r: ' '}
		}
	}
	return c
}

func (c *canvas) set(x, y int, r rune, selected bool) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.cells[y][x] = cell{r: r, selected: selected}
}

func (c *canvas) text(x, y int, s string, limit int, selected bool) {
	for i, r := range []rune(s) {
		if i >= limit {
			return
		}
		c.set(x+i, y, r, selected)
	}
}

func (c *canvas) box(n placed, selected bool) {
	x0 := int(math.Round(float64(n.x)))
	y0 := int(math.Round(float64(n.y)))
	x1 := int(math.Round(float64(n.x+n.width))) - 1
	y1 := int(math.Round(float64(n.y+n.height))) - 1
	if x1 < x0 || y1 < y0 {
		return
	}

	if n.text != "" && (x1 == x0 || y1 == y0 || n.width < 3 || n.height < 3) {
		// Too small for a frame: print the text where it was measured.
		for i, line := range wrap(n.text, x1-x0+1) {
			if y0+i > y1 {
				break
			}
			c.text(x0, y0+i, line, x1-x0+1, selected)
		}
		return
	}

	for x := x0; x <= x1; x++ {
		c.set(x, y0, '─', selected)
		c.set(x, y1, '─', selected)
	}
	for y := y0; y <= y1; y++ {
		c.set(x0, y, '│', selected)
		c.set(x1, y, '│', selected)
	}
	c.set(x0, y0, '┌', selected)
	c.set(x1, y0, '┐', selected)
	c.set(x0, y1, '└', selected)
	c.set(x1, y1, '┘', selected)
	c.text(x0+1, y0, n.name, x1-x0-1, selected)

	if n.text != "" {
		inner := x1 - x0 - 1
		for i, line := range wrap(n.text, inner) {
			if y0+1+i >= y1 {
				break
			}
			c.text(x0+1, y0+1+i, line, inner, selected)
		}
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		var run strings.Builder
		sel := false
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if sel {
				b.WriteString(selectedStyle.Render(run.String()))
			} else {
				b.WriteString(boxStyle.Render(run.String()))
			}
			run.Reset()
		}
		for _, cl := range row {
			if cl.selected != sel {
				flush()
				sel = cl.selected
			}
			run.WriteRune(cl.r)
		}
		flush()
		b.WriteString("\n")
	}
	return b.String()
}

func runInteractive(opts options) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.close()

	p := tea.NewProgram(newInteractiveModel(s, opts), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
