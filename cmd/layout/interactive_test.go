package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (c *canvas) plain() string {
	var b strings.Builder
	for _, row := range c.cells {
		for _, cl := range row {
			b.WriteRune(cl.r)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestCanvas_Box(t *testing.T) {
	c := newCanvas(8, 4)
	c.box(placed{name: "ab", x: 1, width: 6, height: 3}, false)
	c.box(placed{name: "off", x: 20, width: 3, height: 3}, false)

	want := "" +
		" ┌ab──┐ \n" +
		" │    │ \n" +
		" └────┘ \n" +
		"        \n"
	assert.Equal(t, want, c.plain())
}

func TestCanvas_SmallTextLeaf(t *testing.T) {
	c := newCanvas(6, 2)
	c.box(placed{name: "t", text: "hi there", width: 6, height: 2}, true)

	assert.Equal(t, "hi    \nthere \n", c.plain())
	assert.True(t, c.cells[0][0].selected)
}

func TestParseSize(t *testing.T) {
	w, h, err := parseSize(" 120 X 40 ")
	require.NoError(t, err)
	assert.Equal(t, float32(120), w)
	assert.Equal(t, float32(40), h)

	for _, bad := range []string{"", "120", "x40", "0x10", "10x-1", "axb"} {
		_, _, err := parseSize(bad)
		assert.Error(t, err, bad)
	}
}

func newTestModel(t *testing.T, opts options) *interactiveModel {
	t.Helper()
	opts.treeFile = writeTree(t, pageJSON)
	s, err := openSession(opts)
	require.NoError(t, err)
	t.Cleanup(s.close)
	return newInteractiveModel(s, opts)
}

func TestInteractive_ResizeRelayouts(t *testing.T) {
	m := newTestModel(t, options{})

	assert.Contains(t, m.View(), "Waiting for window size")

	m.Update(tea.WindowSizeMsg{Width: 30, Height: 14})
	require.NoError(t, m.err)
	require.Len(t, m.nodes, 3)
	assert.Equal(t, float32(30), m.nodes[0].width)
	assert.Equal(t, float32(10), m.nodes[0].height)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.selected)
	assert.Contains(t, m.View(), "title #1")

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 2, m.selected)
}

func TestInteractive_FixedSize(t *testing.T) {
	m := newTestModel(t, options{width: 20, height: 5})

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, float32(20), m.nodes[0].width)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	require.True(t, m.editing)
	m.input.SetValue("12x6")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.editing)
	assert.Equal(t, float32(12), m.nodes[0].width)
	assert.Equal(t, float32(6), m.nodes[0].height)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	assert.Equal(t, float32(80), m.nodes[0].width)
	assert.Equal(t, float32(20), m.nodes[0].height)
}

func TestInteractive_ToggleRounding(t *testing.T) {
	m := newTestModel(t, options{})
	m.Update(tea.WindowSizeMsg{Width: 30, Height: 14})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.False(t, m.rounded)
	assert.Contains(t, m.View(), "(unrounded)")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.True(t, m.rounded)
}

func TestInteractive_Quit(t *testing.T) {
	m := newTestModel(t, options{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
