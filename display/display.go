// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Columns is the width of a line on the console display.
const Columns = 16

type (
	// Console renders a small character display on a terminal, one frame
	// per update.
	Console struct {
		mu    sync.Mutex
		out   io.Writer
		lines []string
		style lipgloss.Style
	}

	// Nop discards everything shown to it.
	Nop struct{}
)

// NewConsole creates a display with the given number of lines writing to out.
func NewConsole(out io.Writer, lines int) *Console {
	if lines < 1 {
		lines = 2
	}
	return &Console{
		out:   out,
		lines: make([]string, lines),
		style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Width(Columns).
			Foreground(lipgloss.Color("#50FA7B")).
			BorderForeground(lipgloss.Color("#6272A4")),
	}
}

// Show replaces the text on a line, numbered from 1, and redraws. Text wider
// than the display is truncated and out-of-range lines are ignored.
func (c *Console) Show(line int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if line < 1 || line > len(c.lines) {
		return
	}
	c.lines[line-1] = truncate(text)
	c.draw()
}

// Clear blanks every line and redraws.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		c.lines[i] = ""
	}
	c.draw()
}

// Lines returns the current contents.
func (c *Console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func (c *Console) draw() {
	fmt.Fprintln(c.out, c.style.Render(strings.Join(c.lines, "\n")))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > Columns {
		return string(r[:Columns])
	}
	return s
}

func (Nop) Show(int, string) {}

func (Nop) Clear() {}
