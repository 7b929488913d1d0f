package display

import (
	"strings"

	"github.com/mpapenbr/greenflag/pkg/model"
)

// Region is a rectangular area of the screen holding lines of text.
type Region struct {
	name   string
	lines  []string
	style  model.StylePair
	styled bool
}

func NewRegion(name string) *Region {
	return &Region{name: name}
}

func (r *Region) Name() string {
	return r.name
}

// SetText replaces the content. Newlines start new lines.
func (r *Region) SetText(s string) {
	if s == "" {
		r.lines = nil
		return
	}
	r.lines = strings.Split(s, "\n")
}

// SetLine replaces line idx, growing the region if needed
func (r *Region) SetLine(idx int, s string) {
	if idx < 0 {
		return
	}
	for len(r.lines) <= idx {
		r.lines = append(r.lines, "")
	}
	r.lines[idx] = s
}

// Append adds lines at the end
func (r *Region) Append(lines ...string) {
	r.lines = append(r.lines, lines...)
}

// Truncate keeps at most the last n lines
func (r *Region) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if len(r.lines) > n {
		r.lines = append([]string(nil), r.lines[len(r.lines)-n:]...)
	}
}

func (r *Region) SetStyle(p model.StylePair) {
	r.style = p
	r.styled = true
}

// Style returns the style and whether one was set
func (r *Region) Style() (model.StylePair, bool) {
	return r.style, r.styled
}

func (r *Region) Lines() []string {
	return append([]string(nil), r.lines...)
}

func (r *Region) Len() int {
	return len(r.lines)
}
