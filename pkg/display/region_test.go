package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/greenflag/pkg/model"
)

func TestRegion(t *testing.T) {
	r := NewRegion("laps")
	r.SetText("Lap 1 / 10\n9 to go")
	assert.Equal(t, []string{"Lap 1 / 10", "9 to go"}, r.Lines())

	r.SetLine(3, "x")
	assert.Equal(t, []string{"Lap 1 / 10", "9 to go", "", "x"}, r.Lines())
	r.SetLine(-1, "ignored")
	assert.Equal(t, 4, r.Len())

	r.SetText("")
	assert.Empty(t, r.Lines())

	_, ok := r.Style()
	assert.False(t, ok)
	r.SetStyle(model.StylePair{Bg: model.ColorRed, Fg: model.ColorWhite})
	style, ok := r.Style()
	assert.True(t, ok)
	assert.Equal(t, model.ColorRed, style.Bg)
}

func TestRegion_AppendTruncate(t *testing.T) {
	r := NewRegion("notes")
	r.Append("a", "b")
	r.Append("c")
	r.Truncate(2)
	assert.Equal(t, []string{"b", "c"}, r.Lines())
	r.Truncate(5)
	assert.Equal(t, []string{"b", "c"}, r.Lines())
	r.Truncate(-1)
	assert.Empty(t, r.Lines())
}
