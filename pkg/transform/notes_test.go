package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/greenflag/pkg/model"
)

func TestNoteLines_Order(t *testing.T) {
	notes := &model.LapNotesSnapshot{Laps: map[string][]model.LapNote{
		"10":  {{Note: "ten a"}, {Note: "ten b"}},
		"2":   {{Note: "two"}},
		"pre": {{Note: "pre race"}},
		"1":   {{Note: "one"}},
	}}
	got := NoteLines(notes)
	assert.Equal(t, []model.NoteLine{
		{Lap: "1", Text: "one"},
		{Lap: "2", Text: "two"},
		{Lap: "10", Text: "ten a"},
		{Lap: "10", Text: "ten b"},
		{Lap: "pre", Text: "pre race"},
	}, got)
	assert.Empty(t, NoteLines(nil))
}

func TestTransform_NotesAreNotRepeated(t *testing.T) {
	tr := NewTransformer()
	scoring := sampleScoring()
	notes := &model.LapNotesSnapshot{Laps: map[string][]model.LapNote{
		"2":  {{Note: "caution"}},
		"10": {{Note: "lead change"}},
	}}

	m, count := tr.Transform(scoring, notes, 0)
	assert.Len(t, m.NoteLines, 2)
	assert.Equal(t, 2, count)

	// unchanged content emits nothing
	m, count = tr.Transform(scoring, notes, count)
	assert.Empty(t, m.NoteLines)
	assert.Equal(t, 2, count)

	// one new lap with one note emits exactly one line
	notes.Laps["11"] = []model.LapNote{{Note: "green flag"}}
	m, count = tr.Transform(scoring, notes, count)
	assert.Equal(t, []model.NoteLine{{Lap: "11", Text: "green flag"}}, m.NoteLines)
	assert.Equal(t, 3, count)

	// a failed notes fetch (empty mapping) keeps the count
	m, count = tr.Transform(scoring, model.EmptyLapNotes(), count)
	assert.Empty(t, m.NoteLines)
	assert.Equal(t, 3, count)
}
