package transform

import (
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/greenflag/pkg/model"
)

// NoteLines flattens the notes ordered by lap (numeric) and by position
// within the lap.
func NoteLines(notes *model.LapNotesSnapshot) []model.NoteLine {
	ret := make([]model.NoteLine, 0)
	if notes == nil {
		return ret
	}
	laps := lo.Keys(notes.Laps)
	slices.SortFunc(laps, compareLaps)
	for _, lap := range laps {
		for _, n := range notes.Laps[lap] {
			ret = append(ret, model.NoteLine{Lap: lap, Text: n.Note})
		}
	}
	return ret
}

// numeric laps first, anything else afterwards in lexical order
func compareLaps(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
