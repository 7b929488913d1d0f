// Package transform turns the raw feed snapshots into a DisplayModel.
// All functions are pure, the only state carried between cycles is the
// number of lap notes already handed to the display.
package transform

import (
	"fmt"

	"github.com/mpapenbr/greenflag/pkg/model"
)

const (
	NameWidthNarrow = 30
	NameWidthWide   = 40

	DefaultStatusOut = 3
	DefaultStatusOff = 6
)

type Transformer struct {
	nameWidth   int
	nameWidthFn func() int
	statusOut int
	statusOff int
}

type Option func(*Transformer)

func WithNameWidth(w int) Option {
	return func(t *Transformer) {
		t.nameWidth = w
		t.nameWidthFn = nil
	}
}

// WithNameWidthFunc asks fn for the name width on every cycle, so the rows
// follow a resized terminal.
func WithNameWidthFunc(fn func() int) Option {
	return func(t *Transformer) {
		t.nameWidthFn = fn
	}
}

// WithStatusCodes configures which vehicle status values are shown as
// "Out" (retired) and "Off" (taken to the garage).
func WithStatusCodes(out, off int) Option {
	return func(t *Transformer) {
		t.statusOut = out
		t.statusOff = off
	}
}

func NewTransformer(opts ...Option) *Transformer {
	ret := &Transformer{
		nameWidth: NameWidthNarrow,
		statusOut: DefaultStatusOut,
		statusOff: DefaultStatusOff,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (t *Transformer) NameWidth() int {
	if t.nameWidthFn != nil {
		if w := t.nameWidthFn(); w > 0 {
			return w
		}
	}
	return t.nameWidth
}

// Transform builds the display model for one cycle. Only notes beyond
// priorNoteCount are put into the model; the returned count is the new
// number of notes handed out and never decreases.
//
//nolint:whitespace // editor/linter issue
func (t *Transformer) Transform(
	scoring *model.ScoringSnapshot,
	notes *model.LapNotesSnapshot,
	priorNoteCount int,
) (*model.DisplayModel, int) {
	ret := &model.DisplayModel{
		EventHeader: EventHeader(scoring),
		LapSummary:  LapSummary(scoring),
		FlagState:   scoring.FlagState,
		FlagStyle:   FlagStyle(scoring.FlagState),
		DriverRows:  t.DriverRows(scoring.Vehicles),
		NoteLines:   []model.NoteLine{},
	}
	if priorNoteCount < 0 {
		priorNoteCount = 0
	}
	all := NoteLines(notes)
	if len(all) <= priorNoteCount {
		return ret, priorNoteCount
	}
	ret.NoteLines = all[priorNoteCount:]
	return ret, len(all)
}

func EventHeader(s *model.ScoringSnapshot) string {
	return fmt.Sprintf("%s\n%s", s.RunName, s.TrackName)
}

// LapSummary shows the lap being run. Once the leader completed the final
// lap the total is shown instead of running past it.
func LapSummary(s *model.ScoringSnapshot) string {
	current := s.LapNumber
	if s.LapNumber < s.LapsInRace {
		current++
	}
	return fmt.Sprintf("Lap %d / %d\n%d to go", current, s.LapsInRace, s.LapsToGo)
}

func FlagStyle(state model.FlagState) model.StylePair {
	switch state {
	case model.FlagGreen:
		return model.StylePair{Bg: model.ColorGreen, Fg: model.ColorBlack}
	case model.FlagYellow, model.FlagWarmup:
		return model.StylePair{Bg: model.ColorYellow, Fg: model.ColorBlack}
	case model.FlagRed:
		return model.StylePair{Bg: model.ColorRed, Fg: model.ColorWhite}
	case model.FlagWhite:
		return model.StylePair{Bg: model.ColorWhite, Fg: model.ColorBlack}
	default:
		return model.StylePair{Bg: model.ColorBlack, Fg: model.ColorWhite}
	}
}
