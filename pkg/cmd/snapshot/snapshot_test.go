package snapshot

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/greenflag/pkg/cmd/util"
	"github.com/mpapenbr/greenflag/pkg/feed"
	"github.com/mpapenbr/greenflag/pkg/model"
	"github.com/mpapenbr/greenflag/pkg/transform"
	"github.com/mpapenbr/greenflag/testsupport/feeddata"
)

var race = model.TrackedRace{SeriesID: 3, RaceID: 5402}

func TestTake(t *testing.T) {
	f := feeddata.NewFakeFetcher().
		On("live_feed.json", feeddata.LiveFeed).
		On("lap-notes.json", feeddata.LapNotes)
	snap, err := Take(context.Background(), feed.NewClient(f), 2024, race,
		transform.NewTransformer())
	require.NoError(t, err)

	assert.Equal(t, race, snap.Race)
	assert.Equal(t, model.FlagGreen.String(), snap.Flag)
	assert.Len(t, snap.Model.DriverRows, 2)
	assert.Len(t, snap.Model.NoteLines, 3)
}

func TestTake_NotesMissing(t *testing.T) {
	f := feeddata.NewFakeFetcher().
		On("live_feed.json", feeddata.LiveFeed).
		OnError("lap-notes.json", errors.New("404"))
	snap, err := Take(context.Background(), feed.NewClient(f), 2024, race,
		transform.NewTransformer())
	require.NoError(t, err)
	assert.Empty(t, snap.Model.NoteLines)
}

func TestTake_ScoringError(t *testing.T) {
	f := feeddata.NewFakeFetcher().OnError("live_feed.json", errors.New("timeout"))
	_, err := Take(context.Background(), feed.NewClient(f), 2024, race,
		transform.NewTransformer())
	var sfe *feed.ScoringFetchError
	assert.ErrorAs(t, err, &sfe)
}

func TestOutput(t *testing.T) {
	f := feeddata.NewFakeFetcher().
		On("live_feed.json", feeddata.LiveFeed).
		On("lap-notes.json", feeddata.LapNotes)
	snap, err := Take(context.Background(), feed.NewClient(f), 2024, race,
		transform.NewTransformer())
	require.NoError(t, err)

	out := RenderText(snap)
	assert.Contains(t, out, "Truck Race B")
	assert.Contains(t, out, "Lap 2: Caution for debris")
	assert.Contains(t, out, "series 3 race 5402")

	buf := &bytes.Buffer{}
	require.NoError(t, util.WriteOutput(buf, util.OutputYAML, snap, func() string { return "" }))
	got := &Snapshot{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), got))
	assert.Equal(t, snap.Model.DriverRows, got.Model.DriverRows)
	assert.Equal(t, snap.Model.NoteLines, got.Model.NoteLines)
	assert.Equal(t, race, got.Race)
}
