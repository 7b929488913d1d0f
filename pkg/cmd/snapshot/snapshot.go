package snapshot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/greenflag/log"
	"github.com/mpapenbr/greenflag/pkg/cmd/util"
	"github.com/mpapenbr/greenflag/pkg/config"
	"github.com/mpapenbr/greenflag/pkg/feed"
	"github.com/mpapenbr/greenflag/pkg/model"
	"github.com/mpapenbr/greenflag/pkg/transform"
)

// Snapshot is a single frame of the dashboard together with its race
type Snapshot struct {
	Race  model.TrackedRace   `json:"race" yaml:"race"`
	Flag  string              `json:"flag" yaml:"flag"`
	Model *model.DisplayModel `json:"model" yaml:"model"`
}

func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "prints the current dashboard content once",
		Long: `Runs a single fetch and transform cycle for today's race (or the race
given by --series-id and --race-id) and prints the result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			util.SetupLogger(os.Stderr)
			series, err := util.ParseSeries(config.Series)
			if err != nil {
				return err
			}
			today, err := util.Today(time.Now)
			if err != nil {
				return err
			}
			client := util.NewClient()
			race, _, err := util.ResolveRace(cmd.Context(), client, today, series)
			if err != nil {
				log.Error("could not resolve race", log.ErrorField(err))
				return err
			}
			snap, err := Take(cmd.Context(), client, today.Year(), race,
				util.NewTransformer(transform.WithNameWidth(transform.NameWidthWide)))
			if err != nil {
				log.Error("could not take snapshot", log.ErrorField(err))
				return err
			}
			return util.WriteOutput(cmd.OutOrStdout(), config.Output, snap,
				func() string { return RenderText(snap) })
		},
	}
	cmd.Flags().StringVarP(&config.Output, "output", "o", util.OutputTable,
		"output format (table, json, yaml)")
	return cmd
}

// Take fetches the feeds of race once and transforms them with all notes
//
//nolint:whitespace // editor/linter issue
func Take(
	ctx context.Context,
	client *feed.Client,
	year int,
	race model.TrackedRace,
	t *transform.Transformer,
) (*Snapshot, error) {
	scoring, err := client.FetchScoring(ctx, race)
	if err != nil {
		return nil, err
	}
	notes, err := client.FetchLapNotes(ctx, year, race)
	if err != nil {
		log.Debug("lap notes not available", log.ErrorField(err))
	}
	m, _ := t.Transform(scoring, notes, 0)
	return &Snapshot{Race: race, Flag: scoring.FlagState.String(), Model: m}, nil
}

func RenderText(s *Snapshot) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.AppendRow(table.Row{s.Model.EventHeader, s.Model.LapSummary + "\n" + s.Flag})
	tw.AppendRow(table.Row{
		strings.Join(s.Model.DriverRows, "\n"),
		strings.Join(lo.Map(s.Model.NoteLines, func(n model.NoteLine, _ int) string {
			return n.String()
		}), "\n"),
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
	})
	return fmt.Sprintf("%s\nseries %d race %d", tw.Render(), s.Race.SeriesID, s.Race.RaceID)
}
