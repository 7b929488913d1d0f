package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
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
	racesched "github.com/mpapenbr/greenflag/pkg/schedule"
)

const tuneInLayout = "2006-01-02 15:04"

type (
	Entry struct {
		Series    string `json:"series" yaml:"series"`
		SeriesID  int    `json:"seriesId" yaml:"seriesId"`
		RaceID    int    `json:"raceId" yaml:"raceId"`
		RaceName  string `json:"raceName" yaml:"raceName"`
		TrackName string `json:"trackName" yaml:"trackName"`
		TuneIn    string `json:"tuneIn" yaml:"tuneIn"`
		Finished  bool   `json:"finished" yaml:"finished"`
		Tracked   bool   `json:"tracked" yaml:"tracked"`
	}
	Report struct {
		Date    string             `json:"date" yaml:"date"`
		Races   []Entry            `json:"races" yaml:"races"`
		Tracked *model.TrackedRace `json:"tracked" yaml:"tracked"`
	}
)

var showAll bool

func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "shows the races of the day and the race the dashboard would follow",
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
			report, err := BuildReport(cmd.Context(), util.NewClient(), today, series, showAll)
			if err != nil {
				log.Error("could not build schedule", log.ErrorField(err))
				return err
			}
			return Print(cmd.OutOrStdout(), config.Output, report)
		},
	}
	cmd.Flags().BoolVar(&showAll, "all", false,
		"show the whole season instead of the races of the day")
	cmd.Flags().StringVarP(&config.Output, "output", "o", util.OutputTable,
		"output format (table, json, yaml)")
	return cmd
}

// BuildReport loads the schedules and marks the race Resolve picks for today
//
//nolint:whitespace // editor/linter issue
func BuildReport(
	ctx context.Context,
	client *feed.Client,
	today time.Time,
	series []model.Series,
	all bool,
) (*Report, error) {
	schedules, err := client.FetchSchedules(ctx, today.Year(), series)
	if err != nil {
		return nil, err
	}
	ret := &Report{Date: today.Format(util.DateLayout), Races: []Entry{}}
	race, err := racesched.Resolve(schedules, today)
	switch {
	case errors.Is(err, racesched.ErrNoRaceToday):
	case err != nil:
		return nil, err
	default:
		ret.Tracked = &race
	}

	listings := racesched.SameDay(schedules, today)
	if all {
		listings = racesched.Merge(schedules)
	}
	ret.Races = lo.Map(listings, func(item model.RaceListing, _ int) Entry {
		s, _ := model.SeriesByID(item.SeriesID)
		return Entry{
			Series:    s.Name,
			SeriesID:  item.SeriesID,
			RaceID:    item.RaceID,
			RaceName:  item.RaceName,
			TrackName: item.TrackName,
			TuneIn:    item.TuneInDate.Format(tuneInLayout),
			Finished:  item.Finished(),
			Tracked: ret.Tracked != nil &&
				ret.Tracked.SeriesID == item.SeriesID &&
				ret.Tracked.RaceID == item.RaceID,
		}
	})
	return ret, nil
}

func RenderTable(r *Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.SetTitle(fmt.Sprintf("Races for %s", r.Date))
	tw.AppendHeader(table.Row{"", "Series", "Race", "Name", "Track", "Tune-in", "Finished"})
	for _, e := range r.Races {
		marker := ""
		if e.Tracked {
			marker = "*"
		}
		tw.AppendRow(table.Row{
			marker, e.Series, strconv.Itoa(e.RaceID), e.RaceName, e.TrackName,
			e.TuneIn, lo.Ternary(e.Finished, "yes", ""),
		})
	}
	if r.Tracked == nil {
		tw.AppendFooter(table.Row{"", "No race found for today"})
	} else {
		tw.AppendFooter(table.Row{"*", "tracked",
			fmt.Sprintf("%d/%d", r.Tracked.SeriesID, r.Tracked.RaceID)})
	}
	return tw.Render()
}

func Print(w io.Writer, format string, r *Report) error {
	return util.WriteOutput(w, format, r, func() string { return RenderTable(r) })
}
