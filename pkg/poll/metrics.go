package poll

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/greenflag/log"
	"github.com/mpapenbr/greenflag/pkg/model"
)

const instrumentationName = "github.com/mpapenbr/greenflag/pkg/poll"

type loopMetrics struct {
	cycles   metric.Int64Counter
	failures metric.Int64Counter
	notes    metric.Int64Counter
	duration metric.Float64Histogram
	tracer   trace.Tracer
}

func newLoopMetrics(l *log.Logger) *loopMetrics {
	meter := otel.GetMeterProvider().Meter(instrumentationName)
	fallback := noop.Meter{}
	ret := &loopMetrics{tracer: otel.Tracer(instrumentationName)}

	var err error
	if ret.cycles, err = meter.Int64Counter("greenflag.poll.cycles",
		metric.WithDescription("Number of completed poll cycles"),
		metric.WithUnit("{cycle}")); err != nil {
		l.Warn("failed to register metric", log.String("metric", "cycles"), log.ErrorField(err))
		ret.cycles, _ = fallback.Int64Counter("cycles")
	}
	if ret.failures, err = meter.Int64Counter("greenflag.poll.failures",
		metric.WithDescription("Number of failed poll cycles"),
		metric.WithUnit("{cycle}")); err != nil {
		l.Warn("failed to register metric", log.String("metric", "failures"), log.ErrorField(err))
		ret.failures, _ = fallback.Int64Counter("failures")
	}
	if ret.notes, err = meter.Int64Counter("greenflag.poll.notes",
		metric.WithDescription("Number of lap notes handed to the display"),
		metric.WithUnit("{note}")); err != nil {
		l.Warn("failed to register metric", log.String("metric", "notes"), log.ErrorField(err))
		ret.notes, _ = fallback.Int64Counter("notes")
	}
	if ret.duration, err = meter.Float64Histogram("greenflag.poll.duration",
		metric.WithDescription("Duration of a poll cycle"),
		metric.WithUnit("s")); err != nil {
		l.Warn("failed to register metric", log.String("metric", "duration"), log.ErrorField(err))
		ret.duration, _ = fallback.Float64Histogram("duration")
	}
	return ret
}

func raceAttributes(race model.TrackedRace) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.Int("series", race.SeriesID),
		attribute.Int("race", race.RaceID),
	)
}

func (m *loopMetrics) recordCycle(ctx context.Context, race model.TrackedRace, secs float64) {
	m.cycles.Add(ctx, 1, raceAttributes(race))
	m.duration.Record(ctx, secs, raceAttributes(race))
}

func (m *loopMetrics) recordFailure(ctx context.Context, race model.TrackedRace) {
	m.failures.Add(ctx, 1, raceAttributes(race))
}

func (m *loopMetrics) recordNotes(ctx context.Context, race model.TrackedRace, n int) {
	if n > 0 {
		m.notes.Add(ctx, int64(n), raceAttributes(race))
	}
}
