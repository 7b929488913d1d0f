package publish

import (
	"context"
	"time"

	"github.com/mpapenbr/greenflag/pkg/model"
	"github.com/mpapenbr/greenflag/pkg/utils/broadcast"
)

// Fanout is a poll sink which hands each frame to all subscribers without
// letting slow subscribers delay the poll loop.
type Fanout struct {
	run    string
	source chan Message
	bs     broadcast.Server[Message]
	now    func() time.Time
}

type FanoutOption func(*Fanout)

// WithRunID tags every message with the id of the current run
func WithRunID(id string) FanoutOption {
	return func(f *Fanout) {
		f.run = id
	}
}

func NewFanout(opts ...FanoutOption) *Fanout {
	source := make(chan Message)
	ret := &Fanout{
		source: source,
		bs:     broadcast.New("display", (<-chan Message)(source)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (f *Fanout) Subscribe() <-chan Message {
	return f.bs.Subscribe()
}

func (f *Fanout) Unsubscribe(ch <-chan Message) {
	f.bs.CancelSubscription(ch)
}

//nolint:whitespace // editor/linter issue
func (f *Fanout) Publish(
	ctx context.Context, race model.TrackedRace, m *model.DisplayModel,
) error {
	msg := Message{
		Run:       f.run,
		SeriesID:  race.SeriesID,
		RaceID:    race.RaceID,
		Timestamp: f.now(),
		Model:     m,
	}
	select {
	case f.source <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends all subscriptions
func (f *Fanout) Close() {
	f.bs.Close()
}
