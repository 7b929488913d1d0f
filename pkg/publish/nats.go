package publish

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/greenflag/log"
)

const DefaultSubjectPrefix = "greenflag"

// conn is the part of *nats.Conn used by the publisher
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NatsPublisher sends messages as JSON to {prefix}.{seriesId}.{raceId}
type NatsPublisher struct {
	conn   conn
	prefix string
	l      *log.Logger
}

type NatsOption func(*NatsPublisher)

func WithSubjectPrefix(prefix string) NatsOption {
	return func(p *NatsPublisher) {
		if prefix = strings.Trim(prefix, "."); prefix != "" {
			p.prefix = prefix
		}
	}
}

func WithLogger(l *log.Logger) NatsOption {
	return func(p *NatsPublisher) {
		p.l = l
	}
}

// ConnectNats connects to the NATS server at url
func ConnectNats(url string, opts ...NatsOption) (*NatsPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("greenflag"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return newNatsPublisher(nc, opts...), nil
}

func newNatsPublisher(c conn, opts ...NatsOption) *NatsPublisher {
	ret := &NatsPublisher{
		conn:   c,
		prefix: DefaultSubjectPrefix,
		l:      log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *NatsPublisher) Subject(seriesID, raceID int) string {
	return fmt.Sprintf("%s.%d.%d", p.prefix, seriesID, raceID)
}

func (p *NatsPublisher) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(msg.SeriesID, msg.RaceID), data)
}

// Forward sends all messages read from ch until it is closed
func (p *NatsPublisher) Forward(ch <-chan Message) {
	for msg := range ch {
		if err := p.Send(msg); err != nil {
			p.l.Warn("could not publish message", log.ErrorField(err))
		}
	}
	p.l.Debug("forwarding ended")
}

// Close flushes pending messages and closes the connection
func (p *NatsPublisher) Close() error {
	return p.conn.Drain()
}
