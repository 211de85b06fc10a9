// Package ingest feeds events from message buses into the engine.
package ingest

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gyaneshwarpardhi/hookrelay/internal/event"
	"github.com/gyaneshwarpardhi/hookrelay/internal/metrics"
)

// Submitter accepts events for background processing.
type Submitter interface {
	ProcessAsync(ev *event.Event) bool
}

// Connect dials a NATS server with reconnect logging.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("hookrelay"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return nc, nil
}

// NATSSource subscribes to a subject and submits every message as an event.
// With a queue group, several relays share the stream instead of each
// receiving every message.
type NATSSource struct {
	nc      *nats.Conn
	subject string
	queue   string
	sink    Submitter
	sub     *nats.Subscription
}

// NewNATSSource creates a source; call Start to subscribe.
func NewNATSSource(nc *nats.Conn, subject, queue string, sink Submitter) *NATSSource {
	return &NATSSource{nc: nc, subject: subject, queue: queue, sink: sink}
}

// Start subscribes to the subject.
func (s *NATSSource) Start() error {
	var (
		sub *nats.Subscription
		err error
	)
	if s.queue != "" {
		sub, err = s.nc.QueueSubscribe(s.subject, s.queue, s.onMsg)
	} else {
		sub, err = s.nc.Subscribe(s.subject, s.onMsg)
	}
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", s.subject, err)
	}
	s.sub = sub
	slog.Info("nats source started", "subject", s.subject, "queue", s.queue)
	return nil
}

func (s *NATSSource) onMsg(msg *nats.Msg) {
	s.handle(msg.Subject, msg.Data)
}

// handle returns true when the event was queued.
func (s *NATSSource) handle(subject string, data []byte) bool {
	ev, err := event.Decode(bytes.NewReader(data))
	if err != nil {
		metrics.EventsInvalid.WithLabelValues("nats").Inc()
		slog.Warn("nats message dropped: not a JSON object", "subject", subject, "err", err)
		return false
	}
	if !s.sink.ProcessAsync(ev) {
		slog.Warn("nats message dropped: queue full", "subject", subject, "event_id", ev.ID)
		return false
	}
	return true
}

// Close drains the subscription so in-flight messages are still handled.
func (s *NATSSource) Close() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Drain()
}
