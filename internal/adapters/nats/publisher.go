package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/earthwork/internal/core/domain"
)

const (
	// StreamEvents retains calculation events for late consumers.
	StreamEvents = "EARTHWORK_EVENTS"

	SubjectCalculationAll       = "earthwork.events.>"
	SubjectCalculationCompleted = "earthwork.events.calculation.completed"
	SubjectCalculationFailed    = "earthwork.events.calculation.failed"

	// SubjectJobs carries CalculationJob requests answered with a JobReply.
	SubjectJobs = "earthwork.jobs.calculate"
	// QueueWorkers load-balances jobs across worker processes.
	QueueWorkers = "earthwork-workers"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn  *nats.Conn
	js    nats.JetStreamContext
	owned bool
}

// Connect dials NATS with the reconnect policy shared by every process.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// NewPublisher connects to NATS and ensures the event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url, "earthwork-publisher")
	if err != nil {
		return nil, err
	}
	p, err := NewPublisherFromConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.owned = true
	return p, nil
}

// NewPublisherFromConn shares an existing connection. Close does not drain it.
func NewPublisherFromConn(conn *nats.Conn) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamEvents,
		Subjects:  []string{SubjectCalculationAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		if _, err := js.UpdateStream(cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return &Publisher{conn: conn, js: js}, nil
}

// SubjectFor returns the subject an event is published on.
func SubjectFor(ev *domain.CalculationEvent) string {
	if ev.Status == "failed" {
		return SubjectCalculationFailed
	}
	return SubjectCalculationCompleted
}

// PublishCalculation publishes ev. The event ID doubles as the JetStream
// message ID so retried publishes are deduplicated.
func (p *Publisher) PublishCalculation(ctx context.Context, ev *domain.CalculationEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := p.js.Publish(SubjectFor(ev), data, nats.Context(ctx), nats.MsgId(ev.ID)); err != nil {
		return fmt.Errorf("publish %s: %w", ev.ID, err)
	}
	return nil
}

// Conn exposes the underlying connection, e.g. for the WebSocket relay.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains the connection if the publisher opened it.
func (p *Publisher) Close() {
	if p.owned {
		_ = p.conn.Drain()
	}
}
