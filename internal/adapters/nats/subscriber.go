package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/ports"
	"github.com/samirrijal/earthwork/internal/pkg/metrics"
	"github.com/samirrijal/earthwork/internal/pkg/telemetry"
)

// Subscriber consumes calculation events and serves calculation jobs.
type Subscriber struct {
	conn       *nats.Conn
	js         nats.JetStreamContext
	subs       []*nats.Subscription
	jobTimeout time.Duration
}

// NewSubscriber creates a subscriber on conn. jobTimeout bounds a single
// job; zero means 30s.
func NewSubscriber(conn *nats.Conn, jobTimeout time.Duration) (*Subscriber, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}
	return &Subscriber{conn: conn, js: js, jobTimeout: jobTimeout}, nil
}

// SubscribeCalculations delivers stored and new calculation events to
// handler through a durable consumer. Failed handlers are redelivered up to
// three times.
func (s *Subscriber) SubscribeCalculations(ctx context.Context, handler func(ctx context.Context, ev *domain.CalculationEvent) error) error {
	sub, err := s.js.Subscribe(SubjectCalculationAll, func(msg *nats.Msg) {
		var ev domain.CalculationEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &ev); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("earthwork-event-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// ServeCalculations answers CalculationJob requests on SubjectJobs as a
// member of QueueWorkers. It returns once the subscription is in place.
func (s *Subscriber) ServeCalculations(ctx context.Context, calc ports.Calculator) error {
	sub, err := s.conn.QueueSubscribe(SubjectJobs, QueueWorkers, func(msg *nats.Msg) {
		jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()

		reply := HandleJob(jobCtx, calc, msg.Data)
		data, err := json.Marshal(reply)
		if err != nil {
			slog.Error("encode job reply", "job_id", reply.ID, "error", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			slog.Warn("respond to job", "job_id", reply.ID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectJobs, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// HandleJob decodes and runs one job. Failures are reported in the reply,
// never as a partial result.
func HandleJob(ctx context.Context, calc ports.Calculator, data []byte) domain.JobReply {
	var job domain.CalculationJob
	if err := json.Unmarshal(data, &job); err != nil {
		metrics.JobsProcessed.WithLabelValues("malformed").Inc()
		return domain.JobReply{Error: &domain.JobError{
			Code:    string(domain.KindMalformedRequest),
			Message: "invalid job: " + err.Error(),
		}}
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanJob)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrJobID, job.ID))

	var (
		res *domain.VolumeResult
		err error
	)
	switch {
	case job.Uniform != nil && job.Surface == nil:
		res, err = calc.Calculate(ctx, *job.Uniform)
	case job.Surface != nil && job.Uniform == nil:
		res, err = calc.CalculateTIN(ctx, *job.Surface)
	default:
		err = domain.Malformed("job must carry exactly one of uniform or surface")
	}

	reply := domain.JobReply{ID: job.ID}
	if err != nil {
		reply.Error = jobError(err)
		span.SetAttributes(attribute.String(telemetry.AttrErrorKind, reply.Error.Code))
		span.SetStatus(codes.Error, reply.Error.Message)
		metrics.JobsProcessed.WithLabelValues("failed").Inc()
		return reply
	}
	reply.Result = res
	metrics.JobsProcessed.WithLabelValues("completed").Inc()
	return reply
}

func jobError(err error) *domain.JobError {
	if e, ok := domain.AsError(err); ok {
		msg := e.Message
		if msg == "" {
			msg = e.Error()
		}
		return &domain.JobError{Code: string(e.Kind), Reason: e.Reason, Message: msg}
	}
	return &domain.JobError{Code: "internal_error", Message: err.Error()}
}

// RequestCalculation sends job to a worker and waits for the reply.
func RequestCalculation(ctx context.Context, conn *nats.Conn, job domain.CalculationJob) (*domain.JobReply, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	msg, err := conn.RequestWithContext(ctx, SubjectJobs, data)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", SubjectJobs, err)
	}
	var reply domain.JobReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("decode job reply: %w", err)
	}
	return &reply, nil
}

// Close unsubscribes. The connection belongs to the caller.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

var _ ports.EventSubscriber = (*Subscriber)(nil)
