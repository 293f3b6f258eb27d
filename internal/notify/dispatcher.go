package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studia-dev/classhub-api/pkg/jobs"
	"github.com/studia-dev/classhub-api/pkg/mail"
)

// DispatcherConfig tunes the notification worker pool.
type DispatcherConfig struct {
	Workers    int
	BufferSize int
	SiteURL    string
	Recorder   DeliveryRecorder
}

// DeliveryRecorder counts delivery outcomes, typically backed by
// Prometheus.
type DeliveryRecorder interface {
	RecordNotification(event string, delivered bool)
}

// Dispatcher consumes lifecycle events and sends the corresponding emails
// on a background worker pool. Dispatch is fire-and-forget: a failed or
// dropped send is logged and never propagates back to the command that
// emitted the event.
type Dispatcher struct {
	queue    *jobs.Queue
	mailer   mail.Mailer
	logger   *zap.Logger
	site     string
	recorder DeliveryRecorder
}

// NewDispatcher builds a dispatcher backed by an in-process queue.
func NewDispatcher(mailer mail.Mailer, logger *zap.Logger, cfg DispatcherConfig) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{mailer: mailer, logger: logger, site: cfg.SiteURL, recorder: cfg.Recorder}
	// MaxRetries 0: each event gets at most one delivery attempt.
	d.queue = jobs.NewQueue("notifications", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: 0,
		Logger:     logger,
	})
	return d
}

// Start launches the worker pool.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the worker pool.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Emit enqueues an event for asynchronous delivery. Enqueue failures are
// logged and swallowed so the triggering state change is never affected.
func (d *Dispatcher) Emit(event Event) {
	err := d.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    string(event.Type),
		Payload: event,
	})
	if err != nil {
		d.logger.Warn("notification dropped",
			zap.String("event", string(event.Type)),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(Event)
	if !ok {
		d.logger.Error("notification job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	messages, err := Messages(event, d.site)
	if err != nil {
		d.logger.Error("failed to compose notification",
			zap.String("event", string(event.Type)),
			zap.Error(err),
		)
		return nil
	}

	for _, msg := range messages {
		if err := d.mailer.Send(ctx, msg); err != nil {
			if d.recorder != nil {
				d.recorder.RecordNotification(string(event.Type), false)
			}
			d.logger.Error("failed to send notification",
				zap.String("event", string(event.Type)),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
			continue
		}
		if d.recorder != nil {
			d.recorder.RecordNotification(string(event.Type), true)
		}
		d.logger.Info("notification sent",
			zap.String("event", string(event.Type)),
			zap.String("subject", msg.Subject),
		)
	}
	return nil
}
