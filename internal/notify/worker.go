package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cabin-order-services/internal/queue"

	"go.uber.org/zap"
)

// Provider is what the worker needs from a Sender; split out so tests can
// fake the outbound calls.
type Provider interface {
	SendSMS(ctx context.Context, phone, firstName, template string) error
	SendEmail(ctx context.Context, subject, body string) error
	TriggerCall(ctx context.Context, callee string) error
}

// Worker drains the notification jobs queue. Provider failures are returned
// so ConsumeWithRetry can retry a few times before dead-lettering; nothing
// here ever blocks or rolls back the mutation that produced the job.
type Worker struct {
	provider Provider
	logger   *zap.Logger
}

func NewWorker(provider Provider, logger *zap.Logger) *Worker {
	return &Worker{provider: provider, logger: logger}
}

func (w *Worker) HandleJob(ctx context.Context, body []byte) error {
	var job queue.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return err
	}

	var err error
	switch job.Kind {
	case queue.JobSMS:
		err = w.provider.SendSMS(ctx, job.Phone, job.FirstName, job.Template)
	case queue.JobEmail:
		err = w.provider.SendEmail(ctx, job.Subject, job.Body)
	case queue.JobCall:
		err = w.provider.TriggerCall(ctx, job.Callee)
	default:
		w.logger.Warn("unknown notification job", zap.String("kind", job.Kind))
		return nil
	}

	if err != nil {
		w.logger.Warn("notification send failed",
			zap.String("kind", job.Kind),
			zap.String("location", job.Location),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", job.Kind, err)
	}
	return nil
}
