package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const TypeEmailDelivery = "email:deliver"

// EmailTaskPayload carries a rendered message from the API process to the worker.
type EmailTaskPayload struct {
	To         []string `json:"to"`
	Subject    string   `json:"subject"`
	RawMessage []byte   `json:"raw_message"`
}

func NewEmailDeliveryTask(to []string, subject string, raw []byte) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailTaskPayload{To: to, Subject: subject, RawMessage: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal email task: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, payload), nil
}

// Enqueuer is the part of *asynq.Client QueueSender uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSender defers delivery to the email worker. Send succeeds once the
// task is in Redis.
type QueueSender struct {
	client   Enqueuer
	queue    string
	maxRetry int
}

func NewQueueSender(client Enqueuer, queue string) *QueueSender {
	if queue == "" {
		queue = "default"
	}
	return &QueueSender{client: client, queue: queue, maxRetry: 5}
}

func (q *QueueSender) Send(ctx context.Context, to []string, subject string, raw []byte) error {
	task, err := NewEmailDeliveryTask(to, subject, raw)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task, asynq.Queue(q.queue), asynq.MaxRetry(q.maxRetry)); err != nil {
		return fmt.Errorf("enqueue email %q: %w", subject, err)
	}
	return nil
}

// =============================================================================
// WORKER
// =============================================================================

// EmailWorker delivers queued emails through a synchronous Sender.
type EmailWorker struct {
	Sender Sender
	Logger *slog.Logger
}

func (w *EmailWorker) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var p EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}
	if len(p.To) == 0 || len(p.RawMessage) == 0 {
		return fmt.Errorf("email task without recipients or body: %w", asynq.SkipRetry)
	}
	if err := w.Sender.Send(ctx, p.To, p.Subject, p.RawMessage); err != nil {
		w.Logger.Warn("email delivery failed, will retry", "subject", p.Subject, "error", err)
		return err
	}
	w.Logger.Info("email delivered", "subject", p.Subject, "to", p.To)
	return nil
}

// NewWorkerServer builds the asynq server and mux for the email worker.
func NewWorkerServer(redis asynq.RedisClientOpt, concurrency int, w *EmailWorker) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(redis, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			if errors.Is(err, asynq.SkipRetry) {
				w.Logger.Error("email task dropped", "type", task.Type(), "error", err)
				return
			}
			w.Logger.Warn("email task failed", "type", task.Type(), "error", err)
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, w.HandleEmailDeliveryTask)
	return srv, mux
}
