package alerts

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// Worker consumes alert tasks and delivers them to the configured
// webhook, or just logs them when no webhook is set.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sink   *webhookSink
}

// NewWorker builds a worker bound to Redis. webhookURL may be empty.
func NewWorker(redisAddr, webhookURL string) *Worker {
	w := &Worker{
		sink: newWebhookSink(webhookURL),
	}

	w.mux = asynq.NewServeMux()
	w.mux.HandleFunc(TaskTransferCompleted, w.handleTransferCompleted)
	w.mux.HandleFunc(TaskApprovalRequested, w.handleApprovalRequested)
	w.mux.HandleFunc(TaskTwoFactorEnrolled, w.handleTwoFactorEnrolled)

	w.server = asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueNotifications: 10,
			QueueSecurity:      5,
		},
	})
	return w
}

// Run starts consuming in the calling goroutine and blocks until
// Shutdown.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown drains in-flight tasks and stops the worker.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleTransferCompleted(_ context.Context, t *asynq.Task) error {
	var p TransferCompletedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := w.sink.deliver(TaskTransferCompleted, p); err != nil {
		return err
	}
	log.Info().
		Str("hash", p.Hash).
		Str("sender", p.Sender).
		Str("receiver", p.Receiver).
		Msg("Transfer alert delivered")
	return nil
}

func (w *Worker) handleApprovalRequested(_ context.Context, t *asynq.Task) error {
	var p ApprovalRequestedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := w.sink.deliver(TaskApprovalRequested, p); err != nil {
		return err
	}
	log.Info().
		Str("proposal_id", p.ProposalID).
		Str("wallet", p.Wallet).
		Msg("Approval request alert delivered")
	return nil
}

func (w *Worker) handleTwoFactorEnrolled(_ context.Context, t *asynq.Task) error {
	var p TwoFactorEnrolledPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := w.sink.deliver(TaskTwoFactorEnrolled, p); err != nil {
		return err
	}
	log.Info().Str("wallet", p.Wallet).Msg("2FA enrollment alert delivered")
	return nil
}
