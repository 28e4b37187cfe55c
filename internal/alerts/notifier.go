// Package alerts pushes wallet events onto an asynq queue for
// asynchronous delivery. Without a Redis address the notifier runs in
// log-only mode, so the API never depends on the queue being up.
package alerts

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/ledger"
	"github.com/coinpurse/wallet-sim/internal/multisig"
)

// Notifier enqueues alert tasks. A nil client disables queuing;
// enqueue failures are logged and never surface to callers.
type Notifier struct {
	client *asynq.Client
}

// NewNotifier connects a notifier to Redis. An empty address yields a
// log-only notifier.
func NewNotifier(redisAddr string) *Notifier {
	if redisAddr == "" {
		return &Notifier{}
	}
	return &Notifier{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// Close releases the queue connection.
func (n *Notifier) Close() {
	if n.client != nil {
		_ = n.client.Close()
	}
}

// TransferCompleted announces a settled transfer.
func (n *Notifier) TransferCompleted(tx *ledger.Transaction) {
	n.enqueue(TaskTransferCompleted, QueueNotifications, TransferCompletedPayload{
		Hash:     tx.Hash,
		Sender:   tx.Sender,
		Receiver: tx.Receiver,
		Amount:   tx.Amount,
		Kind:     tx.Kind,
		SentAt:   time.Now().UTC(),
	})
}

// ApprovalRequested asks the owners of a multisig wallet to review a
// new proposal.
func (n *Notifier) ApprovalRequested(p *multisig.PendingApproval) {
	n.enqueue(TaskApprovalRequested, QueueNotifications, ApprovalRequestedPayload{
		ProposalID: p.ID,
		Wallet:     p.Draft.Sender,
		Receiver:   p.Draft.Receiver,
		Amount:     p.Draft.Amount,
		Required:   p.Required,
		SentAt:     time.Now().UTC(),
	})
}

// TwoFactorEnrolled records a 2FA enrollment.
func (n *Notifier) TwoFactorEnrolled(address string) {
	n.enqueue(TaskTwoFactorEnrolled, QueueSecurity, TwoFactorEnrolledPayload{
		Wallet: address,
		SentAt: time.Now().UTC(),
	})
}

func (n *Notifier) enqueue(taskType, queue string, payload interface{}) {
	if n == nil || n.client == nil {
		log.Debug().Str("task", taskType).Msg("Alert queue disabled, event logged only")
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("task", taskType).Msg("Failed to marshal alert payload")
		return
	}
	if _, err := n.client.Enqueue(asynq.NewTask(taskType, b), asynq.Queue(queue)); err != nil {
		log.Error().Err(err).Str("task", taskType).Msg("Failed to enqueue alert")
	}
}
