package alerts

import (
	"time"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// Task type constants
const (
	TaskTransferCompleted = "tx:completed"
	TaskApprovalRequested = "multisig:approval_requested"
	TaskTwoFactorEnrolled = "twofactor:enrolled"
)

// Queue names. Transfer and approval traffic outweighs security
// events, so it gets the higher priority weight.
const (
	QueueNotifications = "notifications"
	QueueSecurity      = "security"
)

// TransferCompletedPayload announces a settled transfer to both sides.
type TransferCompletedPayload struct {
	Hash     string        `json:"hash"`
	Sender   string        `json:"sender_address"`
	Receiver string        `json:"receiver_address"`
	Amount   ledger.Amount `json:"amount"`
	Kind     string        `json:"kind"`
	SentAt   time.Time     `json:"sent_at"`
}

// ApprovalRequestedPayload nudges the remaining owners of a multisig
// wallet to sign a fresh proposal.
type ApprovalRequestedPayload struct {
	ProposalID string        `json:"proposal_id"`
	Wallet     string        `json:"wallet_address"`
	Receiver   string        `json:"receiver_address"`
	Amount     ledger.Amount `json:"amount"`
	Required   int           `json:"required_signatures"`
	SentAt     time.Time     `json:"sent_at"`
}

// TwoFactorEnrolledPayload records a 2FA enrollment for the security
// audit trail.
type TwoFactorEnrolledPayload struct {
	Wallet string    `json:"wallet_address"`
	SentAt time.Time `json:"sent_at"`
}
