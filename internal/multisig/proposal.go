// Package multisig coordinates shared-custody wallets: transfer
// proposals, owner approvals, and threshold finalization.
package multisig

import (
	"time"

	"github.com/google/uuid"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// Proposal lifecycle states.
const (
	StatusProposed  = "proposed"
	StatusApproving = "approving"
	StatusFinalized = "finalized"
	StatusRejected  = "rejected"
	StatusExpired   = "expired"
)

// PendingApproval is a proposed transfer from a multisig wallet,
// waiting for owner signatures. No funds move until the approval
// threshold is met.
type PendingApproval struct {
	ID        string             `json:"id"`
	Draft     ledger.Transaction `json:"draft"`
	Approvals []string           `json:"approvals"`
	Required  int                `json:"required_signatures"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
	FinalHash string             `json:"final_hash,omitempty"`
}

func newProposalID() string {
	return "prop-" + uuid.NewString()
}

// Open reports whether the proposal can still collect approvals.
func (p *PendingApproval) Open() bool {
	return p.Status == StatusProposed || p.Status == StatusApproving
}

// Overdue reports whether an open proposal has outlived its deadline.
func (p *PendingApproval) Overdue(now time.Time) bool {
	return p.Open() && now.After(p.ExpiresAt)
}

// HasApproved reports whether owner has already signed.
func (p *PendingApproval) HasApproved(owner string) bool {
	for _, a := range p.Approvals {
		if a == owner {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (p *PendingApproval) Clone() *PendingApproval {
	c := *p
	c.Approvals = append([]string(nil), p.Approvals...)
	return &c
}
