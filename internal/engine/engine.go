// Package engine validates and applies transfers against the ledger
// store. It is the only component that stamps transactions with a
// sequence, timestamp, and content hash.
package engine

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// AdjustmentCounterparty labels the non-wallet side of operator
// credit/debit audit rows.
const AdjustmentCounterparty = "network"

// TransferRequest carries one direct transfer attempt.
type TransferRequest struct {
	Sender    string
	Receiver  string
	Amount    ledger.Amount
	AuthProof string
}

// Engine applies transfers. Safe for concurrent use; it holds no lock
// across store calls.
type Engine struct {
	store ledger.Store
	now   func() time.Time

	mu        sync.Mutex
	lastStamp map[string]time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store ledger.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		now:       time.Now,
		lastStamp: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transfer validates and applies a direct transfer. Validation is
// ordered and fails fast with no partial effects: amount, wallet
// existence, credential, multisig gate, then the atomic balance move.
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (*ledger.Transaction, error) {
	if req.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	sender, err := e.store.GetWallet(ctx, req.Sender)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.GetWallet(ctx, req.Receiver); err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(req.AuthProof), []byte(sender.PrivateKeyHash)) != 1 {
		return nil, ledger.ErrUnauthorized
	}

	if sender.IsMultisig {
		return nil, ledger.ErrRequiresApproval
	}

	// Self-transfers are allowed: they net to zero but are still
	// validated and logged like any other transfer.
	tx, err := e.stamp(ctx, req.Sender, req.Receiver, req.Amount, ledger.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if err := e.store.ApplyTransfer(ctx, tx); err != nil {
		return nil, err
	}

	log.Info().
		Str("hash", tx.Hash).
		Str("sender", tx.Sender).
		Str("receiver", tx.Receiver).
		Str("amount", tx.Amount.String()).
		Msg("Transfer completed")
	return tx, nil
}

// ApplyApproved applies a finalized multisig draft. The credential
// check is skipped: a met approval threshold is the authorization.
// Funds are re-validated at apply time.
func (e *Engine) ApplyApproved(ctx context.Context, draft *ledger.Transaction) (*ledger.Transaction, error) {
	if draft.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	tx, err := e.stamp(ctx, draft.Sender, draft.Receiver, draft.Amount, ledger.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if err := e.store.ApplyTransfer(ctx, tx); err != nil {
		return nil, err
	}

	log.Info().
		Str("hash", tx.Hash).
		Str("sender", tx.Sender).
		Str("receiver", tx.Receiver).
		Str("amount", tx.Amount.String()).
		Msg("Approved transfer applied")
	return tx, nil
}

// RecordRejected appends a rejected audit row for a draft that will
// never move funds, so the attempt stays visible in both histories.
func (e *Engine) RecordRejected(ctx context.Context, draft *ledger.Transaction) (*ledger.Transaction, error) {
	tx, err := e.stamp(ctx, draft.Sender, draft.Receiver, draft.Amount, ledger.StatusRejected)
	if err != nil {
		return nil, err
	}
	if err := e.store.AppendTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Adjust credits (delta > 0) or debits (delta < 0) a wallet outside
// the transfer path and records an adjustment audit row. Used by the
// admin surface and the faucet tool.
func (e *Engine) Adjust(ctx context.Context, address string, delta ledger.Amount) (*ledger.Transaction, error) {
	if delta == 0 {
		return nil, ledger.ErrInvalidAmount
	}

	sender, receiver := AdjustmentCounterparty, address
	amount := delta
	if delta < 0 {
		sender, receiver = address, AdjustmentCounterparty
		amount = -delta
	}

	tx, err := e.stamp(ctx, sender, receiver, amount, ledger.StatusCompleted)
	if err != nil {
		return nil, err
	}
	tx.Kind = ledger.KindAdjustment
	if err := e.store.ApplyAdjustment(ctx, address, delta, tx); err != nil {
		return nil, err
	}

	log.Info().
		Str("address", address).
		Str("delta", delta.String()).
		Msg("Balance adjusted")
	return tx, nil
}

// stamp builds a transaction with a fresh sequence, a per-sender
// non-decreasing timestamp, and the content hash.
func (e *Engine) stamp(ctx context.Context, sender, receiver string, amount ledger.Amount, status string) (*ledger.Transaction, error) {
	seq, err := e.store.NextSequence(ctx)
	if err != nil {
		return nil, err
	}
	ts := e.stampTime(sender)
	return &ledger.Transaction{
		Hash:      TransactionHash(sender, receiver, amount, ts, seq),
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Sequence:  seq,
		Kind:      ledger.KindTransfer,
		Status:    status,
		Timestamp: ts,
	}, nil
}

// stampTime returns the current time, clamped so a sender's
// timestamps never step backwards within this process.
func (e *Engine) stampTime(sender string) time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	ts := e.now().UTC()
	if last, ok := e.lastStamp[sender]; ok && ts.Before(last) {
		ts = last
	}
	e.lastStamp[sender] = ts
	return ts
}

// TransactionHash derives the content hash of a transfer. The
// sequence keeps hashes unique even for identical back-to-back
// transfers.
func TransactionHash(sender, receiver string, amount ledger.Amount, ts time.Time, seq uint64) string {
	payload := fmt.Sprintf("%s:%s:%d:%d:%d", sender, receiver, int64(amount), ts.UnixNano(), seq)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
