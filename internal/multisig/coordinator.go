package multisig

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/engine"
	"github.com/coinpurse/wallet-sim/internal/keys"
	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// DefaultProposalTTL is how long a proposal stays open for approvals.
const DefaultProposalTTL = 24 * time.Hour

const (
	lockTTL       = 5 * time.Second
	lockRetries   = 20
	lockRetryWait = 50 * time.Millisecond
)

// Coordinator owns the multisig proposal lifecycle. It is the only
// path through which a multisig wallet can spend.
type Coordinator struct {
	store     ledger.Store
	proposals ProposalStore
	engine    *engine.Engine
	gen       *keys.Generator
	ttl       time.Duration
	now       func() time.Time

	mu sync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTTL overrides the proposal approval deadline.
func WithTTL(ttl time.Duration) Option {
	return func(c *Coordinator) { c.ttl = ttl }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(store ledger.Store, proposals ProposalStore, eng *engine.Engine, gen *keys.Generator, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		proposals: proposals,
		engine:    eng,
		gen:       gen,
		ttl:       DefaultProposalTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateWallet mints a multisig wallet owned by the given addresses.
// Every owner must already exist. Returns the wallet plus its one-time
// private key and recovery phrase.
func (c *Coordinator) CreateWallet(ctx context.Context, owners []string, required int) (*ledger.Wallet, string, string, error) {
	owners = normalizeOwners(owners)
	if len(owners) < 2 {
		return nil, "", "", ledger.ErrTooFewOwners
	}
	if required < 1 || required > len(owners) {
		return nil, "", "", ledger.ErrSignaturesOutOfRange
	}
	for _, owner := range owners {
		if _, err := c.store.GetWallet(ctx, owner); err != nil {
			if errors.Is(err, ledger.ErrWalletNotFound) {
				return nil, "", "", errors.Wrapf(ledger.ErrWalletNotFound, "owner %s", owner)
			}
			return nil, "", "", err
		}
	}

	w, privHex, mnemonic, err := c.gen.NewWallet(ctx)
	if err != nil {
		return nil, "", "", err
	}
	if err := c.store.MarkMultisig(ctx, w.Address, owners, required); err != nil {
		return nil, "", "", err
	}
	w.IsMultisig = true
	w.Owners = owners
	w.RequiredSignatures = required

	log.Info().
		Str("address", w.Address).
		Int("owners", len(owners)).
		Int("required_signatures", required).
		Msg("Multisig wallet created")
	return w, privHex, mnemonic, nil
}

// Propose opens a transfer proposal from a multisig wallet. Funds are
// checked at finalize time, not reserved here.
func (c *Coordinator) Propose(ctx context.Context, sender, receiver string, amount ledger.Amount, proposer string) (*PendingApproval, error) {
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	wallet, err := c.store.GetWallet(ctx, sender)
	if err != nil {
		return nil, err
	}
	if !wallet.IsMultisig {
		return nil, ledger.ErrNotMultisig
	}
	if _, err := c.store.GetWallet(ctx, receiver); err != nil {
		return nil, err
	}
	if !wallet.IsOwner(proposer) {
		return nil, ledger.ErrNotAnOwner
	}

	now := c.now().UTC()
	p := &PendingApproval{
		ID: newProposalID(),
		Draft: ledger.Transaction{
			Sender:    sender,
			Receiver:  receiver,
			Amount:    amount,
			Kind:      ledger.KindTransfer,
			Status:    ledger.StatusPending,
			Timestamp: now,
		},
		Approvals: []string{},
		Required:  wallet.RequiredSignatures,
		Status:    StatusProposed,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	if err := c.proposals.Save(ctx, p); err != nil {
		return nil, err
	}

	log.Info().
		Str("proposal_id", p.ID).
		Str("sender", sender).
		Str("receiver", receiver).
		Str("amount", amount.String()).
		Msg("Multisig transfer proposed")
	return p, nil
}

// Approve records an owner's signature. Reaching the threshold applies
// the draft inside the same call; the finalized proposal carries the
// applied transaction's hash. If the wallet cannot cover the amount at
// that moment the proposal is rejected, a rejected audit row is
// appended, and ErrInsufficientFunds is returned.
func (c *Coordinator) Approve(ctx context.Context, id, owner string) (*PendingApproval, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	unlock, err := c.lockProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := c.liveProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	wallet, err := c.store.GetWallet(ctx, p.Draft.Sender)
	if err != nil {
		return nil, err
	}
	if !wallet.IsOwner(owner) {
		return nil, ledger.ErrNotAnOwner
	}
	if p.HasApproved(owner) {
		return nil, ledger.ErrAlreadyApproved
	}

	p.Approvals = append(p.Approvals, owner)
	p.Status = StatusApproving
	if len(p.Approvals) < p.Required {
		if err := c.proposals.Save(ctx, p); err != nil {
			return nil, err
		}
		log.Info().
			Str("proposal_id", p.ID).
			Str("owner", owner).
			Int("approvals", len(p.Approvals)).
			Int("required_signatures", p.Required).
			Msg("Proposal approved")
		return p, nil
	}

	tx, err := c.engine.ApplyApproved(ctx, &p.Draft)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			p.Status = StatusRejected
			if _, rerr := c.engine.RecordRejected(ctx, &p.Draft); rerr != nil {
				log.Warn().Err(rerr).Str("proposal_id", p.ID).Msg("Failed to record rejected draft")
			}
			if serr := c.proposals.Save(ctx, p); serr != nil {
				return nil, serr
			}
		}
		return nil, err
	}

	p.Status = StatusFinalized
	p.FinalHash = tx.Hash
	if err := c.proposals.Save(ctx, p); err != nil {
		return nil, err
	}

	log.Info().
		Str("proposal_id", p.ID).
		Str("hash", tx.Hash).
		Msg("Proposal finalized, transfer applied")
	return p, nil
}

// Reject closes a live proposal. Any owner may reject; the attempt
// stays visible as a rejected row in the wallet's history.
func (c *Coordinator) Reject(ctx context.Context, id, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	unlock, err := c.lockProposal(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	p, err := c.liveProposal(ctx, id)
	if err != nil {
		return err
	}
	wallet, err := c.store.GetWallet(ctx, p.Draft.Sender)
	if err != nil {
		return err
	}
	if !wallet.IsOwner(owner) {
		return ledger.ErrNotAnOwner
	}

	p.Status = StatusRejected
	if _, err := c.engine.RecordRejected(ctx, &p.Draft); err != nil {
		return err
	}
	if err := c.proposals.Save(ctx, p); err != nil {
		return err
	}

	log.Info().
		Str("proposal_id", p.ID).
		Str("owner", owner).
		Msg("Proposal rejected")
	return nil
}

// Pending returns a wallet's proposals that are still open for
// approval, oldest first.
func (c *Coordinator) Pending(ctx context.Context, address string) ([]*PendingApproval, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.proposals.ForWallet(ctx, address)
	if err != nil {
		return nil, err
	}
	now := c.now()
	out := make([]*PendingApproval, 0, len(all))
	for _, p := range all {
		if p.Overdue(now) {
			p.Status = StatusExpired
			if err := c.proposals.Save(ctx, p); err != nil {
				return nil, err
			}
			continue
		}
		if p.Open() {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get returns one proposal in any state.
func (c *Coordinator) Get(ctx context.Context, id string) (*PendingApproval, error) {
	return c.proposals.Get(ctx, id)
}

// ExpireStale flips overdue live proposals to expired and returns how
// many it closed. Driven by a ticker in the server entry point.
func (c *Coordinator) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	live, err := c.proposals.Live(ctx)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, p := range live {
		if !p.Overdue(now) {
			continue
		}
		p.Status = StatusExpired
		if err := c.proposals.Save(ctx, p); err != nil {
			return expired, err
		}
		expired++
		log.Debug().Str("proposal_id", p.ID).Msg("Proposal expired")
	}
	return expired, nil
}

// liveProposal loads a proposal and enforces that it is still open,
// lazily expiring it when the deadline has passed.
func (c *Coordinator) liveProposal(ctx context.Context, id string) (*PendingApproval, error) {
	p, err := c.proposals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Overdue(c.now()) {
		p.Status = StatusExpired
		if err := c.proposals.Save(ctx, p); err != nil {
			return nil, err
		}
		return nil, ledger.ErrProposalClosed
	}
	if !p.Open() {
		return nil, ledger.ErrProposalClosed
	}
	return p, nil
}

// lockProposal takes the store's distributed lock when it offers one.
// The in-process mutex already serializes local callers.
func (c *Coordinator) lockProposal(ctx context.Context, id string) (func(), error) {
	locker, ok := c.proposals.(Locker)
	if !ok {
		return func() {}, nil
	}
	for attempt := 0; attempt < lockRetries; attempt++ {
		acquired, err := locker.AcquireLock(ctx, id, lockTTL)
		if err != nil {
			return nil, err
		}
		if acquired {
			return func() {
				if err := locker.ReleaseLock(context.Background(), id); err != nil {
					log.Warn().Err(err).Str("proposal_id", id).Msg("Failed to release proposal lock")
				}
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}
	return nil, errors.Errorf("proposal %s is locked by another approval", id)
}

// normalizeOwners trims, drops empties, and dedupes while keeping the
// caller's order.
func normalizeOwners(owners []string) []string {
	seen := make(map[string]struct{}, len(owners))
	out := make([]string, 0, len(owners))
	for _, o := range owners {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
