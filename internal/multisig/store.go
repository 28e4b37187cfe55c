package multisig

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// ProposalStore persists pending approvals. Implementations must be
// safe for concurrent use.
type ProposalStore interface {
	// Save creates or replaces a proposal record.
	Save(ctx context.Context, p *PendingApproval) error
	// Get returns a proposal by ID, or ErrProposalNotFound.
	Get(ctx context.Context, id string) (*PendingApproval, error)
	// ForWallet returns every recorded proposal whose draft sender is
	// the given wallet, oldest first.
	ForWallet(ctx context.Context, address string) ([]*PendingApproval, error)
	// Live returns proposals still open for approval.
	Live(ctx context.Context) ([]*PendingApproval, error)
}

// Locker is implemented by proposal stores that need cross-process
// mutual exclusion around read-modify-write sequences.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// MemoryStore keeps proposals in process memory. It is the default
// backend when no Redis address is configured.
type MemoryStore struct {
	mu       sync.Mutex
	byID     map[string]*PendingApproval
	byWallet map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*PendingApproval),
		byWallet: make(map[string][]string),
	}
}

func (s *MemoryStore) Save(ctx context.Context, p *PendingApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[p.ID]; !exists {
		sender := p.Draft.Sender
		s.byWallet[sender] = append(s.byWallet[sender], p.ID)
	}
	s.byID[p.ID] = p.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*PendingApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, ledger.ErrProposalNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) ForWallet(ctx context.Context, address string) ([]*PendingApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byWallet[address]
	out := make([]*PendingApproval, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Live(ctx context.Context) ([]*PendingApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*PendingApproval
	for _, p := range s.byID {
		if p.Open() {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
