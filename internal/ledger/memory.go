package ledger

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps the whole ledger behind one mutex. The simulator's
// scale makes a single lock sufficient; the serializability guarantees
// of the Store contract fall out of it directly.
type MemoryStore struct {
	mu      sync.Mutex
	wallets map[string]*Wallet
	log     []*Transaction
	byHash  map[string]*Transaction
	seq     uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets: make(map[string]*Wallet),
		byHash:  make(map[string]*Transaction),
	}
}

func (s *MemoryStore) CreateWallet(ctx context.Context, w *Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[w.Address]; ok {
		return ErrAddressCollision
	}
	s.wallets[w.Address] = w.Clone()
	return nil
}

func (s *MemoryStore) GetWallet(ctx context.Context, addr string) (*Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[addr]
	if !ok {
		return nil, ErrWalletNotFound
	}
	return w.Clone(), nil
}

func (s *MemoryStore) ListWallets(ctx context.Context, limit, offset int) ([]*Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		all = append(all, w)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Address < all[j].Address
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	out := make([]*Wallet, len(all))
	for i, w := range all {
		out[i] = w.Clone()
	}
	return out, nil
}

func (s *MemoryStore) MarkMultisig(ctx context.Context, addr string, owners []string, required int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[addr]
	if !ok {
		return ErrWalletNotFound
	}
	w.IsMultisig = true
	w.Owners = append([]string(nil), owners...)
	w.RequiredSignatures = required
	return nil
}

func (s *MemoryStore) SetTwoFactorSecret(ctx context.Context, addr, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[addr]
	if !ok {
		return ErrWalletNotFound
	}
	if w.TwoFactorSecret != "" {
		return ErrTwoFactorEnrolled
	}
	w.TwoFactorSecret = secret
	return nil
}

func (s *MemoryStore) ClearTwoFactorSecret(ctx context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[addr]
	if !ok {
		return ErrWalletNotFound
	}
	if w.TwoFactorSecret == "" {
		return ErrTwoFactorNotEnrolled
	}
	w.TwoFactorSecret = ""
	return nil
}

func (s *MemoryStore) NextSequence(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	return s.seq, nil
}

func (s *MemoryStore) ApplyTransfer(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.wallets[tx.Sender]
	if !ok {
		return ErrWalletNotFound
	}
	receiver, ok := s.wallets[tx.Receiver]
	if !ok {
		return ErrWalletNotFound
	}
	if _, dup := s.byHash[tx.Hash]; dup {
		return ErrDuplicateTransaction
	}
	if sender.Balance < tx.Amount {
		return ErrInsufficientFunds
	}

	sender.Balance -= tx.Amount
	receiver.Balance += tx.Amount
	s.append(tx)
	return nil
}

func (s *MemoryStore) ApplyAdjustment(ctx context.Context, addr string, delta Amount, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[addr]
	if !ok {
		return ErrWalletNotFound
	}
	if _, dup := s.byHash[tx.Hash]; dup {
		return ErrDuplicateTransaction
	}
	if w.Balance+delta < 0 {
		return ErrInsufficientFunds
	}

	w.Balance += delta
	s.append(tx)
	return nil
}

func (s *MemoryStore) AppendTransaction(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byHash[tx.Hash]; dup {
		return ErrDuplicateTransaction
	}
	s.append(tx)
	return nil
}

// append stores its own copy; the caller's tx is never aliased.
// Callers hold s.mu.
func (s *MemoryStore) append(tx *Transaction) {
	cp := tx.Clone()
	s.log = append(s.log, cp)
	s.byHash[cp.Hash] = cp
}

func (s *MemoryStore) TransactionsFor(ctx context.Context, addr string, limit int) ([]*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Transaction
	for i := len(s.log) - 1; i >= 0; i-- {
		t := s.log[i]
		if t.Sender != addr && t.Receiver != addr {
			continue
		}
		out = append(out, t.Clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) TransactionByHash(ctx context.Context, hash string) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byHash[hash]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Stats{Wallets: len(s.wallets), Transactions: len(s.log)}
	for _, w := range s.wallets {
		if w.IsMultisig {
			st.MultisigWallets++
		}
		st.TotalBalance += w.Balance
	}
	for _, t := range s.log {
		if t.Status != StatusCompleted {
			continue
		}
		st.CompletedTransactions++
		if t.Kind == KindTransfer {
			st.TransferVolume += t.Amount
		}
	}
	return st, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
