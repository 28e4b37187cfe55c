package ledger

import "context"

// Store is the single source of truth for wallet and transaction state.
// Every multi-row mutation for one transfer commits as a unit: no
// observer ever sees a transaction row without its balance effect, or
// the reverse.
type Store interface {
	// CreateWallet inserts a new wallet. Returns ErrAddressCollision if
	// the address is already taken.
	CreateWallet(ctx context.Context, w *Wallet) error

	// GetWallet returns the wallet for addr or ErrWalletNotFound.
	GetWallet(ctx context.Context, addr string) (*Wallet, error)

	// ListWallets returns wallets in creation order for the admin surface.
	ListWallets(ctx context.Context, limit, offset int) ([]*Wallet, error)

	// MarkMultisig flags a wallet as multisig with its owner set and
	// approval threshold.
	MarkMultisig(ctx context.Context, addr string, owners []string, required int) error

	// SetTwoFactorSecret enrolls a TOTP secret. Write-once: returns
	// ErrTwoFactorEnrolled if a secret is already present.
	SetTwoFactorSecret(ctx context.Context, addr, secret string) error

	// ClearTwoFactorSecret removes an enrolled secret, or returns
	// ErrTwoFactorNotEnrolled.
	ClearTwoFactorSecret(ctx context.Context, addr string) error

	// NextSequence issues the next transaction sequence number. Strictly
	// increasing, never reused, survives restarts on durable stores.
	NextSequence(ctx context.Context) (uint64, error)

	// ApplyTransfer atomically debits tx.Sender, credits tx.Receiver and
	// appends the completed transaction. Fails with ErrInsufficientFunds
	// (no effect) if the debit would drive the sender negative.
	// Self-transfers net to zero and still append.
	ApplyTransfer(ctx context.Context, tx *Transaction) error

	// ApplyAdjustment atomically applies an operator credit or debit and
	// appends its audit row. The same non-negative balance rule applies.
	ApplyAdjustment(ctx context.Context, addr string, delta Amount, tx *Transaction) error

	// AppendTransaction records a status-only row (for example a rejected
	// multisig draft) with no balance effect.
	AppendTransaction(ctx context.Context, tx *Transaction) error

	// TransactionsFor returns transactions where addr is sender or
	// receiver, newest first. limit <= 0 means no limit.
	TransactionsFor(ctx context.Context, addr string, limit int) ([]*Transaction, error)

	// TransactionByHash returns a single transaction or
	// ErrTransactionNotFound.
	TransactionByHash(ctx context.Context, hash string) (*Transaction, error)

	// Stats summarizes the ledger.
	Stats(ctx context.Context) (*Stats, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
