package ledger

import "time"

// Transaction statuses. The log is append-only: a row never changes
// once it reaches completed or rejected.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// Transaction kinds.
const (
	KindTransfer   = "transfer"
	KindAdjustment = "adjustment"
)

type Wallet struct {
	Address            string    `json:"address"`
	PrivateKeyHash     string    `json:"-"`
	Balance            Amount    `json:"balance"`
	IsMultisig         bool      `json:"is_multisig"`
	Owners             []string  `json:"owners,omitempty"`
	RequiredSignatures int       `json:"required_signatures,omitempty"`
	TwoFactorSecret    string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

// TwoFactorEnabled reports whether a TOTP secret is enrolled.
func (w *Wallet) TwoFactorEnabled() bool {
	return w.TwoFactorSecret != ""
}

// IsOwner reports whether addr is one of the wallet's multisig owners.
func (w *Wallet) IsOwner(addr string) bool {
	for _, o := range w.Owners {
		if o == addr {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stored records never alias caller memory.
func (w *Wallet) Clone() *Wallet {
	cp := *w
	if w.Owners != nil {
		cp.Owners = append([]string(nil), w.Owners...)
	}
	return &cp
}

type Transaction struct {
	Hash      string    `json:"transaction_hash"`
	Sender    string    `json:"sender_address"`
	Receiver  string    `json:"receiver_address"`
	Amount    Amount    `json:"amount"`
	Sequence  uint64    `json:"sequence"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (t *Transaction) Clone() *Transaction {
	cp := *t
	return &cp
}

// Stats summarizes the ledger for the admin surface.
type Stats struct {
	Wallets               int    `json:"wallets"`
	MultisigWallets       int    `json:"multisig_wallets"`
	Transactions          int    `json:"transactions"`
	CompletedTransactions int    `json:"completed_transactions"`
	TotalBalance          Amount `json:"total_balance"`
	TransferVolume        Amount `json:"transfer_volume"`
}
