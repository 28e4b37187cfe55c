package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const pgUniqueViolation = "23505"

// PostgresStore backs the ledger with Postgres. Every multi-row
// mutation runs inside one pgx transaction; wallet rows are locked in
// address order so concurrent transfers cannot deadlock.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateWallet(ctx context.Context, w *Wallet) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallets (address, private_key_hash, balance, is_multisig, owners, required_signatures, two_factor_secret, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`,
		w.Address, w.PrivateKeyHash, int64(w.Balance), w.IsMultisig, w.Owners, w.RequiredSignatures, w.TwoFactorSecret, w.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAddressCollision
		}
		return errors.Wrap(err, "insert wallet")
	}
	return nil
}

func (s *PostgresStore) GetWallet(ctx context.Context, addr string) (*Wallet, error) {
	return scanWallet(s.pool.QueryRow(ctx, `
		SELECT address, private_key_hash, balance, is_multisig, COALESCE(owners, '{}'), required_signatures, COALESCE(two_factor_secret, ''), created_at
		FROM wallets WHERE address = $1`, addr))
}

func scanWallet(row pgx.Row) (*Wallet, error) {
	var w Wallet
	var balance int64
	err := row.Scan(&w.Address, &w.PrivateKeyHash, &balance, &w.IsMultisig, &w.Owners, &w.RequiredSignatures, &w.TwoFactorSecret, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, errors.Wrap(err, "scan wallet")
	}
	w.Balance = Amount(balance)
	if len(w.Owners) == 0 {
		w.Owners = nil
	}
	return &w, nil
}

func (s *PostgresStore) ListWallets(ctx context.Context, limit, offset int) ([]*Wallet, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT address, private_key_hash, balance, is_multisig, COALESCE(owners, '{}'), required_signatures, COALESCE(two_factor_secret, ''), created_at
		FROM wallets ORDER BY created_at, address LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list wallets")
	}
	defer rows.Close()

	var out []*Wallet
	for rows.Next() {
		var w Wallet
		var balance int64
		if err := rows.Scan(&w.Address, &w.PrivateKeyHash, &balance, &w.IsMultisig, &w.Owners, &w.RequiredSignatures, &w.TwoFactorSecret, &w.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan wallet row")
		}
		w.Balance = Amount(balance)
		if len(w.Owners) == 0 {
			w.Owners = nil
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkMultisig(ctx context.Context, addr string, owners []string, required int) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE wallets SET is_multisig = TRUE, owners = $2, required_signatures = $3 WHERE address = $1`,
		addr, owners, required)
	if err != nil {
		return errors.Wrap(err, "mark multisig")
	}
	if ct.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (s *PostgresStore) SetTwoFactorSecret(ctx context.Context, addr, secret string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE wallets SET two_factor_secret = $2 WHERE address = $1 AND two_factor_secret IS NULL`,
		addr, secret)
	if err != nil {
		return errors.Wrap(err, "set 2fa secret")
	}
	if ct.RowsAffected() == 0 {
		// Distinguish a missing wallet from an existing enrollment.
		if _, err := s.GetWallet(ctx, addr); err != nil {
			return err
		}
		return ErrTwoFactorEnrolled
	}
	return nil
}

func (s *PostgresStore) ClearTwoFactorSecret(ctx context.Context, addr string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE wallets SET two_factor_secret = NULL WHERE address = $1 AND two_factor_secret IS NOT NULL`,
		addr)
	if err != nil {
		return errors.Wrap(err, "clear 2fa secret")
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.GetWallet(ctx, addr); err != nil {
			return err
		}
		return ErrTwoFactorNotEnrolled
	}
	return nil
}

func (s *PostgresStore) NextSequence(ctx context.Context) (uint64, error) {
	var seq uint64
	if err := s.pool.QueryRow(ctx, `SELECT nextval('tx_sequence')`).Scan(&seq); err != nil {
		return 0, errors.Wrap(err, "next sequence")
	}
	return seq, nil
}

func (s *PostgresStore) ApplyTransfer(ctx context.Context, tx *Transaction) error {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transfer")
	}
	defer dbtx.Rollback(ctx)

	senderBalance, err := lockWallets(ctx, dbtx, tx.Sender, tx.Receiver)
	if err != nil {
		return err
	}
	if senderBalance < int64(tx.Amount) {
		return ErrInsufficientFunds
	}

	// Self-transfers skip the balance updates; the row still appends.
	if tx.Sender != tx.Receiver {
		if _, err := dbtx.Exec(ctx,
			`UPDATE wallets SET balance = balance - $2 WHERE address = $1`, tx.Sender, int64(tx.Amount)); err != nil {
			return errors.Wrap(err, "debit sender")
		}
		if _, err := dbtx.Exec(ctx,
			`UPDATE wallets SET balance = balance + $2 WHERE address = $1`, tx.Receiver, int64(tx.Amount)); err != nil {
			return errors.Wrap(err, "credit receiver")
		}
	}
	if err := insertTransaction(ctx, dbtx, tx); err != nil {
		return err
	}
	return errors.Wrap(dbtx.Commit(ctx), "commit transfer")
}

// lockWallets takes row locks in address order and returns the first
// address's balance.
func lockWallets(ctx context.Context, dbtx pgx.Tx, first, second string) (int64, error) {
	addrs := []string{first, second}
	if second < first {
		addrs[0], addrs[1] = second, first
	}
	if first == second {
		addrs = addrs[:1]
	}

	balances := make(map[string]int64, len(addrs))
	for _, addr := range addrs {
		var bal int64
		err := dbtx.QueryRow(ctx, `SELECT balance FROM wallets WHERE address = $1 FOR UPDATE`, addr).Scan(&bal)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrWalletNotFound
			}
			return 0, errors.Wrap(err, "lock wallet")
		}
		balances[addr] = bal
	}
	return balances[first], nil
}

func (s *PostgresStore) ApplyAdjustment(ctx context.Context, addr string, delta Amount, tx *Transaction) error {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin adjustment")
	}
	defer dbtx.Rollback(ctx)

	var balance int64
	err = dbtx.QueryRow(ctx, `SELECT balance FROM wallets WHERE address = $1 FOR UPDATE`, addr).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return errors.Wrap(err, "lock wallet")
	}
	if balance+int64(delta) < 0 {
		return ErrInsufficientFunds
	}
	if _, err := dbtx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $2 WHERE address = $1`, addr, int64(delta)); err != nil {
		return errors.Wrap(err, "apply adjustment")
	}
	if err := insertTransaction(ctx, dbtx, tx); err != nil {
		return err
	}
	return errors.Wrap(dbtx.Commit(ctx), "commit adjustment")
}

func (s *PostgresStore) AppendTransaction(ctx context.Context, tx *Transaction) error {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin append")
	}
	defer dbtx.Rollback(ctx)

	if err := insertTransaction(ctx, dbtx, tx); err != nil {
		return err
	}
	return errors.Wrap(dbtx.Commit(ctx), "commit append")
}

func insertTransaction(ctx context.Context, dbtx pgx.Tx, tx *Transaction) error {
	_, err := dbtx.Exec(ctx, `
		INSERT INTO transactions (hash, sender_address, receiver_address, amount, sequence, kind, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.Hash, tx.Sender, tx.Receiver, int64(tx.Amount), int64(tx.Sequence), tx.Kind, tx.Status, tx.Timestamp,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateTransaction
		}
		return errors.Wrap(err, "insert transaction")
	}
	return nil
}

func (s *PostgresStore) TransactionsFor(ctx context.Context, addr string, limit int) ([]*Transaction, error) {
	q := `
		SELECT hash, sender_address, receiver_address, amount, sequence, kind, status, created_at
		FROM transactions
		WHERE sender_address = $1 OR receiver_address = $1
		ORDER BY created_at DESC, sequence DESC`
	args := []any{addr}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query transactions")
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	var amount, seq int64
	err := row.Scan(&t.Hash, &t.Sender, &t.Receiver, &amount, &seq, &t.Kind, &t.Status, &t.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, errors.Wrap(err, "scan transaction")
	}
	t.Amount = Amount(amount)
	t.Sequence = uint64(seq)
	return &t, nil
}

func (s *PostgresStore) TransactionByHash(ctx context.Context, hash string) (*Transaction, error) {
	return scanTransaction(s.pool.QueryRow(ctx, `
		SELECT hash, sender_address, receiver_address, amount, sequence, kind, status, created_at
		FROM transactions WHERE hash = $1`, hash))
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	var totalBalance, volume int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_multisig), COALESCE(SUM(balance), 0) FROM wallets`).
		Scan(&st.Wallets, &st.MultisigWallets, &totalBalance)
	if err != nil {
		return nil, errors.Wrap(err, "wallet stats")
	}
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'completed' AND kind = 'transfer'), 0)
		FROM transactions`).
		Scan(&st.Transactions, &st.CompletedTransactions, &volume)
	if err != nil {
		return nil, errors.Wrap(err, "transaction stats")
	}
	st.TotalBalance = Amount(totalBalance)
	st.TransferVolume = Amount(volume)
	return st, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
