package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and ensures the wallet schema. The server
// only calls this when a database is configured, so failing to reach
// it is fatal.
func Init(dsn string) {
	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to connect to database")
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Unable to ping database")
	}

	log.Info().Msg("Connected to Postgres")

	ensureWalletsTable()
	ensureTransactionsTable()
	ensureTransactionSequence()
}

// Close releases the pool. Safe to call when Init never ran.
func Close() {
	if Conn != nil {
		Conn.Close()
	}
}

// ensureWalletsTable creates the wallets table if it doesn't exist.
func ensureWalletsTable() {
	ctx := context.Background()
	var exists bool
	err := Conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'wallets'
		)`).Scan(&exists)
	if err != nil {
		log.Error().Err(err).Msg("Schema check for wallets failed")
		return
	}
	if exists {
		return
	}
	_, err = Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wallets (
			address TEXT PRIMARY KEY,
			private_key_hash TEXT NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			is_multisig BOOLEAN NOT NULL DEFAULT FALSE,
			owners TEXT[] NULL,
			required_signatures INTEGER NOT NULL DEFAULT 0,
			two_factor_secret TEXT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_wallets_created ON wallets(created_at);
	`)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create wallets table")
		return
	}
	log.Info().Msg("Wallets table ensured")
}

// ensureTransactionsTable creates the append-only transaction log if
// it doesn't exist. History queries scan by either side of a transfer,
// so both addresses get an index.
func ensureTransactionsTable() {
	ctx := context.Background()
	var exists bool
	err := Conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'transactions'
		)`).Scan(&exists)
	if err != nil {
		log.Error().Err(err).Msg("Schema check for transactions failed")
		return
	}
	if exists {
		return
	}
	_, err = Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			hash TEXT PRIMARY KEY,
			sender_address TEXT NOT NULL,
			receiver_address TEXT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			sequence BIGINT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('transfer', 'adjustment')),
			status TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'rejected')),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions(sender_address, created_at);
		CREATE INDEX IF NOT EXISTS idx_transactions_receiver ON transactions(receiver_address, created_at);
	`)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create transactions table")
		return
	}
	log.Info().Msg("Transactions table ensured")
}

// ensureTransactionSequence creates the global ordering sequence
// backing transaction hashes.
func ensureTransactionSequence() {
	_, err := Conn.Exec(context.Background(), `CREATE SEQUENCE IF NOT EXISTS tx_sequence`)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create tx_sequence")
		return
	}
	log.Info().Msg("Transaction sequence ensured")
}
