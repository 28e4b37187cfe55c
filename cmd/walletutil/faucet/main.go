package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/coinpurse/wallet-sim/internal/config"
	"github.com/coinpurse/wallet-sim/internal/db"
	"github.com/coinpurse/wallet-sim/internal/engine"
	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// faucet credits an existing wallet and leaves an adjustment row in the
// transaction history.
// Usage:
//   go run cmd/walletutil/faucet/main.go -address 0xabc... -amount 25.5
func main() {
	address := flag.String("address", "", "Wallet address to credit")
	amountStr := flag.String("amount", "", "Amount in COIN to credit")
	flag.Parse()

	if *address == "" || *amountStr == "" {
		log.Fatalf("usage: go run cmd/walletutil/faucet/main.go -address 0xabc... -amount 25.5")
	}

	amount, err := ledger.ParseAmount(*amountStr)
	if err != nil {
		log.Fatalf("invalid amount %q: %v", *amountStr, err)
	}
	if amount <= 0 {
		log.Fatalf("amount must be positive, got %s", amount)
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL (or DB_HOST) must be set; the faucet only works against Postgres")
	}

	// Initialize DB from environment variables
	db.Init(cfg.DatabaseURL)
	defer db.Close()
	store := ledger.NewPostgresStore(db.Conn)

	ctx := context.Background()
	tx, err := engine.New(store).Adjust(ctx, *address, amount)
	if err != nil {
		log.Fatalf("failed to credit wallet: %v", err)
	}

	w, err := store.GetWallet(ctx, *address)
	if err != nil {
		log.Fatalf("failed to read back wallet: %v", err)
	}

	fmt.Printf("Credited %s COIN to %s (tx %s).\n", amount, *address, tx.Hash)
	fmt.Printf("New balance: %s COIN\n", w.Balance)
}
