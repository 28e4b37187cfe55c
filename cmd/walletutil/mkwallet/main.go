package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/coinpurse/wallet-sim/internal/backup"
	"github.com/coinpurse/wallet-sim/internal/keys"
)

// mkwallet mints wallet credentials offline, without touching any
// backing store. Handy for seeding test fixtures or preparing cold
// wallets; the address only becomes spendable once the faucet or the
// API creates it server-side.
// Usage:
//   go run cmd/walletutil/mkwallet/main.go [-n 3]
func main() {
	count := flag.Int("n", 1, "Number of wallets to mint")
	flag.Parse()

	if *count < 1 {
		log.Fatalf("usage: go run cmd/walletutil/mkwallet/main.go [-n 3]")
	}

	for i := 0; i < *count; i++ {
		priv, pub, err := keys.GenerateKeyPair()
		if err != nil {
			log.Fatalf("failed to generate key pair: %v", err)
		}

		address := keys.DeriveAddress(pub)
		mnemonic := backup.GenerateMnemonic()

		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("Address:     %s\n", address)
		fmt.Printf("Private key: %s\n", priv)
		fmt.Printf("Mnemonic:    %s\n", mnemonic)
	}

	fmt.Println("\nStore the private keys now; they are not recoverable later.")
}
