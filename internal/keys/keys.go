// Package keys derives wallet identities: secp256k1 key pairs, the
// address format, and the stored credential hash.
package keys

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/backup"
	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// maxAddressRetries bounds the collision redraw loop. With a 160-bit
// address space a single retry is already vanishingly unlikely.
const maxAddressRetries = 5

// walletCreator is the slice of the ledger store the generator needs.
type walletCreator interface {
	CreateWallet(ctx context.Context, w *ledger.Wallet) error
}

// Generator creates wallets with fresh key pairs and the configured
// starting allotment.
type Generator struct {
	store          walletCreator
	initialBalance ledger.Amount
	now            func() time.Time
}

func NewGenerator(store walletCreator, initialBalance ledger.Amount) *Generator {
	return &Generator{
		store:          store,
		initialBalance: initialBalance,
		now:            time.Now,
	}
}

// NewWallet generates a key pair, derives the address and inserts the
// wallet. Address collisions are retried internally and never surface.
// The private key and mnemonic are returned exactly once.
func (g *Generator) NewWallet(ctx context.Context) (*ledger.Wallet, string, string, error) {
	for attempt := 0; attempt < maxAddressRetries; attempt++ {
		privHex, pubHex, err := GenerateKeyPair()
		if err != nil {
			return nil, "", "", err
		}

		w := &ledger.Wallet{
			Address:        DeriveAddress(pubHex),
			PrivateKeyHash: HashPrivateKey(privHex),
			Balance:        g.initialBalance,
			CreatedAt:      g.now().UTC(),
		}
		if err := g.store.CreateWallet(ctx, w); err != nil {
			if errors.Is(err, ledger.ErrAddressCollision) {
				log.Warn().Str("address", w.Address).Msg("address collision, redrawing key pair")
				continue
			}
			return nil, "", "", err
		}
		return w, privHex, backup.GenerateMnemonic(), nil
	}
	return nil, "", "", fmt.Errorf("could not derive a unique address after %d attempts", maxAddressRetries)
}

// GenerateKeyPair returns a fresh secp256k1 key pair as hex strings.
// The public key is the 64-byte uncompressed form (x||y, no 0x04 tag).
func GenerateKeyPair() (string, string, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return "", "", errors.Wrap(err, "generate private key")
	}
	privHex := hex.EncodeToString(priv.Serialize())
	pubHex := hex.EncodeToString(priv.PubKey().SerializeUncompressed()[1:])
	return privHex, pubHex, nil
}

// DeriveAddress maps a hex public key to the wallet address: "0x" plus
// the first 40 hex characters of SHA-256 over the hex string itself.
func DeriveAddress(pubHex string) string {
	sum := sha256.Sum256([]byte(pubHex))
	return "0x" + hex.EncodeToString(sum[:])[:40]
}

// AddressFromPrivateKey re-derives the address controlled by privHex.
// Used to verify a presented key against its claimed address.
func AddressFromPrivateKey(privHex string) (string, error) {
	raw, err := hex.DecodeString(privHex)
	if err != nil {
		return "", errors.Wrap(err, "decode private key")
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("private key must be 32 bytes, got %d", len(raw))
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	pubHex := hex.EncodeToString(priv.PubKey().SerializeUncompressed()[1:])
	return DeriveAddress(pubHex), nil
}

// HashPrivateKey produces the stored credential: hex SHA-256 of the
// private key hex string. The raw key itself is never persisted.
func HashPrivateKey(privHex string) string {
	sum := sha256.Sum256([]byte(privHex))
	return hex.EncodeToString(sum[:])
}
