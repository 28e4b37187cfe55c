// Package backup implements mnemonic generation/validation and
// password-encrypted wallet backups.
package backup

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// FormatVersion identifies the backup payload layout.
const FormatVersion = "1.0"

// Backup is the payload sealed inside an encrypted backup blob.
type Backup struct {
	Version    string    `json:"version"`
	Address    string    `json:"address"`
	Mnemonic   string    `json:"mnemonic"`
	PrivateKey string    `json:"private_key"`
	IsMultisig bool      `json:"is_multisig"`
	CreatedAt  time.Time `json:"created_at"`
}

// Create packages a wallet's recovery material, generates a fresh
// mnemonic, and seals everything under the password. The plaintext
// mnemonic is part of the returned Backup and is shown exactly once.
func Create(w *ledger.Wallet, privateKeyHex, password string) (*Backup, string, error) {
	b := &Backup{
		Version:    FormatVersion,
		Address:    w.Address,
		Mnemonic:   GenerateMnemonic(),
		PrivateKey: privateKeyHex,
		IsMultisig: w.IsMultisig,
		CreatedAt:  w.CreatedAt,
	}

	payload, err := json.Marshal(b)
	if err != nil {
		return nil, "", errors.Wrap(err, "marshal backup")
	}
	blob, err := encrypt(payload, password)
	if err != nil {
		return nil, "", err
	}
	return b, blob, nil
}

// Restore decrypts a backup blob and returns its payload, including
// the private key. A wrong password yields ErrDecryptionFailed.
func Restore(blob, password string) (*Backup, error) {
	payload, err := decrypt(blob, password)
	if err != nil {
		return nil, err
	}
	var b Backup
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, ledger.ErrDecryptionFailed
	}
	return &b, nil
}
