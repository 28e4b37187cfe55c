package ledger

import (
	"errors"
	"fmt"
)

// Domain error kinds. Callers match with errors.Is; the HTTP layer maps
// them onto status codes. Storage failures are wrapped separately and
// propagate unmodified.
var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrUnauthorized         = errors.New("invalid credentials for wallet")
	ErrInsufficientFunds    = errors.New("insufficient balance")
	ErrRequiresApproval     = errors.New("multisig wallet requires owner approval")
	ErrNotMultisig          = errors.New("wallet is not a multisig wallet")
	ErrTooFewOwners         = errors.New("multisig wallet requires at least 2 owners")
	ErrSignaturesOutOfRange = errors.New("required signatures must be between 1 and the number of owners")
	ErrNotAnOwner           = errors.New("address is not an owner of this wallet")
	ErrAlreadyApproved      = errors.New("already signed by this address")
	ErrProposalClosed       = errors.New("proposal is no longer open for approval")
	ErrProposalNotFound     = errors.New("proposal not found")
	ErrAddressCollision     = errors.New("wallet address already exists")
	ErrDuplicateTransaction = errors.New("transaction hash already recorded")
	ErrTwoFactorEnrolled    = errors.New("2FA is already enabled for this wallet")
	ErrTwoFactorNotEnrolled = errors.New("2FA is not enabled for this wallet")
	ErrDecryptionFailed     = errors.New("backup decryption failed")
	ErrInvalidMnemonic      = errors.New("invalid mnemonic phrase")
)

// InvalidMnemonicError carries the specific structural defect of a
// rejected phrase and matches ErrInvalidMnemonic under errors.Is.
type InvalidMnemonicError struct {
	Reason string
}

func (e *InvalidMnemonicError) Error() string {
	return fmt.Sprintf("invalid mnemonic phrase: %s", e.Reason)
}

func (e *InvalidMnemonicError) Is(target error) bool {
	return target == ErrInvalidMnemonic
}
