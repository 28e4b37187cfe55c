package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// fail maps a domain error onto its HTTP status and writes the error
// envelope. Unrecognized errors are treated as storage or internal
// failures: logged, and surfaced as an opaque 500.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidMnemonic),
		errors.Is(err, ledger.ErrRequiresApproval),
		errors.Is(err, ledger.ErrAlreadyApproved),
		errors.Is(err, ledger.ErrNotAnOwner),
		errors.Is(err, ledger.ErrProposalClosed),
		errors.Is(err, ledger.ErrTwoFactorEnrolled),
		errors.Is(err, ledger.ErrTwoFactorNotEnrolled),
		errors.Is(err, ledger.ErrNotMultisig),
		errors.Is(err, ledger.ErrTooFewOwners),
		errors.Is(err, ledger.ErrSignaturesOutOfRange):
		return failWith(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrUnauthorized),
		errors.Is(err, ledger.ErrDecryptionFailed):
		return failWith(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ledger.ErrWalletNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, ledger.ErrProposalNotFound):
		return failWith(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return failWith(c, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		return failWith(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func failWith(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return failWith(c, http.StatusBadRequest, msg)
}
