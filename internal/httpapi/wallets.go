package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/engine"
	"github.com/coinpurse/wallet-sim/internal/keys"
	"github.com/coinpurse/wallet-sim/internal/ledger"
	"github.com/coinpurse/wallet-sim/internal/messaging"
	"github.com/coinpurse/wallet-sim/internal/metrics"
	mware "github.com/coinpurse/wallet-sim/internal/middleware"
	"github.com/coinpurse/wallet-sim/internal/utils"
)

func (s *Server) createWallet(c echo.Context) error {
	w, privateKey, mnemonic, err := s.generator.NewWallet(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}

	metrics.WalletsCreated.WithLabelValues("standard").Inc()
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Wallet created successfully",
		"data": echo.Map{
			"address":     w.Address,
			"private_key": privateKey,
			"mnemonic":    mnemonic,
			"balance":     w.Balance,
			"created_at":  w.CreatedAt,
		},
	})
}

func (s *Server) accessWallet(c echo.Context) error {
	var req struct {
		Address    string `json:"address"`
		PrivateKey string `json:"private_key"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "No data provided")
	}
	req.Address = strings.TrimSpace(req.Address)
	req.PrivateKey = strings.TrimSpace(req.PrivateKey)
	if req.Address == "" || req.PrivateKey == "" {
		return badRequest(c, "Address and private key are required")
	}

	w, err := s.store.GetWallet(c.Request().Context(), req.Address)
	if err != nil {
		return fail(c, err)
	}

	// The key must both re-derive the claimed address and match the
	// stored credential hash.
	derived, err := keys.AddressFromPrivateKey(req.PrivateKey)
	if err != nil || derived != w.Address {
		log.Warn().Str("address", req.Address).Msg("Failed wallet access attempt")
		return failWith(c, http.StatusUnauthorized, "Invalid credentials")
	}
	presented := keys.HashPrivateKey(req.PrivateKey)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(w.PrivateKeyHash)) != 1 {
		log.Warn().Str("address", req.Address).Msg("Failed wallet access attempt")
		return failWith(c, http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := utils.IssueWalletToken(w.Address, s.jwtSecret)
	if err != nil {
		return fail(c, err)
	}

	log.Info().Str("address", w.Address).Msg("Wallet accessed")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Access granted",
		"address": w.Address,
		"token":   token,
	})
}

func (s *Server) getBalance(c echo.Context) error {
	w, err := s.store.GetWallet(c.Request().Context(), c.Param("address"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"address": w.Address,
			"balance": w.Balance,
		},
	})
}

func (s *Server) walletMe(c echo.Context) error {
	w, err := s.store.GetWallet(c.Request().Context(), mware.WalletAddress(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"address":             w.Address,
			"balance":             w.Balance,
			"is_multisig":         w.IsMultisig,
			"owners":              w.Owners,
			"required_signatures": w.RequiredSignatures,
			"two_factor_enabled":  w.TwoFactorEnabled(),
			"created_at":          w.CreatedAt,
		},
	})
}

func (s *Server) getTransactions(c echo.Context) error {
	address := c.Param("address")
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return badRequest(c, "Invalid limit")
		}
		limit = parsed
	}

	if _, err := s.store.GetWallet(c.Request().Context(), address); err != nil {
		return fail(c, err)
	}
	txs, err := s.store.TransactionsFor(c.Request().Context(), address, limit)
	if err != nil {
		return fail(c, err)
	}
	if txs == nil {
		txs = []*ledger.Transaction{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": txs})
}

func (s *Server) getTransaction(c echo.Context) error {
	tx, err := s.store.TransactionByHash(c.Request().Context(), c.Param("hash"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": tx})
}

func (s *Server) sendTransaction(c echo.Context) error {
	var req struct {
		Sender     string        `json:"sender_address"`
		Receiver   string        `json:"receiver_address"`
		Amount     ledger.Amount `json:"amount"`
		PrivateKey string        `json:"private_key"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "No data provided")
	}
	req.Sender = strings.TrimSpace(req.Sender)
	req.Receiver = strings.TrimSpace(req.Receiver)
	req.PrivateKey = strings.TrimSpace(req.PrivateKey)
	if req.Sender == "" || req.Receiver == "" || req.PrivateKey == "" {
		return badRequest(c, "All fields are required")
	}

	tx, err := s.engine.Transfer(c.Request().Context(), engine.TransferRequest{
		Sender:    req.Sender,
		Receiver:  req.Receiver,
		Amount:    req.Amount,
		AuthProof: keys.HashPrivateKey(req.PrivateKey),
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			metrics.Transfers.WithLabelValues(ledger.StatusRejected).Inc()
		}
		return fail(c, err)
	}

	metrics.Transfers.WithLabelValues(ledger.StatusCompleted).Inc()
	s.announceTransfer(c.Request().Context(), tx)

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Transaction completed successfully",
		"data":    tx,
	})
}

// announceTransfer pushes the realtime events and the alert for an
// applied transaction. Failures here never fail the request.
func (s *Server) announceTransfer(ctx context.Context, tx *ledger.Transaction) {
	s.notifier.TransferCompleted(tx)

	parties := []string{tx.Sender, tx.Receiver}
	if tx.Sender == tx.Receiver {
		parties = parties[:1]
	}
	for _, address := range parties {
		room := messaging.WalletRoom(address)
		s.hub.Broadcast(room, messaging.EventNewTransaction, echo.Map{
			"wallet_address": address,
			"transaction":    tx,
		})
		if w, err := s.store.GetWallet(ctx, address); err == nil {
			s.hub.Broadcast(room, messaging.EventBalanceUpdated, echo.Map{
				"wallet_address": address,
				"balance":        w.Balance,
			})
		}
	}
}
