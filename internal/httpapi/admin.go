package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/ledger"
	"github.com/coinpurse/wallet-sim/internal/messaging"
)

func (s *Server) adminWallets(c echo.Context) error {
	limit, offset := 0, 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return badRequest(c, "Invalid limit")
		}
		limit = parsed
	}
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return badRequest(c, "Invalid offset")
		}
		offset = parsed
	}

	wallets, err := s.store.ListWallets(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	if wallets == nil {
		wallets = []*ledger.Wallet{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    wallets,
		"count":   len(wallets),
	})
}

func (s *Server) adminStats(c echo.Context) error {
	stats, err := s.store.Stats(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": stats})
}

func (s *Server) adminAdjust(c echo.Context) error {
	var req struct {
		Address string        `json:"address"`
		Delta   ledger.Amount `json:"delta"`
		Note    string        `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "No data provided")
	}
	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" {
		return badRequest(c, "Address is required")
	}

	tx, err := s.engine.Adjust(c.Request().Context(), req.Address, req.Delta)
	if err != nil {
		return fail(c, err)
	}

	log.Info().
		Str("address", req.Address).
		Str("delta", req.Delta.String()).
		Str("note", req.Note).
		Msg("Admin balance adjustment")

	if w, err := s.store.GetWallet(c.Request().Context(), req.Address); err == nil {
		s.hub.Broadcast(messaging.WalletRoom(req.Address), messaging.EventBalanceUpdated, echo.Map{
			"wallet_address": req.Address,
			"balance":        w.Balance,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Balance adjusted",
		"data":    tx,
	})
}
