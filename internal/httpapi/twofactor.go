package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coinpurse/wallet-sim/internal/ledger"
	mware "github.com/coinpurse/wallet-sim/internal/middleware"
)

func (s *Server) enableTwoFactor(c echo.Context) error {
	address := mware.WalletAddress(c)

	enrollment, err := s.verifier.Enroll(c.Request().Context(), address)
	if err != nil {
		return fail(c, err)
	}

	s.notifier.TwoFactorEnrolled(address)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    enrollment,
	})
}

func (s *Server) verifyTwoFactor(c echo.Context) error {
	var req struct {
		Address string `json:"address"`
		Token   string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "No data provided")
	}
	req.Address = strings.TrimSpace(req.Address)
	req.Token = strings.TrimSpace(req.Token)
	if req.Address == "" || req.Token == "" {
		return badRequest(c, "Address and token are required")
	}

	valid, err := s.verifier.Verify(c.Request().Context(), req.Address, req.Token)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "valid": valid})
}

func (s *Server) disableTwoFactor(c echo.Context) error {
	address := mware.WalletAddress(c)
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return badRequest(c, "Token is required")
	}

	if err := s.verifier.Disable(c.Request().Context(), address, strings.TrimSpace(req.Token)); err != nil {
		if errors.Is(err, ledger.ErrUnauthorized) {
			return failWith(c, http.StatusUnauthorized, "Invalid token")
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "2FA disabled successfully",
	})
}
