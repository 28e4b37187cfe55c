package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/backup"
	"github.com/coinpurse/wallet-sim/internal/keys"
	mware "github.com/coinpurse/wallet-sim/internal/middleware"
)

func (s *Server) backupWallet(c echo.Context) error {
	address := mware.WalletAddress(c)
	var req struct {
		Password   string `json:"password"`
		PrivateKey string `json:"private_key"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "No data provided")
	}
	req.PrivateKey = strings.TrimSpace(req.PrivateKey)
	if req.Password == "" || req.PrivateKey == "" {
		return badRequest(c, "Password and private key are required")
	}

	w, err := s.store.GetWallet(c.Request().Context(), address)
	if err != nil {
		return fail(c, err)
	}

	// The backup embeds the plaintext key, so the caller must prove
	// they hold it.
	derived, err := keys.AddressFromPrivateKey(req.PrivateKey)
	if err != nil || derived != w.Address ||
		subtle.ConstantTimeCompare([]byte(keys.HashPrivateKey(req.PrivateKey)), []byte(w.PrivateKeyHash)) != 1 {
		return failWith(c, http.StatusUnauthorized, "Invalid credentials")
	}

	b, blob, err := backup.Create(w, req.PrivateKey, req.Password)
	if err != nil {
		return fail(c, err)
	}

	log.Info().Str("address", address).Msg("Wallet backup created")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Backup created successfully",
		"data": echo.Map{
			"mnemonic":         b.Mnemonic,
			"encrypted_backup": blob,
		},
	})
}

func (s *Server) restoreWallet(c echo.Context) error {
	var req struct {
		Mnemonic        string `json:"mnemonic"`
		Password        string `json:"password"`
		EncryptedBackup string `json:"encrypted_backup"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "No data provided")
	}
	req.Mnemonic = strings.TrimSpace(req.Mnemonic)

	if req.EncryptedBackup != "" {
		if req.Password == "" {
			return badRequest(c, "Password is required")
		}
		b, err := backup.Restore(req.EncryptedBackup, req.Password)
		if err != nil {
			return fail(c, err)
		}
		log.Info().Str("address", b.Address).Msg("Wallet restored from encrypted backup")
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": "Backup restored successfully",
			"data":    b,
		})
	}

	if req.Mnemonic == "" || req.Password == "" {
		return badRequest(c, "Mnemonic and password are required")
	}
	if err := backup.RestoreFromMnemonic(req.Mnemonic); err != nil {
		return fail(c, err)
	}

	log.Info().Msg("Wallet restore validated")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Mnemonic phrase is valid",
		"data": echo.Map{
			"valid":      true,
			"mnemonic":   req.Mnemonic,
			"word_count": backup.MnemonicWords,
		},
	})
}
