package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coinpurse/wallet-sim/internal/utils"
)

const walletAddressKey = "wallet_address"

// WalletGuard ensures the requester presents a valid wallet token and
// records the token's address on the request context.
// Usage: group.Use(WalletGuard(secret))
func WalletGuard(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			address, err := utils.WalletAddressFromToken(c, secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "invalid or missing token"})
			}
			c.Set(walletAddressKey, address)
			return next(c)
		}
	}
}

// WalletAddress returns the address WalletGuard stored on the context,
// or "" on unguarded routes.
func WalletAddress(c echo.Context) string {
	address, _ := c.Get(walletAddressKey).(string)
	return address
}
