package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinpurse/wallet-sim/internal/utils"
)

func runGuarded(mw echo.MiddlewareFunc, decorate func(*http.Request)) (*httptest.ResponseRecorder, string) {
	e := echo.New()
	var seenAddress string
	handler := mw(func(c echo.Context) error {
		seenAddress = WalletAddress(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	_ = handler(e.NewContext(req, rec))
	return rec, seenAddress
}

func TestAdminGuard(t *testing.T) {
	t.Run("accepts the configured key", func(t *testing.T) {
		rec, _ := runGuarded(AdminGuard("s3cret"), func(r *http.Request) {
			r.Header.Set("X-Admin-Key", "s3cret")
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a wrong key", func(t *testing.T) {
		rec, _ := runGuarded(AdminGuard("s3cret"), func(r *http.Request) {
			r.Header.Set("X-Admin-Key", "nope")
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejects a missing key", func(t *testing.T) {
		rec, _ := runGuarded(AdminGuard("s3cret"), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejects everything when unconfigured", func(t *testing.T) {
		rec, _ := runGuarded(AdminGuard(""), func(r *http.Request) {
			r.Header.Set("X-Admin-Key", "")
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestWalletGuard(t *testing.T) {
	secret := []byte("guard-secret")

	t.Run("stores the token address on the context", func(t *testing.T) {
		token, err := utils.IssueWalletToken("0xfeed", secret)
		require.NoError(t, err)

		rec, seen := runGuarded(WalletGuard(secret), func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "0xfeed", seen)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		rec, _ := runGuarded(WalletGuard(secret), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token, err := utils.IssueWalletToken("0xfeed", []byte("other"))
		require.NoError(t, err)

		rec, _ := runGuarded(WalletGuard(secret), func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
