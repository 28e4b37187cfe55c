package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminGuard ensures only requests carrying the configured admin key
// reach admin routes. An empty configured key disables the admin
// surface entirely.
func AdminGuard(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			presented := c.Request().Header.Get("X-Admin-Key")
			if key == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"error":   "admin access only",
				})
			}
			return next(c)
		}
	}
}
