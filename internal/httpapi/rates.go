package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/coinpurse/wallet-sim/internal/messaging"
	"github.com/coinpurse/wallet-sim/internal/rates"
)

func supportedCurrency(symbol string) bool {
	for _, s := range rates.SupportedCurrencies {
		if s == symbol {
			return true
		}
	}
	return false
}

func (s *Server) exchangeRates(c echo.Context) error {
	base := strings.ToUpper(strings.TrimSpace(c.QueryParam("base")))
	if base == "" {
		base = "COIN"
	}
	if !supportedCurrency(base) {
		return badRequest(c, "Unsupported currency: "+base)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"base_currency": base,
		"rates":         s.rates.AllRates(base),
	})
}

func (s *Server) convert(c echo.Context) error {
	var req struct {
		Amount       float64 `json:"amount"`
		FromCurrency string  `json:"from_currency"`
		ToCurrency   string  `json:"to_currency"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "No data provided")
	}
	from := strings.ToUpper(strings.TrimSpace(req.FromCurrency))
	to := strings.ToUpper(strings.TrimSpace(req.ToCurrency))
	if from == "" {
		from = "COIN"
	}
	if to == "" {
		to = "USD"
	}
	if !supportedCurrency(from) {
		return badRequest(c, "Unsupported currency: "+from)
	}
	if !supportedCurrency(to) {
		return badRequest(c, "Unsupported currency: "+to)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":            true,
		"original_amount":    req.Amount,
		"original_currency":  from,
		"converted_amount":   s.rates.Convert(req.Amount, from, to),
		"converted_currency": to,
		"rate":               s.rates.Rate(from, to),
	})
}

func (s *Server) refreshRates(c echo.Context) error {
	updated := s.rates.Refresh()
	for i := range updated {
		s.hub.Broadcast(messaging.RatesRoom, messaging.EventRateUpdated, updated[i])
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Exchange rates updated successfully",
		"updated": len(updated),
	})
}
