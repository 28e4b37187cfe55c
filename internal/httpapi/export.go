package httpapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coinpurse/wallet-sim/internal/ledger"
	"github.com/coinpurse/wallet-sim/internal/qr"
)

func (s *Server) generateQR(c echo.Context) error {
	address := c.Param("address")
	if _, err := s.store.GetWallet(c.Request().Context(), address); err != nil {
		return fail(c, err)
	}

	var amount ledger.Amount
	if raw := c.QueryParam("amount"); raw != "" {
		parsed, err := ledger.ParseAmount(raw)
		if err != nil || parsed < 0 {
			return badRequest(c, "Invalid amount")
		}
		amount = parsed
	}
	label := c.QueryParam("label")

	// A bare address encodes as-is; amount or label switch to the
	// payment URI form.
	if amount == 0 && label == "" {
		qrCode, err := qr.DataURI(address)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "qr_code": qrCode})
	}

	qrCode, err := qr.PaymentQR(address, amount, label)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"qr_code":     qrCode,
		"payment_uri": qr.PaymentURI(address, amount, label),
	})
}

func (s *Server) exportTransactions(c echo.Context) error {
	address := c.Param("address")
	format := c.Param("format")

	w, err := s.store.GetWallet(c.Request().Context(), address)
	if err != nil {
		return fail(c, err)
	}
	txs, err := s.store.TransactionsFor(c.Request().Context(), address, 0)
	if err != nil {
		return fail(c, err)
	}

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "csv":
		if err := s.exporter.CSV(&buf, txs, address); err != nil {
			return fail(c, err)
		}
		contentType = "text/csv"
	case "pdf":
		if err := s.exporter.PDF(&buf, txs, w); err != nil {
			return fail(c, err)
		}
		contentType = "application/pdf"
	default:
		return badRequest(c, "Invalid format type")
	}

	filename := s.exporter.Filename(address, format)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename=`+filename)
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
