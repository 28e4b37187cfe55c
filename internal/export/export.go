// Package export renders a wallet's transaction history as CSV or a
// PDF statement.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// Exporter renders transaction histories. The zero value is not
// usable; construct with New.
type Exporter struct {
	now func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func New(opts ...Option) *Exporter {
	e := &Exporter{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// direction labels a row from the exporting wallet's point of view.
// A self-transfer reads as received.
func direction(tx *ledger.Transaction, walletAddress string) string {
	if tx.Receiver == walletAddress {
		return "Received"
	}
	return "Sent"
}

// CSV writes the history as comma-separated rows with a header line.
func (e *Exporter) CSV(w io.Writer, txs []*ledger.Transaction, walletAddress string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Type", "From", "To", "Amount", "Transaction Hash", "Status"}); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, tx := range txs {
		row := []string{
			tx.Timestamp.Format(time.RFC3339),
			direction(tx, walletAddress),
			tx.Sender,
			tx.Receiver,
			tx.Amount.String(),
			tx.Hash,
			tx.Status,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// PDF writes the history as a statement: a summary block followed by
// one row per transaction.
func (e *Exporter) PDF(w io.Writer, txs []*ledger.Transaction, wallet *ledger.Wallet) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(79, 70, 229)
	pdf.CellFormat(0, 14, "Transaction History Report", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetTextColor(0, 0, 0)
	info := [][2]string{
		{"Wallet Address:", wallet.Address},
		{"Current Balance:", wallet.Balance.String() + " coins"},
		{"Report Generated:", e.now().Format("2006-01-02 15:04:05")},
		{"Total Transactions:", fmt.Sprintf("%d", len(txs))},
	}
	for _, row := range info {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(243, 244, 246)
		pdf.CellFormat(50, 8, row[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(130, 8, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(10)

	if len(txs) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 8, "No transactions found.", "", 1, "L", false, 0, "")
		return errors.Wrap(pdf.Output(w), "render pdf")
	}

	widths := []float64{38, 25, 29, 58, 30}
	headers := []string{"Date", "Type", "Amount", "Hash", "Status"}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(79, 70, 229)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 9, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for i, tx := range txs {
		if i%2 == 0 {
			pdf.SetFillColor(255, 255, 255)
		} else {
			pdf.SetFillColor(211, 211, 211)
		}
		amount := "-" + tx.Amount.String()
		if direction(tx, wallet.Address) == "Received" {
			amount = "+" + tx.Amount.String()
		}
		cells := []string{
			tx.Timestamp.Format("2006-01-02 15:04"),
			direction(tx, wallet.Address),
			amount,
			shortHash(tx.Hash),
			strings.ToUpper(tx.Status),
		}
		for j, c := range cells {
			pdf.CellFormat(widths[j], 8, c, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	return errors.Wrap(pdf.Output(w), "render pdf")
}

func shortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}

// Filename names a download after the wallet and the current time,
// e.g. transactions_0x1f2e3d4c_20240601_090000.csv.
func (e *Exporter) Filename(walletAddress, format string) string {
	short := walletAddress
	if len(short) > 10 {
		short = short[:10]
	}
	return fmt.Sprintf("transactions_%s_%s.%s", short, e.now().Format("20060102_150405"), format)
}
