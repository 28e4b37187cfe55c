// Package rates maintains an in-memory exchange rate table for the
// simulated currencies. Rates are informational only; the ledger never
// does arithmetic with them.
package rates

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SupportedCurrencies lists every currency with a quoted rate.
var SupportedCurrencies = []string{"COIN", "BTC", "ETH", "USDT", "USD"}

// StaleAfter is how long a quote stays fresh before a refresh may
// overwrite it.
const StaleAfter = time.Hour

type pair struct {
	from, to string
}

// seedRates are the simulated market quotes. Inverse pairs are derived
// on refresh.
var seedRates = map[pair]float64{
	{"COIN", "USD"}: 1.0,
	{"COIN", "BTC"}: 0.000025,
	{"COIN", "ETH"}: 0.0004,
	{"BTC", "USD"}:  40000.0,
	{"ETH", "USD"}:  2500.0,
	{"USDT", "USD"}: 1.0,
}

// Rate is one directed quote.
type Rate struct {
	From      string    `json:"from_currency"`
	To        string    `json:"to_currency"`
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service owns the rate table. Safe for concurrent use.
type Service struct {
	mu    sync.RWMutex
	table map[pair]*Rate
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a service with the seed quotes already loaded.
func NewService(opts ...Option) *Service {
	s := &Service{
		table: make(map[pair]*Rate),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Refresh()
	return s
}

// Refresh writes seed quotes and their inverses into the table.
// Existing quotes younger than StaleAfter are left alone. Returns the
// quotes that were written, for broadcast to rate subscribers.
func (s *Service) Refresh() []Rate {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	var updated []Rate
	for p, rate := range seedRates {
		updated = append(updated, s.writeLocked(p, rate, now)...)

		inverse := 0.0
		if rate > 0 {
			inverse = 1.0 / rate
		}
		updated = append(updated, s.writeLocked(pair{p.to, p.from}, inverse, now)...)
	}
	if len(updated) > 0 {
		log.Debug().Int("quotes", len(updated)).Msg("Exchange rates refreshed")
	}
	return updated
}

func (s *Service) writeLocked(p pair, rate float64, now time.Time) []Rate {
	existing, ok := s.table[p]
	if ok && now.Sub(existing.UpdatedAt) <= StaleAfter {
		return nil
	}
	r := &Rate{From: p.from, To: p.to, Rate: rate, UpdatedAt: now}
	s.table[p] = r
	return []Rate{*r}
}

// Rate returns the quote between two currencies. Identical currencies
// quote 1. Pairs without a direct quote are bridged through USD; a
// completely unknown pair quotes 1.
func (s *Service) Rate(from, to string) float64 {
	if from == to {
		return 1.0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rateLocked(from, to)
}

func (s *Service) rateLocked(from, to string) float64 {
	if from == to {
		return 1.0
	}
	if r, ok := s.table[pair{from, to}]; ok {
		return r.Rate
	}
	if from != "USD" && to != "USD" {
		return s.rateLocked(from, "USD") * s.rateLocked("USD", to)
	}
	return 1.0
}

// Convert applies the quote to an amount, rounded to 8 decimal places.
func (s *Service) Convert(amount float64, from, to string) float64 {
	converted := amount * s.Rate(from, to)
	return math.Round(converted*1e8) / 1e8
}

// AllRates returns the quotes from a base currency to every other
// supported currency.
func (s *Service) AllRates(base string) map[string]float64 {
	out := make(map[string]float64, len(SupportedCurrencies)-1)
	for _, currency := range SupportedCurrencies {
		if currency != base {
			out[currency] = s.Rate(base, currency)
		}
	}
	return out
}
