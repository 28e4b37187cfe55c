package rates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededRates(t *testing.T) {
	svc := NewService()

	assert.Equal(t, 1.0, svc.Rate("COIN", "USD"))
	assert.Equal(t, 0.000025, svc.Rate("COIN", "BTC"))
	assert.Equal(t, 40000.0, svc.Rate("BTC", "USD"))
	assert.InDelta(t, 1.0/0.0004, svc.Rate("ETH", "COIN"), 1e-9)
}

func TestRateIdentityAndFallback(t *testing.T) {
	svc := NewService()

	assert.Equal(t, 1.0, svc.Rate("COIN", "COIN"))
	assert.Equal(t, 1.0, svc.Rate("DOGE", "USD"), "unknown pair quotes 1")
}

func TestRatePivotsThroughUSD(t *testing.T) {
	svc := NewService()

	// BTC -> ETH has no direct quote: 40000 USD per BTC, 1/2500 ETH per USD.
	assert.InDelta(t, 16.0, svc.Rate("BTC", "ETH"), 1e-9)
}

func TestConvertRounds(t *testing.T) {
	svc := NewService()

	assert.InDelta(t, 0.0001, svc.Convert(4.0, "COIN", "BTC"), 1e-12)
	assert.Equal(t, 250.0, svc.Convert(250.0, "COIN", "USD"))

	// Eight decimal places, round half away from zero.
	got := svc.Convert(1.0/3.0, "COIN", "USD")
	assert.Equal(t, 0.33333333, got)
}

func TestAllRates(t *testing.T) {
	svc := NewService()

	all := svc.AllRates("COIN")
	require.Len(t, all, 4)
	assert.Equal(t, 1.0, all["USD"])
	assert.Equal(t, 0.000025, all["BTC"])
	assert.NotContains(t, all, "COIN")
}

func TestRefreshSkipsFreshQuotes(t *testing.T) {
	current := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(WithClock(func() time.Time { return current }))

	// Seeding happened at construction; an immediate refresh is a no-op.
	assert.Empty(t, svc.Refresh())

	current = current.Add(30 * time.Minute)
	assert.Empty(t, svc.Refresh())

	current = current.Add(31 * time.Minute)
	updated := svc.Refresh()
	assert.Len(t, updated, 12, "all quotes and inverses aged out together")
	for _, r := range updated {
		assert.True(t, r.UpdatedAt.Equal(current))
	}
}
