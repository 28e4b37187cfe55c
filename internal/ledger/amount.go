package ledger

import (
	"fmt"
	"strings"
)

// Amount is a fixed-point quantity of COIN in base units.
// One COIN equals 1e8 base units; all ledger arithmetic stays in integers.
type Amount int64

const (
	// BaseUnitsPerCoin is the number of base units in one COIN.
	BaseUnitsPerCoin = 100_000_000
	maxFracDigits    = 8
)

// Coins converts a whole-coin count to an Amount.
func Coins(n int64) Amount {
	return Amount(n * BaseUnitsPerCoin)
}

// ParseAmount parses a decimal string such as "250", "0.5" or "-5"
// into base units. Parsing is exact: more than eight fractional digits,
// exponents, or empty input are rejected.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, fmt.Errorf("malformed amount")
	}

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if len(fracPart) > maxFracDigits {
		return 0, fmt.Errorf("amount has more than %d decimal places", maxFracDigits)
	}

	var units int64
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
		d := int64(c - '0')
		if units > (1<<62)/10 {
			return 0, fmt.Errorf("amount out of range")
		}
		units = units*10 + d
	}
	units *= BaseUnitsPerCoin

	if fracPart != "" {
		var frac int64
		for _, c := range fracPart {
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("malformed amount %q", s)
			}
			frac = frac*10 + int64(c-'0')
		}
		for i := len(fracPart); i < maxFracDigits; i++ {
			frac *= 10
		}
		units += frac
	}

	if neg {
		units = -units
	}
	return Amount(units), nil
}

// String renders the amount as a decimal COIN string with trailing
// zeros trimmed, e.g. 25000000000 -> "250", 50000000 -> "0.5".
func (a Amount) String() string {
	units := int64(a)
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	whole := units / BaseUnitsPerCoin
	frac := units % BaseUnitsPerCoin
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%08d", frac), "0")
	return fmt.Sprintf("%s%d.%s", sign, whole, fracStr)
}

// Float64 returns the amount in COIN as a float. Informational only;
// never used for ledger arithmetic.
func (a Amount) Float64() float64 {
	return float64(a) / BaseUnitsPerCoin
}

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string ("0.5") or a bare number (0.5).
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		return nil
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
