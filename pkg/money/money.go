package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are integer minor units throughout the settlement engine; binary
// floating point never touches monetary values. Fee rates are basis points
// (1/100 of a percent) and fee math runs through shopspring/decimal so a
// rounding mode is explicit rather than implied.

const bpsDenominator = 10000

// ApplyBps returns the fee portion of amount at the given basis-point rate,
// rounded half-up to the nearest minor unit.
func ApplyBps(amount int64, bps int64) int64 {
	if amount == 0 || bps == 0 {
		return 0
	}
	fee := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(bps)).
		DivRound(decimal.NewFromInt(bpsDenominator), 0)
	return fee.IntPart()
}

// SplitByBps divides a gross amount into (fee, net) at the given rate.
// fee + net always reconstructs gross exactly.
func SplitByBps(gross int64, bps int64) (fee int64, net int64) {
	fee = ApplyBps(gross, bps)
	return fee, gross - fee
}

// FormatMinor renders a minor-unit amount as the decimal-string integer used
// on the wire. Transport never carries floats.
func FormatMinor(amount int64) string {
	return decimal.NewFromInt(amount).String()
}

// ParseMinor parses a decimal-string integer back into minor units. Fractional
// input is rejected: the wire format is whole minor units only.
func ParseMinor(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("amount is required")
	}
	dec, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if !dec.IsInteger() {
		return 0, fmt.Errorf("amount %q must be whole minor units", value)
	}
	return dec.IntPart(), nil
}
