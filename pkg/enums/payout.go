package enums

import (
	"fmt"
	"time"
)

// PayoutStatus maps to the payout_status enum in Postgres. Pending payouts
// are created by the calculator; sent/failed are reported back by the
// external disbursement worker.
type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutSent    PayoutStatus = "sent"
	PayoutFailed  PayoutStatus = "failed"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutPending,
	PayoutSent,
	PayoutFailed,
}

// IsValid reports whether the value matches the canonical payout_status enum.
func (s PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePayoutStatus converts raw input into PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}

// PayoutFrequency is a property of the active fee schedule, not of a payout
// record. It gates how often a creator is considered for batching.
type PayoutFrequency string

const (
	FrequencyWeekly   PayoutFrequency = "weekly"
	FrequencyBiweekly PayoutFrequency = "biweekly"
	FrequencyMonthly  PayoutFrequency = "monthly"
)

var validPayoutFrequencies = []PayoutFrequency{
	FrequencyWeekly,
	FrequencyBiweekly,
	FrequencyMonthly,
}

// IsValid reports whether the value matches the canonical payout_frequency enum.
func (f PayoutFrequency) IsValid() bool {
	for _, candidate := range validPayoutFrequencies {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParsePayoutFrequency converts raw input into PayoutFrequency.
func ParsePayoutFrequency(value string) (PayoutFrequency, error) {
	for _, candidate := range validPayoutFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout frequency %q", value)
}

// Interval returns the minimum gap between two payout periods for the
// frequency. Months are approximated as 30 days; the gate compares against
// payout period ends, not calendar boundaries.
func (f PayoutFrequency) Interval() time.Duration {
	switch f {
	case FrequencyBiweekly:
		return 14 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}
