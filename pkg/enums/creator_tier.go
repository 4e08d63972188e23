package enums

import "fmt"

// CreatorTier maps to the creator_tier enum in Postgres. The tier in effect
// when a transaction occurs fixes that transaction's fee rate permanently.
type CreatorTier string

const (
	TierStandard CreatorTier = "standard"
	TierVIP      CreatorTier = "vip"
)

var validCreatorTiers = []CreatorTier{
	TierStandard,
	TierVIP,
}

// IsValid reports whether the value matches the canonical creator_tier enum.
func (t CreatorTier) IsValid() bool {
	for _, candidate := range validCreatorTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCreatorTier converts raw input into CreatorTier.
func ParseCreatorTier(value string) (CreatorTier, error) {
	for _, candidate := range validCreatorTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid creator tier %q", value)
}
