package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateTransaction OutboxAggregateType = "transaction"
	AggregatePayout      OutboxAggregateType = "payout"
	AggregateChargeback  OutboxAggregateType = "chargeback"
	AggregateCreator     OutboxAggregateType = "creator"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateTransaction,
	AggregatePayout,
	AggregateChargeback,
	AggregateCreator,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventTransactionRecorded OutboxEventType = "transaction_recorded"
	EventPayoutCreated       OutboxEventType = "payout_created"
	EventPayoutSent          OutboxEventType = "payout_sent"
	EventPayoutFailed        OutboxEventType = "payout_failed"
	EventChargebackRecorded  OutboxEventType = "chargeback_recorded"
	EventTierChanged         OutboxEventType = "tier_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventTransactionRecorded,
	EventPayoutCreated,
	EventPayoutSent,
	EventPayoutFailed,
	EventChargebackRecorded,
	EventTierChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxEventFilter selects event subsets in administrative listings.
// "failed" means unpublished with the attempt count at or above the
// configured failure threshold.
type OutboxEventFilter string

const (
	OutboxFilterPending   OutboxEventFilter = "pending"
	OutboxFilterPublished OutboxEventFilter = "published"
	OutboxFilterFailed    OutboxEventFilter = "failed"
	OutboxFilterAll       OutboxEventFilter = "all"
)

var validOutboxEventFilters = []OutboxEventFilter{
	OutboxFilterPending,
	OutboxFilterPublished,
	OutboxFilterFailed,
	OutboxFilterAll,
}

// ParseOutboxEventFilter converts raw input into OutboxEventFilter; an empty
// value selects all events.
func ParseOutboxEventFilter(value string) (OutboxEventFilter, error) {
	if value == "" {
		return OutboxFilterAll, nil
	}
	for _, candidate := range validOutboxEventFilters {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event filter %q", value)
}
