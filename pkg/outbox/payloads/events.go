package payloads

import (
	"time"

	"github.com/Nooxeel/zetta-backend/pkg/enums"
	"github.com/google/uuid"
)

// TransactionRecordedEvent signals a new ledger entry for a creator.
type TransactionRecordedEvent struct {
	TransactionID     uuid.UUID         `json:"transaction_id"`
	CreatorID         uuid.UUID         `json:"creator_id"`
	ProductType       enums.ProductType `json:"product_type"`
	GrossAmount       int64             `json:"gross_amount"`
	PlatformFeeAmount int64             `json:"platform_fee_amount"`
	FeeBps            int64             `json:"fee_bps"`
	OccurredAt        time.Time         `json:"occurred_at"`
}

// PayoutCreatedEvent is emitted when a settlement pass batches a payout.
type PayoutCreatedEvent struct {
	PayoutID         uuid.UUID `json:"payout_id"`
	CreatorID        uuid.UUID `json:"creator_id"`
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
	TransactionCount int       `json:"transaction_count"`
	GrossTotal       int64     `json:"gross_total"`
	AdjustmentsTotal int64     `json:"adjustments_total"`
	PayoutAmount     int64     `json:"payout_amount"`
}

// PayoutSentEvent reports a payout handed to the disbursement executor.
type PayoutSentEvent struct {
	PayoutID     uuid.UUID `json:"payout_id"`
	CreatorID    uuid.UUID `json:"creator_id"`
	PayoutAmount int64     `json:"payout_amount"`
	SentAt       time.Time `json:"sent_at"`
}

// PayoutFailedEvent reports a disbursement failure for a payout.
type PayoutFailedEvent struct {
	PayoutID      uuid.UUID `json:"payout_id"`
	CreatorID     uuid.UUID `json:"creator_id"`
	PayoutAmount  int64     `json:"payout_amount"`
	RetryCount    int       `json:"retry_count"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// ChargebackRecordedEvent signals a reversed transaction.
type ChargebackRecordedEvent struct {
	ChargebackID  uuid.UUID `json:"chargeback_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	CreatorID     uuid.UUID `json:"creator_id"`
	Amount        int64     `json:"amount"`
	Reason        string    `json:"reason,omitempty"`
}

// TierChangedEvent is emitted when a creator moves between fee tiers.
type TierChangedEvent struct {
	CreatorID   uuid.UUID         `json:"creator_id"`
	FromTier    enums.CreatorTier `json:"from_tier"`
	ToTier      enums.CreatorTier `json:"to_tier"`
	EffectiveAt time.Time         `json:"effective_at"`
}
