package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/pkg/enums"
)

// Payout is a batch disbursement unit for one creator over a contiguous
// period. PayoutAmount = GrossTotal - PlatformFeeTotal + AdjustmentsTotal
// and is never negative: a batch that would net below zero is deferred
// instead of created. AdjustmentsTotal is signed; chargeback deductions are
// negative, manual corrections may be positive.
type Payout struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID        uuid.UUID          `gorm:"column:creator_id;type:uuid;not null;index"`
	PeriodStart      time.Time          `gorm:"column:period_start;not null"`
	PeriodEnd        time.Time          `gorm:"column:period_end;not null"`
	GrossTotal       int64              `gorm:"column:gross_total;not null"`
	PlatformFeeTotal int64              `gorm:"column:platform_fee_total;not null"`
	AdjustmentsTotal int64              `gorm:"column:adjustments_total;not null;default:0"`
	PayoutAmount     int64              `gorm:"column:payout_amount;not null"`
	Status           enums.PayoutStatus `gorm:"column:status;type:payout_status_enum;not null;default:pending"`
	RetryCount       int                `gorm:"column:retry_count;not null;default:0"`
	FailureReason    *string            `gorm:"column:failure_reason"`
	SentAt           *time.Time         `gorm:"column:sent_at"`
	FailedAt         *time.Time         `gorm:"column:failed_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// PayoutItem claims one transaction for one payout. The unique index on
// transaction_id is the mechanism that makes double payment impossible.
type PayoutItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PayoutID      uuid.UUID `gorm:"column:payout_id;type:uuid;not null;index"`
	TransactionID uuid.UUID `gorm:"column:transaction_id;type:uuid;not null;uniqueIndex:ux_payout_items_transaction"`
	Amount        int64     `gorm:"column:amount;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
