package models

import (
	"time"

	"github.com/google/uuid"
)

// Chargeback records a reversal against a previously successful transaction.
// It reduces the creator's future payable balance even when the underlying
// transaction was already disbursed: AbsorbedInPayoutID is set once the
// amount has been netted into a later payout's adjustments.
type Chargeback struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID      uuid.UUID  `gorm:"column:transaction_id;type:uuid;not null;index"`
	CreatorID          uuid.UUID  `gorm:"column:creator_id;type:uuid;not null;index"`
	Amount             int64      `gorm:"column:amount;not null"`
	Reason             string     `gorm:"column:reason"`
	AbsorbedInPayoutID *uuid.UUID `gorm:"column:absorbed_in_payout_id;type:uuid"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
}
