package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/pkg/enums"
)

// FeeSchedule is versioned settlement configuration. Schedules are appended,
// never edited in place; the active schedule is the latest EffectiveFrom at
// or before the instant in question with an open or future EffectiveUntil.
// Overlaps resolve by CreatedAt so a manual correction predictably wins.
type FeeSchedule struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StandardFeeBps  int64                 `gorm:"column:standard_fee_bps;not null"`
	VIPFeeBps       int64                 `gorm:"column:vip_fee_bps;not null"`
	HoldDays        int                   `gorm:"column:hold_days;not null"`
	MinPayoutAmount int64                 `gorm:"column:min_payout_amount;not null"`
	PayoutFrequency enums.PayoutFrequency `gorm:"column:payout_frequency;type:payout_frequency_enum;not null"`
	EffectiveFrom   time.Time             `gorm:"column:effective_from;not null"`
	EffectiveUntil  *time.Time            `gorm:"column:effective_until"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
