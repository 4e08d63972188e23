package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/pkg/enums"
)

// Creator holds the settlement-relevant slice of a creator profile: the
// current fee tier and when it took effect.
type Creator struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DisplayName   string            `gorm:"column:display_name;not null"`
	Tier          enums.CreatorTier `gorm:"column:tier;type:creator_tier_enum;not null;default:standard"`
	TierChangedAt time.Time         `gorm:"column:tier_changed_at;not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TierChange is the append-only history of tier transitions.
type TierChange struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID uuid.UUID         `gorm:"column:creator_id;type:uuid;not null;index"`
	OldTier   enums.CreatorTier `gorm:"column:old_tier;type:creator_tier_enum;not null"`
	NewTier   enums.CreatorTier `gorm:"column:new_tier;type:creator_tier_enum;not null"`
	Reason    string            `gorm:"column:reason"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
