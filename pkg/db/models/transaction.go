package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/pkg/enums"
)

// Transaction is the immutable record of a completed monetary event. Amounts
// are minor units and always satisfy GrossAmount = PlatformFeeAmount +
// CreatorPayableAmount. The fee rate is fixed at transaction time; tier or
// schedule changes never reprice settled transactions. The only permitted
// mutation is the status transition on refund or chargeback.
type Transaction struct {
	ID                   uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID            uuid.UUID               `gorm:"column:creator_id;type:uuid;not null;index"`
	ProductType          enums.ProductType       `gorm:"column:product_type;type:product_type_enum;not null"`
	GrossAmount          int64                   `gorm:"column:gross_amount;not null"`
	PlatformFeeAmount    int64                   `gorm:"column:platform_fee_amount;not null"`
	CreatorPayableAmount int64                   `gorm:"column:creator_payable_amount;not null"`
	FeeBps               int64                   `gorm:"column:fee_bps;not null"`
	Status               enums.TransactionStatus `gorm:"column:status;type:transaction_status_enum;not null;default:succeeded"`
	OccurredAt           time.Time               `gorm:"column:occurred_at;not null"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
}
