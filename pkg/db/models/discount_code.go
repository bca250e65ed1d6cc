package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/karinvintage/vintagecloset-backend/pkg/db/types"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
)

// DiscountCode is a promotional code (Gutschein) subject to eligibility rules.
// The code string is normalized to uppercase before persistence.
type DiscountCode struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string              `gorm:"column:code;uniqueIndex;not null"`
	Description   *string             `gorm:"column:description"`
	Type          enums.DiscountType  `gorm:"column:type;type:text;not null"`
	Value         decimal.Decimal     `gorm:"column:value;type:numeric(10,2);not null"`
	UsageLimit    *int                `gorm:"column:usage_limit"`
	UsageCount    int                 `gorm:"column:usage_count;not null;default:0"`
	AppliesTo     enums.DiscountScope `gorm:"column:applies_to;type:text;not null;default:'all'"`
	ProductIDs    dbtypes.UUIDArray   `gorm:"column:product_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	MinOrderValue *decimal.Decimal    `gorm:"column:min_order_value;type:numeric(10,2)"`
	IsActive      bool                `gorm:"column:is_active;not null;default:true"`
	StartsAt      time.Time           `gorm:"column:starts_at;not null"`
	ExpiresAt     *time.Time          `gorm:"column:expires_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// UsageExhausted reports whether the code has hit its usage limit.
func (d DiscountCode) UsageExhausted() bool {
	return d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit
}
