package models

import (
	"time"

	"github.com/google/uuid"
)

// PickupCode is a short alphanumeric code redeemable in-store exactly once.
type PickupCode struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string     `gorm:"column:code;uniqueIndex;not null"`
	OrderID       uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID     *uuid.UUID `gorm:"column:product_id;type:uuid"`
	CustomerName  string     `gorm:"column:customer_name;not null"`
	CustomerEmail string     `gorm:"column:customer_email;not null"`
	ProductTitle  string     `gorm:"column:product_title;not null"`
	ProductSize   string     `gorm:"column:product_size;not null"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	RedeemedAt    *time.Time `gorm:"column:redeemed_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
