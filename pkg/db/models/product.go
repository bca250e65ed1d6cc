package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
)

// Product represents a unique physical item in the shop. Every listing is a
// one-off; there is no quantity, only the sold flag.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug            string              `gorm:"column:slug;uniqueIndex;not null"`
	Title           string              `gorm:"column:title;not null"`
	Description     *string             `gorm:"column:description"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null"`
	DiscountPercent int                 `gorm:"column:discount_percent;not null;default:0"`
	Size            string              `gorm:"column:size;not null"`
	Category        string              `gorm:"column:category;not null"`
	Gender          enums.ProductGender `gorm:"column:gender;type:text;not null;default:'unisex'"`
	Era             *string             `gorm:"column:era"`
	ImageURLs       pq.StringArray      `gorm:"column:image_urls;type:text[];not null;default:ARRAY[]::text[]"`
	IsSold          bool                `gorm:"column:is_sold;not null;default:false"`

	// Reservation columns back the optimistic checkout claim. A claim is held
	// by token until the Stripe session id is known, then tied to the session.
	ReservedToken     *string    `gorm:"column:reserved_token"`
	ReservedSessionID *string    `gorm:"column:reserved_session_id"`
	ReservedAt        *time.Time `gorm:"column:reserved_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PriceAfterDiscount applies the listing-level percentage discount.
func (p Product) PriceAfterDiscount() decimal.Decimal {
	if p.DiscountPercent <= 0 {
		return p.Price
	}
	factor := decimal.NewFromInt(int64(100 - p.DiscountPercent)).Div(decimal.NewFromInt(100))
	return p.Price.Mul(factor).Round(2)
}

// FirstImageURL returns the primary listing image, if any.
func (p Product) FirstImageURL() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}
