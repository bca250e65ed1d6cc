package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
)

// Order records one checkout attempt. Product title/size/image are denormalized
// so the row stays meaningful if the product is later edited or deleted.
type Order struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID             *uuid.UUID           `gorm:"column:product_id;type:uuid"`
	StripeSessionID       string               `gorm:"column:stripe_session_id;uniqueIndex;not null"`
	StripePaymentIntentID *string              `gorm:"column:stripe_payment_intent_id"`
	Status                enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	DeliveryMethod        enums.DeliveryMethod `gorm:"column:delivery_method;type:text;not null;default:'shipping'"`

	CustomerName       string `gorm:"column:customer_name;not null"`
	CustomerEmail      string `gorm:"column:customer_email;not null"`
	ShippingAddress    string `gorm:"column:shipping_address;not null"`
	ShippingCity       string `gorm:"column:shipping_city;not null"`
	ShippingPostalCode string `gorm:"column:shipping_postal_code;not null"`
	ShippingCountry    string `gorm:"column:shipping_country;not null"`

	OriginalPrice          decimal.Decimal  `gorm:"column:original_price;type:numeric(10,2);not null"`
	ProductDiscountPercent int              `gorm:"column:product_discount_percent;not null;default:0"`
	DiscountCode           *string          `gorm:"column:discount_code"`
	DiscountCodeType       *string          `gorm:"column:discount_code_type"`
	DiscountCodeValue      *decimal.Decimal `gorm:"column:discount_code_value;type:numeric(10,2)"`
	DiscountCodeAmount     decimal.Decimal  `gorm:"column:discount_code_amount;type:numeric(10,2);not null;default:0"`
	FinalPrice             decimal.Decimal  `gorm:"column:final_price;type:numeric(10,2);not null"`

	ProductTitle string  `gorm:"column:product_title;not null"`
	ProductSize  string  `gorm:"column:product_size;not null"`
	ProductImage *string `gorm:"column:product_image"`
	PickupCode   *string `gorm:"column:pickup_code"`

	PaidAt    *time.Time `gorm:"column:paid_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
