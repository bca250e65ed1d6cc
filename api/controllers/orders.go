package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karinvintage/vintagecloset-backend/api/responses"
	ordersvc "github.com/karinvintage/vintagecloset-backend/internal/orders"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
)

// OrderBySession serves the success-page order lookup keyed by the Stripe
// checkout session id.
func OrderBySession(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is required"))
			return
		}

		order, err := svc.GetByStripeSessionID(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(*order))
	}
}

type orderResponse struct {
	ID                    uuid.UUID  `json:"id"`
	ProductID             *uuid.UUID `json:"product_id,omitempty"`
	StripeSessionID       string     `json:"stripe_session_id"`
	StripePaymentIntentID *string    `json:"stripe_payment_intent_id,omitempty"`
	Status                string     `json:"status"`
	DeliveryMethod        string     `json:"delivery_method"`

	CustomerName       string `json:"customer_name"`
	CustomerEmail      string `json:"customer_email"`
	ShippingAddress    string `json:"shipping_address"`
	ShippingCity       string `json:"shipping_city"`
	ShippingPostalCode string `json:"shipping_postal_code"`
	ShippingCountry    string `json:"shipping_country"`

	OriginalPrice          string  `json:"original_price"`
	ProductDiscountPercent int     `json:"product_discount_percent"`
	DiscountCode           *string `json:"discount_code,omitempty"`
	DiscountCodeAmount     string  `json:"discount_code_amount"`
	FinalPrice             string  `json:"final_price"`

	ProductTitle string  `json:"product_title"`
	ProductSize  string  `json:"product_size"`
	ProductImage *string `json:"product_image,omitempty"`
	PickupCode   *string `json:"pickup_code,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newOrderResponse(o models.Order) orderResponse {
	return orderResponse{
		ID:                    o.ID,
		ProductID:             o.ProductID,
		StripeSessionID:       o.StripeSessionID,
		StripePaymentIntentID: o.StripePaymentIntentID,
		Status:                o.Status.String(),
		DeliveryMethod:        o.DeliveryMethod.String(),

		CustomerName:       o.CustomerName,
		CustomerEmail:      o.CustomerEmail,
		ShippingAddress:    o.ShippingAddress,
		ShippingCity:       o.ShippingCity,
		ShippingPostalCode: o.ShippingPostalCode,
		ShippingCountry:    o.ShippingCountry,

		OriginalPrice:          formatPrice(o.OriginalPrice),
		ProductDiscountPercent: o.ProductDiscountPercent,
		DiscountCode:           o.DiscountCode,
		DiscountCodeAmount:     formatPrice(o.DiscountCodeAmount),
		FinalPrice:             formatPrice(o.FinalPrice),

		ProductTitle: o.ProductTitle,
		ProductSize:  o.ProductSize,
		ProductImage: o.ProductImage,
		PickupCode:   o.PickupCode,

		PaidAt:    o.PaidAt,
		CreatedAt: o.CreatedAt,
	}
}
