package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/karinvintage/vintagecloset-backend/api/responses"
	"github.com/karinvintage/vintagecloset-backend/api/validators"
	checkoutsvc "github.com/karinvintage/vintagecloset-backend/internal/checkout"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
)

// CheckoutSession creates a Stripe checkout session for one listing and
// returns the redirect URL.
func CheckoutSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateSession(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutSessionResponse{
			URL:       result.URL,
			SessionID: result.SessionID,
		})
	}
}

type checkoutSessionRequest struct {
	ProductID     *uuid.UUID          `json:"product_id,omitempty" validate:"omitempty,uuid4"`
	ProductSlug   *string             `json:"product_slug,omitempty"`
	CustomerEmail string              `json:"customer_email" validate:"required"`
	DiscountCode  *string             `json:"discount_code,omitempty"`
	Delivery      checkoutDeliveryDTO `json:"delivery" validate:"required"`
}

// checkoutDeliveryDTO is the wire form of the delivery variant: method plus
// exactly one of shipping or pickup.
type checkoutDeliveryDTO struct {
	Method   string              `json:"method" validate:"required,oneof=shipping pickup"`
	Shipping *shippingDetailsDTO `json:"shipping,omitempty"`
	Pickup   *pickupDetailsDTO   `json:"pickup,omitempty"`
}

type shippingDetailsDTO struct {
	CustomerName string `json:"customer_name" validate:"required"`
	Address      string `json:"address" validate:"required"`
	City         string `json:"city" validate:"required"`
	PostalCode   string `json:"postal_code" validate:"required"`
	Country      string `json:"country" validate:"required"`
}

type pickupDetailsDTO struct {
	CustomerName string `json:"customer_name" validate:"required"`
	Code         string `json:"code" validate:"required"`
}

type checkoutSessionResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

func (req checkoutSessionRequest) toInput() (checkoutsvc.CreateSessionInput, error) {
	method, err := enums.ParseDeliveryMethod(req.Delivery.Method)
	if err != nil {
		return checkoutsvc.CreateSessionInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method")
	}

	delivery := checkoutsvc.Delivery{Method: method}
	if req.Delivery.Shipping != nil {
		delivery.Shipping = &checkoutsvc.ShippingDetails{
			CustomerName: req.Delivery.Shipping.CustomerName,
			Address:      req.Delivery.Shipping.Address,
			City:         req.Delivery.Shipping.City,
			PostalCode:   req.Delivery.Shipping.PostalCode,
			Country:      req.Delivery.Shipping.Country,
		}
	}
	if req.Delivery.Pickup != nil {
		delivery.Pickup = &checkoutsvc.PickupDetails{
			CustomerName: req.Delivery.Pickup.CustomerName,
			Code:         req.Delivery.Pickup.Code,
		}
	}

	return checkoutsvc.CreateSessionInput{
		ProductID:     req.ProductID,
		ProductSlug:   req.ProductSlug,
		CustomerEmail: req.CustomerEmail,
		DiscountCode:  req.DiscountCode,
		Delivery:      delivery,
	}, nil
}
