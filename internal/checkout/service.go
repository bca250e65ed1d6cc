package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/karinvintage/vintagecloset-backend/internal/catalog"
	"github.com/karinvintage/vintagecloset-backend/internal/discounts"
	"github.com/karinvintage/vintagecloset-backend/internal/orders"
	"github.com/karinvintage/vintagecloset-backend/pkg/config"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
	"github.com/karinvintage/vintagecloset-backend/pkg/metrics"
)

// Shipping rows written for pickup orders carry these placeholder values so
// admin views can tell the two apart at a glance.
const pickupAddressSentinel = "In-store pickup"

// ShippingDetails is the address variant of a checkout request.
type ShippingDetails struct {
	CustomerName string
	Address      string
	City         string
	PostalCode   string
	Country      string
}

// PickupDetails is the in-store variant of a checkout request.
type PickupDetails struct {
	CustomerName string
	Code         string
}

// Delivery is a tagged variant: exactly one of Shipping or Pickup is set,
// matching Method.
type Delivery struct {
	Method   enums.DeliveryMethod
	Shipping *ShippingDetails
	Pickup   *PickupDetails
}

// CreateSessionInput carries one checkout attempt.
type CreateSessionInput struct {
	ProductID     *uuid.UUID
	ProductSlug   *string
	CustomerEmail string
	DiscountCode  *string
	Delivery      Delivery
}

// CreateSessionResult is returned to the storefront for redirect.
type CreateSessionResult struct {
	URL       string
	SessionID string
}

// Service builds Stripe checkout sessions for unique storefront items.
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error)
}

type service struct {
	products  *catalog.Repository
	orders    *orders.Repository
	discounts discounts.Service
	stripe    StripeCheckoutClient
	cfg       config.CheckoutConfig
	logg      *logger.Logger
	metrics   *metrics.SettlementMetrics
	now       func() time.Time
}

// NewService builds the checkout session builder.
func NewService(
	products *catalog.Repository,
	orderRepo *orders.Repository,
	discountSvc discounts.Service,
	stripeClient StripeCheckoutClient,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
	settlementMetrics *metrics.SettlementMetrics,
) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if discountSvc == nil {
		return nil, fmt.Errorf("discounts service required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		products:  products,
		orders:    orderRepo,
		discounts: discountSvc,
		stripe:    stripeClient,
		cfg:       cfg,
		logg:      logg,
		metrics:   settlementMetrics,
		now:       time.Now,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error) {
	email := strings.TrimSpace(input.CustomerEmail)
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid customer email is required")
	}

	shipping, err := resolveShippingFields(input.Delivery)
	if err != nil {
		return nil, err
	}

	product, err := s.resolveProduct(ctx, input)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithProductID(ctx, product.ID.String())

	// Claim the item before talking to Stripe. The conditional update is what
	// prevents two concurrent checkouts from both selling a unique piece.
	token := uuid.NewString()
	now := s.now().UTC()
	if err := s.products.ClaimForCheckout(ctx, product.ID, token, now, s.cfg.ReservationTTL); err != nil {
		return nil, err
	}

	priceAfterProductDiscount := product.PriceAfterDiscount()
	codeAmount := decimal.Zero
	var evaluation *discounts.Evaluation
	var appliedCode string
	if input.DiscountCode != nil && strings.TrimSpace(*input.DiscountCode) != "" {
		appliedCode = discounts.NormalizeCode(*input.DiscountCode)
		evaluation, err = s.discounts.Validate(ctx, appliedCode, product.ID, priceAfterProductDiscount)
		if err != nil {
			s.releaseClaim(ctx, product.ID, token)
			return nil, err
		}
		if !evaluation.Valid {
			s.releaseClaim(ctx, product.ID, token)
			return nil, pkgerrors.New(pkgerrors.CodeValidation, evaluation.Reason)
		}
		codeAmount = discounts.Amount(evaluation.Type, evaluation.Value, priceAfterProductDiscount)
	}

	finalPrice := priceAfterProductDiscount.Sub(codeAmount)
	if finalPrice.IsNegative() {
		finalPrice = decimal.Zero
	}

	intent := s.buildIntent(product, shipping, email, appliedCode, evaluation, codeAmount, finalPrice, input.Delivery)
	metadata, err := intent.EncodeMetadata()
	if err != nil {
		s.releaseClaim(ctx, product.ID, token)
		return nil, err
	}

	sess, err := s.createStripeSession(ctx, product, email, finalPrice, metadata)
	if err != nil {
		s.releaseClaim(ctx, product.ID, token)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe checkout session")
	}
	ctx = s.logg.WithSessionID(ctx, sess.ID)

	if err := s.products.AttachSessionToReservation(ctx, product.ID, token, sess.ID); err != nil {
		// The claim was lost between Stripe and here, which only happens if
		// the reservation TTL elapsed mid-request. The customer already has a
		// payment URL, so settlement remains responsible for the final word.
		s.logg.Warn(ctx, "could not bind reservation to stripe session")
	}

	// Past this point the customer has a payment page. Bookkeeping failures
	// are logged and counted but never surfaced.
	if appliedCode != "" {
		if err := s.discounts.Consume(ctx, appliedCode); err != nil {
			s.logg.Error(ctx, "consume discount code failed", err)
			s.metrics.IncBookkeepingFailure("discount_consume")
		}
	}

	if _, err := s.orders.Create(ctx, s.buildPendingOrder(product, sess.ID, intent, codeAmount, finalPrice, evaluation)); err != nil {
		s.logg.Error(ctx, "insert pending order failed", err)
		s.metrics.IncBookkeepingFailure("order_insert")
	}

	return &CreateSessionResult{URL: sess.URL, SessionID: sess.ID}, nil
}

func (s *service) resolveProduct(ctx context.Context, input CreateSessionInput) (*models.Product, error) {
	if input.ProductID != nil && *input.ProductID != uuid.Nil {
		product, err := s.products.FindByID(ctx, *input.ProductID)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
	}
	if input.ProductSlug != nil && strings.TrimSpace(*input.ProductSlug) != "" {
		product, err := s.products.FindBySlug(ctx, strings.TrimSpace(*input.ProductSlug))
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func resolveShippingFields(delivery Delivery) (*ShippingDetails, error) {
	switch delivery.Method {
	case enums.DeliveryMethodShipping:
		if delivery.Pickup != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup details not allowed for shipping orders")
		}
		info := delivery.Shipping
		if info == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping details are required")
		}
		for field, value := range map[string]string{
			"customer name":        info.CustomerName,
			"shipping address":     info.Address,
			"shipping city":        info.City,
			"shipping postal code": info.PostalCode,
			"shipping country":     info.Country,
		} {
			if strings.TrimSpace(value) == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
			}
		}
		return info, nil
	case enums.DeliveryMethodPickup:
		if delivery.Shipping != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping details not allowed for pickup orders")
		}
		info := delivery.Pickup
		if info == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup details are required")
		}
		if strings.TrimSpace(info.CustomerName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
		}
		if strings.TrimSpace(info.Code) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup code is required")
		}
		return &ShippingDetails{
			CustomerName: info.CustomerName,
			Address:      pickupAddressSentinel,
			City:         pickupAddressSentinel,
			PostalCode:   "-",
			Country:      "-",
		}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery method must be shipping or pickup")
	}
}

func (s *service) buildIntent(
	product *models.Product,
	shipping *ShippingDetails,
	email string,
	appliedCode string,
	evaluation *discounts.Evaluation,
	codeAmount decimal.Decimal,
	finalPrice decimal.Decimal,
	delivery Delivery,
) OrderIntent {
	intent := OrderIntent{
		ProductID:              product.ID.String(),
		ProductSlug:            product.Slug,
		ProductTitle:           product.Title,
		ProductSize:            product.Size,
		ProductImage:           product.FirstImageURL(),
		Gender:                 product.Gender.String(),
		Category:               product.Category,
		OriginalPrice:          product.Price.StringFixed(2),
		ProductDiscountPercent: product.DiscountPercent,
		DiscountCodeAmount:     codeAmount.StringFixed(2),
		FinalPrice:             finalPrice.StringFixed(2),
		DeliveryMethod:         delivery.Method.String(),
		CustomerName:           shipping.CustomerName,
		CustomerEmail:          email,
		ShippingAddress:        shipping.Address,
		ShippingCity:           shipping.City,
		ShippingPostalCode:     shipping.PostalCode,
		ShippingCountry:        shipping.Country,
	}
	if appliedCode != "" && evaluation != nil {
		intent.DiscountCode = appliedCode
		intent.DiscountCodeType = evaluation.Type.String()
		intent.DiscountCodeValue = evaluation.Value.StringFixed(2)
	}
	if delivery.Pickup != nil {
		intent.PickupCode = strings.ToUpper(strings.TrimSpace(delivery.Pickup.Code))
	}
	return intent
}

func (s *service) createStripeSession(
	ctx context.Context,
	product *models.Product,
	email string,
	finalPrice decimal.Decimal,
	metadata map[string]string,
) (*stripe.CheckoutSession, error) {
	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(product.Title),
	}
	if image := product.FirstImageURL(); image != "" {
		productData.Images = stripe.StringSlice([]string{image})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(s.cfg.SuccessURL),
		CancelURL:     stripe.String(s.cfg.CancelURL),
		CustomerEmail: stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				// Quantity is always 1: every listing is a unique piece.
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(s.cfg.Currency),
					UnitAmount:  stripe.Int64(toMinorUnits(finalPrice)),
					ProductData: productData,
				},
			},
		},
		Metadata: metadata,
	}
	return s.stripe.CreateSession(ctx, params)
}

func (s *service) buildPendingOrder(
	product *models.Product,
	sessionID string,
	intent OrderIntent,
	codeAmount decimal.Decimal,
	finalPrice decimal.Decimal,
	evaluation *discounts.Evaluation,
) *models.Order {
	productID := product.ID
	order := &models.Order{
		ProductID:              &productID,
		StripeSessionID:        sessionID,
		Status:                 enums.OrderStatusPending,
		DeliveryMethod:         enums.DeliveryMethod(intent.DeliveryMethod),
		CustomerName:           intent.CustomerName,
		CustomerEmail:          intent.CustomerEmail,
		ShippingAddress:        intent.ShippingAddress,
		ShippingCity:           intent.ShippingCity,
		ShippingPostalCode:     intent.ShippingPostalCode,
		ShippingCountry:        intent.ShippingCountry,
		OriginalPrice:          product.Price,
		ProductDiscountPercent: product.DiscountPercent,
		DiscountCodeAmount:     codeAmount,
		FinalPrice:             finalPrice,
		ProductTitle:           product.Title,
		ProductSize:            product.Size,
	}
	if image := product.FirstImageURL(); image != "" {
		order.ProductImage = &image
	}
	if intent.DiscountCode != "" && evaluation != nil {
		code := intent.DiscountCode
		codeType := evaluation.Type.String()
		value := evaluation.Value
		order.DiscountCode = &code
		order.DiscountCodeType = &codeType
		order.DiscountCodeValue = &value
	}
	if intent.PickupCode != "" {
		pickupCode := intent.PickupCode
		order.PickupCode = &pickupCode
	}
	return order
}

func (s *service) releaseClaim(ctx context.Context, productID uuid.UUID, token string) {
	if err := s.products.ReleaseReservationByToken(ctx, productID, token); err != nil {
		s.logg.Error(ctx, "release reservation failed", err)
		s.metrics.IncBookkeepingFailure("reservation_release")
	}
}

// toMinorUnits converts a decimal price to the cent amount Stripe expects.
func toMinorUnits(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}
