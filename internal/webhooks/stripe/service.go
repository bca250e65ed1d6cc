package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/karinvintage/vintagecloset-backend/internal/checkout"
	"github.com/karinvintage/vintagecloset-backend/pkg/db"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
	"github.com/karinvintage/vintagecloset-backend/pkg/metrics"
)

type productRepository interface {
	MarkSold(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseReservationBySession(ctx context.Context, sessionID string) error
}

type orderRepository interface {
	FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	MarkPaid(ctx context.Context, sessionID string, paymentIntentID *string, paidAt time.Time) (bool, error)
}

type pickupRepository interface {
	Create(ctx context.Context, row *models.PickupCode) (*models.PickupCode, error)
}

// ServiceParams wires the settlement service dependencies. Guard and Metrics
// are optional: without a guard every delivery is processed (the writes are
// idempotent anyway), without metrics the counters are no-ops.
type ServiceParams struct {
	Products    productRepository
	Orders      orderRepository
	PickupCodes pickupRepository
	Guard       *IdempotencyGuard
	Logger      *logger.Logger
	Metrics     *metrics.SettlementMetrics
}

// Service reconciles local order state from Stripe checkout events.
type Service struct {
	products    productRepository
	orders      orderRepository
	pickupCodes pickupRepository
	guard       *IdempotencyGuard
	logg        *logger.Logger
	metrics     *metrics.SettlementMetrics
	now         func() time.Time
}

// NewService builds the webhook settlement service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product repo required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repo required")
	}
	if params.PickupCodes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pickup code repo required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		products:    params.Products,
		orders:      params.Orders,
		pickupCodes: params.PickupCodes,
		guard:       params.Guard,
		logg:        params.Logger,
		metrics:     params.Metrics,
		now:         time.Now,
	}, nil
}

// HandleEvent dispatches a verified Stripe event. Settlement write failures
// are logged and counted, never returned: once the signature checks out the
// caller must acknowledge the delivery or Stripe will retry forever.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	if s.guard != nil {
		duplicate, err := s.guard.CheckAndMark(ctx, string(event.ID))
		if err != nil {
			// Redis being down must not block settlement; the conditional
			// writes below tolerate replays on their own.
			s.logg.Warn(s.logg.WithField(ctx, "event_id", event.ID), "idempotency guard unavailable")
		} else if duplicate {
			s.logg.Info(s.logg.WithField(ctx, "event_id", event.ID), "duplicate stripe event skipped")
			return nil
		}
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
		}
		s.settleCompleted(ctx, &sess)
		return nil
	case stripe.EventTypeCheckoutSessionExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
		}
		s.handleExpired(ctx, &sess)
		return nil
	default:
		return nil
	}
}

func (s *Service) settleCompleted(ctx context.Context, sess *stripe.CheckoutSession) {
	ctx = s.logg.WithSessionID(ctx, sess.ID)
	now := s.now().UTC()
	var problems error

	intent, err := checkout.DecodeIntentMetadata(sess.Metadata)
	if err != nil {
		// Without an intent the order can still be marked paid; it just
		// cannot be recovered if the pending insert was lost.
		s.logg.Error(ctx, "order intent missing from session metadata", err)
		intent = nil
	}

	var paymentIntentID *string
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		paymentIntentID = &sess.PaymentIntent.ID
	}

	transitioned, err := s.orders.MarkPaid(ctx, sess.ID, paymentIntentID, now)
	if err != nil {
		s.logg.Error(ctx, "mark order paid failed", err)
		s.metrics.IncBookkeepingFailure("order_mark_paid")
		problems = multierr.Append(problems, err)
	}
	if transitioned {
		s.logg.Info(ctx, "order marked paid")
	}

	order, err := s.orders.FindByStripeSessionID(ctx, sess.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) && intent != nil {
		// The pending insert at checkout time was lost. Rebuild the order
		// from the intent so the payment is never dropped.
		order, err = s.orders.Create(ctx, orderFromIntent(intent, sess.ID, paymentIntentID, now))
		if err == nil {
			s.logg.Warn(ctx, "order recovered from session metadata")
			s.metrics.IncOrderRecovered()
		}
	}
	if err != nil {
		s.logg.Error(ctx, "load or recover order failed", err)
		s.metrics.IncBookkeepingFailure("order_insert")
		problems = multierr.Append(problems, err)
		order = nil
	}

	if intent != nil {
		if productID, parseErr := uuid.Parse(intent.ProductID); parseErr == nil {
			if _, soldErr := s.products.MarkSold(ctx, productID); soldErr != nil {
				s.logg.Error(ctx, "mark product sold failed", soldErr)
				s.metrics.IncBookkeepingFailure("product_mark_sold")
				problems = multierr.Append(problems, soldErr)
			}
		}

		if intent.DeliveryMethod == enums.DeliveryMethodPickup.String() && intent.PickupCode != "" && order != nil {
			if pickupErr := s.insertPickupCode(ctx, intent, order); pickupErr != nil {
				s.logg.Error(ctx, "insert pickup code failed", pickupErr)
				s.metrics.IncBookkeepingFailure("pickup_code_insert")
				problems = multierr.Append(problems, pickupErr)
			}
		}
	}

	if problems != nil {
		s.logg.Error(ctx, "settlement bookkeeping incomplete", problems)
	}
	s.metrics.IncEventSettled("checkout.session.completed")
}

func (s *Service) handleExpired(ctx context.Context, sess *stripe.CheckoutSession) {
	ctx = s.logg.WithSessionID(ctx, sess.ID)
	if err := s.products.ReleaseReservationBySession(ctx, sess.ID); err != nil {
		s.logg.Error(ctx, "release reservation for expired session failed", err)
		s.metrics.IncBookkeepingFailure("reservation_release")
	}
	s.metrics.IncEventSettled("checkout.session.expired")
}

func (s *Service) insertPickupCode(ctx context.Context, intent *checkout.OrderIntent, order *models.Order) error {
	row := &models.PickupCode{
		Code:          intent.PickupCode,
		OrderID:       order.ID,
		CustomerName:  intent.CustomerName,
		CustomerEmail: intent.CustomerEmail,
		ProductTitle:  intent.ProductTitle,
		ProductSize:   intent.ProductSize,
		IsActive:      true,
	}
	if productID, err := uuid.Parse(intent.ProductID); err == nil {
		row.ProductID = &productID
	}

	_, err := s.pickupCodes.Create(ctx, row)
	if db.IsUniqueViolation(err) {
		// Replayed event; the code already exists.
		return nil
	}
	return err
}

func orderFromIntent(intent *checkout.OrderIntent, sessionID string, paymentIntentID *string, paidAt time.Time) *models.Order {
	order := &models.Order{
		StripeSessionID:        sessionID,
		StripePaymentIntentID:  paymentIntentID,
		Status:                 enums.OrderStatusPaid,
		DeliveryMethod:         enums.DeliveryMethodShipping,
		CustomerName:           intent.CustomerName,
		CustomerEmail:          intent.CustomerEmail,
		ShippingAddress:        intent.ShippingAddress,
		ShippingCity:           intent.ShippingCity,
		ShippingPostalCode:     intent.ShippingPostalCode,
		ShippingCountry:        intent.ShippingCountry,
		OriginalPrice:          parsePrice(intent.OriginalPrice),
		ProductDiscountPercent: intent.ProductDiscountPercent,
		DiscountCodeAmount:     parsePrice(intent.DiscountCodeAmount),
		FinalPrice:             parsePrice(intent.FinalPrice),
		ProductTitle:           intent.ProductTitle,
		ProductSize:            intent.ProductSize,
		PaidAt:                 &paidAt,
	}
	if method, err := enums.ParseDeliveryMethod(intent.DeliveryMethod); err == nil {
		order.DeliveryMethod = method
	}
	if productID, err := uuid.Parse(intent.ProductID); err == nil {
		order.ProductID = &productID
	}
	if intent.ProductImage != "" {
		image := intent.ProductImage
		order.ProductImage = &image
	}
	if intent.DiscountCode != "" {
		code := intent.DiscountCode
		order.DiscountCode = &code
		if intent.DiscountCodeType != "" {
			codeType := intent.DiscountCodeType
			order.DiscountCodeType = &codeType
		}
		if value, err := decimal.NewFromString(intent.DiscountCodeValue); err == nil {
			order.DiscountCodeValue = &value
		}
	}
	if intent.PickupCode != "" {
		pickupCode := intent.PickupCode
		order.PickupCode = &pickupCode
	}
	return order
}

func parsePrice(raw string) decimal.Decimal {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}
