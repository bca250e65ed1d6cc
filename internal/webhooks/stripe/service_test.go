package stripewebhook

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/karinvintage/vintagecloset-backend/internal/catalog"
	"github.com/karinvintage/vintagecloset-backend/internal/checkout"
	"github.com/karinvintage/vintagecloset-backend/internal/orders"
	"github.com/karinvintage/vintagecloset-backend/internal/pickup"
	"github.com/karinvintage/vintagecloset-backend/internal/testdb"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
)

type settlementFixture struct {
	svc     *Service
	db      *gorm.DB
	catalog *catalog.Repository
	orders  *orders.Repository
	pickup  *pickup.Repository
}

func newSettlementFixture(t *testing.T, guard *IdempotencyGuard) *settlementFixture {
	t.Helper()

	db := testdb.Open(t)
	logg := logger.New(logger.Options{ServiceName: "settlement-test", Output: io.Discard})
	catalogRepo := catalog.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	pickupRepo := pickup.NewRepository(db)

	svc, err := NewService(ServiceParams{
		Products:    catalogRepo,
		Orders:      orderRepo,
		PickupCodes: pickupRepo,
		Guard:       guard,
		Logger:      logg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &settlementFixture{svc: svc, db: db, catalog: catalogRepo, orders: orderRepo, pickup: pickupRepo}
}

func (f *settlementFixture) seedProduct(t *testing.T) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:        uuid.New(),
		Slug:      "levis-501-" + uuid.NewString()[:8],
		Title:     "Levi's 501 Jeans",
		Price:     decimal.NewFromInt(100),
		Size:      "W32 L34",
		Category:  "jeans",
		Gender:    enums.ProductGenderUnisex,
		ImageURLs: pq.StringArray{},
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *settlementFixture) seedPendingOrder(t *testing.T, product *models.Product, sessionID string) *models.Order {
	t.Helper()

	productID := product.ID
	order := &models.Order{
		ID:                 uuid.New(),
		ProductID:          &productID,
		StripeSessionID:    sessionID,
		Status:             enums.OrderStatusPending,
		DeliveryMethod:     enums.DeliveryMethodShipping,
		CustomerName:       "Ada Kunde",
		CustomerEmail:      "ada@example.com",
		ShippingAddress:    "Hauptstrasse 1",
		ShippingCity:       "Berlin",
		ShippingPostalCode: "10115",
		ShippingCountry:    "DE",
		OriginalPrice:      decimal.NewFromInt(100),
		FinalPrice:         decimal.NewFromInt(90),
		ProductTitle:       product.Title,
		ProductSize:        product.Size,
	}
	if err := f.db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func intentFor(product *models.Product) checkout.OrderIntent {
	return checkout.OrderIntent{
		ProductID:          product.ID.String(),
		ProductSlug:        product.Slug,
		ProductTitle:       product.Title,
		ProductSize:        product.Size,
		OriginalPrice:      "100.00",
		DiscountCodeAmount: "10.00",
		FinalPrice:         "90.00",
		DeliveryMethod:     "shipping",
		CustomerName:       "Ada Kunde",
		CustomerEmail:      "ada@example.com",
		ShippingAddress:    "Hauptstrasse 1",
		ShippingCity:       "Berlin",
		ShippingPostalCode: "10115",
		ShippingCountry:    "DE",
	}
}

func completedEvent(t *testing.T, sessionID string, intent checkout.OrderIntent) *stripe.Event {
	t.Helper()
	return sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, sessionID, intent)
}

func sessionEvent(t *testing.T, eventType stripe.EventType, sessionID string, intent checkout.OrderIntent) *stripe.Event {
	t.Helper()

	metadata, err := intent.EncodeMetadata()
	if err != nil {
		t.Fatalf("encode intent: %v", err)
	}
	raw, err := json.Marshal(map[string]any{
		"id":             sessionID,
		"payment_intent": "pi_test_1",
		"metadata":       metadata,
	})
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestSettlementMarksOrderPaidAndProductSold(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t, nil)
	product := f.seedProduct(t)
	f.seedPendingOrder(t, product, "cs_test_settle")

	event := completedEvent(t, "cs_test_settle", intentFor(product))
	if err := f.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	order, err := f.orders.FindByStripeSessionID(context.Background(), "cs_test_settle")
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if order.Status != enums.OrderStatusPaid {
		t.Fatalf("unexpected status %s", order.Status)
	}
	if order.StripePaymentIntentID == nil || *order.StripePaymentIntentID != "pi_test_1" {
		t.Fatalf("payment intent not attached")
	}

	reloaded, err := f.catalog.FindByID(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if !reloaded.IsSold {
		t.Fatalf("product must be sold after settlement")
	}
}

func TestSettlementRecoversMissingOrderFromMetadata(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t, nil)
	product := f.seedProduct(t)

	event := completedEvent(t, "cs_test_lost", intentFor(product))
	if err := f.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	order, err := f.orders.FindByStripeSessionID(context.Background(), "cs_test_lost")
	if err != nil {
		t.Fatalf("expected recovered order: %v", err)
	}
	if order.Status != enums.OrderStatusPaid {
		t.Fatalf("recovered order must be paid, got %s", order.Status)
	}
	if !order.FinalPrice.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("unexpected final price %s", order.FinalPrice)
	}
	if order.ProductID == nil || *order.ProductID != product.ID {
		t.Fatalf("recovered order must reference the product")
	}
}

func TestSettlementReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t, nil)
	product := f.seedProduct(t)
	f.seedPendingOrder(t, product, "cs_test_replay")

	event := completedEvent(t, "cs_test_replay", intentFor(product))
	for i := 0; i < 2; i++ {
		if err := f.svc.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	var count int64
	if err := f.db.Model(&models.Order{}).Where("stripe_session_id = ?", "cs_test_replay").Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 1 {
		t.Fatalf("replay must not create a second order, got %d", count)
	}
}

func TestSettlementCreatesActivePickupCode(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t, nil)
	product := f.seedProduct(t)
	intent := intentFor(product)
	intent.DeliveryMethod = "pickup"
	intent.PickupCode = "KJ7M2P4Q"
	intent.ShippingAddress = "In-store pickup"

	event := completedEvent(t, "cs_test_pickup", intent)
	// Deliver twice: the second delivery must not duplicate the code.
	for i := 0; i < 2; i++ {
		if err := f.svc.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	order, err := f.orders.FindByStripeSessionID(context.Background(), "cs_test_pickup")
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}

	code, err := f.pickup.FindByCode(context.Background(), "KJ7M2P4Q")
	if err != nil {
		t.Fatalf("expected pickup code row: %v", err)
	}
	if !code.IsActive {
		t.Fatalf("pickup code must be active")
	}
	if code.OrderID != order.ID {
		t.Fatalf("pickup code must reference the order")
	}

	var count int64
	if err := f.db.Model(&models.PickupCode{}).Count(&count).Error; err != nil {
		t.Fatalf("count pickup codes: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one pickup code, got %d", count)
	}
}

func TestExpiredSessionReleasesReservation(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t, nil)
	product := f.seedProduct(t)
	now := time.Now().UTC()
	if err := f.catalog.ClaimForCheckout(context.Background(), product.ID, "tok", now, 30*time.Minute); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := f.catalog.AttachSessionToReservation(context.Background(), product.ID, "tok", "cs_test_expired"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionExpired, "cs_test_expired", intentFor(product))
	if err := f.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	reloaded, err := f.catalog.FindByID(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ReservedToken != nil || reloaded.ReservedSessionID != nil {
		t.Fatalf("reservation must be cleared for an expired session")
	}
}

type stubIdempotencyStore struct {
	keys map[string]bool
}

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (s *stubIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func TestGuardSkipsDuplicateEventIDs(t *testing.T) {
	t.Parallel()

	guard, err := NewIdempotencyGuard(&stubIdempotencyStore{keys: map[string]bool{}}, time.Hour, "stripe")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	f := newSettlementFixture(t, guard)
	product := f.seedProduct(t)

	event := completedEvent(t, "cs_test_guarded", intentFor(product))
	if err := f.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	// Undo the settlement by hand; a second delivery of the same event id
	// must be skipped by the guard and leave this state alone.
	if err := f.db.Model(&models.Order{}).
		Where("stripe_session_id = ?", "cs_test_guarded").
		Update("status", enums.OrderStatusPending).Error; err != nil {
		t.Fatalf("reset order: %v", err)
	}

	if err := f.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	order, err := f.orders.FindByStripeSessionID(context.Background(), "cs_test_guarded")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("guarded replay must not settle again")
	}
}

func TestHandleEventIgnoresUnrelatedTypes(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t, nil)
	event := &stripe.Event{
		ID:   "evt_other",
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := f.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unrelated event must be a no-op, got %v", err)
	}

	if err := f.svc.HandleEvent(context.Background(), nil); err == nil {
		t.Fatalf("nil event must be rejected")
	}
}
