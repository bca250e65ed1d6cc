package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	ordersvc "github.com/karinvintage/vintagecloset-backend/internal/orders"
	"github.com/karinvintage/vintagecloset-backend/internal/testdb"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
)

func newOrdersService(t *testing.T) (ordersvc.Service, *gorm.DB) {
	t.Helper()
	db := testdb.Open(t)
	svc, err := ordersvc.NewService(ordersvc.NewRepository(db), testLogger())
	if err != nil {
		t.Fatalf("new orders service: %v", err)
	}
	return svc, db
}

func seedAdminOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:                 uuid.New(),
		StripeSessionID:    "cs_test_" + uuid.NewString(),
		Status:             status,
		DeliveryMethod:     enums.DeliveryMethodShipping,
		CustomerName:       "Ada Kunde",
		CustomerEmail:      "ada@example.com",
		ShippingAddress:    "Hauptstrasse 1",
		ShippingCity:       "Berlin",
		ShippingPostalCode: "10115",
		ShippingCountry:    "DE",
		OriginalPrice:      decimal.NewFromInt(100),
		FinalPrice:         decimal.NewFromInt(100),
		ProductTitle:       "Wool Coat",
		ProductSize:        "M",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestAdminOrderListFiltersByStatus(t *testing.T) {
	t.Parallel()

	svc, db := newOrdersService(t)
	seedAdminOrder(t, db, enums.OrderStatusPending)
	paid := seedAdminOrder(t, db, enums.OrderStatusPaid)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?status=paid", nil)
	rec := httptest.NewRecorder()
	AdminOrderList(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data []orderResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].ID != paid.ID {
		t.Fatalf("unexpected orders %+v", envelope.Data)
	}
}

func TestAdminOrderListRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	svc, _ := newOrdersService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?status=teleported", nil)
	rec := httptest.NewRecorder()
	AdminOrderList(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func statusRouter(svc ordersvc.Service) http.Handler {
	router := chi.NewRouter()
	router.Patch("/api/admin/v1/orders/{orderID}/status", AdminOrderUpdateStatus(svc, testLogger()))
	return router
}

func TestAdminOrderStatusTransition(t *testing.T) {
	t.Parallel()

	svc, db := newOrdersService(t)
	order := seedAdminOrder(t, db, enums.OrderStatusPaid)
	router := statusRouter(svc)

	req := httptest.NewRequest(
		http.MethodPatch,
		fmt.Sprintf("/api/admin/v1/orders/%s/status", order.ID),
		strings.NewReader(`{"status":"shipped"}`),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != "shipped" {
		t.Fatalf("expected shipped, got %q", envelope.Data.Status)
	}
}

func TestAdminOrderStatusRefusesSettlementTransition(t *testing.T) {
	t.Parallel()

	// pending to paid belongs to the webhook handler, not the admin.
	svc, db := newOrdersService(t)
	order := seedAdminOrder(t, db, enums.OrderStatusPending)
	router := statusRouter(svc)

	req := httptest.NewRequest(
		http.MethodPatch,
		fmt.Sprintf("/api/admin/v1/orders/%s/status", order.ID),
		strings.NewReader(`{"status":"paid"}`),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", rec.Code, rec.Body.String())
	}
}
