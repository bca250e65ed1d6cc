package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karinvintage/vintagecloset-backend/internal/pickup"
	"github.com/karinvintage/vintagecloset-backend/internal/testdb"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
)

func TestAdminPickupCodeRedeemOnce(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t)
	repo := pickup.NewRepository(db)
	if _, err := repo.Create(context.Background(), &models.PickupCode{
		ID:            uuid.New(),
		Code:          "KJ7M2P4Q",
		OrderID:       uuid.New(),
		CustomerName:  "Ada Kunde",
		CustomerEmail: "ada@example.com",
		ProductTitle:  "Wool Coat",
		ProductSize:   "M",
		IsActive:      true,
	}); err != nil {
		t.Fatalf("seed pickup code: %v", err)
	}

	router := chi.NewRouter()
	router.Post("/api/admin/v1/pickup-codes/{code}/redeem", AdminPickupCodeRedeem(repo, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/pickup-codes/KJ7M2P4Q/redeem", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	// A second redemption attempt must hit the one-shot guard.
	req = httptest.NewRequest(http.MethodPost, "/api/admin/v1/pickup-codes/KJ7M2P4Q/redeem", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 on replay, got %d (%s)", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/v1/pickup-codes/UNKNOWN1/redeem", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", rec.Code)
	}
}
