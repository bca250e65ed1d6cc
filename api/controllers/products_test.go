package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karinvintage/vintagecloset-backend/internal/catalog"
	"github.com/karinvintage/vintagecloset-backend/internal/testdb"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "api-test", Output: io.Discard})
}

func newCatalogService(t *testing.T) (catalog.Service, *gorm.DB) {
	t.Helper()
	db := testdb.Open(t)
	svc, err := catalog.NewService(catalog.NewRepository(db), testLogger())
	if err != nil {
		t.Fatalf("new catalog service: %v", err)
	}
	return svc, db
}

func seedListing(t *testing.T, db *gorm.DB, slug string, sold bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Slug:     slug,
		Title:    "Suede Jacket",
		Price:    decimal.NewFromInt(85),
		Size:     "L",
		Category: "jackets",
		Gender:   enums.ProductGenderMen,
		IsSold:   sold,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestProductListHidesSoldByDefault(t *testing.T) {
	t.Parallel()

	svc, db := newCatalogService(t)
	seedListing(t, db, "available-jacket", false)
	seedListing(t, db, "sold-jacket", true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	ProductList(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data []productResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Slug != "available-jacket" {
		t.Fatalf("unexpected listings %+v", envelope.Data)
	}
}

func TestProductListRejectsUnknownGender(t *testing.T) {
	t.Parallel()

	svc, _ := newCatalogService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?gender=robot", nil)
	rec := httptest.NewRecorder()
	ProductList(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProductBySlug(t *testing.T) {
	t.Parallel()

	svc, db := newCatalogService(t)
	seedListing(t, db, "suede-jacket", false)

	router := chi.NewRouter()
	router.Get("/api/v1/products/{slug}", ProductBySlug(svc, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/suede-jacket", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data productResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Title != "Suede Jacket" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
	if envelope.Data.Price != "85.00" {
		t.Fatalf("price must serialize with two decimals, got %q", envelope.Data.Price)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/missing-slug", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown slug, got %d", rec.Code)
	}
}
