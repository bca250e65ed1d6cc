package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karinvintage/vintagecloset-backend/api/responses"
	"github.com/karinvintage/vintagecloset-backend/internal/catalog"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
)

// ProductList serves the public catalog. Sold items are hidden unless
// include_sold=true is requested.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filters, err := listFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]productResponse, 0, len(products))
		for _, p := range products {
			out = append(out, newProductResponse(p))
		}
		responses.WriteSuccess(w, out)
	}
}

// ProductBySlug serves a single listing by its URL slug.
func ProductBySlug(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required"))
			return
		}

		product, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

func listFiltersFromQuery(r *http.Request) (catalog.ListFilters, error) {
	filters := catalog.ListFilters{}
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("gender")); raw != "" {
		gender, err := enums.ParseProductGender(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gender filter")
		}
		filters.Gender = &gender
	}
	if raw := strings.TrimSpace(query.Get("category")); raw != "" {
		category := strings.ToLower(raw)
		filters.Category = &category
	}
	filters.IncludeSold = query.Get("include_sold") == "true"

	return filters, nil
}

type productResponse struct {
	ID                 uuid.UUID `json:"id"`
	Slug               string    `json:"slug"`
	Title              string    `json:"title"`
	Description        *string   `json:"description,omitempty"`
	Price              string    `json:"price"`
	DiscountPercent    int       `json:"discount_percent"`
	PriceAfterDiscount string    `json:"price_after_discount"`
	Size               string    `json:"size"`
	Category           string    `json:"category"`
	Gender             string    `json:"gender"`
	Era                *string   `json:"era,omitempty"`
	ImageURLs          []string  `json:"image_urls"`
	IsSold             bool      `json:"is_sold"`
	CreatedAt          time.Time `json:"created_at"`
}

func newProductResponse(p models.Product) productResponse {
	images := make([]string, 0, len(p.ImageURLs))
	images = append(images, p.ImageURLs...)
	return productResponse{
		ID:                 p.ID,
		Slug:               p.Slug,
		Title:              p.Title,
		Description:        p.Description,
		Price:              formatPrice(p.Price),
		DiscountPercent:    p.DiscountPercent,
		PriceAfterDiscount: formatPrice(p.PriceAfterDiscount()),
		Size:               p.Size,
		Category:           p.Category,
		Gender:             p.Gender.String(),
		Era:                p.Era,
		ImageURLs:          images,
		IsSold:             p.IsSold,
		CreatedAt:          p.CreatedAt,
	}
}

func formatPrice(value decimal.Decimal) string {
	return value.StringFixed(2)
}
