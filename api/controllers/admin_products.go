package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karinvintage/vintagecloset-backend/api/responses"
	"github.com/karinvintage/vintagecloset-backend/api/validators"
	"github.com/karinvintage/vintagecloset-backend/internal/catalog"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
)

// AdminProductCreate adds a listing to the catalog.
func AdminProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload adminProductCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(*product))
	}
}

// AdminProductUpdate edits a listing. Absent fields stay untouched.
func AdminProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminProductUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

// AdminProductDelete removes a listing.
func AdminProductDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type adminProductCreateRequest struct {
	Slug            string   `json:"slug,omitempty"`
	Title           string   `json:"title" validate:"required"`
	Description     *string  `json:"description,omitempty"`
	Price           string   `json:"price" validate:"required"`
	DiscountPercent int      `json:"discount_percent" validate:"min=0,max=100"`
	Size            string   `json:"size" validate:"required"`
	Category        string   `json:"category" validate:"required"`
	Gender          string   `json:"gender,omitempty"`
	Era             *string  `json:"era,omitempty"`
	ImageURLs       []string `json:"image_urls,omitempty"`
}

func (req adminProductCreateRequest) toInput() (catalog.CreateProductInput, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}

	gender := enums.ProductGenderUnisex
	if req.Gender != "" {
		gender, err = enums.ParseProductGender(req.Gender)
		if err != nil {
			return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gender")
		}
	}

	return catalog.CreateProductInput{
		Slug:            req.Slug,
		Title:           req.Title,
		Description:     req.Description,
		Price:           price,
		DiscountPercent: req.DiscountPercent,
		Size:            req.Size,
		Category:        req.Category,
		Gender:          gender,
		Era:             req.Era,
		ImageURLs:       req.ImageURLs,
	}, nil
}

type adminProductUpdateRequest struct {
	Title           *string  `json:"title,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Price           *string  `json:"price,omitempty"`
	DiscountPercent *int     `json:"discount_percent,omitempty" validate:"omitempty,min=0,max=100"`
	Size            *string  `json:"size,omitempty"`
	Category        *string  `json:"category,omitempty"`
	Gender          *string  `json:"gender,omitempty"`
	Era             *string  `json:"era,omitempty"`
	ImageURLs       []string `json:"image_urls,omitempty"`
}

func (req adminProductUpdateRequest) toInput() (catalog.UpdateProductInput, error) {
	input := catalog.UpdateProductInput{
		Title:           req.Title,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		Size:            req.Size,
		Category:        req.Category,
		Era:             req.Era,
		ImageURLs:       req.ImageURLs,
	}

	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			return catalog.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}
	if req.Gender != nil {
		gender, err := enums.ParseProductGender(*req.Gender)
		if err != nil {
			return catalog.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gender")
		}
		input.Gender = &gender
	}

	return input, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id")
	}
	return id, nil
}
