package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karinvintage/vintagecloset-backend/api/responses"
	"github.com/karinvintage/vintagecloset-backend/api/validators"
	"github.com/karinvintage/vintagecloset-backend/internal/discounts"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	dbtypes "github.com/karinvintage/vintagecloset-backend/pkg/db/types"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
)

// AdminDiscountCodeList returns every code with its usage counters.
func AdminDiscountCodeList(repo *discounts.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts repository unavailable"))
			return
		}

		codes, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]discountCodeResponse, 0, len(codes))
		for _, code := range codes {
			out = append(out, newDiscountCodeResponse(code))
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminDiscountCodeCreate registers a new promotional code.
func AdminDiscountCodeCreate(repo *discounts.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts repository unavailable"))
			return
		}

		var payload adminDiscountCodeCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := payload.toModel()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := repo.Create(r.Context(), row)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newDiscountCodeResponse(*created))
	}
}

// AdminDiscountCodeUpdate edits an existing code in place.
func AdminDiscountCodeUpdate(repo *discounts.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts repository unavailable"))
			return
		}

		id, err := pathUUID(r, "codeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "discount code not found"))
			return
		}

		var payload adminDiscountCodeUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := payload.apply(row); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := repo.Update(r.Context(), row)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDiscountCodeResponse(*updated))
	}
}

// AdminDiscountCodeDelete removes a code.
func AdminDiscountCodeDelete(repo *discounts.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts repository unavailable"))
			return
		}

		id, err := pathUUID(r, "codeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := repo.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type adminDiscountCodeCreateRequest struct {
	Code          string      `json:"code" validate:"required"`
	Description   *string     `json:"description,omitempty"`
	Type          string      `json:"type" validate:"required,oneof=percentage fixed"`
	Value         string      `json:"value" validate:"required"`
	UsageLimit    *int        `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	AppliesTo     string      `json:"applies_to,omitempty"`
	ProductIDs    []uuid.UUID `json:"product_ids,omitempty"`
	MinOrderValue *string     `json:"min_order_value,omitempty"`
	IsActive      *bool       `json:"is_active,omitempty"`
	StartsAt      time.Time   `json:"starts_at" validate:"required"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
}

func (req adminDiscountCodeCreateRequest) toModel() (*models.DiscountCode, error) {
	discountType, err := enums.ParseDiscountType(req.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid value")
	}
	if value.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be positive")
	}
	if discountType == enums.DiscountTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage value cannot exceed 100")
	}

	scope := enums.DiscountScopeAll
	if req.AppliesTo != "" {
		scope, err = enums.ParseDiscountScope(req.AppliesTo)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scope")
		}
	}
	if scope == enums.DiscountScopeSpecific && len(req.ProductIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ids are required for a product-scoped code")
	}

	row := &models.DiscountCode{
		Code:        req.Code,
		Description: req.Description,
		Type:        discountType,
		Value:       value,
		UsageLimit:  req.UsageLimit,
		AppliesTo:   scope,
		ProductIDs:  dbtypes.UUIDArray(req.ProductIDs),
		IsActive:    true,
		StartsAt:    req.StartsAt,
		ExpiresAt:   req.ExpiresAt,
	}
	if req.IsActive != nil {
		row.IsActive = *req.IsActive
	}
	if req.MinOrderValue != nil {
		minValue, err := decimal.NewFromString(*req.MinOrderValue)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid minimum order value")
		}
		row.MinOrderValue = &minValue
	}
	return row, nil
}

type adminDiscountCodeUpdateRequest struct {
	Description   *string     `json:"description,omitempty"`
	UsageLimit    *int        `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	ProductIDs    []uuid.UUID `json:"product_ids,omitempty"`
	MinOrderValue *string     `json:"min_order_value,omitempty"`
	IsActive      *bool       `json:"is_active,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
}

func (req adminDiscountCodeUpdateRequest) apply(row *models.DiscountCode) error {
	if req.Description != nil {
		row.Description = req.Description
	}
	if req.UsageLimit != nil {
		row.UsageLimit = req.UsageLimit
	}
	if req.ProductIDs != nil {
		row.ProductIDs = dbtypes.UUIDArray(req.ProductIDs)
	}
	if req.MinOrderValue != nil {
		minValue, err := decimal.NewFromString(*req.MinOrderValue)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid minimum order value")
		}
		row.MinOrderValue = &minValue
	}
	if req.IsActive != nil {
		row.IsActive = *req.IsActive
	}
	if req.ExpiresAt != nil {
		row.ExpiresAt = req.ExpiresAt
	}
	return nil
}

type discountCodeResponse struct {
	ID            uuid.UUID   `json:"id"`
	Code          string      `json:"code"`
	Description   *string     `json:"description,omitempty"`
	Type          string      `json:"type"`
	Value         string      `json:"value"`
	UsageLimit    *int        `json:"usage_limit,omitempty"`
	UsageCount    int         `json:"usage_count"`
	AppliesTo     string      `json:"applies_to"`
	ProductIDs    []uuid.UUID `json:"product_ids"`
	MinOrderValue *string     `json:"min_order_value,omitempty"`
	IsActive      bool        `json:"is_active"`
	StartsAt      time.Time   `json:"starts_at"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

func newDiscountCodeResponse(row models.DiscountCode) discountCodeResponse {
	resp := discountCodeResponse{
		ID:          row.ID,
		Code:        row.Code,
		Description: row.Description,
		Type:        row.Type.String(),
		Value:       formatPrice(row.Value),
		UsageLimit:  row.UsageLimit,
		UsageCount:  row.UsageCount,
		AppliesTo:   row.AppliesTo.String(),
		ProductIDs:  []uuid.UUID(row.ProductIDs),
		IsActive:    row.IsActive,
		StartsAt:    row.StartsAt,
		ExpiresAt:   row.ExpiresAt,
		CreatedAt:   row.CreatedAt,
	}
	if resp.ProductIDs == nil {
		resp.ProductIDs = []uuid.UUID{}
	}
	if row.MinOrderValue != nil {
		formatted := formatPrice(*row.MinOrderValue)
		resp.MinOrderValue = &formatted
	}
	return resp
}
