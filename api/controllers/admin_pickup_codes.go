package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karinvintage/vintagecloset-backend/api/responses"
	"github.com/karinvintage/vintagecloset-backend/internal/pickup"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
)

// AdminPickupCodeList returns pickup codes for the in-store view.
func AdminPickupCodeList(repo *pickup.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup repository unavailable"))
			return
		}

		codes, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]pickupCodeResponse, 0, len(codes))
		for _, code := range codes {
			out = append(out, newPickupCodeResponse(code))
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminPickupCodeRedeem marks a code as used. A code redeems exactly once;
// replays get a state conflict.
func AdminPickupCodeRedeem(repo *pickup.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup repository unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "pickup code is required"))
			return
		}

		redeemed, err := repo.Redeem(r.Context(), code, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPickupCodeResponse(*redeemed))
	}
}

type pickupCodeResponse struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	OrderID       uuid.UUID  `json:"order_id"`
	ProductID     *uuid.UUID `json:"product_id,omitempty"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	ProductTitle  string     `json:"product_title"`
	ProductSize   string     `json:"product_size"`
	IsActive      bool       `json:"is_active"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func newPickupCodeResponse(row models.PickupCode) pickupCodeResponse {
	return pickupCodeResponse{
		ID:            row.ID,
		Code:          row.Code,
		OrderID:       row.OrderID,
		ProductID:     row.ProductID,
		CustomerName:  row.CustomerName,
		CustomerEmail: row.CustomerEmail,
		ProductTitle:  row.ProductTitle,
		ProductSize:   row.ProductSize,
		IsActive:      row.IsActive,
		RedeemedAt:    row.RedeemedAt,
		CreatedAt:     row.CreatedAt,
	}
}
