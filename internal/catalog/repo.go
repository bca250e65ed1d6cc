package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
)

// ListFilters narrows the public product listing.
type ListFilters struct {
	Gender      *enums.ProductGender
	Category    *string
	IncludeSold bool
}

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product by its URL slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products newest first, optionally filtered.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	qb := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.Gender != nil {
		qb = qb.Where("gender = ?", *filters.Gender)
	}
	if filters.Category != nil {
		qb = qb.Where("category = ?", *filters.Category)
	}
	if !filters.IncludeSold {
		qb = qb.Where("is_sold = ?", false)
	}

	var rows []models.Product
	err := qb.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves an existing product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// ClaimForCheckout reserves the product for one checkout attempt using a
// conditional update. A claim succeeds only when the product is unsold and
// either unreserved or held by a reservation older than the TTL. Zero affected
// rows means another checkout holds the item, and the specific reason is
// re-read afterwards purely for the error message.
func (r *Repository) ClaimForCheckout(ctx context.Context, id uuid.UUID, token string, now time.Time, ttl time.Duration) error {
	cutoff := now.Add(-ttl)
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_sold = ?", id, false).
		Where("reserved_token IS NULL OR reserved_at IS NULL OR reserved_at < ?", cutoff).
		Updates(map[string]any{
			"reserved_token":      token,
			"reserved_session_id": nil,
			"reserved_at":         now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	product, err := r.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return err
	}
	if product.IsSold {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "product has already been sold")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "product is currently reserved by another checkout")
}

// AttachSessionToReservation ties the claim to the Stripe session once it
// exists, so settlement and expiry events can find the reservation.
func (r *Repository) AttachSessionToReservation(ctx context.Context, id uuid.UUID, token string, sessionID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND reserved_token = ?", id, token).
		Update("reserved_session_id", sessionID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "reservation no longer held")
	}
	return nil
}

// ReleaseReservationByToken frees a claim that never reached Stripe.
func (r *Repository) ReleaseReservationByToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND reserved_token = ?", id, token).
		Updates(map[string]any{
			"reserved_token":      nil,
			"reserved_session_id": nil,
			"reserved_at":         nil,
		}).Error
}

// ReleaseReservationBySession frees the claim held by an expired Stripe
// session. Sold products are left untouched.
func (r *Repository) ReleaseReservationBySession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("reserved_session_id = ? AND is_sold = ?", sessionID, false).
		Updates(map[string]any{
			"reserved_token":      nil,
			"reserved_session_id": nil,
			"reserved_at":         nil,
		}).Error
}

// ReleaseExpiredReservations clears unsold reservations older than the cutoff
// and reports how many were freed.
func (r *Repository) ReleaseExpiredReservations(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("reserved_token IS NOT NULL AND reserved_at < ? AND is_sold = ?", cutoff, false).
		Updates(map[string]any{
			"reserved_token":      nil,
			"reserved_session_id": nil,
			"reserved_at":         nil,
		})
	return res.RowsAffected, res.Error
}

// MarkSold flips the sold flag exactly once. The returned bool reports whether
// this call performed the transition; marking an already-sold product is a
// no-op so webhook re-deliveries stay harmless.
func (r *Repository) MarkSold(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_sold = ?", id, false).
		Updates(map[string]any{
			"is_sold":             true,
			"reserved_token":      nil,
			"reserved_session_id": nil,
			"reserved_at":         nil,
		})
	return res.RowsAffected > 0, res.Error
}
