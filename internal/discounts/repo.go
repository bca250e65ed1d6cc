package discounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
)

// Repository wires together discount code persistence helpers.
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

// NormalizeCode maps user input to the canonical stored form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FindByCode loads a discount code by its normalized code string.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var row models.DiscountCode
	if err := r.db.WithContext(ctx).First(&row, "code = ?", NormalizeCode(code)).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Consume increments the usage count by one, guarded by the usage limit.
// The WHERE clause makes the increment safe under concurrent checkouts: once
// the limit is reached no further row matches and the update affects nothing.
func (r *Repository) Consume(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("code = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", NormalizeCode(code)).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "discount code usage limit reached")
	}
	return nil
}

// Create inserts a new discount code row. The code string is normalized first.
func (r *Repository) Create(ctx context.Context, row *models.DiscountCode) (*models.DiscountCode, error) {
	row.Code = NormalizeCode(row.Code)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Update saves an existing discount code row.
func (r *Repository) Update(ctx context.Context, row *models.DiscountCode) (*models.DiscountCode, error) {
	row.Code = NormalizeCode(row.Code)
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Delete removes a discount code by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DiscountCode{}).Error
}

// FindByID loads a discount code by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	var row models.DiscountCode
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns all discount codes, newest first.
func (r *Repository) List(ctx context.Context) ([]models.DiscountCode, error) {
	var rows []models.DiscountCode
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}
