package pickup

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
)

// Ambiguous characters are left out so staff can read codes over the counter.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 8

// GenerateCode returns a new random in-store redemption code.
func GenerateCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	var sb strings.Builder
	for _, b := range buf {
		sb.WriteByte(codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return sb.String()
}

// Repository wires together pickup code persistence helpers.
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

// Create inserts a pickup code row.
func (r *Repository) Create(ctx context.Context, row *models.PickupCode) (*models.PickupCode, error) {
	row.Code = strings.ToUpper(strings.TrimSpace(row.Code))
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByCode loads a pickup code by its code string.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.PickupCode, error) {
	var row models.PickupCode
	err := r.db.WithContext(ctx).
		First(&row, "code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByOrderID loads the pickup code issued for an order, if any.
func (r *Repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.PickupCode, error) {
	var row models.PickupCode
	if err := r.db.WithContext(ctx).First(&row, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Redeem deactivates the code exactly once. The conditional update is what
// enforces single redemption: a second attempt matches no row.
func (r *Repository) Redeem(ctx context.Context, code string, now time.Time) (*models.PickupCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	res := r.db.WithContext(ctx).
		Model(&models.PickupCode{}).
		Where("code = ? AND is_active = ?", normalized, true).
		Updates(map[string]any{
			"is_active":   false,
			"redeemed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByCode(ctx, normalized); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup code not found")
			}
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pickup code has already been redeemed")
	}
	return r.FindByCode(ctx, normalized)
}

// List returns pickup codes newest first.
func (r *Repository) List(ctx context.Context) ([]models.PickupCode, error) {
	var rows []models.PickupCode
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}
