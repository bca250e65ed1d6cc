package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
)

// ListFilters narrows the admin order listing.
type ListFilters struct {
	Status *enums.OrderStatus
}

// Repository wires together order persistence helpers.
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

// Create inserts a new order row.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByStripeSessionID loads the order created for a Stripe checkout session.
func (r *Repository) FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "stripe_session_id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid transitions a pending order to paid and attaches the payment
// intent. The conditional WHERE keeps webhook re-deliveries idempotent: an
// order already paid matches no row and the update is a no-op. The returned
// bool reports whether this call performed the transition.
func (r *Repository) MarkPaid(ctx context.Context, sessionID string, paymentIntentID *string, paidAt time.Time) (bool, error) {
	updates := map[string]any{
		"status":  enums.OrderStatusPaid,
		"paid_at": paidAt,
	}
	if paymentIntentID != nil {
		updates["stripe_payment_intent_id"] = *paymentIntentID
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("stripe_session_id = ? AND status = ?", sessionID, enums.OrderStatusPending).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// UpdateStatus writes a new status. Transition rules live in the service.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

// List returns orders newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Order, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{})
	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}

	var rows []models.Order
	err := qb.Order("created_at DESC").Find(&rows).Error
	return rows, err
}
