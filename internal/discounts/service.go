package discounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
)

// Evaluation is the outcome of validating a discount code against a product
// and a price. When Valid is false, Reason carries a customer-facing message.
type Evaluation struct {
	Valid  bool
	Type   enums.DiscountType
	Value  decimal.Decimal
	Reason string
}

// Service validates and consumes discount codes.
type Service interface {
	// Validate checks a code against the eligibility rules in fixed order and
	// reports the first violated rule. Validation never mutates state.
	Validate(ctx context.Context, code string, productID uuid.UUID, price decimal.Decimal) (*Evaluation, error)
	// Consume records one use of the code. Callers invoke it only after the
	// payment session exists and treat failures as best-effort.
	Consume(ctx context.Context, code string) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the discount code evaluator.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func invalid(reason string) *Evaluation {
	return &Evaluation{Valid: false, Reason: reason}
}

func (s *service) Validate(ctx context.Context, code string, productID uuid.UUID, price decimal.Decimal) (*Evaluation, error) {
	if NormalizeCode(code) == "" {
		return invalid("discount code not found"), nil
	}

	row, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid("discount code not found"), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}

	now := s.now()
	switch {
	case !row.IsActive:
		return invalid("discount code is inactive"), nil
	case now.Before(row.StartsAt):
		return invalid("discount code is not yet active"), nil
	case row.ExpiresAt != nil && !now.Before(*row.ExpiresAt):
		return invalid("discount code has expired"), nil
	case row.UsageExhausted():
		return invalid("discount code usage limit reached"), nil
	case row.AppliesTo == enums.DiscountScopeSpecific && !row.ProductIDs.Contains(productID):
		return invalid("discount code is not valid for this product"), nil
	case row.MinOrderValue != nil && price.LessThan(*row.MinOrderValue):
		return invalid(fmt.Sprintf("order must be at least %s to use this discount code", row.MinOrderValue.StringFixed(2))), nil
	}

	return &Evaluation{Valid: true, Type: row.Type, Value: row.Value}, nil
}

func (s *service) Consume(ctx context.Context, code string) error {
	if err := s.repo.Consume(ctx, code); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "discount_code", NormalizeCode(code)), "discount code consumed")
	return nil
}

// Amount computes the money value of a validated discount against a price.
// A percentage yields price*value/100 rounded to cents; a fixed amount is
// capped at the price so the payable total never goes negative.
func Amount(discountType enums.DiscountType, value, price decimal.Decimal) decimal.Decimal {
	switch discountType {
	case enums.DiscountTypePercentage:
		return price.Mul(value).Div(decimal.NewFromInt(100)).Round(2)
	case enums.DiscountTypeFixed:
		if value.GreaterThan(price) {
			return price
		}
		return value
	default:
		return decimal.Zero
	}
}
