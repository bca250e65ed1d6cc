package discounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karinvintage/vintagecloset-backend/internal/testdb"
	dbtypes "github.com/karinvintage/vintagecloset-backend/pkg/db/types"
	"github.com/karinvintage/vintagecloset-backend/pkg/db/models"
	"github.com/karinvintage/vintagecloset-backend/pkg/enums"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
)

func TestFindByCodeNormalizesInput(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t)
	repo := NewRepository(db)
	seedCode(t, db, func(c *models.DiscountCode) { c.Code = "WELCOME" })

	row, err := repo.FindByCode(context.Background(), " welcome ")
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if row.Code != "WELCOME" {
		t.Fatalf("unexpected code %q", row.Code)
	}

	_, err = repo.FindByCode(context.Background(), "missing")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestConsumeIncrementsExactlyOnce(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t)
	repo := NewRepository(db)
	seedCode(t, db, nil)

	if err := repo.Consume(context.Background(), "SAVE10"); err != nil {
		t.Fatalf("consume: %v", err)
	}

	row, err := repo.FindByCode(context.Background(), "SAVE10")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.UsageCount != 1 {
		t.Fatalf("expected usage count 1, got %d", row.UsageCount)
	}
}

func TestConsumeStopsAtUsageLimit(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t)
	repo := NewRepository(db)
	limit := 1
	seedCode(t, db, func(c *models.DiscountCode) { c.UsageLimit = &limit })

	if err := repo.Consume(context.Background(), "SAVE10"); err != nil {
		t.Fatalf("first consume: %v", err)
	}

	err := repo.Consume(context.Background(), "SAVE10")
	if err == nil {
		t.Fatalf("expected second consume to fail")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}

	row, err := repo.FindByCode(context.Background(), "SAVE10")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.UsageCount != 1 {
		t.Fatalf("usage count must stay at the limit, got %d", row.UsageCount)
	}
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t)
	repo := NewRepository(db)
	seedCode(t, db, nil)

	_, err := repo.Create(context.Background(), &models.DiscountCode{
		ID:         uuid.New(),
		Code:       "save10",
		Type:       enums.DiscountTypeFixed,
		Value:      decimal.NewFromInt(5),
		AppliesTo:  enums.DiscountScopeAll,
		ProductIDs: dbtypes.UUIDArray{},
		IsActive:   true,
		StartsAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatalf("expected unique violation for duplicate code")
	}
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t)
	repo := NewRepository(db)
	older := seedCode(t, db, func(c *models.DiscountCode) { c.Code = "OLDER" })
	db.Model(older).UpdateColumn("created_at", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	seedCode(t, db, func(c *models.DiscountCode) { c.Code = "NEWER" })

	rows, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Code != "NEWER" {
		t.Fatalf("expected newest first, got %q", rows[0].Code)
	}
}
