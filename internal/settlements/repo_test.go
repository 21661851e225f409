package settlements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

func setupSettlementsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:settlements_repo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  subtotal_paise INTEGER NOT NULL,
  platform_fee_paise INTEGER NOT NULL DEFAULT 0,
  delivery_fee_paise INTEGER NOT NULL DEFAULT 0,
  tax_paise INTEGER NOT NULL DEFAULT 0,
  total_paise INTEGER NOT NULL,
  refund_paise INTEGER,
  settlement_batch_id TEXT,
  cancellation_reason TEXT,
  status_before_dispute TEXT,
  confirmed_at DATETIME,
  activated_at DATETIME,
  completed_at DATETIME,
  cancelled_at DATETIME,
  disputed_at DATETIME,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS settlement_batches (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  period_start DATETIME NOT NULL,
  period_end DATETIME NOT NULL,
  order_count INTEGER NOT NULL,
  gross_paise INTEGER NOT NULL,
  platform_fee_paise INTEGER NOT NULL,
  tds_paise INTEGER NOT NULL,
  adjustments_paise INTEGER NOT NULL DEFAULT 0,
  net_paise INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_ref TEXT,
  paid_at DATETIME,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);`}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func insertTestBatch(t *testing.T, repo Repository, vendorID uuid.UUID, createdAt time.Time) *models.SettlementBatch {
	t.Helper()
	batch := &models.SettlementBatch{
		ID:               uuid.New(),
		VendorID:         vendorID,
		PeriodStart:      createdAt.AddDate(0, 0, -7),
		PeriodEnd:        createdAt,
		OrderCount:       1,
		GrossPaise:       100_000,
		PlatformFeePaise: 3_000,
		TDSPaise:         970,
		NetPaise:         96_030,
		Status:           enums.SettlementBatchStatusPending,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
	_, err := repo.CreateBatch(context.Background(), batch)
	require.NoError(t, err)
	return batch
}

func insertSettlementOrder(t *testing.T, db *gorm.DB, completedAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		BuyerID:       uuid.New(),
		Type:          enums.OrderTypeMaterial,
		Status:        enums.OrderStatusCompleted,
		PaymentStatus: enums.PaymentStatusPaid,
		SubtotalPaise: 100_000,
		TotalPaise:    100_000,
		CompletedAt:   &completedAt,
		CreatedAt:     completedAt,
		UpdatedAt:     completedAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepository_CreateAndFindBatch(t *testing.T) {
	db := setupSettlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC)

	batch := insertTestBatch(t, repo, uuid.New(), base)

	found, err := repo.FindBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.VendorID, found.VendorID)
	assert.Equal(t, int64(96_030), found.NetPaise)
	assert.Equal(t, enums.SettlementBatchStatusPending, found.Status)
}

func TestRepository_StampOrdersIsWriteOnce(t *testing.T) {
	db := setupSettlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 7, 9, 0, 0, 0, 0, time.UTC)

	first := insertSettlementOrder(t, db, base)
	second := insertSettlementOrder(t, db, base)
	batch := insertTestBatch(t, repo, uuid.New(), base)

	stamped, err := repo.StampOrders(ctx, batch.ID, []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stamped)

	// A second build racing on the same members stamps nothing.
	rival := insertTestBatch(t, repo, uuid.New(), base.Add(time.Hour))
	stamped, err = repo.StampOrders(ctx, rival.ID, []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stamped)

	var found models.Order
	require.NoError(t, db.Where("id = ?", first.ID).First(&found).Error)
	require.NotNil(t, found.SettlementBatchID)
	assert.Equal(t, batch.ID, *found.SettlementBatchID)
}

func TestRepository_ListVendorBatchesPeriodFilter(t *testing.T) {
	db := setupSettlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	vendorID := uuid.New()

	recent := insertTestBatch(t, repo, vendorID, base)
	insertTestBatch(t, repo, vendorID, base.AddDate(0, 0, -14))

	page, err := repo.ListVendorBatches(ctx, vendorID, pagination.Params{},
		BatchFilters{PeriodStart: &recent.PeriodStart, PeriodEnd: &recent.PeriodEnd})
	require.NoError(t, err)
	require.Len(t, page.Batches, 1)
	assert.Equal(t, recent.ID, page.Batches[0].ID)

	// A window before every batch matches nothing.
	before := recent.PeriodStart.AddDate(0, -2, 0)
	beforeEnd := before.AddDate(0, 0, 7)
	empty, err := repo.ListVendorBatches(ctx, vendorID, pagination.Params{},
		BatchFilters{PeriodStart: &before, PeriodEnd: &beforeEnd})
	require.NoError(t, err)
	assert.Empty(t, empty.Batches)
}

func TestRepository_UpdateBatch(t *testing.T) {
	db := setupSettlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC)

	batch := insertTestBatch(t, repo, uuid.New(), base)

	require.NoError(t, repo.UpdateBatch(ctx, batch.ID, map[string]any{
		"status":      enums.SettlementBatchStatusPaid,
		"payment_ref": "UTR-2026-000456",
	}))

	found, err := repo.FindBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SettlementBatchStatusPaid, found.Status)
	require.NotNil(t, found.PaymentRef)
	assert.Equal(t, "UTR-2026-000456", *found.PaymentRef)
}

func TestRepository_ListVendorBatchesPagination(t *testing.T) {
	db := setupSettlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC)
	vendorID := uuid.New()

	for i := 0; i < 3; i++ {
		insertTestBatch(t, repo, vendorID, base.Add(time.Duration(i)*time.Hour))
	}
	insertTestBatch(t, repo, uuid.New(), base)

	page, err := repo.ListVendorBatches(ctx, vendorID, pagination.Params{Limit: 2}, BatchFilters{})
	require.NoError(t, err)
	require.Len(t, page.Batches, 2)
	require.NotEmpty(t, page.NextCursor)
	// Newest first.
	assert.True(t, page.Batches[0].CreatedAt.After(page.Batches[1].CreatedAt))

	rest, err := repo.ListVendorBatches(ctx, vendorID, pagination.Params{Limit: 2, Cursor: page.NextCursor}, BatchFilters{})
	require.NoError(t, err)
	require.Len(t, rest.Batches, 1)
	assert.Empty(t, rest.NextCursor)
}
