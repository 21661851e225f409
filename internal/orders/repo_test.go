package orders

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

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:orders_repo?mode=memory&cache=shared"), &gorm.Config{})
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
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit TEXT NOT NULL DEFAULT 'unit',
  unit_price_paise INTEGER NOT NULL,
  total_paise INTEGER NOT NULL,
  created_at DATETIME NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS vendor_offers (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'offered',
  expires_at DATETIME NOT NULL,
  rejection_reason TEXT,
  verification_method TEXT,
  verification_ref TEXT,
  accepted_at DATETIME,
  expiry_notified_at DATETIME,
  rejected_at DATETIME,
  ready_at DATETIME,
  delivered_at DATETIME,
  completed_at DATETIME,
  withdrawn_at DATETIME,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);`}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func insertTestOrder(t *testing.T, repo Repository, buyerID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		Type:          enums.OrderTypeMaterial,
		Status:        status,
		PaymentStatus: enums.PaymentStatusUnpaid,
		SubtotalPaise: 100_000,
		TotalPaise:    100_000,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	_, err := repo.CreateOrder(context.Background(), order)
	require.NoError(t, err)
	return order
}

func TestRepository_CreateAndFindOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := &models.Order{
		ID:            uuid.New(),
		BuyerID:       uuid.New(),
		Type:          enums.OrderTypeMaterial,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
		SubtotalPaise: 500_000,
		TotalPaise:    515_000,
		Items: []models.OrderItem{
			{ID: uuid.New(), Name: "TMT bars", Qty: 50, Unit: "rod", UnitPricePaise: 10_000, TotalPaise: 500_000},
		},
	}

	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.BuyerID, found.BuyerID)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "TMT bars", found.Items[0].Name)
}

func TestRepository_FindOrderNotFound(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_UpdateOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertTestOrder(t, repo, uuid.New(), enums.OrderStatusPending, time.Now().UTC())

	now := time.Now().UTC()
	err := repo.UpdateOrder(ctx, order.ID, map[string]any{
		"status":       enums.OrderStatusConfirmed,
		"confirmed_at": now,
	})
	require.NoError(t, err)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, found.Status)
	require.NotNil(t, found.ConfirmedAt)
}

func TestRepository_FindOfferInStatuses(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertTestOrder(t, repo, uuid.New(), enums.OrderStatusConfirmed, time.Now().UTC())
	accepted := models.VendorOffer{
		ID:        uuid.New(),
		OrderID:   order.ID,
		VendorID:  uuid.New(),
		Status:    enums.VendorOfferStatusAccepted,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	withdrawn := models.VendorOffer{
		ID:        uuid.New(),
		OrderID:   order.ID,
		VendorID:  uuid.New(),
		Status:    enums.VendorOfferStatusWithdrawn,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(&accepted).Error)
	require.NoError(t, db.Create(&withdrawn).Error)

	found, err := repo.FindOfferInStatuses(ctx, order.ID, enums.VendorOfferStatusAccepted, enums.VendorOfferStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, accepted.ID, found.ID)

	_, err = repo.FindOfferInStatuses(ctx, order.ID, enums.VendorOfferStatusCompleted)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ListBuyerOrdersPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		insertTestOrder(t, repo, buyerID, enums.OrderStatusPending, base.Add(time.Duration(i)*time.Minute))
	}
	insertTestOrder(t, repo, uuid.New(), enums.OrderStatusPending, base)

	first, err := repo.ListBuyerOrders(ctx, buyerID, pagination.Params{Limit: 2}, BuyerOrderFilters{})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListBuyerOrders(ctx, buyerID, pagination.Params{Limit: 2, Cursor: first.NextCursor}, BuyerOrderFilters{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Empty(t, second.NextCursor)
}

func TestRepository_ListBuyerOrdersStatusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	insertTestOrder(t, repo, buyerID, enums.OrderStatusPending, time.Now().UTC())
	completed := insertTestOrder(t, repo, buyerID, enums.OrderStatusCompleted, time.Now().UTC())

	status := enums.OrderStatusCompleted
	list, err := repo.ListBuyerOrders(ctx, buyerID, pagination.Params{}, BuyerOrderFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, completed.ID, list.Orders[0].ID)
}
