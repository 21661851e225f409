package settlements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

// Repository defines persistence operations for settlement batches and the
// eligibility scan over completed orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindEligibleOrdersForUpdate(ctx context.Context, vendorID uuid.UUID, periodStart, periodEnd time.Time) ([]models.Order, error)
	CreateBatch(ctx context.Context, batch *models.SettlementBatch) (*models.SettlementBatch, error)
	StampOrders(ctx context.Context, batchID uuid.UUID, orderIDs []uuid.UUID) (int64, error)
	FindBatch(ctx context.Context, batchID uuid.UUID) (*models.SettlementBatch, error)
	FindBatchForUpdate(ctx context.Context, batchID uuid.UUID) (*models.SettlementBatch, error)
	UpdateBatch(ctx context.Context, batchID uuid.UUID, updates map[string]any) error
	FindVendorsWithSettleableOrders(ctx context.Context, periodStart, periodEnd time.Time) ([]uuid.UUID, error)
	ListVendorBatches(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters BatchFilters) (*BatchList, error)
}
