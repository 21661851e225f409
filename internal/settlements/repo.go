package settlements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settlements repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindEligibleOrdersForUpdate locks the vendor's unbatched completed orders
// for the period. The join pins the vendor through their completed offer, so
// an order only ever settles toward the vendor who actually fulfilled it.
func (r *repository) FindEligibleOrdersForUpdate(ctx context.Context, vendorID uuid.UUID, periodStart, periodEnd time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "orders"}}).
		Joins("JOIN vendor_offers ON vendor_offers.order_id = orders.id").
		Where("vendor_offers.vendor_id = ? AND vendor_offers.status = ?", vendorID, enums.VendorOfferStatusCompleted).
		Where("orders.status = ?", enums.OrderStatusCompleted).
		Where("orders.settlement_batch_id IS NULL").
		Where("orders.completed_at >= ? AND orders.completed_at < ?", periodStart, periodEnd).
		Order("orders.completed_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) CreateBatch(ctx context.Context, batch *models.SettlementBatch) (*models.SettlementBatch, error) {
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// StampOrders writes the batch reference onto member orders. The IS NULL
// guard keeps the reference write-once even if two builds race past the row
// locks; callers compare the affected count against len(orderIDs).
func (r *repository) StampOrders(ctx context.Context, batchID uuid.UUID, orderIDs []uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id IN ? AND settlement_batch_id IS NULL", orderIDs).
		Update("settlement_batch_id", batchID)
	return result.RowsAffected, result.Error
}

func (r *repository) FindBatch(ctx context.Context, batchID uuid.UUID) (*models.SettlementBatch, error) {
	var batch models.SettlementBatch
	err := r.db.WithContext(ctx).
		Preload("Orders").
		Where("id = ?", batchID).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) FindBatchForUpdate(ctx context.Context, batchID uuid.UUID) (*models.SettlementBatch, error) {
	var batch models.SettlementBatch
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", batchID).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) UpdateBatch(ctx context.Context, batchID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SettlementBatch{}).
		Where("id = ?", batchID).
		Updates(updates).Error
}

// FindVendorsWithSettleableOrders lists the vendors the sweep should build
// batches for. Plain read, no locks: the build itself re-selects under lock.
func (r *repository) FindVendorsWithSettleableOrders(ctx context.Context, periodStart, periodEnd time.Time) ([]uuid.UUID, error) {
	var vendorIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.VendorOffer{}).
		Distinct("vendor_offers.vendor_id").
		Joins("JOIN orders ON orders.id = vendor_offers.order_id").
		Where("vendor_offers.status = ?", enums.VendorOfferStatusCompleted).
		Where("orders.status = ?", enums.OrderStatusCompleted).
		Where("orders.settlement_batch_id IS NULL").
		Where("orders.completed_at >= ? AND orders.completed_at < ?", periodStart, periodEnd).
		Pluck("vendor_offers.vendor_id", &vendorIDs).Error
	if err != nil {
		return nil, err
	}
	return vendorIDs, nil
}

func (r *repository) ListVendorBatches(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters BatchFilters) (*BatchList, error) {
	normalized := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.SettlementBatch{}).
		Where("vendor_id = ?", vendorID)
	if filters.PeriodStart != nil {
		query = query.Where("period_end > ?", *filters.PeriodStart)
	}
	if filters.PeriodEnd != nil {
		query = query.Where("period_start < ?", *filters.PeriodEnd)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.SettlementBatch
	if err := query.Order("created_at DESC, id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &BatchList{Batches: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Batches = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}
