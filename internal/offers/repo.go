package offers

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

// NewRepository builds an offers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOffers(ctx context.Context, offers []models.VendorOffer) error {
	if len(offers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&offers).Error
}

func (r *repository) FindOffer(ctx context.Context, offerID uuid.UUID) (*models.VendorOffer, error) {
	var offer models.VendorOffer
	err := r.db.WithContext(ctx).
		Where("id = ?", offerID).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOffersByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorOffer, error) {
	var offers []models.VendorOffer
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *repository) UpdateOffer(ctx context.Context, offerID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorOffer{}).
		Where("id = ?", offerID).
		Updates(updates).Error
}

func (r *repository) ListVendorOffers(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters VendorOfferFilters) (*OfferList, error) {
	normalized := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.VendorOffer{}).
		Where("vendor_id = ?", vendorID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.VendorOffer
	if err := query.Order("created_at DESC, id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &OfferList{Offers: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Offers = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}

// FindExpiredOffered selects lapsed offers the sweep has not yet flagged.
// Rows stay offered: only expiry_notified_at distinguishes a seen row.
func (r *repository) FindExpiredOffered(ctx context.Context, cutoff time.Time, limit int) ([]models.VendorOffer, error) {
	var offers []models.VendorOffer
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.VendorOfferStatusOffered, cutoff).
		Where("expiry_notified_at IS NULL").
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *repository) MarkExpiryNotified(ctx context.Context, offerIDs []uuid.UUID, at time.Time) error {
	if len(offerIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.VendorOffer{}).
		Where("id IN ? AND expiry_notified_at IS NULL", offerIDs).
		Update("expiry_notified_at", at).Error
}
