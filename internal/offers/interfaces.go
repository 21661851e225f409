package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

// Repository defines persistence operations for the vendor offer board.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOffers(ctx context.Context, offers []models.VendorOffer) error
	FindOffer(ctx context.Context, offerID uuid.UUID) (*models.VendorOffer, error)
	// FindOrderForUpdate locks the parent order row. Offer transitions take
	// this lock first so sibling accepts and order-level writes serialize on
	// the same row.
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOffersByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorOffer, error)
	UpdateOffer(ctx context.Context, offerID uuid.UUID, updates map[string]any) error
	ListVendorOffers(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters VendorOfferFilters) (*OfferList, error)
	FindExpiredOffered(ctx context.Context, cutoff time.Time, limit int) ([]models.VendorOffer, error)
	MarkExpiryNotified(ctx context.Context, offerIDs []uuid.UUID, at time.Time) error
}
