package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and the offer rows the
// order lifecycle touches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// FindOrderForUpdate loads the row under FOR UPDATE; all transitions go
	// through it so writes on one order serialize.
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	FindOfferInStatuses(ctx context.Context, orderID uuid.UUID, statuses ...enums.VendorOfferStatus) (*models.VendorOffer, error)
	UpdateVendorOffer(ctx context.Context, offerID uuid.UUID, updates map[string]any) error
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*OrderList, error)
}
