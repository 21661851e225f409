package delivery

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
)

// Repository defines the persistence surface delivery confirmation needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOffer(ctx context.Context, offerID uuid.UUID) (*models.VendorOffer, error)
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOffer(ctx context.Context, offerID uuid.UUID, updates map[string]any) error
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}
