package disputes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
)

// Repository defines persistence operations for disputes and the order rows
// the workflow flips.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateDispute(ctx context.Context, dispute *models.Dispute) (*models.Dispute, error)
	FindDispute(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error)
	FindOpenDisputeByOrder(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error)
	UpdateDispute(ctx context.Context, disputeID uuid.UUID, updates map[string]any) error
	AppendTimeline(ctx context.Context, entry *models.DisputeTimelineEntry) error
	AddEvidence(ctx context.Context, evidence *models.DisputeEvidence) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error)
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}
