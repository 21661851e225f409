package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
)

// Dispute is raised against an active or completed order. An order has at most
// one open dispute but may accumulate a history of resolved ones.
type Dispute struct {
	ID                  uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID              `gorm:"column:order_id;type:uuid;not null"`
	RaisedByID          uuid.UUID              `gorm:"column:raised_by_id;type:uuid;not null"`
	RaisedByRole        enums.ActorRole        `gorm:"column:raised_by_role;type:text;not null"`
	Reason              enums.DisputeReason    `gorm:"column:reason;type:text;not null"`
	Description         *string                `gorm:"column:description"`
	Status              enums.DisputeStatus    `gorm:"column:status;type:text;not null;default:'open'"`
	Priority            enums.DisputePriority  `gorm:"column:priority;type:text;not null;default:'medium'"`
	DisputedAmountPaise int64                  `gorm:"column:disputed_amount_paise;not null"`
	RefundAmountPaise   *int64                 `gorm:"column:refund_amount_paise"`
	ResolutionNote      *string                `gorm:"column:resolution_note"`
	AssignedToID        *uuid.UUID             `gorm:"column:assigned_to_id;type:uuid"`
	Evidence            []DisputeEvidence      `gorm:"foreignKey:DisputeID;constraint:OnDelete:CASCADE"`
	Timeline            []DisputeTimelineEntry `gorm:"foreignKey:DisputeID;constraint:OnDelete:CASCADE"`
	ResolvedAt          *time.Time             `gorm:"column:resolved_at"`
	CreatedAt           time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
