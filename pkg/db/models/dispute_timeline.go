package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
)

// DisputeTimelineEntry is one row of the append-only audit log. Entries are
// never updated or deleted.
type DisputeTimelineEntry struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DisputeID   uuid.UUID       `gorm:"column:dispute_id;type:uuid;not null"`
	ActorID     uuid.UUID       `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole   enums.ActorRole `gorm:"column:actor_role;type:text;not null"`
	Action      string          `gorm:"column:action;type:text;not null"`
	Description string          `gorm:"column:description;type:text;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
