package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
)

// DisputeEvidence is a typed attachment on a dispute. The ref is an opaque
// pointer into whatever media store the uploader used.
type DisputeEvidence struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DisputeID      uuid.UUID          `gorm:"column:dispute_id;type:uuid;not null"`
	Kind           enums.EvidenceKind `gorm:"column:kind;type:text;not null"`
	Ref            string             `gorm:"column:ref;type:text;not null"`
	UploadedByID   uuid.UUID          `gorm:"column:uploaded_by_id;type:uuid;not null"`
	UploadedByRole enums.ActorRole    `gorm:"column:uploaded_by_role;type:text;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
}
