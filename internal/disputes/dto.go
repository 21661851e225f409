package disputes

import (
	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
)

// OpenDisputeInput raises a dispute against an active or completed order.
type OpenDisputeInput struct {
	OrderID             uuid.UUID
	RaisedByID          uuid.UUID
	RaisedByRole        enums.ActorRole
	Reason              enums.DisputeReason
	Description         string
	DisputedAmountPaise int64
	Priority            enums.DisputePriority
}

// ReviewInput moves a dispute into review under a named handler.
type ReviewInput struct {
	DisputeID  uuid.UUID
	ReviewerID uuid.UUID
}

// EscalateInput bumps a dispute out of the normal review queue.
type EscalateInput struct {
	DisputeID uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.ActorRole
	Note      string
}

// ResolveInput closes a dispute with one of the terminal outcomes.
type ResolveInput struct {
	DisputeID         uuid.UUID
	Outcome           enums.DisputeStatus
	RefundAmountPaise *int64
	Note              string
	ActorID           uuid.UUID
	ActorRole         enums.ActorRole
}

// AddEvidenceInput attaches typed evidence to an open dispute.
type AddEvidenceInput struct {
	DisputeID      uuid.UUID
	Kind           enums.EvidenceKind
	Ref            string
	UploadedByID   uuid.UUID
	UploadedByRole enums.ActorRole
}
