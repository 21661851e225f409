package settlements

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
)

// BuildBatchInput bounds one settlement run for one vendor.
type BuildBatchInput struct {
	VendorID         uuid.UUID
	PeriodStart      time.Time
	PeriodEnd        time.Time
	AdjustmentsPaise int64
}

// ListBatchesInput pages through a vendor's settlement history, optionally
// narrowed to batches whose period overlaps the given bounds.
type ListBatchesInput struct {
	VendorID    uuid.UUID
	Limit       int
	Cursor      string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// BatchFilters narrows a batch listing by settlement period.
type BatchFilters struct {
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// BatchList is one page of settlement batch results.
type BatchList struct {
	Batches    []models.SettlementBatch
	NextCursor string
}
