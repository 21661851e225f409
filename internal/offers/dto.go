package offers

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
)

// OfferInput fans an order out to one or more vendors.
type OfferInput struct {
	OrderID   uuid.UUID
	VendorIDs []uuid.UUID
	ExpiresAt time.Time
}

// RejectInput captures a vendor declining an offer.
type RejectInput struct {
	OfferID uuid.UUID
	Reason  string
}

// VendorOfferFilters describe the inputs supported by the vendor offer list.
type VendorOfferFilters struct {
	Status   *enums.VendorOfferStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OfferList wraps the paginated offers plus the next page cursor.
type OfferList struct {
	Offers     []models.VendorOffer `json:"offers"`
	NextCursor string               `json:"next_cursor,omitempty"`
}
