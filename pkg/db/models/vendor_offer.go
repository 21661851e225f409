package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
)

// VendorOffer is the per-vendor sub-lifecycle of an order. One order fans out
// to many offers; at most one ever reaches accepted.
type VendorOffer struct {
	ID                 uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID                 `gorm:"column:order_id;type:uuid;not null"`
	VendorID           uuid.UUID                 `gorm:"column:vendor_id;type:uuid;not null"`
	Status             enums.VendorOfferStatus   `gorm:"column:status;type:text;not null;default:'offered'"`
	ExpiresAt          time.Time                 `gorm:"column:expires_at;not null"`
	RejectionReason    *string                   `gorm:"column:rejection_reason"`
	VerificationMethod *enums.VerificationMethod `gorm:"column:verification_method;type:text"`
	// VerificationRef holds the opaque payload for the chosen proof path:
	// the evidence reference for photos, empty for OTP.
	VerificationRef *string    `gorm:"column:verification_ref"`
	AcceptedAt *time.Time `gorm:"column:accepted_at"`
	// ExpiryNotifiedAt marks that the expiry sweep already told the vendor,
	// so repeat runs skip the row. The status itself stays untouched.
	ExpiryNotifiedAt *time.Time `gorm:"column:expiry_notified_at"`
	RejectedAt      *time.Time `gorm:"column:rejected_at"`
	ReadyAt         *time.Time `gorm:"column:ready_at"`
	DeliveredAt     *time.Time `gorm:"column:delivered_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	WithdrawnAt     *time.Time `gorm:"column:withdrawn_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// ExpiredBy reports whether an offered row has lapsed relative to now. Expiry
// is lazy: nothing sweeps the table, readers make this call instead.
func (v VendorOffer) ExpiredBy(now time.Time) bool {
	return v.Status == enums.VendorOfferStatusOffered && now.After(v.ExpiresAt)
}
