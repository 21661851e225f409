package enums

import "fmt"

// VendorOfferStatus tracks the vendor-side sub-lifecycle layered on an order.
type VendorOfferStatus string

const (
	VendorOfferStatusOffered    VendorOfferStatus = "offered"
	VendorOfferStatusAccepted   VendorOfferStatus = "accepted"
	VendorOfferStatusInProgress VendorOfferStatus = "in_progress"
	VendorOfferStatusReady      VendorOfferStatus = "ready"
	VendorOfferStatusDelivered  VendorOfferStatus = "delivered"
	VendorOfferStatusCompleted  VendorOfferStatus = "completed"
	VendorOfferStatusRejected   VendorOfferStatus = "rejected"
	VendorOfferStatusWithdrawn  VendorOfferStatus = "withdrawn"
	VendorOfferStatusExpired    VendorOfferStatus = "expired"
	VendorOfferStatusCancelled  VendorOfferStatus = "cancelled"
)

var validVendorOfferStatuses = []VendorOfferStatus{
	VendorOfferStatusOffered,
	VendorOfferStatusAccepted,
	VendorOfferStatusInProgress,
	VendorOfferStatusReady,
	VendorOfferStatusDelivered,
	VendorOfferStatusCompleted,
	VendorOfferStatusRejected,
	VendorOfferStatusWithdrawn,
	VendorOfferStatusExpired,
	VendorOfferStatusCancelled,
}

// vendorOfferTransitions mirrors the offer board graph. COMPLETED is reachable
// from READY directly (OTP confirmation) or from DELIVERED (buyer confirmation
// after photo proof).
var vendorOfferTransitions = map[VendorOfferStatus][]VendorOfferStatus{
	VendorOfferStatusOffered:    {VendorOfferStatusAccepted, VendorOfferStatusRejected, VendorOfferStatusWithdrawn, VendorOfferStatusExpired},
	VendorOfferStatusAccepted:   {VendorOfferStatusInProgress, VendorOfferStatusReady, VendorOfferStatusCancelled},
	VendorOfferStatusInProgress: {VendorOfferStatusReady, VendorOfferStatusCancelled},
	VendorOfferStatusReady:      {VendorOfferStatusDelivered, VendorOfferStatusCompleted, VendorOfferStatusCancelled},
	VendorOfferStatusDelivered:  {VendorOfferStatusCompleted},
	VendorOfferStatusCompleted:  {},
	VendorOfferStatusRejected:   {},
	VendorOfferStatusWithdrawn:  {},
	VendorOfferStatusExpired:    {},
	VendorOfferStatusCancelled:  {},
}

// String implements fmt.Stringer.
func (v VendorOfferStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VendorOfferStatus.
func (v VendorOfferStatus) IsValid() bool {
	for _, candidate := range validVendorOfferStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the graph permits moving to target.
func (v VendorOfferStatus) CanTransitionTo(target VendorOfferStatus) bool {
	for _, candidate := range vendorOfferTransitions[v] {
		if candidate == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the offer can change no further.
func (v VendorOfferStatus) IsTerminal() bool {
	return len(vendorOfferTransitions[v]) == 0
}

// ParseVendorOfferStatus converts raw input into a VendorOfferStatus.
func ParseVendorOfferStatus(value string) (VendorOfferStatus, error) {
	for _, candidate := range validVendorOfferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor offer status %q", value)
}
