package enums

import "fmt"

// DisputeStatus tracks the dispute sub-workflow attached to an order.
type DisputeStatus string

const (
	DisputeStatusOpen                  DisputeStatus = "open"
	DisputeStatusUnderReview           DisputeStatus = "under_review"
	DisputeStatusEscalated             DisputeStatus = "escalated"
	DisputeStatusResolvedRefund        DisputeStatus = "resolved_refund"
	DisputeStatusResolvedReplacement   DisputeStatus = "resolved_replacement"
	DisputeStatusResolvedPartialRefund DisputeStatus = "resolved_partial_refund"
	DisputeStatusRejected              DisputeStatus = "rejected"
)

var validDisputeStatuses = []DisputeStatus{
	DisputeStatusOpen,
	DisputeStatusUnderReview,
	DisputeStatusEscalated,
	DisputeStatusResolvedRefund,
	DisputeStatusResolvedReplacement,
	DisputeStatusResolvedPartialRefund,
	DisputeStatusRejected,
}

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:        {DisputeStatusUnderReview, DisputeStatusEscalated},
	DisputeStatusUnderReview: {DisputeStatusEscalated, DisputeStatusResolvedRefund, DisputeStatusResolvedReplacement, DisputeStatusResolvedPartialRefund, DisputeStatusRejected},
	DisputeStatusEscalated:   {DisputeStatusUnderReview},
}

// String implements fmt.Stringer.
func (d DisputeStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DisputeStatus.
func (d DisputeStatus) IsValid() bool {
	for _, candidate := range validDisputeStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the graph permits moving to target.
func (d DisputeStatus) CanTransitionTo(target DisputeStatus) bool {
	for _, candidate := range disputeTransitions[d] {
		if candidate == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the dispute is closed. Closed disputes are
// immutable.
func (d DisputeStatus) IsTerminal() bool {
	switch d {
	case DisputeStatusResolvedRefund, DisputeStatusResolvedReplacement, DisputeStatusResolvedPartialRefund, DisputeStatusRejected:
		return true
	}
	return false
}

// IsRefundOutcome reports whether the resolution grants money back.
func (d DisputeStatus) IsRefundOutcome() bool {
	return d == DisputeStatusResolvedRefund || d == DisputeStatusResolvedPartialRefund
}

// ParseDisputeStatus converts raw input into a DisputeStatus.
func ParseDisputeStatus(value string) (DisputeStatus, error) {
	for _, candidate := range validDisputeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute status %q", value)
}
