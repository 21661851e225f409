package enums

import "fmt"

// SettlementBatchStatus tracks a payable batch from creation to payout.
type SettlementBatchStatus string

const (
	SettlementBatchStatusPending    SettlementBatchStatus = "pending"
	SettlementBatchStatusProcessing SettlementBatchStatus = "processing"
	SettlementBatchStatusPaid       SettlementBatchStatus = "paid"
	SettlementBatchStatusFailed     SettlementBatchStatus = "failed"
)

var validSettlementBatchStatuses = []SettlementBatchStatus{
	SettlementBatchStatusPending,
	SettlementBatchStatusProcessing,
	SettlementBatchStatusPaid,
	SettlementBatchStatusFailed,
}

var settlementBatchTransitions = map[SettlementBatchStatus][]SettlementBatchStatus{
	SettlementBatchStatusPending:    {SettlementBatchStatusProcessing},
	SettlementBatchStatusProcessing: {SettlementBatchStatusPaid, SettlementBatchStatusFailed},
	SettlementBatchStatusFailed:     {SettlementBatchStatusProcessing},
}

// String implements fmt.Stringer.
func (s SettlementBatchStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SettlementBatchStatus.
func (s SettlementBatchStatus) IsValid() bool {
	for _, candidate := range validSettlementBatchStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the batch may move to target.
func (s SettlementBatchStatus) CanTransitionTo(target SettlementBatchStatus) bool {
	for _, candidate := range settlementBatchTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseSettlementBatchStatus converts raw input into a SettlementBatchStatus.
func ParseSettlementBatchStatus(value string) (SettlementBatchStatus, error) {
	for _, candidate := range validSettlementBatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement batch status %q", value)
}
