package enums

import "fmt"

// DisputePriority ranks disputes for handler queues.
type DisputePriority string

const (
	DisputePriorityLow    DisputePriority = "low"
	DisputePriorityMedium DisputePriority = "medium"
	DisputePriorityHigh   DisputePriority = "high"
	DisputePriorityUrgent DisputePriority = "urgent"
)

var validDisputePriorities = []DisputePriority{
	DisputePriorityLow,
	DisputePriorityMedium,
	DisputePriorityHigh,
	DisputePriorityUrgent,
}

// IsValid reports whether the value is a known DisputePriority.
func (d DisputePriority) IsValid() bool {
	for _, candidate := range validDisputePriorities {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDisputePriority converts raw input into a DisputePriority.
func ParseDisputePriority(value string) (DisputePriority, error) {
	for _, candidate := range validDisputePriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute priority %q", value)
}
