package enums

import "fmt"

// DisputeReason enumerates why a dispute was raised.
type DisputeReason string

const (
	DisputeReasonDamagedGoods  DisputeReason = "damaged_goods"
	DisputeReasonWrongItem     DisputeReason = "wrong_item"
	DisputeReasonShortQuantity DisputeReason = "short_quantity"
	DisputeReasonNotDelivered  DisputeReason = "not_delivered"
	DisputeReasonQualityIssue  DisputeReason = "quality_issue"
	DisputeReasonOvercharged   DisputeReason = "overcharged"
	DisputeReasonLaborNoShow   DisputeReason = "labor_no_show"
	DisputeReasonOther         DisputeReason = "other"
)

var validDisputeReasons = []DisputeReason{
	DisputeReasonDamagedGoods,
	DisputeReasonWrongItem,
	DisputeReasonShortQuantity,
	DisputeReasonNotDelivered,
	DisputeReasonQualityIssue,
	DisputeReasonOvercharged,
	DisputeReasonLaborNoShow,
	DisputeReasonOther,
}

// IsValid reports whether the value is a known DisputeReason.
func (d DisputeReason) IsValid() bool {
	for _, candidate := range validDisputeReasons {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDisputeReason converts raw input into a DisputeReason.
func ParseDisputeReason(value string) (DisputeReason, error) {
	for _, candidate := range validDisputeReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute reason %q", value)
}
