package enums

import "fmt"

// EvidenceKind types a dispute evidence attachment.
type EvidenceKind string

const (
	EvidenceKindPhoto    EvidenceKind = "photo"
	EvidenceKindVideo    EvidenceKind = "video"
	EvidenceKindDocument EvidenceKind = "document"
	EvidenceKindInvoice  EvidenceKind = "invoice"
)

var validEvidenceKinds = []EvidenceKind{
	EvidenceKindPhoto,
	EvidenceKindVideo,
	EvidenceKindDocument,
	EvidenceKindInvoice,
}

// IsValid reports whether the value is a known EvidenceKind.
func (e EvidenceKind) IsValid() bool {
	for _, candidate := range validEvidenceKinds {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEvidenceKind converts raw input into an EvidenceKind.
func ParseEvidenceKind(value string) (EvidenceKind, error) {
	for _, candidate := range validEvidenceKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid evidence kind %q", value)
}
