package enums

import "fmt"

// VerificationMethod selects the proof-of-delivery path at delivery time.
type VerificationMethod string

const (
	VerificationMethodOTP   VerificationMethod = "otp"
	VerificationMethodPhoto VerificationMethod = "photo"
)

var validVerificationMethods = []VerificationMethod{
	VerificationMethodOTP,
	VerificationMethodPhoto,
}

// IsValid reports whether the value is a known VerificationMethod.
func (v VerificationMethod) IsValid() bool {
	for _, candidate := range validVerificationMethods {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVerificationMethod converts raw input into a VerificationMethod.
func ParseVerificationMethod(value string) (VerificationMethod, error) {
	for _, candidate := range validVerificationMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid verification method %q", value)
}
