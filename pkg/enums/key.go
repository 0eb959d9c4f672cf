package enums

import "fmt"

// KeyStatus maps to the key_status enum in Postgres.
type KeyStatus string

const (
	KeyStatusAvailable KeyStatus = "available"
	KeyStatusSold      KeyStatus = "sold"
)

var validKeyStatuses = []KeyStatus{
	KeyStatusAvailable,
	KeyStatusSold,
}

// String implements fmt.Stringer.
func (k KeyStatus) String() string {
	return string(k)
}

// IsValid reports whether the value matches the canonical key_status enum.
func (k KeyStatus) IsValid() bool {
	for _, candidate := range validKeyStatuses {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseKeyStatus converts raw input into KeyStatus.
func ParseKeyStatus(value string) (KeyStatus, error) {
	for _, candidate := range validKeyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid key status %q", value)
}
