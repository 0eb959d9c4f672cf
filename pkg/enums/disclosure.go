package enums

import "fmt"

// DisclosureStatus tracks how far a purchased key has moved toward being shown.
// Revealed is terminal: a key never returns to hidden once disclosed.
type DisclosureStatus string

const (
	DisclosureHidden              DisclosureStatus = "hidden"
	DisclosurePendingConfirmation DisclosureStatus = "pending_confirmation"
	DisclosureRevealed            DisclosureStatus = "revealed"
)

var validDisclosureStatuses = []DisclosureStatus{
	DisclosureHidden,
	DisclosurePendingConfirmation,
	DisclosureRevealed,
}

// String implements fmt.Stringer.
func (d DisclosureStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DisclosureStatus.
func (d DisclosureStatus) IsValid() bool {
	for _, candidate := range validDisclosureStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDisclosureStatus converts raw input into a DisclosureStatus.
func ParseDisclosureStatus(value string) (DisclosureStatus, error) {
	for _, candidate := range validDisclosureStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid disclosure status %q", value)
}
