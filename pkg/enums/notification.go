package enums

import "fmt"

// NotificationKind maps to the notification_kind enum in Postgres.
type NotificationKind string

const (
	NotificationOrderReady  NotificationKind = "order_ready"
	NotificationKeyRevealed NotificationKind = "key_revealed"
)

var validNotificationKinds = []NotificationKind{
	NotificationOrderReady,
	NotificationKeyRevealed,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value matches the canonical notification_kind enum.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
