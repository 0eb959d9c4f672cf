package enums

import "fmt"

// Platform identifies where a purchased key activates.
type Platform string

const (
	PlatformPC       Platform = "pc"
	PlatformXbox     Platform = "xbox"
	PlatformPSN      Platform = "psn"
	PlatformNintendo Platform = "nintendo"
	PlatformSoftware Platform = "software"
)

var validPlatforms = []Platform{
	PlatformPC,
	PlatformXbox,
	PlatformPSN,
	PlatformNintendo,
	PlatformSoftware,
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Platform.
func (p Platform) IsValid() bool {
	for _, candidate := range validPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlatform converts raw input into a Platform.
func ParsePlatform(value string) (Platform, error) {
	for _, candidate := range validPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform %q", value)
}
