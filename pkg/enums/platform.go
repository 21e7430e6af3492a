package enums

import "fmt"

// Platform identifies a sales channel with its own stock ledger and
// blocking configuration.
type Platform string

const (
	PlatformShopify Platform = "shopify"
	PlatformAmazon  Platform = "amazon"
	PlatformEBay    Platform = "ebay"
	PlatformEtsy    Platform = "etsy"
	PlatformWalmart Platform = "walmart"
)

var validPlatforms = []Platform{
	PlatformShopify,
	PlatformAmazon,
	PlatformEBay,
	PlatformEtsy,
	PlatformWalmart,
}

func (p Platform) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known sales channel.
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
