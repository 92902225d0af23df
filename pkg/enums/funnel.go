package enums

import "fmt"

// FunnelType identifies the cohort pipeline a user entered.
type FunnelType string

const (
	FunnelLanguage    FunnelType = "language"
	FunnelNonLanguage FunnelType = "non_language"
)

var validFunnelTypes = []FunnelType{
	FunnelLanguage,
	FunnelNonLanguage,
}

// FunnelTypes returns every known funnel type in a stable order.
func FunnelTypes() []FunnelType {
	types := make([]FunnelType, len(validFunnelTypes))
	copy(types, validFunnelTypes)
	return types
}

// IsValid reports whether the value matches a known funnel type.
func (f FunnelType) IsValid() bool {
	for _, candidate := range validFunnelTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFunnelType converts raw input into FunnelType.
func ParseFunnelType(value string) (FunnelType, error) {
	for _, candidate := range validFunnelTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid funnel type %q", value)
}
