package enums

import "fmt"

// AlertType maps to the inventory alert kinds consumed by the dashboard.
type AlertType string

const (
	AlertTypeOrderBlocked   AlertType = "order_blocked"
	AlertTypeOrderUnblocked AlertType = "order_unblocked"
	AlertTypeLowStock       AlertType = "low_stock"
	AlertTypeOutOfStock     AlertType = "out_of_stock"
)

var validAlertTypes = []AlertType{
	AlertTypeOrderBlocked,
	AlertTypeOrderUnblocked,
	AlertTypeLowStock,
	AlertTypeOutOfStock,
}

// IsValid reports whether the value matches the canonical alert enum.
func (a AlertType) IsValid() bool {
	for _, candidate := range validAlertTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAlertType converts raw input into an AlertType.
func ParseAlertType(value string) (AlertType, error) {
	for _, candidate := range validAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert type %q", value)
}
