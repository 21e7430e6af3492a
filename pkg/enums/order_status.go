package enums

import "fmt"

// OrderStatus tracks the outcome of one order attempt.
//
// partially_fulfilled exists in the data model but the order processor never
// emits it; order attempts resolve to confirmed or blocked in one step.
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusConfirmed          OrderStatus = "confirmed"
	OrderStatusPartiallyFulfilled OrderStatus = "partially_fulfilled"
	OrderStatusCancelled          OrderStatus = "cancelled"
	OrderStatusBlocked            OrderStatus = "blocked"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPartiallyFulfilled,
	OrderStatusCancelled,
	OrderStatusBlocked,
}

// IsValid reports whether the value matches the canonical order status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
