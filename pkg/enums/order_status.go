package enums

import "fmt"

// OrderStatus tracks the buyer-facing lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusDisputed  OrderStatus = "disputed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusActive,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusDisputed,
}

// orderTransitions is the directed transition graph. DISPUTED edges back to
// COMPLETED/CANCELLED exist because resolving a dispute restores the order.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusActive, OrderStatusCancelled},
	OrderStatusActive:    {OrderStatusCompleted, OrderStatusCancelled, OrderStatusDisputed},
	OrderStatusCompleted: {OrderStatusDisputed},
	OrderStatusDisputed:  {OrderStatusActive, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCancelled: {},
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the graph permits moving to target.
func (o OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, candidate := range orderTransitions[o] {
		if candidate == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions besides
// a dispute reopening it.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCompleted || o == OrderStatusCancelled
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
