package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
)

// OrderItemInput is one priced line on a new order.
type OrderItemInput struct {
	Name           string
	Qty            int
	Unit           string
	UnitPricePaise int64
}

// CreateOrderInput carries everything needed to open a PENDING order.
type CreateOrderInput struct {
	BuyerID          uuid.UUID
	Type             enums.OrderType
	Items            []OrderItemInput
	DeliveryFeePaise int64
	TaxPaise         int64
}

// CancelOrderInput identifies the order and the actor asking to cancel it.
type CancelOrderInput struct {
	OrderID   uuid.UUID
	Reason    string
	ActorID   uuid.UUID
	ActorRole enums.ActorRole
}

// BuyerOrderFilters describe the inputs supported by the buyer orders list.
type BuyerOrderFilters struct {
	Status        *enums.OrderStatus
	Type          *enums.OrderType
	PaymentStatus *enums.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
