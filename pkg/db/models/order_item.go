package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a priced line on an order.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;type:text;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	Unit           string    `gorm:"column:unit;type:text;not null;default:'unit'"`
	UnitPricePaise int64     `gorm:"column:unit_price_paise;not null"`
	TotalPaise     int64     `gorm:"column:total_paise;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
