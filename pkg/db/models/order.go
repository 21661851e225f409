package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
)

// Order is the buyer-facing aggregate. Status only changes through the order
// service; rows are never deleted so the audit trail survives.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID            uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null"`
	Type               enums.OrderType     `gorm:"column:type;type:text;not null"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	SubtotalPaise      int64               `gorm:"column:subtotal_paise;not null"`
	PlatformFeePaise   int64               `gorm:"column:platform_fee_paise;not null;default:0"`
	DeliveryFeePaise   int64               `gorm:"column:delivery_fee_paise;not null;default:0"`
	TaxPaise           int64               `gorm:"column:tax_paise;not null;default:0"`
	TotalPaise         int64               `gorm:"column:total_paise;not null"`
	RefundPaise        *int64              `gorm:"column:refund_paise"`
	SettlementBatchID  *uuid.UUID          `gorm:"column:settlement_batch_id;type:uuid"`
	CancellationReason *string             `gorm:"column:cancellation_reason"`
	// StatusBeforeDispute lets a rejected dispute restore the order exactly
	// where it was.
	StatusBeforeDispute *enums.OrderStatus `gorm:"column:status_before_dispute;type:text"`
	ConfirmedAt         *time.Time         `gorm:"column:confirmed_at"`
	ActivatedAt         *time.Time         `gorm:"column:activated_at"`
	CompletedAt         *time.Time         `gorm:"column:completed_at"`
	CancelledAt         *time.Time         `gorm:"column:cancelled_at"`
	DisputedAt          *time.Time         `gorm:"column:disputed_at"`
	Items               []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
