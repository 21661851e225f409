package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
)

// SettlementBatch groups a vendor's completed orders for one period into a
// single payable amount. Membership is fixed at creation: members point at the
// batch through Order.SettlementBatchID and are never restamped.
type SettlementBatch struct {
	ID               uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID         uuid.UUID                   `gorm:"column:vendor_id;type:uuid;not null"`
	PeriodStart      time.Time                   `gorm:"column:period_start;not null"`
	PeriodEnd        time.Time                   `gorm:"column:period_end;not null"`
	OrderCount       int                         `gorm:"column:order_count;not null"`
	GrossPaise       int64                       `gorm:"column:gross_paise;not null"`
	PlatformFeePaise int64                       `gorm:"column:platform_fee_paise;not null"`
	TDSPaise         int64                       `gorm:"column:tds_paise;not null"`
	AdjustmentsPaise int64                       `gorm:"column:adjustments_paise;not null;default:0"`
	NetPaise         int64                       `gorm:"column:net_paise;not null"`
	Status           enums.SettlementBatchStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentRef       *string                     `gorm:"column:payment_ref"`
	Orders           []Order                     `gorm:"foreignKey:SettlementBatchID"`
	PaidAt           *time.Time                  `gorm:"column:paid_at"`
	CreatedAt        time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
