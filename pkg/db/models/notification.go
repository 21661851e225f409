package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
)

// Notification stores a dispatched event per recipient. Delivery over the
// outbound channels is best-effort; the row is the durable record.
type Notification struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID uuid.UUID                 `gorm:"column:recipient_id;type:uuid;not null"`
	Role        enums.ActorRole           `gorm:"column:role;type:text;not null"`
	Type        enums.NotificationType    `gorm:"column:type;type:text;not null"`
	Channel     enums.NotificationChannel `gorm:"column:channel;type:text;not null"`
	Title       string                    `gorm:"column:title;type:text;not null"`
	Message     string                    `gorm:"column:message;type:text;not null"`
	OrderID     *uuid.UUID                `gorm:"column:order_id;type:uuid"`
	ReadAt      *time.Time                `gorm:"column:read_at"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
