package enums

import "fmt"

// NotificationType labels the domain event behind a notification.
type NotificationType string

const (
	NotificationTypeOrderConfirmed  NotificationType = "order_confirmed"
	NotificationTypeOrderActivated  NotificationType = "order_activated"
	NotificationTypeOrderCompleted  NotificationType = "order_completed"
	NotificationTypeOrderCancelled  NotificationType = "order_cancelled"
	NotificationTypeOfferReceived   NotificationType = "offer_received"
	NotificationTypeOfferAccepted   NotificationType = "offer_accepted"
	NotificationTypeOfferWithdrawn  NotificationType = "offer_withdrawn"
	NotificationTypeOfferExpired    NotificationType = "offer_expired"
	NotificationTypeDeliveryPending NotificationType = "delivery_pending"
	NotificationTypeDisputeOpened   NotificationType = "dispute_opened"
	NotificationTypeDisputeResolved NotificationType = "dispute_resolved"
	NotificationTypeSettlementReady NotificationType = "settlement_ready"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderConfirmed,
	NotificationTypeOrderActivated,
	NotificationTypeOrderCompleted,
	NotificationTypeOrderCancelled,
	NotificationTypeOfferReceived,
	NotificationTypeOfferAccepted,
	NotificationTypeOfferWithdrawn,
	NotificationTypeOfferExpired,
	NotificationTypeDeliveryPending,
	NotificationTypeDisputeOpened,
	NotificationTypeDisputeResolved,
	NotificationTypeSettlementReady,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationChannel names an outbound delivery channel.
type NotificationChannel string

const (
	NotificationChannelEmail    NotificationChannel = "email"
	NotificationChannelSMS      NotificationChannel = "sms"
	NotificationChannelPush     NotificationChannel = "push"
	NotificationChannelWhatsApp NotificationChannel = "whatsapp"
)

var validNotificationChannels = []NotificationChannel{
	NotificationChannelEmail,
	NotificationChannelSMS,
	NotificationChannelPush,
	NotificationChannelWhatsApp,
}

// IsValid checks whether the given channel matches the canonical enum.
func (n NotificationChannel) IsValid() bool {
	for _, candidate := range validNotificationChannels {
		if candidate == n {
			return true
		}
	}
	return false
}
