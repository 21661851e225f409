package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
)

// Event is the payload domain services hand to the notifier. The notifier
// persists one row per event and pushes it over the outbound channel
// best-effort; callers never learn about delivery failures.
type Event struct {
	Type        enums.NotificationType
	RecipientID uuid.UUID
	Role        enums.ActorRole
	Channel     enums.NotificationChannel
	OrderID     *uuid.UUID
	Title       string
	Message     string
}

// Notifier is the fire-and-forget dispatch capability the core consumes.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Dispatcher pushes a persisted notification over its outbound channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, notification models.Notification) error
}

type notifier struct {
	repo       Repository
	dispatcher Dispatcher
	logg       *logger.Logger
}

// NewNotifier wires the persisting notifier.
func NewNotifier(repo Repository, dispatcher Dispatcher, logg *logger.Logger) (Notifier, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &notifier{repo: repo, dispatcher: dispatcher, logg: logg}, nil
}

func (n *notifier) Notify(ctx context.Context, event Event) {
	fields := map[string]any{
		"notification_type": string(event.Type),
		"recipient_id":      event.RecipientID.String(),
	}
	if event.OrderID != nil {
		fields["order_id"] = event.OrderID.String()
	}
	logCtx := n.logg.WithFields(ctx, fields)

	if event.RecipientID == uuid.Nil || !event.Type.IsValid() {
		n.logg.Warn(logCtx, "dropping malformed notification event")
		return
	}

	channel := event.Channel
	if !channel.IsValid() {
		channel = enums.NotificationChannelPush
	}

	row := models.Notification{
		RecipientID: event.RecipientID,
		Role:        event.Role,
		Type:        event.Type,
		Channel:     channel,
		Title:       event.Title,
		Message:     event.Message,
		OrderID:     event.OrderID,
	}
	if err := n.repo.Create(ctx, &row); err != nil {
		n.logg.Error(logCtx, "failed to persist notification", err)
		return
	}

	if err := n.dispatcher.Dispatch(ctx, row); err != nil {
		// The row already landed; delivery retries are the dispatcher's problem.
		n.logg.Warn(n.logg.WithField(logCtx, "dispatch_error", err.Error()), "notification dispatch failed")
	}
}

// LogDispatcher writes outbound notifications to the log. It stands in for
// the email/SMS/push/WhatsApp gateways, which live outside this service.
type LogDispatcher struct {
	logg *logger.Logger
}

// NewLogDispatcher builds the log-backed dispatcher.
func NewLogDispatcher(logg *logger.Logger) (*LogDispatcher, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogDispatcher{logg: logg}, nil
}

func (d *LogDispatcher) Dispatch(ctx context.Context, notification models.Notification) error {
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"notification_id": notification.ID.String(),
		"channel":         string(notification.Channel),
		"recipient_id":    notification.RecipientID.String(),
	})
	d.logg.Info(logCtx, fmt.Sprintf("notify %s: %s", notification.Type, notification.Title))
	return nil
}
