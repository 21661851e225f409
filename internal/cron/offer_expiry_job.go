package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/internal/notifications"
	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
)

const defaultExpiredOfferScanLimit = 500

type expiredOfferStore interface {
	FindExpiredOffered(ctx context.Context, cutoff time.Time, limit int) ([]models.VendorOffer, error)
	MarkExpiryNotified(ctx context.Context, offerIDs []uuid.UUID, at time.Time) error
}

type offerNotifier interface {
	Notify(ctx context.Context, event notifications.Event)
}

// OfferExpiryJobParams configure the expired offer notifier.
type OfferExpiryJobParams struct {
	Logger    *logger.Logger
	Offers    expiredOfferStore
	Notifier  offerNotifier
	ScanLimit int
}

// NewOfferExpiryJob builds the cron job that tells vendors their untouched
// offers have lapsed. Offer status is left alone: expiry is decided from
// expires_at at read time, and only an accept attempt persists the expired
// status. The job stamps expiry_notified_at on the rows it handled so the
// next run does not notify the same vendors again.
func NewOfferExpiryJob(params OfferExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offers reader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	limit := params.ScanLimit
	if limit <= 0 {
		limit = defaultExpiredOfferScanLimit
	}
	return &offerExpiryJob{
		logg:     params.Logger,
		offers:   params.Offers,
		notifier: params.Notifier,
		limit:    limit,
		now:      time.Now,
	}, nil
}

type offerExpiryJob struct {
	logg     *logger.Logger
	offers   expiredOfferStore
	notifier offerNotifier
	limit    int
	now      func() time.Time
}

func (j *offerExpiryJob) Name() string { return "offer-expiry" }

func (j *offerExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	offers, err := j.offers.FindExpiredOffered(ctx, now, j.limit)
	if err != nil {
		return fmt.Errorf("scan expired offers: %w", err)
	}

	// Stamp before dispatching: a crash mid-loop must not replay the page.
	notified := make([]uuid.UUID, len(offers))
	for i, offer := range offers {
		notified[i] = offer.ID
	}
	if err := j.offers.MarkExpiryNotified(ctx, notified, now); err != nil {
		return fmt.Errorf("mark offers notified: %w", err)
	}

	for _, offer := range offers {
		orderID := offer.OrderID
		j.notifier.Notify(ctx, notifications.Event{
			Type:        enums.NotificationTypeOfferExpired,
			RecipientID: offer.VendorID,
			Role:        enums.ActorRoleVendor,
			OrderID:     &orderID,
			Title:       "Offer expired",
			Message:     "An offer lapsed before you responded to it.",
		})
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": len(offers)})
	j.logg.Info(logCtx, "offer expiry scan complete")
	return nil
}
