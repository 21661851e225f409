package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildbazaar/buildbazaar-backend/internal/notifications"
	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, event notifications.Event)
}

// Service manages the vendor-side offer board. Acceptance is
// first-acceptance-wins: the winning call withdraws every sibling in the same
// transaction, under the parent order's row lock.
type Service interface {
	Offer(ctx context.Context, input OfferInput) ([]models.VendorOffer, error)
	Get(ctx context.Context, offerID uuid.UUID) (*models.VendorOffer, error)
	Accept(ctx context.Context, offerID uuid.UUID) error
	Reject(ctx context.Context, input RejectInput) error
	StartProgress(ctx context.Context, offerID uuid.UUID) error
	MarkReady(ctx context.Context, offerID uuid.UUID) error
	ListVendorOffers(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters VendorOfferFilters) (*OfferList, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier notifier
	now      func() time.Time
}

// NewService builds the offer board service with the required dependencies.
func NewService(repo Repository, tx txRunner, notify notifier, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, tx: tx, notifier: notify, now: now}, nil
}

func (s *service) Offer(ctx context.Context, input OfferInput) ([]models.VendorOffer, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	vendorIDs := dedupeVendorIDs(input.VendorIDs)
	if len(vendorIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one vendor required")
	}
	if !input.ExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer expiry must be in the future")
	}

	var created []models.VendorOffer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if order.Status != enums.OrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot offer order in status %s", order.Status))
		}

		existing, err := repo.FindOffersByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing offers")
		}
		offered := make(map[uuid.UUID]bool, len(existing))
		for _, offer := range existing {
			if !offer.Status.IsTerminal() {
				offered[offer.VendorID] = true
			}
		}

		rows := make([]models.VendorOffer, 0, len(vendorIDs))
		for _, vendorID := range vendorIDs {
			if offered[vendorID] {
				continue
			}
			rows = append(rows, models.VendorOffer{
				OrderID:   order.ID,
				VendorID:  vendorID,
				Status:    enums.VendorOfferStatusOffered,
				ExpiresAt: input.ExpiresAt.UTC(),
			})
		}
		if len(rows) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "all vendors already hold a live offer")
		}
		if err := repo.CreateOffers(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offers")
		}
		created = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	orderID := input.OrderID
	for _, offer := range created {
		s.notifier.Notify(ctx, notifications.Event{
			Type:        enums.NotificationTypeOfferReceived,
			RecipientID: offer.VendorID,
			Role:        enums.ActorRoleVendor,
			OrderID:     &orderID,
			Title:       "New order offer",
			Message:     fmt.Sprintf("You have a new offer, open until %s.", offer.ExpiresAt.Format(time.RFC3339)),
		})
	}
	return created, nil
}

// Get returns the offer with lazy expiry applied: a lapsed OFFERED row reads
// as expired even though nothing has rewritten it yet.
func (s *service) Get(ctx context.Context, offerID uuid.UUID) (*models.VendorOffer, error) {
	if offerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	offer, err := s.repo.FindOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if offer.ExpiredBy(s.now()) {
		offer.Status = enums.VendorOfferStatusExpired
	}
	return offer, nil
}

func (s *service) Accept(ctx context.Context, offerID uuid.UUID) error {
	if offerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}

	var accepted models.VendorOffer
	var withdrawn []models.VendorOffer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, err := repo.FindOffer(ctx, offerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}

		// Lock the parent first, then re-read: two vendors racing to accept
		// sibling offers both queue on this row and the loser sees the
		// withdrawal the winner wrote.
		order, err := repo.FindOrderForUpdate(ctx, offer.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		offer, err = repo.FindOffer(ctx, offerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload offer")
		}

		now := s.now().UTC()
		if offer.ExpiredBy(now) {
			if err := repo.UpdateOffer(ctx, offer.ID, map[string]any{
				"status": enums.VendorOfferStatusExpired,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire offer")
			}
			return pkgerrors.New(pkgerrors.CodeExpired, "offer window has elapsed")
		}
		if offer.Status != enums.VendorOfferStatusOffered {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot accept offer in status %s", offer.Status))
		}
		if order.Status != enums.OrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("order no longer accepting offers (status %s)", order.Status))
		}

		if err := repo.UpdateOffer(ctx, offer.ID, map[string]any{
			"status":      enums.VendorOfferStatusAccepted,
			"accepted_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept offer")
		}

		siblings, err := repo.FindOffersByOrder(ctx, offer.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sibling offers")
		}
		for _, sibling := range siblings {
			if sibling.ID == offer.ID || sibling.Status != enums.VendorOfferStatusOffered {
				continue
			}
			if err := repo.UpdateOffer(ctx, sibling.ID, map[string]any{
				"status":       enums.VendorOfferStatusWithdrawn,
				"withdrawn_at": now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "withdraw sibling offer")
			}
			withdrawn = append(withdrawn, sibling)
		}

		accepted = *offer
		return nil
	})
	if err != nil {
		return err
	}

	orderID := accepted.OrderID
	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeOfferAccepted,
		RecipientID: accepted.VendorID,
		Role:        enums.ActorRoleVendor,
		OrderID:     &orderID,
		Title:       "Offer accepted",
		Message:     "You won this order. Start fulfillment when ready.",
	})
	for _, sibling := range withdrawn {
		s.notifier.Notify(ctx, notifications.Event{
			Type:        enums.NotificationTypeOfferWithdrawn,
			RecipientID: sibling.VendorID,
			Role:        enums.ActorRoleVendor,
			OrderID:     &orderID,
			Title:       "Offer withdrawn",
			Message:     "Another vendor accepted this order first.",
		})
	}
	return nil
}

func (s *service) Reject(ctx context.Context, input RejectInput) error {
	if input.OfferID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	return s.transition(ctx, input.OfferID, func(ctx context.Context, repo Repository, _ *models.Order, offer *models.VendorOffer) error {
		now := s.now().UTC()
		if offer.ExpiredBy(now) {
			return pkgerrors.New(pkgerrors.CodeExpired, "offer window has elapsed")
		}
		if offer.Status != enums.VendorOfferStatusOffered {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot reject offer in status %s", offer.Status))
		}
		return repo.UpdateOffer(ctx, offer.ID, map[string]any{
			"status":           enums.VendorOfferStatusRejected,
			"rejection_reason": input.Reason,
			"rejected_at":      now,
		})
	})
}

func (s *service) StartProgress(ctx context.Context, offerID uuid.UUID) error {
	return s.transition(ctx, offerID, func(ctx context.Context, repo Repository, _ *models.Order, offer *models.VendorOffer) error {
		if !offer.Status.CanTransitionTo(enums.VendorOfferStatusInProgress) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot start progress from status %s", offer.Status))
		}
		return repo.UpdateOffer(ctx, offer.ID, map[string]any{
			"status": enums.VendorOfferStatusInProgress,
		})
	})
}

func (s *service) MarkReady(ctx context.Context, offerID uuid.UUID) error {
	var ready models.VendorOffer
	var buyerID uuid.UUID
	err := s.transition(ctx, offerID, func(ctx context.Context, repo Repository, order *models.Order, offer *models.VendorOffer) error {
		if !offer.Status.CanTransitionTo(enums.VendorOfferStatusReady) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot mark ready from status %s", offer.Status))
		}
		buyerID = order.BuyerID
		ready = *offer
		return repo.UpdateOffer(ctx, offer.ID, map[string]any{
			"status":   enums.VendorOfferStatusReady,
			"ready_at": s.now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	orderID := ready.OrderID
	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeDeliveryPending,
		RecipientID: buyerID,
		Role:        enums.ActorRoleBuyer,
		OrderID:     &orderID,
		Title:       "Delivery on its way",
		Message:     "Your vendor marked the order ready for delivery.",
	})
	return nil
}

func (s *service) ListVendorOffers(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters VendorOfferFilters) (*OfferList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	list, err := s.repo.ListVendorOffers(ctx, vendorID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor offers")
	}

	// Lazy expiry for readers.
	now := s.now()
	for i := range list.Offers {
		if list.Offers[i].ExpiredBy(now) {
			list.Offers[i].Status = enums.VendorOfferStatusExpired
		}
	}
	return list, nil
}

// transition runs fn inside a transaction with the parent order locked FOR
// UPDATE and the offer re-read under that lock. Status checks belong in fn,
// after the re-read, so a concurrent order transition (a cancel force-closing
// the offer, say) is never overwritten blind.
func (s *service) transition(ctx context.Context, offerID uuid.UUID, fn func(ctx context.Context, repo Repository, order *models.Order, offer *models.VendorOffer) error) error {
	if offerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, err := repo.FindOffer(ctx, offerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}
		order, err := repo.FindOrderForUpdate(ctx, offer.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		offer, err = repo.FindOffer(ctx, offerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload offer")
		}
		if err := fn(ctx, repo, order, offer); err != nil {
			if typed := pkgerrors.As(err); typed != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
		}
		return nil
	})
}

func dedupeVendorIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
