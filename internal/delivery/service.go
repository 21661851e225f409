package delivery

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
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, event notifications.Event)
}

// Verifier issues and consumes the one-time delivery codes. Verify must not
// spend a matching code; Consume does that once completion has been recorded.
type Verifier interface {
	Issue(ctx context.Context, offerID uuid.UUID) (string, error)
	Verify(ctx context.Context, offerID uuid.UUID, code string) error
	Consume(ctx context.Context, offerID uuid.UUID) error
}

// Service resolves delivery for a READY offer through one of two paths. OTP
// is buyer-attested on the spot, so a match completes the offer and the order
// in one atomic step. Photo proof is vendor-attested only, so it parks the
// offer at DELIVERED and waits for the buyer to confirm out of band.
type Service interface {
	IssueOTP(ctx context.Context, offerID uuid.UUID) (string, error)
	ConfirmWithOTP(ctx context.Context, offerID uuid.UUID, code string) error
	ConfirmWithPhoto(ctx context.Context, offerID uuid.UUID, evidenceRef string) error
	ConfirmDelivered(ctx context.Context, offerID uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	verifier Verifier
	notifier notifier
	now      func() time.Time
}

// NewService builds the delivery service with the required dependencies.
func NewService(repo Repository, tx txRunner, verifier Verifier, notify notifier, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("otp verifier required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, tx: tx, verifier: verifier, notifier: notify, now: now}, nil
}

func (s *service) IssueOTP(ctx context.Context, offerID uuid.UUID) (string, error) {
	if offerID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	offer, err := s.repo.FindOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if offer.Status != enums.VendorOfferStatusReady {
		return "", pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("codes are only issued for ready offers, not %s", offer.Status))
	}
	return s.verifier.Issue(ctx, offerID)
}

func (s *service) ConfirmWithOTP(ctx context.Context, offerID uuid.UUID, code string) error {
	if offerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}

	var buyerID, vendorID uuid.UUID
	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, order, err := s.lockReadyOffer(ctx, repo, offerID)
		if err != nil {
			return err
		}

		if err := s.verifier.Verify(ctx, offerID, code); err != nil {
			return err
		}

		now := s.now().UTC()
		// Single atomic jump READY→COMPLETED: the offer is never observable
		// as delivered on this path.
		if err := repo.UpdateOffer(ctx, offer.ID, map[string]any{
			"status":              enums.VendorOfferStatusCompleted,
			"verification_method": enums.VerificationMethodOTP,
			"completed_at":        now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete offer")
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}

		// Spend the code last: if either update above fails the code stays
		// live and the buyer retries with the one they already have.
		if err := s.verifier.Consume(ctx, offerID); err != nil {
			return err
		}

		buyerID, vendorID, orderID = order.BuyerID, offer.VendorID, order.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.notifyCompleted(ctx, buyerID, vendorID, orderID)
	return nil
}

func (s *service) ConfirmWithPhoto(ctx context.Context, offerID uuid.UUID, evidenceRef string) error {
	if offerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if strings.TrimSpace(evidenceRef) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "evidence reference required")
	}

	var buyerID uuid.UUID
	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, order, err := s.lockReadyOffer(ctx, repo, offerID)
		if err != nil {
			return err
		}

		// The order stays ACTIVE: vendor-attested proof leaves the buyer a
		// confirmation window.
		if err := repo.UpdateOffer(ctx, offer.ID, map[string]any{
			"status":              enums.VendorOfferStatusDelivered,
			"verification_method": enums.VerificationMethodPhoto,
			"verification_ref":    evidenceRef,
			"delivered_at":        s.now().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark offer delivered")
		}

		buyerID, orderID = order.BuyerID, order.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeDeliveryPending,
		RecipientID: buyerID,
		Role:        enums.ActorRoleBuyer,
		OrderID:     &orderID,
		Title:       "Delivery awaiting your confirmation",
		Message:     "The vendor submitted photo proof of delivery. Confirm receipt or raise a dispute.",
	})
	return nil
}

// ConfirmDelivered is the buyer's out-of-band promotion of a photo-confirmed
// delivery: DELIVERED→COMPLETED on the offer, and the order completes with it.
func (s *service) ConfirmDelivered(ctx context.Context, offerID uuid.UUID) error {
	if offerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}

	var buyerID, vendorID uuid.UUID
	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
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

		if offer.Status != enums.VendorOfferStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot confirm receipt for offer in status %s", offer.Status))
		}
		if order.Status != enums.OrderStatusActive {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot complete order in status %s", order.Status))
		}

		now := s.now().UTC()
		if err := repo.UpdateOffer(ctx, offer.ID, map[string]any{
			"status":       enums.VendorOfferStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete offer")
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}

		buyerID, vendorID, orderID = order.BuyerID, offer.VendorID, order.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.notifyCompleted(ctx, buyerID, vendorID, orderID)
	return nil
}

// lockReadyOffer takes the parent order lock, re-reads the offer, and checks
// both sides are in the only states delivery confirmation is legal from.
func (s *service) lockReadyOffer(ctx context.Context, repo Repository, offerID uuid.UUID) (*models.VendorOffer, *models.Order, error) {
	offer, err := repo.FindOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}

	order, err := repo.FindOrderForUpdate(ctx, offer.OrderID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
	}
	offer, err = repo.FindOffer(ctx, offerID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload offer")
	}

	if offer.Status != enums.VendorOfferStatusReady {
		return nil, nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("delivery confirmation requires a ready offer, not %s", offer.Status))
	}
	if order.Status != enums.OrderStatusActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot confirm delivery for order in status %s", order.Status))
	}
	return offer, order, nil
}

func (s *service) notifyCompleted(ctx context.Context, buyerID, vendorID, orderID uuid.UUID) {
	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeOrderCompleted,
		RecipientID: buyerID,
		Role:        enums.ActorRoleBuyer,
		OrderID:     &orderID,
		Title:       "Order completed",
		Message:     "Delivery confirmed. Thanks for building with us.",
	})
	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeOrderCompleted,
		RecipientID: vendorID,
		Role:        enums.ActorRoleVendor,
		OrderID:     &orderID,
		Title:       "Order completed",
		Message:     "Delivery confirmed. The order will enter your next settlement.",
	})
}
