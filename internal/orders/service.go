package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

// Service owns the buyer-facing order lifecycle. Every transition loads the
// order under FOR UPDATE inside a transaction, so concurrent calls on the same
// order resolve with exactly one winner; the loser sees INVALID_TRANSITION.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Confirm(ctx context.Context, orderID uuid.UUID) error
	Activate(ctx context.Context, orderID uuid.UUID) error
	Complete(ctx context.Context, orderID uuid.UUID) error
	Cancel(ctx context.Context, input CancelOrderInput) error
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*OrderList, error)
}

type service struct {
	repo            Repository
	tx              txRunner
	notifier        notifier
	platformFeeRate decimal.Decimal
	now             func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, notify notifier, platformFeeRate decimal.Decimal, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if platformFeeRate.IsNegative() || platformFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("platform fee rate must be in [0,1)")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:            repo,
		tx:              tx,
		notifier:        notify,
		platformFeeRate: platformFeeRate,
		now:             now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order type must be material or labor")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if input.DeliveryFeePaise < 0 || input.TaxPaise < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fees cannot be negative")
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	var subtotal int64
	for i, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d name required", i))
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d qty must be positive", i))
		}
		if item.UnitPricePaise < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d unit price cannot be negative", i))
		}
		lineTotal := int64(item.Qty) * item.UnitPricePaise
		subtotal += lineTotal
		unit := item.Unit
		if unit == "" {
			unit = "unit"
		}
		items = append(items, models.OrderItem{
			Name:           item.Name,
			Qty:            item.Qty,
			Unit:           unit,
			UnitPricePaise: item.UnitPricePaise,
			TotalPaise:     lineTotal,
		})
	}

	platformFee := decimal.NewFromInt(subtotal).
		Mul(s.platformFeeRate).
		Round(0).
		IntPart()
	total := subtotal + platformFee + input.DeliveryFeePaise + input.TaxPaise

	order := &models.Order{
		BuyerID:          input.BuyerID,
		Type:             input.Type,
		Status:           enums.OrderStatusPending,
		PaymentStatus:    enums.PaymentStatusUnpaid,
		SubtotalPaise:    subtotal,
		PlatformFeePaise: platformFee,
		DeliveryFeePaise: input.DeliveryFeePaise,
		TaxPaise:         input.TaxPaise,
		TotalPaise:       total,
		Items:            items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).CreateOrder(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) Confirm(ctx context.Context, orderID uuid.UUID) error {
	var buyerID uuid.UUID
	err := s.transition(ctx, orderID, func(ctx context.Context, repo Repository, order *models.Order) error {
		if !order.Status.CanTransitionTo(enums.OrderStatusConfirmed) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot confirm order in status %s", order.Status))
		}
		buyerID = order.BuyerID
		now := s.now().UTC()
		return s.update(ctx, repo, order.ID, map[string]any{
			"status":       enums.OrderStatusConfirmed,
			"confirmed_at": now,
		})
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeOrderConfirmed,
		RecipientID: buyerID,
		Role:        enums.ActorRoleBuyer,
		OrderID:     &orderID,
		Title:       "Order confirmed",
		Message:     "Your order was confirmed and will be offered to vendors.",
	})
	return nil
}

func (s *service) Activate(ctx context.Context, orderID uuid.UUID) error {
	var buyerID, vendorID uuid.UUID
	err := s.transition(ctx, orderID, func(ctx context.Context, repo Repository, order *models.Order) error {
		if !order.Status.CanTransitionTo(enums.OrderStatusActive) || order.Status != enums.OrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot activate order in status %s", order.Status))
		}

		accepted, err := repo.FindOfferInStatuses(ctx, order.ID, enums.VendorOfferStatusAccepted)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order has no accepted vendor offer")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load accepted offer")
		}

		buyerID = order.BuyerID
		vendorID = accepted.VendorID
		now := s.now().UTC()
		return s.update(ctx, repo, order.ID, map[string]any{
			"status":       enums.OrderStatusActive,
			"activated_at": now,
		})
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeOrderActivated,
		RecipientID: buyerID,
		Role:        enums.ActorRoleBuyer,
		OrderID:     &orderID,
		Title:       "Order in fulfillment",
		Message:     "A vendor accepted your order and fulfillment has started.",
	})
	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeOrderActivated,
		RecipientID: vendorID,
		Role:        enums.ActorRoleVendor,
		OrderID:     &orderID,
		Title:       "Order active",
		Message:     "The order you accepted is now active.",
	})
	return nil
}

// Complete moves ACTIVE orders to COMPLETED once the accepted offer reports
// delivery. Calling it on an already-completed order succeeds without side
// effects so delivery callbacks can retry safely.
func (s *service) Complete(ctx context.Context, orderID uuid.UUID) error {
	var buyerID uuid.UUID
	alreadyCompleted := false
	err := s.transition(ctx, orderID, func(ctx context.Context, repo Repository, order *models.Order) error {
		if order.Status == enums.OrderStatusCompleted {
			alreadyCompleted = true
			return nil
		}
		if order.Status != enums.OrderStatusActive {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot complete order in status %s", order.Status))
		}

		// Completion is only legal once delivery confirmation has driven the
		// accepted offer all the way to completed.
		_, err := repo.FindOfferInStatuses(ctx, order.ID, enums.VendorOfferStatusCompleted)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, "delivery has not been confirmed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed offer")
		}

		buyerID = order.BuyerID
		now := s.now().UTC()
		return s.update(ctx, repo, order.ID, map[string]any{
			"status":       enums.OrderStatusCompleted,
			"completed_at": now,
		})
	})
	if err != nil {
		return err
	}
	if alreadyCompleted {
		return nil
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeOrderCompleted,
		RecipientID: buyerID,
		Role:        enums.ActorRoleBuyer,
		OrderID:     &orderID,
		Title:       "Order completed",
		Message:     "Your order was delivered and completed.",
	})
	return nil
}

func (s *service) Cancel(ctx context.Context, input CancelOrderInput) error {
	if strings.TrimSpace(input.Reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}

	var buyerID uuid.UUID
	var cancelledVendorID *uuid.UUID
	err := s.transition(ctx, input.OrderID, func(ctx context.Context, repo Repository, order *models.Order) error {
		if !order.Status.CanTransitionTo(enums.OrderStatusCancelled) || order.Status == enums.OrderStatusDisputed {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot cancel order in status %s", order.Status))
		}

		now := s.now().UTC()
		updates := map[string]any{
			"status":              enums.OrderStatusCancelled,
			"cancelled_at":        now,
			"cancellation_reason": input.Reason,
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			updates["payment_status"] = enums.PaymentStatusRefundPending
		}

		accepted, err := repo.FindOfferInStatuses(ctx, order.ID,
			enums.VendorOfferStatusAccepted, enums.VendorOfferStatusInProgress, enums.VendorOfferStatusReady)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load accepted offer")
		}
		if accepted != nil {
			if err := repo.UpdateVendorOffer(ctx, accepted.ID, map[string]any{
				"status": enums.VendorOfferStatusCancelled,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel accepted offer")
			}
			cancelledVendorID = &accepted.VendorID
		}

		buyerID = order.BuyerID
		return s.update(ctx, repo, order.ID, updates)
	})
	if err != nil {
		return err
	}

	orderID := input.OrderID
	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeOrderCancelled,
		RecipientID: buyerID,
		Role:        enums.ActorRoleBuyer,
		OrderID:     &orderID,
		Title:       "Order cancelled",
		Message:     fmt.Sprintf("Your order was cancelled: %s", input.Reason),
	})
	if cancelledVendorID != nil {
		s.notifier.Notify(ctx, notifications.Event{
			Type:        enums.NotificationTypeOrderCancelled,
			RecipientID: *cancelledVendorID,
			Role:        enums.ActorRoleVendor,
			OrderID:     &orderID,
			Title:       "Order cancelled",
			Message:     "An order you accepted was cancelled by the buyer.",
		})
	}
	return nil
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*OrderList, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	list, err := s.repo.ListBuyerOrders(ctx, buyerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return list, nil
}

// transition runs fn with the order row locked inside a transaction.
func (s *service) transition(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context, repo Repository, order *models.Order) error) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		return fn(ctx, repo, order)
	})
}

func (s *service) update(ctx context.Context, repo Repository, orderID uuid.UUID, updates map[string]any) error {
	if err := repo.UpdateOrder(ctx, orderID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	return nil
}
