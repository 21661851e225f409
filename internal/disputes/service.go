package disputes

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

// Service runs the dispute workflow. Opening a dispute flips the order to
// DISPUTED in the same transaction that creates the dispute row, under the
// order's row lock, so a disputed order is never batchable even for an
// instant. Every transition appends one immutable timeline entry.
type Service interface {
	Open(ctx context.Context, input OpenDisputeInput) (*models.Dispute, error)
	Get(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error)
	StartReview(ctx context.Context, input ReviewInput) error
	Escalate(ctx context.Context, input EscalateInput) error
	Resolve(ctx context.Context, input ResolveInput) error
	AddEvidence(ctx context.Context, input AddEvidenceInput) error
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier notifier
	now      func() time.Time
}

// NewService builds the dispute service with the required dependencies.
func NewService(repo Repository, tx txRunner, notify notifier, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("disputes repository required")
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

func (s *service) Open(ctx context.Context, input OpenDisputeInput) (*models.Dispute, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.RaisedByID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raiser id required")
	}
	if !input.RaisedByRole.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raiser role invalid")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute reason invalid")
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.DisputePriorityMedium
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute priority invalid")
	}

	var dispute *models.Dispute
	var buyerID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}

		// Settlement stamping happens under the same lock, so an in-flight
		// batch build is observable here.
		if order.SettlementBatchID != nil {
			return pkgerrors.New(pkgerrors.CodeAlreadySettled, "order already belongs to a settlement batch")
		}
		if order.Status != enums.OrderStatusActive && order.Status != enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot dispute order in status %s", order.Status))
		}

		if _, err := repo.FindOpenDisputeByOrder(ctx, order.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order already has an open dispute")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open disputes")
		}

		amount := input.DisputedAmountPaise
		if amount == 0 {
			amount = order.TotalPaise
		}
		if amount < 0 || amount > order.TotalPaise {
			return pkgerrors.New(pkgerrors.CodeValidation, "disputed amount out of range")
		}

		row := &models.Dispute{
			OrderID:             order.ID,
			RaisedByID:          input.RaisedByID,
			RaisedByRole:        input.RaisedByRole,
			Reason:              input.Reason,
			Status:              enums.DisputeStatusOpen,
			Priority:            priority,
			DisputedAmountPaise: amount,
		}
		if desc := strings.TrimSpace(input.Description); desc != "" {
			row.Description = &desc
		}
		created, err := repo.CreateDispute(ctx, row)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create dispute")
		}

		now := s.now().UTC()
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":                enums.OrderStatusDisputed,
			"status_before_dispute": order.Status,
			"disputed_at":           now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flip order to disputed")
		}

		if err := s.appendTimeline(ctx, repo, created.ID, input.RaisedByID, input.RaisedByRole,
			"opened", fmt.Sprintf("dispute opened: %s", input.Reason)); err != nil {
			return err
		}

		dispute = created
		buyerID = order.BuyerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	orderID := input.OrderID
	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeDisputeOpened,
		RecipientID: buyerID,
		Role:        enums.ActorRoleBuyer,
		OrderID:     &orderID,
		Title:       "Dispute opened",
		Message:     fmt.Sprintf("A dispute (%s) was opened on your order.", dispute.Reason),
	})
	return dispute, nil
}

func (s *service) Get(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	if disputeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}
	dispute, err := s.repo.FindDispute(ctx, disputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	return dispute, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	disputes, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list disputes")
	}
	return disputes, nil
}

func (s *service) StartReview(ctx context.Context, input ReviewInput) error {
	if input.ReviewerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reviewer id required")
	}
	return s.transition(ctx, input.DisputeID, func(ctx context.Context, repo Repository, dispute *models.Dispute) error {
		if !dispute.Status.CanTransitionTo(enums.DisputeStatusUnderReview) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot start review from status %s", dispute.Status))
		}
		if err := repo.UpdateDispute(ctx, dispute.ID, map[string]any{
			"status":         enums.DisputeStatusUnderReview,
			"assigned_to_id": input.ReviewerID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update dispute")
		}
		return s.appendTimeline(ctx, repo, dispute.ID, input.ReviewerID, enums.ActorRoleAdmin,
			"review_started", "dispute picked up for review")
	})
}

func (s *service) Escalate(ctx context.Context, input EscalateInput) error {
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	return s.transition(ctx, input.DisputeID, func(ctx context.Context, repo Repository, dispute *models.Dispute) error {
		if !dispute.Status.CanTransitionTo(enums.DisputeStatusEscalated) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot escalate from status %s", dispute.Status))
		}
		updates := map[string]any{"status": enums.DisputeStatusEscalated}
		if dispute.Priority != enums.DisputePriorityUrgent {
			updates["priority"] = enums.DisputePriorityHigh
		}
		if err := repo.UpdateDispute(ctx, dispute.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update dispute")
		}
		description := "dispute escalated"
		if note := strings.TrimSpace(input.Note); note != "" {
			description = fmt.Sprintf("dispute escalated: %s", note)
		}
		return s.appendTimeline(ctx, repo, dispute.ID, input.ActorID, input.ActorRole, "escalated", description)
	})
}

func (s *service) Resolve(ctx context.Context, input ResolveInput) error {
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	if !input.Outcome.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s is not a terminal outcome", input.Outcome))
	}

	var buyerID uuid.UUID
	var orderID uuid.UUID
	err := s.transition(ctx, input.DisputeID, func(ctx context.Context, repo Repository, dispute *models.Dispute) error {
		if !dispute.Status.CanTransitionTo(input.Outcome) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot resolve from status %s", dispute.Status))
		}

		order, err := repo.FindOrderForUpdate(ctx, dispute.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if order.Status != enums.OrderStatusDisputed {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("order is not disputed (status %s)", order.Status))
		}

		restored := enums.OrderStatusCompleted
		if order.StatusBeforeDispute != nil {
			restored = *order.StatusBeforeDispute
		}

		now := s.now().UTC()
		orderUpdates := map[string]any{
			"status_before_dispute": nil,
		}
		disputeUpdates := map[string]any{
			"status":      input.Outcome,
			"resolved_at": now,
		}
		if note := strings.TrimSpace(input.Note); note != "" {
			disputeUpdates["resolution_note"] = note
		}

		switch input.Outcome {
		case enums.DisputeStatusRejected, enums.DisputeStatusResolvedReplacement:
			// Order comes back exactly where the dispute found it.
			orderUpdates["status"] = restored
		case enums.DisputeStatusResolvedRefund:
			refund := order.TotalPaise
			if input.RefundAmountPaise != nil {
				refund = *input.RefundAmountPaise
			}
			if refund <= 0 || refund > order.TotalPaise {
				return pkgerrors.New(pkgerrors.CodeValidation, "refund amount out of range")
			}
			orderUpdates["status"] = enums.OrderStatusCancelled
			orderUpdates["cancelled_at"] = now
			orderUpdates["payment_status"] = enums.PaymentStatusRefundPending
			orderUpdates["refund_paise"] = refund
			disputeUpdates["refund_amount_paise"] = refund
		case enums.DisputeStatusResolvedPartialRefund:
			if input.RefundAmountPaise == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "partial refund requires an amount")
			}
			refund := *input.RefundAmountPaise
			if refund <= 0 || refund >= order.TotalPaise {
				return pkgerrors.New(pkgerrors.CodeValidation, "partial refund amount out of range")
			}
			// The order stays settlement-eligible at the reduced amount.
			orderUpdates["status"] = restored
			orderUpdates["payment_status"] = enums.PaymentStatusPartiallyRefunded
			orderUpdates["refund_paise"] = refund
			disputeUpdates["refund_amount_paise"] = refund
		}

		if err := repo.UpdateDispute(ctx, dispute.ID, disputeUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update dispute")
		}
		if err := repo.UpdateOrder(ctx, order.ID, orderUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore order")
		}
		if err := s.appendTimeline(ctx, repo, dispute.ID, input.ActorID, input.ActorRole,
			"resolved", fmt.Sprintf("dispute closed as %s", input.Outcome)); err != nil {
			return err
		}

		buyerID = order.BuyerID
		orderID = order.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeDisputeResolved,
		RecipientID: buyerID,
		Role:        enums.ActorRoleBuyer,
		OrderID:     &orderID,
		Title:       "Dispute resolved",
		Message:     fmt.Sprintf("Your dispute was closed as %s.", input.Outcome),
	})
	return nil
}

func (s *service) AddEvidence(ctx context.Context, input AddEvidenceInput) error {
	if !input.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "evidence kind invalid")
	}
	if strings.TrimSpace(input.Ref) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "evidence reference required")
	}
	if input.UploadedByID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "uploader id required")
	}

	return s.transition(ctx, input.DisputeID, func(ctx context.Context, repo Repository, dispute *models.Dispute) error {
		if dispute.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "closed disputes are immutable")
		}
		if err := repo.AddEvidence(ctx, &models.DisputeEvidence{
			DisputeID:      dispute.ID,
			Kind:           input.Kind,
			Ref:            input.Ref,
			UploadedByID:   input.UploadedByID,
			UploadedByRole: input.UploadedByRole,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store evidence")
		}
		return s.appendTimeline(ctx, repo, dispute.ID, input.UploadedByID, input.UploadedByRole,
			"evidence_added", fmt.Sprintf("%s evidence attached", input.Kind))
	})
}

// transition runs fn with the dispute loaded inside a transaction.
func (s *service) transition(ctx context.Context, disputeID uuid.UUID, fn func(ctx context.Context, repo Repository, dispute *models.Dispute) error) error {
	if disputeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		dispute, err := repo.FindDispute(ctx, disputeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
		}
		return fn(ctx, repo, dispute)
	})
}

func (s *service) appendTimeline(ctx context.Context, repo Repository, disputeID, actorID uuid.UUID, role enums.ActorRole, action, description string) error {
	entry := &models.DisputeTimelineEntry{
		DisputeID:   disputeID,
		ActorID:     actorID,
		ActorRole:   role,
		Action:      action,
		Description: description,
	}
	if err := repo.AppendTimeline(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append timeline")
	}
	return nil
}
