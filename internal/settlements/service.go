package settlements

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

// Service builds and pays out settlement batches. A batch is immutable once
// created: membership is stamped in the same transaction, and re-running a
// build for the same period finds nothing left to batch.
type Service interface {
	BuildBatch(ctx context.Context, input BuildBatchInput) (*models.SettlementBatch, error)
	Get(ctx context.Context, batchID uuid.UUID) (*models.SettlementBatch, error)
	ListVendorBatches(ctx context.Context, input ListBatchesInput) (*BatchList, error)
	MarkProcessing(ctx context.Context, batchID uuid.UUID) error
	MarkPaid(ctx context.Context, batchID uuid.UUID, paymentRef string) error
	MarkFailed(ctx context.Context, batchID uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier notifier
	feeRate  decimal.Decimal
	tdsRate  decimal.Decimal
	now      func() time.Time
}

// NewService builds the settlement service with the configured rates.
func NewService(repo Repository, tx txRunner, notify notifier, feeRate, tdsRate decimal.Decimal, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlements repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if feeRate.IsNegative() || tdsRate.IsNegative() {
		return nil, fmt.Errorf("settlement rates must be non-negative")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, tx: tx, notifier: notify, feeRate: feeRate, tdsRate: tdsRate, now: now}, nil
}

// BuildBatch settles the vendor's eligible completed orders for the period.
// An empty eligible set is a no-op returning (nil, nil): zero-amount batches
// are never written.
func (s *service) BuildBatch(ctx context.Context, input BuildBatchInput) (*models.SettlementBatch, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if !input.PeriodStart.Before(input.PeriodEnd) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period start must precede period end")
	}
	if input.PeriodEnd.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot settle an open period")
	}

	var batch *models.SettlementBatch
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Rebuilding a period is harmless: members of an earlier batch carry
		// a settlement_batch_id stamp and never re-select, so a re-run with
		// nothing new to settle falls through to the empty no-op below.
		orders, err := repo.FindEligibleOrdersForUpdate(ctx, input.VendorID, input.PeriodStart, input.PeriodEnd)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "select eligible orders")
		}
		if len(orders) == 0 {
			return nil
		}

		totals := computeTotals(orders, s.feeRate, s.tdsRate, input.AdjustmentsPaise)
		created, err := repo.CreateBatch(ctx, &models.SettlementBatch{
			VendorID:         input.VendorID,
			PeriodStart:      input.PeriodStart,
			PeriodEnd:        input.PeriodEnd,
			OrderCount:       totals.OrderCount,
			GrossPaise:       totals.GrossPaise,
			PlatformFeePaise: totals.PlatformFeePaise,
			TDSPaise:         totals.TDSPaise,
			AdjustmentsPaise: totals.AdjustmentsPaise,
			NetPaise:         totals.NetPaise,
			Status:           enums.SettlementBatchStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create batch")
		}

		ids := make([]uuid.UUID, len(orders))
		for i, order := range orders {
			ids[i] = order.ID
		}
		stamped, err := repo.StampOrders(ctx, created.ID, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp member orders")
		}
		if stamped != int64(len(ids)) {
			// A member gained a batch reference between select and stamp.
			// Roll the whole build back and let the caller retry.
			return pkgerrors.New(pkgerrors.CodeConcurrencyConflict,
				fmt.Sprintf("stamped %d of %d member orders", stamped, len(ids)))
		}

		batch = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, nil
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:        enums.NotificationTypeSettlementReady,
		RecipientID: input.VendorID,
		Role:        enums.ActorRoleVendor,
		Title:       "Settlement batch created",
		Message:     fmt.Sprintf("A settlement of %d orders is pending payout.", batch.OrderCount),
	})
	return batch, nil
}

func (s *service) Get(ctx context.Context, batchID uuid.UUID) (*models.SettlementBatch, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}
	batch, err := s.repo.FindBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settlement batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
	}
	return batch, nil
}

func (s *service) ListVendorBatches(ctx context.Context, input ListBatchesInput) (*BatchList, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.PeriodStart != nil && input.PeriodEnd != nil && !input.PeriodStart.Before(*input.PeriodEnd) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period start must precede period end")
	}
	list, err := s.repo.ListVendorBatches(ctx, input.VendorID, pagination.Params{Limit: input.Limit, Cursor: input.Cursor},
		BatchFilters{PeriodStart: input.PeriodStart, PeriodEnd: input.PeriodEnd})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list batches")
	}
	return list, nil
}

func (s *service) MarkProcessing(ctx context.Context, batchID uuid.UUID) error {
	return s.transition(ctx, batchID, enums.SettlementBatchStatusProcessing, nil)
}

func (s *service) MarkPaid(ctx context.Context, batchID uuid.UUID, paymentRef string) error {
	ref := strings.TrimSpace(paymentRef)
	if ref == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	return s.transition(ctx, batchID, enums.SettlementBatchStatusPaid, map[string]any{
		"payment_ref": ref,
		"paid_at":     s.now().UTC(),
	})
}

func (s *service) MarkFailed(ctx context.Context, batchID uuid.UUID) error {
	return s.transition(ctx, batchID, enums.SettlementBatchStatusFailed, nil)
}

func (s *service) transition(ctx context.Context, batchID uuid.UUID, target enums.SettlementBatchStatus, extra map[string]any) error {
	if batchID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		batch, err := repo.FindBatchForUpdate(ctx, batchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "settlement batch not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock batch")
		}
		if !batch.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move batch from %s to %s", batch.Status, target))
		}
		updates := map[string]any{"status": target}
		for key, value := range extra {
			updates[key] = value
		}
		if err := repo.UpdateBatch(ctx, batch.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update batch")
		}
		return nil
	})
}
