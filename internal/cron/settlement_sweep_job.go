package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/buildbazaar/buildbazaar-backend/internal/settlements"
	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
)

const defaultSettlementPeriod = 7 * 24 * time.Hour

type settlementBuilder interface {
	BuildBatch(ctx context.Context, input settlements.BuildBatchInput) (*models.SettlementBatch, error)
}

type settleableVendorReader interface {
	FindVendorsWithSettleableOrders(ctx context.Context, periodStart, periodEnd time.Time) ([]uuid.UUID, error)
}

// SettlementSweepJobParams configure the periodic settlement build.
type SettlementSweepJobParams struct {
	Logger  *logger.Logger
	Builder settlementBuilder
	Vendors settleableVendorReader
	Period  time.Duration
}

// NewSettlementSweepJob builds the cron job that settles the most recent
// closed period for every vendor with unbatched completed orders.
func NewSettlementSweepJob(params SettlementSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Builder == nil {
		return nil, fmt.Errorf("settlement builder required")
	}
	if params.Vendors == nil {
		return nil, fmt.Errorf("vendor reader required")
	}
	period := params.Period
	if period <= 0 {
		period = defaultSettlementPeriod
	}
	return &settlementSweepJob{
		logg:    params.Logger,
		builder: params.Builder,
		vendors: params.Vendors,
		period:  period,
		now:     time.Now,
	}, nil
}

type settlementSweepJob struct {
	logg    *logger.Logger
	builder settlementBuilder
	vendors settleableVendorReader
	period  time.Duration
	now     func() time.Time
}

func (j *settlementSweepJob) Name() string { return "settlement-sweep" }

func (j *settlementSweepJob) Run(ctx context.Context) error {
	periodEnd := j.now().UTC().Truncate(24 * time.Hour)
	periodStart := periodEnd.Add(-j.period)

	vendorIDs, err := j.vendors.FindVendorsWithSettleableOrders(ctx, periodStart, periodEnd)
	if err != nil {
		return fmt.Errorf("scan settleable vendors: %w", err)
	}

	var errs []error
	built := 0
	for _, vendorID := range vendorIDs {
		batch, err := j.builder.BuildBatch(ctx, settlements.BuildBatchInput{
			VendorID:    vendorID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		})
		if err != nil {
			// A rival build stamping the same orders between scan and build
			// is not a failure; the next cycle finds nothing left.
			if pkgerrors.IsCode(err, pkgerrors.CodeConcurrencyConflict) {
				continue
			}
			errs = append(errs, fmt.Errorf("build batch for vendor %s: %w", vendorID, err))
			continue
		}
		if batch != nil {
			built++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"vendors": len(vendorIDs),
		"batches": built,
	})
	j.logg.Info(logCtx, "settlement sweep complete")
	return multierr.Combine(errs...)
}
