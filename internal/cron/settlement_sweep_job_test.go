package cron

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buildbazaar/buildbazaar-backend/internal/settlements"
	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
)

type fakeSettlementBuilder struct {
	inputs []settlements.BuildBatchInput
	errs   map[uuid.UUID]error
	empty  map[uuid.UUID]bool
}

func (f *fakeSettlementBuilder) BuildBatch(ctx context.Context, input settlements.BuildBatchInput) (*models.SettlementBatch, error) {
	f.inputs = append(f.inputs, input)
	if err := f.errs[input.VendorID]; err != nil {
		return nil, err
	}
	if f.empty[input.VendorID] {
		return nil, nil
	}
	return &models.SettlementBatch{ID: uuid.New(), VendorID: input.VendorID}, nil
}

type fakeVendorReader struct {
	vendorIDs []uuid.UUID
}

func (f *fakeVendorReader) FindVendorsWithSettleableOrders(ctx context.Context, periodStart, periodEnd time.Time) ([]uuid.UUID, error) {
	return f.vendorIDs, nil
}

func quietTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
}

func TestSettlementSweepJob_BuildsPerVendor(t *testing.T) {
	vendorA := uuid.New()
	vendorB := uuid.New()
	builder := &fakeSettlementBuilder{}
	job, err := NewSettlementSweepJob(SettlementSweepJobParams{
		Logger:  quietTestLogger(t),
		Builder: builder,
		Vendors: &fakeVendorReader{vendorIDs: []uuid.UUID{vendorA, vendorB}},
	})
	if err != nil {
		t.Fatalf("NewSettlementSweepJob: %v", err)
	}
	now := time.Date(2026, 8, 10, 3, 30, 0, 0, time.UTC)
	job.(*settlementSweepJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(builder.inputs) != 2 {
		t.Fatalf("expected 2 builds, got %d", len(builder.inputs))
	}
	wantEnd := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	if !builder.inputs[0].PeriodEnd.Equal(wantEnd) {
		t.Fatalf("period end = %s, want %s", builder.inputs[0].PeriodEnd, wantEnd)
	}
	if !builder.inputs[0].PeriodStart.Equal(wantEnd.Add(-defaultSettlementPeriod)) {
		t.Fatalf("period start = %s", builder.inputs[0].PeriodStart)
	}
}

func TestSettlementSweepJob_ContinuesPastFailures(t *testing.T) {
	vendorA := uuid.New()
	vendorB := uuid.New()
	builder := &fakeSettlementBuilder{
		errs: map[uuid.UUID]error{
			vendorA: pkgerrors.New(pkgerrors.CodeConcurrencyConflict, "stamp race"),
		},
	}
	job, err := NewSettlementSweepJob(SettlementSweepJobParams{
		Logger:  quietTestLogger(t),
		Builder: builder,
		Vendors: &fakeVendorReader{vendorIDs: []uuid.UUID{vendorA, vendorB}},
	})
	if err != nil {
		t.Fatalf("NewSettlementSweepJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected combined error from failed vendor")
	}
	if len(builder.inputs) != 2 {
		t.Fatalf("expected both vendors attempted, got %d", len(builder.inputs))
	}
}

func TestSettlementSweepJob_IgnoresRivalBuild(t *testing.T) {
	vendorA := uuid.New()
	builder := &fakeSettlementBuilder{
		errs: map[uuid.UUID]error{
			vendorA: pkgerrors.New(pkgerrors.CodeConcurrencyConflict, "stamped 0 of 2 member orders"),
		},
	}
	job, err := NewSettlementSweepJob(SettlementSweepJobParams{
		Logger:  quietTestLogger(t),
		Builder: builder,
		Vendors: &fakeVendorReader{vendorIDs: []uuid.UUID{vendorA}},
	})
	if err != nil {
		t.Fatalf("NewSettlementSweepJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
