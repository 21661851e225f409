package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	internalsettlements "github.com/buildbazaar/buildbazaar-backend/internal/settlements"
	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
)

type stubSettlementService struct {
	buildFn      func(ctx context.Context, input internalsettlements.BuildBatchInput) (*models.SettlementBatch, error)
	getFn        func(ctx context.Context, batchID uuid.UUID) (*models.SettlementBatch, error)
	listFn       func(ctx context.Context, input internalsettlements.ListBatchesInput) (*internalsettlements.BatchList, error)
	processingFn func(ctx context.Context, batchID uuid.UUID) error
	paidFn       func(ctx context.Context, batchID uuid.UUID, paymentRef string) error
	failedFn     func(ctx context.Context, batchID uuid.UUID) error
}

func (s stubSettlementService) BuildBatch(ctx context.Context, input internalsettlements.BuildBatchInput) (*models.SettlementBatch, error) {
	if s.buildFn != nil {
		return s.buildFn(ctx, input)
	}
	return nil, nil
}

func (s stubSettlementService) Get(ctx context.Context, batchID uuid.UUID) (*models.SettlementBatch, error) {
	if s.getFn != nil {
		return s.getFn(ctx, batchID)
	}
	return &models.SettlementBatch{}, nil
}

func (s stubSettlementService) ListVendorBatches(ctx context.Context, input internalsettlements.ListBatchesInput) (*internalsettlements.BatchList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, input)
	}
	return &internalsettlements.BatchList{}, nil
}

func (s stubSettlementService) MarkProcessing(ctx context.Context, batchID uuid.UUID) error {
	if s.processingFn != nil {
		return s.processingFn(ctx, batchID)
	}
	return nil
}

func (s stubSettlementService) MarkPaid(ctx context.Context, batchID uuid.UUID, paymentRef string) error {
	if s.paidFn != nil {
		return s.paidFn(ctx, batchID, paymentRef)
	}
	return nil
}

func (s stubSettlementService) MarkFailed(ctx context.Context, batchID uuid.UUID) error {
	if s.failedFn != nil {
		return s.failedFn(ctx, batchID)
	}
	return nil
}

func TestBuildSettlementCreatesBatch(t *testing.T) {
	vendorID := uuid.New()
	batchID := uuid.New()
	periodStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC)

	svc := stubSettlementService{
		buildFn: func(ctx context.Context, input internalsettlements.BuildBatchInput) (*models.SettlementBatch, error) {
			if input.VendorID != vendorID {
				t.Fatalf("unexpected vendor %s", input.VendorID)
			}
			if !input.PeriodStart.Equal(periodStart) || !input.PeriodEnd.Equal(periodEnd) {
				t.Fatalf("unexpected period %s..%s", input.PeriodStart, input.PeriodEnd)
			}
			if input.AdjustmentsPaise != 5_000 {
				t.Fatalf("unexpected adjustments %d", input.AdjustmentsPaise)
			}
			return &models.SettlementBatch{ID: batchID, Status: enums.SettlementBatchStatusPending}, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"vendor_id":         vendorID.String(),
		"period_start":      periodStart.Format(time.RFC3339),
		"period_end":        periodEnd.Format(time.RFC3339),
		"adjustments_paise": 5_000,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements", body)
	resp := httptest.NewRecorder()
	BuildSettlement(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestBuildSettlementEmptyPeriodIsNoContent(t *testing.T) {
	svc := stubSettlementService{
		buildFn: func(ctx context.Context, input internalsettlements.BuildBatchInput) (*models.SettlementBatch, error) {
			return nil, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"vendor_id":    uuid.New().String(),
		"period_start": "2026-07-01T00:00:00Z",
		"period_end":   "2026-07-08T00:00:00Z",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements", body)
	resp := httptest.NewRecorder()
	BuildSettlement(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestBuildSettlementMapsStampRace(t *testing.T) {
	svc := stubSettlementService{
		buildFn: func(ctx context.Context, input internalsettlements.BuildBatchInput) (*models.SettlementBatch, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConcurrencyConflict, "stamped 1 of 2 member orders")
		},
	}

	body := jsonBody(t, map[string]any{
		"vendor_id":    uuid.New().String(),
		"period_start": "2026-07-01T00:00:00Z",
		"period_end":   "2026-07-08T00:00:00Z",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements", body)
	resp := httptest.NewRecorder()
	BuildSettlement(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeConcurrencyConflict) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestMarkSettlementPaid(t *testing.T) {
	batchID := uuid.New()
	svc := stubSettlementService{
		paidFn: func(ctx context.Context, id uuid.UUID, paymentRef string) error {
			if id != batchID || paymentRef != "NEFT-20260815-00431" {
				t.Fatalf("unexpected input %s %q", id, paymentRef)
			}
			return nil
		},
	}

	body := jsonBody(t, map[string]any{"payment_ref": "NEFT-20260815-00431"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/"+batchID.String()+"/paid", body)
	req = withRouteParam(req, "batchID", batchID.String())
	resp := httptest.NewRecorder()
	MarkSettlementPaid(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestMarkSettlementPaidRequiresRef(t *testing.T) {
	batchID := uuid.New()
	body := jsonBody(t, map[string]any{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/"+batchID.String()+"/paid", body)
	req = withRouteParam(req, "batchID", batchID.String())
	resp := httptest.NewRecorder()
	MarkSettlementPaid(stubSettlementService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListVendorSettlementsUsesActor(t *testing.T) {
	vendorID := uuid.New()
	svc := stubSettlementService{
		listFn: func(ctx context.Context, input internalsettlements.ListBatchesInput) (*internalsettlements.BatchList, error) {
			if input.VendorID != vendorID {
				t.Fatalf("unexpected vendor %s", input.VendorID)
			}
			if input.Limit != 5 {
				t.Fatalf("unexpected limit %d", input.Limit)
			}
			return &internalsettlements.BatchList{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/settlements?limit=5", nil)
	req = withActor(req, vendorID, enums.ActorRoleVendor)
	resp := httptest.NewRecorder()
	ListVendorSettlements(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListVendorSettlementsParsesPeriodFilters(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC)
	svc := stubSettlementService{
		listFn: func(ctx context.Context, input internalsettlements.ListBatchesInput) (*internalsettlements.BatchList, error) {
			if input.PeriodStart == nil || !input.PeriodStart.Equal(start) {
				t.Fatalf("unexpected period_start %v", input.PeriodStart)
			}
			if input.PeriodEnd == nil || !input.PeriodEnd.Equal(end) {
				t.Fatalf("unexpected period_end %v", input.PeriodEnd)
			}
			return &internalsettlements.BatchList{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/settlements?period_start=2026-07-01T00:00:00Z&period_end=2026-07-08T00:00:00Z", nil)
	req = withActor(req, uuid.New(), enums.ActorRoleVendor)
	resp := httptest.NewRecorder()
	ListVendorSettlements(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListVendorSettlementsRejectsBadPeriod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settlements?period_start=last-week", nil)
	req = withActor(req, uuid.New(), enums.ActorRoleVendor)
	resp := httptest.NewRecorder()
	ListVendorSettlements(stubSettlementService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
