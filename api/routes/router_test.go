package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/buildbazaar/buildbazaar-backend/api/controllers"
	"github.com/buildbazaar/buildbazaar-backend/internal/disputes"
	"github.com/buildbazaar/buildbazaar-backend/internal/notifications"
	"github.com/buildbazaar/buildbazaar-backend/internal/offers"
	"github.com/buildbazaar/buildbazaar-backend/internal/orders"
	"github.com/buildbazaar/buildbazaar-backend/internal/settlements"
	"github.com/buildbazaar/buildbazaar-backend/pkg/config"
	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubIdemStore struct{}

func (stubIdemStore) IdempotencyKey(scope, key string) string { return scope + ":" + key }

func (stubIdemStore) Get(ctx context.Context, key string) (string, error) {
	return "", redis.Nil
}

func (stubIdemStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return true, nil
}

type stubOrders struct{ getOrder *models.Order }

func (s stubOrders) Create(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (s stubOrders) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.getOrder, nil
}

func (stubOrders) Confirm(ctx context.Context, orderID uuid.UUID) error  { return nil }
func (stubOrders) Activate(ctx context.Context, orderID uuid.UUID) error { return nil }
func (stubOrders) Complete(ctx context.Context, orderID uuid.UUID) error { return nil }
func (stubOrders) Cancel(ctx context.Context, input orders.CancelOrderInput) error {
	return nil
}

func (stubOrders) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters orders.BuyerOrderFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

type stubOffers struct{}

func (stubOffers) Offer(ctx context.Context, input offers.OfferInput) ([]models.VendorOffer, error) {
	return nil, nil
}

func (stubOffers) Get(ctx context.Context, offerID uuid.UUID) (*models.VendorOffer, error) {
	return &models.VendorOffer{}, nil
}

func (stubOffers) Accept(ctx context.Context, offerID uuid.UUID) error        { return nil }
func (stubOffers) Reject(ctx context.Context, input offers.RejectInput) error { return nil }
func (stubOffers) StartProgress(ctx context.Context, offerID uuid.UUID) error { return nil }
func (stubOffers) MarkReady(ctx context.Context, offerID uuid.UUID) error     { return nil }

func (stubOffers) ListVendorOffers(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters offers.VendorOfferFilters) (*offers.OfferList, error) {
	return &offers.OfferList{}, nil
}

type stubDelivery struct{}

func (stubDelivery) IssueOTP(ctx context.Context, offerID uuid.UUID) (string, error) {
	return "123456", nil
}

func (stubDelivery) ConfirmWithOTP(ctx context.Context, offerID uuid.UUID, code string) error {
	return nil
}

func (stubDelivery) ConfirmWithPhoto(ctx context.Context, offerID uuid.UUID, evidenceRef string) error {
	return nil
}

func (stubDelivery) ConfirmDelivered(ctx context.Context, offerID uuid.UUID) error { return nil }

type stubDisputes struct{}

func (stubDisputes) Open(ctx context.Context, input disputes.OpenDisputeInput) (*models.Dispute, error) {
	return &models.Dispute{}, nil
}

func (stubDisputes) Get(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	return &models.Dispute{}, nil
}

func (stubDisputes) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error) {
	return nil, nil
}

func (stubDisputes) StartReview(ctx context.Context, input disputes.ReviewInput) error { return nil }
func (stubDisputes) Escalate(ctx context.Context, input disputes.EscalateInput) error  { return nil }
func (stubDisputes) Resolve(ctx context.Context, input disputes.ResolveInput) error    { return nil }
func (stubDisputes) AddEvidence(ctx context.Context, input disputes.AddEvidenceInput) error {
	return nil
}

type stubSettlements struct{}

func (stubSettlements) BuildBatch(ctx context.Context, input settlements.BuildBatchInput) (*models.SettlementBatch, error) {
	return &models.SettlementBatch{}, nil
}

func (stubSettlements) Get(ctx context.Context, batchID uuid.UUID) (*models.SettlementBatch, error) {
	return &models.SettlementBatch{}, nil
}

func (stubSettlements) ListVendorBatches(ctx context.Context, input settlements.ListBatchesInput) (*settlements.BatchList, error) {
	return &settlements.BatchList{}, nil
}

func (stubSettlements) MarkProcessing(ctx context.Context, batchID uuid.UUID) error { return nil }
func (stubSettlements) MarkPaid(ctx context.Context, batchID uuid.UUID, paymentRef string) error {
	return nil
}
func (stubSettlements) MarkFailed(ctx context.Context, batchID uuid.UUID) error { return nil }

type stubNotifications struct{}

func (stubNotifications) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotifications) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotifications) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func testRouter(t *testing.T, readiness map[string]controllers.Pinger) http.Handler {
	t.Helper()
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	logg := logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
	return NewRouter(cfg, logg, readiness, stubIdemStore{}, Services{
		Orders:        stubOrders{getOrder: &models.Order{ID: uuid.New()}},
		Offers:        stubOffers{},
		Delivery:      stubDelivery{},
		Disputes:      stubDisputes{},
		Settlements:   stubSettlements{},
		Notifications: stubNotifications{},
	})
}

func TestHealthLiveNeedsNoHeaders(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-BuildBazaar-Env") != "test" {
		t.Fatalf("missing env header")
	}
}

func TestHealthReadyReportsDependencyFailure(t *testing.T) {
	router := testRouter(t, map[string]controllers.Pinger{
		"postgres": stubPinger{err: context.DeadlineExceeded},
	})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAPIRoutesRequireActorHeaders(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestGetOrderRoutesThroughMiddleware(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	req.Header.Set("X-Actor-Id", uuid.NewString())
	req.Header.Set("X-Actor-Role", string(enums.ActorRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestGuardedRouteRequiresIdempotencyKey(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/"+uuid.NewString()+"/accept", nil)
	req.Header.Set("X-Actor-Id", uuid.NewString())
	req.Header.Set("X-Actor-Role", string(enums.ActorRoleVendor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}
