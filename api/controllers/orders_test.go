package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/api/middleware"
	internalorders "github.com/buildbazaar/buildbazaar-backend/internal/orders"
	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

type stubOrderService struct {
	createFn   func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error)
	getFn      func(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	confirmFn  func(ctx context.Context, orderID uuid.UUID) error
	activateFn func(ctx context.Context, orderID uuid.UUID) error
	completeFn func(ctx context.Context, orderID uuid.UUID) error
	cancelFn   func(ctx context.Context, input internalorders.CancelOrderInput) error
	listFn     func(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters internalorders.BuyerOrderFilters) (*internalorders.OrderList, error)
}

func (s stubOrderService) Create(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &models.Order{}, nil
}

func (s stubOrderService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return &models.Order{}, nil
}

func (s stubOrderService) Confirm(ctx context.Context, orderID uuid.UUID) error {
	if s.confirmFn != nil {
		return s.confirmFn(ctx, orderID)
	}
	return nil
}

func (s stubOrderService) Activate(ctx context.Context, orderID uuid.UUID) error {
	if s.activateFn != nil {
		return s.activateFn(ctx, orderID)
	}
	return nil
}

func (s stubOrderService) Complete(ctx context.Context, orderID uuid.UUID) error {
	if s.completeFn != nil {
		return s.completeFn(ctx, orderID)
	}
	return nil
}

func (s stubOrderService) Cancel(ctx context.Context, input internalorders.CancelOrderInput) error {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, input)
	}
	return nil
}

func (s stubOrderService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters internalorders.BuyerOrderFilters) (*internalorders.OrderList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, buyerID, params, filters)
	}
	return &internalorders.OrderList{}, nil
}

func withActor(req *http.Request, actor uuid.UUID, role enums.ActorRole) *http.Request {
	ctx := middleware.WithActorID(req.Context(), actor.String())
	ctx = middleware.WithActorRole(ctx, string(role))
	return req.WithContext(ctx)
}

func withRouteParam(req *http.Request, name, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func jsonBody(t *testing.T, payload any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(raw)
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}

func TestCreateOrder(t *testing.T) {
	buyerID := uuid.New()
	orderID := uuid.New()

	svc := stubOrderService{
		createFn: func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
			if input.BuyerID != buyerID {
				t.Fatalf("unexpected buyer %s", input.BuyerID)
			}
			if input.Type != enums.OrderTypeMaterial {
				t.Fatalf("unexpected type %s", input.Type)
			}
			if len(input.Items) != 1 || input.Items[0].Qty != 40 {
				t.Fatalf("unexpected items %+v", input.Items)
			}
			return &models.Order{ID: orderID, Status: enums.OrderStatusPending}, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"type": "material",
		"items": []map[string]any{{
			"name":             "OPC 53 cement",
			"qty":              40,
			"unit":             "bag",
			"unit_price_paise": 42_500,
		}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", body)
	req = withActor(req, buyerID, enums.ActorRoleBuyer)
	resp := httptest.NewRecorder()
	CreateOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != orderID {
		t.Fatalf("unexpected order %s", envelope.Data.ID)
	}
}

func TestCreateOrderRejectsUnknownType(t *testing.T) {
	body := jsonBody(t, map[string]any{
		"type": "plumbing",
		"items": []map[string]any{{
			"name":             "pipe",
			"qty":              1,
			"unit_price_paise": 100,
		}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", body)
	req = withActor(req, uuid.New(), enums.ActorRoleBuyer)
	resp := httptest.NewRecorder()
	CreateOrder(stubOrderService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestCreateOrderRequiresActor(t *testing.T) {
	body := jsonBody(t, map[string]any{"type": "material"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", body)
	resp := httptest.NewRecorder()
	CreateOrder(stubOrderService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestConfirmOrderMapsTransitionError(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrderService{
		confirmFn: func(ctx context.Context, id uuid.UUID) error {
			if id != orderID {
				t.Fatalf("unexpected order %s", id)
			}
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is not pending")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/confirm", nil)
	req = withRouteParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	ConfirmOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeInvalidTransition) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestCompleteOrder(t *testing.T) {
	orderID := uuid.New()
	called := false
	svc := stubOrderService{
		completeFn: func(ctx context.Context, id uuid.UUID) error {
			called = true
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/complete", nil)
	req = withRouteParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	CompleteOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatal("expected complete to be invoked")
	}
}

func TestCancelOrderPassesActor(t *testing.T) {
	orderID := uuid.New()
	actor := uuid.New()
	svc := stubOrderService{
		cancelFn: func(ctx context.Context, input internalorders.CancelOrderInput) error {
			if input.OrderID != orderID || input.ActorID != actor {
				t.Fatalf("unexpected input %+v", input)
			}
			if input.ActorRole != enums.ActorRoleBuyer || input.Reason != "found cheaper supplier" {
				t.Fatalf("unexpected input %+v", input)
			}
			return nil
		},
	}

	body := jsonBody(t, map[string]any{"reason": "found cheaper supplier"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", body)
	req = withActor(req, actor, enums.ActorRoleBuyer)
	req = withRouteParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	CancelOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListBuyerOrdersParsesFilters(t *testing.T) {
	buyerID := uuid.New()
	svc := stubOrderService{
		listFn: func(ctx context.Context, id uuid.UUID, params pagination.Params, filters internalorders.BuyerOrderFilters) (*internalorders.OrderList, error) {
			if id != buyerID {
				t.Fatalf("unexpected buyer %s", id)
			}
			if params.Limit != 10 || params.Cursor != "abc" {
				t.Fatalf("unexpected params %+v", params)
			}
			if filters.Status == nil || *filters.Status != enums.OrderStatusActive {
				t.Fatalf("unexpected status filter %+v", filters.Status)
			}
			if filters.PaymentStatus == nil || *filters.PaymentStatus != enums.PaymentStatusPaid {
				t.Fatalf("unexpected payment filter %+v", filters.PaymentStatus)
			}
			return &internalorders.OrderList{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=10&cursor=abc&status=active&payment_status=paid", nil)
	req = withActor(req, buyerID, enums.ActorRoleBuyer)
	resp := httptest.NewRecorder()
	ListBuyerOrders(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListBuyerOrdersRejectsBadDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?date_from=yesterday", nil)
	req = withActor(req, uuid.New(), enums.ActorRoleBuyer)
	resp := httptest.NewRecorder()
	ListBuyerOrders(stubOrderService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
