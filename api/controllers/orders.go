package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/api/responses"
	"github.com/buildbazaar/buildbazaar-backend/api/validators"
	"github.com/buildbazaar/buildbazaar-backend/internal/orders"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

type orderItemRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Qty            int    `json:"qty" validate:"required,min=1"`
	Unit           string `json:"unit" validate:"max=30"`
	UnitPricePaise int64  `json:"unit_price_paise" validate:"required,min=1"`
}

type createOrderRequest struct {
	Type             string             `json:"type" validate:"required"`
	Items            []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryFeePaise int64              `json:"delivery_fee_paise" validate:"min=0"`
	TaxPaise         int64              `json:"tax_paise" validate:"min=0"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// CreateOrder opens a new PENDING order for the acting buyer.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderType, err := enums.ParseOrderType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type"))
			return
		}

		input := orders.CreateOrderInput{
			BuyerID:          buyerID,
			Type:             orderType,
			DeliveryFeePaise: body.DeliveryFeePaise,
			TaxPaise:         body.TaxPaise,
		}
		for _, item := range body.Items {
			input.Items = append(input.Items, orders.OrderItemInput{
				Name:           validators.SanitizeString(item.Name, 200),
				Qty:            item.Qty,
				Unit:           validators.SanitizeString(item.Unit, 30),
				UnitPricePaise: item.UnitPricePaise,
			})
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// GetOrder returns one order with its items.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ConfirmOrder acknowledges payment and moves the order to CONFIRMED.
func ConfirmOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc.Confirm, logg)
}

// ActivateOrder moves a confirmed order with an accepted offer to ACTIVE.
func ActivateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc.Activate, logg)
}

// CompleteOrder closes an order whose delivery has been confirmed.
func CompleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc.Complete, logg)
}

func orderTransition(fn func(ctx context.Context, orderID uuid.UUID) error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := fn(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID.String()})
	}
}

// CancelOrder cancels the order on behalf of the acting party.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := actorRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CancelOrderInput{
			OrderID:   orderID,
			Reason:    validators.SanitizeString(body.Reason, 500),
			ActorID:   actor,
			ActorRole: role,
		}
		if err := svc.Cancel(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID.String()})
	}
}

// ListBuyerOrders returns the acting buyer's orders, newest first.
func ListBuyerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := parseBuyerOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListBuyerOrders(r.Context(), buyerID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parseBuyerOrderFilters(r *http.Request) (orders.BuyerOrderFilters, error) {
	var filters orders.BuyerOrderFilters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		orderType, err := enums.ParseOrderType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter")
		}
		filters.Type = &orderType
	}
	if raw := strings.TrimSpace(query.Get("payment_status")); raw != "" {
		paymentStatus, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_status filter")
		}
		filters.PaymentStatus = &paymentStatus
	}
	if raw := strings.TrimSpace(query.Get("date_from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date_from must be RFC3339")
		}
		filters.DateFrom = &from
	}
	if raw := strings.TrimSpace(query.Get("date_to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date_to must be RFC3339")
		}
		filters.DateTo = &to
	}
	return filters, nil
}
