package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/buildbazaar/buildbazaar-backend/api/responses"
	"github.com/buildbazaar/buildbazaar-backend/api/validators"
	"github.com/buildbazaar/buildbazaar-backend/internal/settlements"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

type buildSettlementRequest struct {
	VendorID         string    `json:"vendor_id" validate:"required,uuid"`
	PeriodStart      time.Time `json:"period_start" validate:"required"`
	PeriodEnd        time.Time `json:"period_end" validate:"required"`
	AdjustmentsPaise int64     `json:"adjustments_paise"`
}

type markPaidRequest struct {
	PaymentRef string `json:"payment_ref" validate:"required,max=128"`
}

// BuildSettlement runs one settlement pass for a vendor over a closed period.
// Returns 204 when no completed, unsettled orders fall in the window.
func BuildSettlement(svc settlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body buildSettlementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := parseBodyUUID(body.VendorID, "vendor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		batch, err := svc.BuildBatch(r.Context(), settlements.BuildBatchInput{
			VendorID:         vendorID,
			PeriodStart:      body.PeriodStart,
			PeriodEnd:        body.PeriodEnd,
			AdjustmentsPaise: body.AdjustmentsPaise,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if batch == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, batch)
	}
}

// GetSettlement returns one settlement batch with its member orders.
func GetSettlement(svc settlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.ParseUUIDParam(r, "batchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		batch, err := svc.Get(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

// ListVendorSettlements pages through the acting vendor's batches, newest first.
func ListVendorSettlements(svc settlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := settlements.ListBatchesInput{
			VendorID: vendorID,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("period_start")); raw != "" {
			start, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "period_start must be RFC3339"))
				return
			}
			input.PeriodStart = &start
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("period_end")); raw != "" {
			end, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "period_end must be RFC3339"))
				return
			}
			input.PeriodEnd = &end
		}
		list, err := svc.ListVendorBatches(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"batches":     list.Batches,
			"next_cursor": list.NextCursor,
		})
	}
}

// MarkSettlementProcessing hands the batch to the payout run.
func MarkSettlementProcessing(svc settlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.ParseUUIDParam(r, "batchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkProcessing(r.Context(), batchID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"batch_id": batchID.String()})
	}
}

// MarkSettlementPaid records the external payment reference and closes the batch.
func MarkSettlementPaid(svc settlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.ParseUUIDParam(r, "batchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body markPaidRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkPaid(r.Context(), batchID, strings.TrimSpace(body.PaymentRef)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"batch_id": batchID.String()})
	}
}

// MarkSettlementFailed parks the batch so a later run can retry the payout.
func MarkSettlementFailed(svc settlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.ParseUUIDParam(r, "batchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkFailed(r.Context(), batchID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"batch_id": batchID.String()})
	}
}
