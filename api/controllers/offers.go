package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/api/responses"
	"github.com/buildbazaar/buildbazaar-backend/api/validators"
	"github.com/buildbazaar/buildbazaar-backend/internal/offers"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
	"github.com/buildbazaar/buildbazaar-backend/pkg/pagination"
)

type createOffersRequest struct {
	VendorIDs []string  `json:"vendor_ids" validate:"required,min=1,dive,uuid"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}

type rejectOfferRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CreateOffers fans a confirmed order out to the listed vendors.
func CreateOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createOffersRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := offers.OfferInput{OrderID: orderID, ExpiresAt: body.ExpiresAt}
		for _, raw := range body.VendorIDs {
			vendorID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vendor_ids must be uuids"))
				return
			}
			input.VendorIDs = append(input.VendorIDs, vendorID)
		}

		created, err := svc.Offer(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// GetOffer returns one offer; lapsed offers are presented as expired.
func GetOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, err := validators.ParseUUIDParam(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.Get(r.Context(), offerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// AcceptOffer claims the offer for the acting vendor; first accept wins.
func AcceptOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return offerTransition(svc.Accept, logg)
}

// StartOfferProgress moves an accepted offer to IN_PROGRESS.
func StartOfferProgress(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return offerTransition(svc.StartProgress, logg)
}

// MarkOfferReady flags the goods or crew as ready for handover.
func MarkOfferReady(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return offerTransition(svc.MarkReady, logg)
}

func offerTransition(fn func(ctx context.Context, offerID uuid.UUID) error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, err := validators.ParseUUIDParam(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := fn(r.Context(), offerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"offer_id": offerID.String()})
	}
}

// RejectOffer records the vendor declining, with an optional reason.
func RejectOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, err := validators.ParseUUIDParam(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rejectOfferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := offers.RejectInput{
			OfferID: offerID,
			Reason:  validators.SanitizeString(body.Reason, 500),
		}
		if err := svc.Reject(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"offer_id": offerID.String()})
	}
}

// ListVendorOffers returns the acting vendor's offer board, newest first.
func ListVendorOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
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
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var filters offers.VendorOfferFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseVendorOfferStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("date_from")); raw != "" {
			from, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date_from must be RFC3339"))
				return
			}
			filters.DateFrom = &from
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("date_to")); raw != "" {
			to, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date_to must be RFC3339"))
				return
			}
			filters.DateTo = &to
		}

		list, err := svc.ListVendorOffers(r.Context(), vendorID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
