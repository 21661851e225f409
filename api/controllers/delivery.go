package controllers

import (
	"net/http"

	"github.com/buildbazaar/buildbazaar-backend/api/responses"
	"github.com/buildbazaar/buildbazaar-backend/api/validators"
	"github.com/buildbazaar/buildbazaar-backend/internal/delivery"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
)

type confirmOTPRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type confirmPhotoRequest struct {
	EvidenceRef string `json:"evidence_ref" validate:"required,max=512"`
}

// IssueOTP generates a fresh delivery code for a ready offer. The code is
// returned in the response body so the buyer-facing channel can relay it.
func IssueOTP(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, err := validators.ParseUUIDParam(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code, err := svc.IssueOTP(r.Context(), offerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{
			"offer_id": offerID.String(),
			"code":     code,
		})
	}
}

// ConfirmOTP completes delivery by matching the buyer-supplied code.
func ConfirmOTP(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, err := validators.ParseUUIDParam(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body confirmOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ConfirmWithOTP(r.Context(), offerID, body.Code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"offer_id": offerID.String()})
	}
}

// ConfirmPhoto completes delivery against a stored photo evidence reference.
func ConfirmPhoto(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, err := validators.ParseUUIDParam(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body confirmPhotoRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref := validators.SanitizeString(body.EvidenceRef, 512)
		if err := svc.ConfirmWithPhoto(r.Context(), offerID, ref); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"offer_id": offerID.String()})
	}
}

// ConfirmDelivered records a buyer's manual confirmation without a code or photo.
func ConfirmDelivered(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, err := validators.ParseUUIDParam(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ConfirmDelivered(r.Context(), offerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"offer_id": offerID.String()})
	}
}
