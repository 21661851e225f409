package controllers

import (
	"net/http"

	"github.com/buildbazaar/buildbazaar-backend/api/responses"
	"github.com/buildbazaar/buildbazaar-backend/api/validators"
	"github.com/buildbazaar/buildbazaar-backend/internal/disputes"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
)

type openDisputeRequest struct {
	Reason              string `json:"reason" validate:"required"`
	Description         string `json:"description" validate:"required,max=2000"`
	DisputedAmountPaise int64  `json:"disputed_amount_paise" validate:"gte=0"`
	Priority            string `json:"priority"`
}

type startReviewRequest struct {
	ReviewerID string `json:"reviewer_id" validate:"required,uuid"`
}

type escalateDisputeRequest struct {
	Note string `json:"note" validate:"max=1000"`
}

type resolveDisputeRequest struct {
	Outcome           string `json:"outcome" validate:"required"`
	RefundAmountPaise *int64 `json:"refund_amount_paise" validate:"omitempty,gt=0"`
	Note              string `json:"note" validate:"max=1000"`
}

type addEvidenceRequest struct {
	Kind string `json:"kind" validate:"required"`
	Ref  string `json:"ref" validate:"required,max=512"`
}

// OpenDispute raises a dispute against the order on behalf of the caller.
func OpenDispute(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body openDisputeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason, err := enums.ParseDisputeReason(body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute reason"))
			return
		}
		input := disputes.OpenDisputeInput{
			OrderID:             orderID,
			RaisedByID:          actor,
			RaisedByRole:        role,
			Reason:              reason,
			Description:         validators.SanitizeString(body.Description, 2000),
			DisputedAmountPaise: body.DisputedAmountPaise,
		}
		if body.Priority != "" {
			priority, err := enums.ParseDisputePriority(body.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute priority"))
				return
			}
			input.Priority = priority
		}

		dispute, err := svc.Open(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dispute)
	}
}

// GetDispute returns a dispute with its evidence and timeline.
func GetDispute(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		disputeID, err := validators.ParseUUIDParam(r, "disputeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispute, err := svc.Get(r.Context(), disputeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

// ListOrderDisputes returns every dispute ever raised on the order.
func ListOrderDisputes(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"disputes": list})
	}
}

// StartDisputeReview assigns a reviewer and moves the dispute under review.
func StartDisputeReview(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		disputeID, err := validators.ParseUUIDParam(r, "disputeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body startReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewerID, err := parseBodyUUID(body.ReviewerID, "reviewer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := disputes.ReviewInput{DisputeID: disputeID, ReviewerID: reviewerID}
		if err := svc.StartReview(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"dispute_id": disputeID.String()})
	}
}

// EscalateDispute pulls the dispute out of the normal review queue.
func EscalateDispute(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		disputeID, err := validators.ParseUUIDParam(r, "disputeID")
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
		var body escalateDisputeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := disputes.EscalateInput{
			DisputeID: disputeID,
			ActorID:   actor,
			ActorRole: role,
			Note:      validators.SanitizeString(body.Note, 1000),
		}
		if err := svc.Escalate(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"dispute_id": disputeID.String()})
	}
}

// ResolveDispute closes the dispute with one of the terminal outcomes.
func ResolveDispute(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		disputeID, err := validators.ParseUUIDParam(r, "disputeID")
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
		var body resolveDisputeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := enums.ParseDisputeStatus(body.Outcome)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid resolution outcome"))
			return
		}
		input := disputes.ResolveInput{
			DisputeID:         disputeID,
			Outcome:           outcome,
			RefundAmountPaise: body.RefundAmountPaise,
			Note:              validators.SanitizeString(body.Note, 1000),
			ActorID:           actor,
			ActorRole:         role,
		}
		if err := svc.Resolve(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"dispute_id": disputeID.String()})
	}
}

// AddDisputeEvidence attaches a typed evidence reference to an open dispute.
func AddDisputeEvidence(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		disputeID, err := validators.ParseUUIDParam(r, "disputeID")
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
		var body addEvidenceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseEvidenceKind(body.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid evidence kind"))
			return
		}
		input := disputes.AddEvidenceInput{
			DisputeID:      disputeID,
			Kind:           kind,
			Ref:            validators.SanitizeString(body.Ref, 512),
			UploadedByID:   actor,
			UploadedByRole: role,
		}
		if err := svc.AddEvidence(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"dispute_id": disputeID.String()})
	}
}
