package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/api/responses"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
)

const (
	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"
)

// Actor reads the acting party's identity headers and seeds the request
// context. Identity is asserted upstream of this service; the middleware only
// checks the headers are well formed.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := strings.TrimSpace(r.Header.Get(actorIDHeader))
			if rawID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Actor-Id header required"))
				return
			}
			actorID, err := uuid.Parse(rawID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Actor-Id must be a uuid"))
				return
			}

			rawRole := strings.TrimSpace(r.Header.Get(actorRoleHeader))
			role, err := enums.ParseActorRole(rawRole)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Actor-Role must be buyer, vendor or admin"))
				return
			}

			ctx := WithActorID(r.Context(), actorID.String())
			ctx = WithActorRole(ctx, string(role))
			if logg != nil {
				ctx = logg.WithActorRole(ctx, string(role))
				ctx = logg.WithField(ctx, "actor_id", actorID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
