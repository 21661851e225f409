package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/buildbazaar/buildbazaar-backend/api/middleware"
	"github.com/buildbazaar/buildbazaar-backend/pkg/enums"
	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
)

func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ActorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "actor context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id malformed")
	}
	return id, nil
}

func parseBodyUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a uuid")
	}
	return id, nil
}

func actorRole(r *http.Request) (enums.ActorRole, error) {
	raw := middleware.ActorRoleFromContext(r.Context())
	role, err := enums.ParseActorRole(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "actor role missing")
	}
	return role, nil
}
