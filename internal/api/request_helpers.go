package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/api/shared"
)

// getActorFromContext extracts the acting user's UUID from the request
// context, where the actor middleware placed it. A missing actor means
// the route was mounted without the middleware, which is a wiring bug,
// so the caller responds 401 and logs.
func getActorFromContext(r *http.Request) (uuid.UUID, bool) {
	return shared.GetActorID(r.Context())
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, errors.New(paramName + " is required")
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, errors.New(paramName + " has invalid format")
	}
	return id, nil
}

// getPagination reads limit and offset query parameters, leaving values
// at zero when absent or unparseable so the service applies its defaults.
func getPagination(r *http.Request) (limit, offset int) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
