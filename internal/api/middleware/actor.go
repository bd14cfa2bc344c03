package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/api/shared"
)

// ActorHeader carries the acting user's ID. Authentication happens at the
// edge in front of this service; the header is trusted here.
const ActorHeader = "X-User-ID"

// ActorMiddleware extracts the acting user's ID from the request header
// and stores it in the context. Requests without a valid user ID are
// rejected before reaching any handler.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(ActorHeader)
		if raw == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "missing user ID header")
			return
		}

		actorID, err := uuid.Parse(raw)
		if err != nil || actorID == uuid.Nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "invalid user ID header")
			return
		}

		ctx := shared.SetActorID(r.Context(), actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
