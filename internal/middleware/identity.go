package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/models"
)

// The identity provider sits in front of this service and stamps every
// authenticated request with the acting user's id. This core trusts that
// value and never re-derives it; it only validates the shape once so an
// invalid identifier can never reach a store.
const actorHeader = "X-Actor-ID"

type actorKey struct{}

// WithActor stores the acting user's id on the context.
func WithActor(ctx context.Context, actor models.ID) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting user's id, or the zero ID when the
// request was anonymous.
func ActorFromContext(ctx context.Context) models.ID {
	if actor, ok := ctx.Value(actorKey{}).(models.ID); ok {
		return actor
	}
	return ""
}

// Identity extracts the upstream-authenticated actor id from the request and
// stores it on the context. A request without the header passes through as
// anonymous; a malformed header is rejected before any handler runs.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(actorHeader))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := models.ParseID(raw)
		if err != nil {
			http.Error(w, "invalid actor identity", http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}
