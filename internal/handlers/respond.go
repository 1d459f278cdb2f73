package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	// Server errors are logged where the error is still in hand, see
	// respondError; only client errors are noted here.
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		logging.FromContext(ctx).Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps domain errors onto status codes. Anything unrecognized is
// logged with full detail and surfaced as an opaque server error.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidID):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid identifier"})
	case errors.Is(err, engagement.ErrSelfSubscription):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "cannot subscribe to your own channel"})
	case errors.Is(err, engagement.ErrInvalidEdge):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid toggle target"})
	case errors.Is(err, views.ErrInvalidSort):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unsupported sort field"})
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, repositories.ErrConflict):
		respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "conflict"})
	default:
		logging.FromContext(ctx).Error("request failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// feedResponse is the envelope every paginated listing shares.
type feedResponse struct {
	Items      any `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newFeedResponse(page views.Page, items any, total int) feedResponse {
	return feedResponse{
		Items:      items,
		Page:       page.Number,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}
}

var errInvalidPagination = errors.New("page and limit must be positive integers")

// parsePage reads the optional page and limit query parameters. Absent
// parameters fall back to the defaults; supplied values must be >= 1.
func parsePage(r *http.Request) (views.Page, error) {
	page := views.DefaultPage()

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return views.Page{}, errInvalidPagination
		}
		page.Number = n
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return views.Page{}, errInvalidPagination
		}
		page.Limit = n
	}

	return page, nil
}

// pathID extracts and validates an identifier from a path segment.
func pathID(r *http.Request, name string) (models.ID, error) {
	return models.ParseID(r.PathValue(name))
}

// requireActor returns the authenticated actor, responding with 401 when the
// request is anonymous. The caller must stop on ok == false.
func requireActor(ctx context.Context, w http.ResponseWriter) (models.ID, bool) {
	actor := middleware.ActorFromContext(ctx)
	if actor.IsZero() {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return "", false
	}
	return actor, true
}

// allowActor applies the per-actor mutation rate limit.
func allowActor(limiter RateLimiter, actor models.ID) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(actor.String())
}
