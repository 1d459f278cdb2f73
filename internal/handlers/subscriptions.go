package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/models"
)

// SubscriptionHandler exposes the channel subscription toggle and the
// listings derived from subscription edges.
type SubscriptionHandler struct {
	Toggles EdgeToggler
	Views   ViewReader
	Limiter RateLimiter
}

func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	channel, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if !allowActor(h.Limiter, actor) {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	state, err := h.Toggles.Toggle(ctx, models.EdgeKey{Type: models.EdgeSubscription, Actor: actor, Subject: channel})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"state": string(state)})
}

func (h *SubscriptionHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channel, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	items, err := h.Views.ChannelSubscribers(ctx, channel)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"items": items})
}

func (h *SubscriptionHandler) ListSubscribed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscriber, err := pathID(r, "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	items, err := h.Views.SubscribedChannels(ctx, subscriber)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"items": items})
}
