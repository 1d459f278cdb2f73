package handlers

import "net/http"

// DashboardHandler serves a channel owner's private stats and video list.
type DashboardHandler struct {
	Views ViewReader
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	stats, err := h.Views.ChannelStats(ctx, actor)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, stats)
}

func (h *DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	feed, err := h.Views.ChannelVideos(ctx, actor, page, parseVideoSort(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newFeedResponse(page, feed.Items, feed.Total))
}
