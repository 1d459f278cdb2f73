package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/models"
)

// LikeHandler exposes the like toggles for videos, comments, and tweets.
type LikeHandler struct {
	Toggles EdgeToggler
	Views   ViewReader
	Limiter RateLimiter
}

func (h *LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.EdgeVideoLike, "videoId")
}

func (h *LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.EdgeCommentLike, "commentId")
}

func (h *LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.EdgeTweetLike, "tweetId")
}

func (h *LikeHandler) toggle(w http.ResponseWriter, r *http.Request, edgeType models.EdgeType, param string) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	subject, err := pathID(r, param)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if !allowActor(h.Limiter, actor) {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	state, err := h.Toggles.Toggle(ctx, models.EdgeKey{Type: edgeType, Actor: actor, Subject: subject})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"state": string(state)})
}

// ListLiked returns every video the caller has liked, most recent first.
func (h *LikeHandler) ListLiked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	items, err := h.Views.LikedVideos(ctx, actor)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"items": items})
}
