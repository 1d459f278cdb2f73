package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// TweetHandler manages short standalone posts.
type TweetHandler struct {
	Tweets  TweetStore
	Views   ViewReader
	Limiter RateLimiter
}

type tweetRequest struct {
	Content string `json:"content"`
}

func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	if !allowActor(h.Limiter, actor) {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	now := time.Now().UTC()
	tweet := models.Tweet{
		ID:        models.NewID(),
		Owner:     actor,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"id": tweet.ID.String()})
}

// ListForUser returns one page of a user's tweets with like counts.
func (h *TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := pathID(r, "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	feed, err := h.Views.UserTweets(ctx, owner, page)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newFeedResponse(page, feed.Items, feed.Total))
}

func (h *TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if tweet.Owner != actor {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the tweet owner"})
		return
	}

	tweet.Content = req.Content
	tweet.UpdatedAt = time.Now().UTC()
	if err := h.Tweets.UpdateContent(ctx, tweet); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"id": tweet.ID.String()})
}

func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if tweet.Owner != actor {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the tweet owner"})
		return
	}

	if err := h.Tweets.Delete(ctx, tweetID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}
