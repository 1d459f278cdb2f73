package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// CommentHandler manages comments on videos.
type CommentHandler struct {
	Comments CommentStore
	Views    ViewReader
	Limiter  RateLimiter
}

type commentRequest struct {
	Content string `json:"content"`
}

// List returns one page of a video's comments with author details.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	feed, err := h.Views.VideoComments(ctx, videoID, page)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newFeedResponse(page, feed.Items, feed.Total))
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
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
	comment := models.Comment{
		ID:        models.NewID(),
		VideoID:   videoID,
		Owner:     actor,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"id": comment.ID.String()})
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	commentID, err := pathID(r, "commentId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if comment.Owner != actor {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the comment owner"})
		return
	}

	comment.Content = req.Content
	comment.UpdatedAt = time.Now().UTC()
	if err := h.Comments.UpdateContent(ctx, comment); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"id": comment.ID.String()})
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	commentID, err := pathID(r, "commentId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if comment.Owner != actor {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the comment owner"})
		return
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}
