package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/views"
)

// maxUploadMemory caps how much of a multipart body is buffered in memory
// before spilling to disk.
const maxUploadMemory = 32 << 20

// VideoHandler manages video publication, metadata, and the derived listings.
type VideoHandler struct {
	Videos  VideoStore
	Views   ViewReader
	Blobs   BlobStore
	Cleaner BlobCleaner
	History HistoryRecorder
	Limiter RateLimiter
}

type videoResponse struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toVideoResponse(video models.Video) videoResponse {
	return videoResponse{
		ID:          video.ID.String(),
		Owner:       video.Owner.String(),
		Title:       video.Title,
		Description: video.Description,
		VideoFile:   video.VideoFile.URL,
		Thumbnail:   video.Thumbnail.URL,
		Views:       video.Views,
		IsPublished: video.IsPublished,
		CreatedAt:   video.CreatedAt,
	}
}

// Publish uploads the media pair and records the video's metadata. If the
// metadata insert fails after the uploads succeeded, the blobs are deleted
// again so nothing is left orphaned.
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))

	if !allowActor(h.Limiter, actor) {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	id := models.NewID()

	videoFile, err := h.saveUpload(r, "videoFile", fmt.Sprintf("videos/%s/video", id))
	if err != nil {
		if errors.Is(err, errMissingUpload) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "videoFile upload is required"})
			return
		}
		respondError(ctx, w, err)
		return
	}

	thumbnail, err := h.saveUpload(r, "thumbnail", fmt.Sprintf("videos/%s/thumbnail", id))
	if err != nil {
		h.discard(ctx, videoFile.Key)
		if errors.Is(err, errMissingUpload) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "thumbnail upload is required"})
			return
		}
		respondError(ctx, w, err)
		return
	}

	now := time.Now().UTC()
	video := models.Video{
		ID:          id,
		Owner:       actor,
		Title:       title,
		Description: description,
		VideoFile:   videoFile,
		Thumbnail:   thumbnail,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		h.discard(ctx, videoFile.Key, thumbnail.Key)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toVideoResponse(video))
}

// Get returns a single video. A view by an authenticated actor bumps the view
// counter and appends to their watch history.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if actor := middleware.ActorFromContext(ctx); !actor.IsZero() {
		if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
			logging.FromContext(ctx).Warn("increment view count", "video_id", videoID, "error", err)
		} else {
			video.Views++
		}
		entry := models.WatchEntry{UserID: actor, VideoID: videoID, WatchedAt: time.Now().UTC()}
		if err := h.History.Append(ctx, entry); err != nil {
			logging.FromContext(ctx).Warn("append watch history", "video_id", videoID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, toVideoResponse(video))
}

type videoUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	video, ok := h.ownedVideo(ctx, w, r, actor)
	if !ok {
		return
	}

	var req videoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title cannot be empty"})
			return
		}
		video.Title = title
	}
	if req.Description != nil {
		video.Description = strings.TrimSpace(*req.Description)
	}
	video.UpdatedAt = time.Now().UTC()

	if err := h.Videos.Update(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toVideoResponse(video))
}

// ReplaceThumbnail uploads a new thumbnail and schedules the old blob for
// deletion.
func (h *VideoHandler) ReplaceThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	video, ok := h.ownedVideo(ctx, w, r, actor)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	thumbnail, err := h.saveUpload(r, "thumbnail", fmt.Sprintf("videos/%s/thumbnail", video.ID))
	if err != nil {
		if errors.Is(err, errMissingUpload) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "thumbnail upload is required"})
			return
		}
		respondError(ctx, w, err)
		return
	}

	previous := video.Thumbnail.Key
	video.Thumbnail = thumbnail
	video.UpdatedAt = time.Now().UTC()

	if err := h.Videos.Update(ctx, video); err != nil {
		h.discard(ctx, thumbnail.Key)
		respondError(ctx, w, err)
		return
	}

	if previous != "" && previous != thumbnail.Key {
		h.discard(ctx, previous)
	}

	respondJSON(ctx, w, http.StatusOK, toVideoResponse(video))
}

func (h *VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	video, ok := h.ownedVideo(ctx, w, r, actor)
	if !ok {
		return
	}

	video.IsPublished = !video.IsPublished
	video.UpdatedAt = time.Now().UTC()

	if err := h.Videos.Update(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"isPublished": video.IsPublished})
}

// Delete removes the metadata row and schedules both blobs for deletion.
// Comments and likes referencing the video are left in place.
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	video, ok := h.ownedVideo(ctx, w, r, actor)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	h.discard(ctx, video.VideoFile.Key, video.Thumbnail.Key)

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListForChannel returns one page of a channel's videos, newest first.
func (h *VideoHandler) ListForChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channel, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	feed, err := h.Views.ChannelVideos(ctx, channel, page, parseVideoSort(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newFeedResponse(page, feed.Items, feed.Total))
}

// parseVideoSort reads the optional sortBy and sortType query parameters.
// Unknown sort fields are rejected downstream by the view builder.
func parseVideoSort(r *http.Request) views.VideoSort {
	sort := views.DefaultVideoSort()
	if raw := strings.TrimSpace(r.URL.Query().Get("sortBy")); raw != "" {
		sort.Field = raw
	}
	if strings.EqualFold(r.URL.Query().Get("sortType"), "asc") {
		sort.Desc = false
	}
	return sort
}

// ownedVideo loads the video from the path and verifies the caller owns it.
func (h *VideoHandler) ownedVideo(ctx context.Context, w http.ResponseWriter, r *http.Request, actor models.ID) (models.Video, bool) {
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return models.Video{}, false
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return models.Video{}, false
	}
	if video.Owner != actor {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the video owner"})
		return models.Video{}, false
	}

	return video, true
}

// errMissingUpload marks a multipart field the client failed to supply, as
// opposed to a blob store write that went wrong after the field was read.
var errMissingUpload = errors.New("missing upload")

// saveUpload streams one multipart file into the blob store. The storage key
// keeps the original extension so content types stay guessable.
func (h *VideoHandler) saveUpload(r *http.Request, field, keyPrefix string) (models.MediaHandle, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return models.MediaHandle{}, fmt.Errorf("%w: %s: %v", errMissingUpload, field, err)
	}
	defer file.Close()

	key := keyPrefix + path.Ext(header.Filename)
	return h.Blobs.Save(r.Context(), key, file)
}

// discard schedules blob keys for background deletion, logging when even the
// enqueue fails.
func (h *VideoHandler) discard(ctx context.Context, keys ...string) {
	nonEmpty := keys[:0]
	for _, key := range keys {
		if key != "" {
			nonEmpty = append(nonEmpty, key)
		}
	}
	if len(nonEmpty) == 0 {
		return
	}
	if err := h.Cleaner.Enqueue(ctx, nonEmpty...); err != nil {
		logging.FromContext(ctx).Error("enqueue blob cleanup", "keys", nonEmpty, "error", err)
	}
}
