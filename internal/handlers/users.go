package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
)

// UserHandler manages profile records and the channel views built on them.
// Account provisioning is called by the identity system once it has
// authenticated a new user; credentials never pass through here.
type UserHandler struct {
	Users   UserStore
	Views   ViewReader
	Blobs   BlobStore
	Cleaner BlobCleaner
	Limiter RateLimiter
}

type userCreateRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req userCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "a valid email is required"})
		return
	}

	now := time.Now().UTC()
	user := models.User{
		ID:        models.NewID(),
		Username:  req.Username,
		FullName:  strings.TrimSpace(req.FullName),
		Email:     strings.TrimSpace(req.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{
		"id":       user.ID.String(),
		"username": user.Username,
	})
}

// GetChannel returns the public channel profile for a username. When the
// caller is authenticated the response also says whether they subscribe to
// the channel.
func (h *UserHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	viewer := middleware.ActorFromContext(ctx)

	profile, err := h.Views.ChannelProfile(ctx, username, viewer)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile)
}

// WatchHistory returns the caller's watch history, most recent first, with
// deleted videos already filtered out.
func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	items, err := h.Views.WatchHistory(ctx, actor)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"items": items})
}

type userUpdateRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	var req userUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := h.Users.FindByID(ctx, actor)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "a valid email is required"})
			return
		}
		user.Email = strings.TrimSpace(*req.Email)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.Users.Update(ctx, user); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"id": user.ID.String()})
}

// UpdateAvatar replaces the caller's avatar image. The old blob is scheduled
// for deletion once the profile row points at the new one.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar")
}

// UpdateCover replaces the caller's channel cover image.
func (h *UserHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage")
}

func (h *UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string) {
	ctx := r.Context()

	actor, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": field + " upload is required"})
		return
	}
	defer file.Close()

	user, err := h.Users.FindByID(ctx, actor)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	key := fmt.Sprintf("users/%s/%s%s", actor, field, path.Ext(header.Filename))
	handle, err := h.Blobs.Save(ctx, key, file)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var previous string
	switch field {
	case "avatar":
		previous = user.Avatar.Key
		user.Avatar = handle
	default:
		previous = user.CoverImage.Key
		user.CoverImage = handle
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.Users.Update(ctx, user); err != nil {
		if cleanupErr := h.Cleaner.Enqueue(ctx, handle.Key); cleanupErr != nil {
			logging.FromContext(ctx).Error("enqueue blob cleanup", "key", handle.Key, "error", cleanupErr)
		}
		respondError(ctx, w, err)
		return
	}

	if previous != "" && previous != handle.Key {
		if err := h.Cleaner.Enqueue(ctx, previous); err != nil {
			logging.FromContext(ctx).Error("enqueue blob cleanup", "key", previous, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{field: handle.URL})
}
