package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/views"
)

func TestTweetHandlerCreate(t *testing.T) {
	store := newMemoryTweetStore()
	handler := TweetHandler{Tweets: store, Limiter: &stubLimiter{allow: true}}

	actor := models.NewID()
	body := []byte(`{"content":"hello world"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tweets", bytes.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), actor))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	tweet, ok := store.tweets[models.ID(resp["id"])]
	if !ok || tweet.Owner != actor || tweet.Content != "hello world" {
		t.Fatalf("unexpected stored tweet: %+v", tweet)
	}
}

func TestTweetHandlerCreateRejectsEmptyContent(t *testing.T) {
	handler := TweetHandler{Tweets: newMemoryTweetStore(), Limiter: &stubLimiter{allow: true}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tweets", bytes.NewReader([]byte(`{"content":"  "}`)))
	req = req.WithContext(middleware.WithActor(req.Context(), models.NewID()))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestTweetHandlerUpdateAndDeleteOwnership(t *testing.T) {
	store := newMemoryTweetStore()
	owner := models.NewID()
	tweet := models.Tweet{ID: models.NewID(), Owner: owner, Content: "original"}
	store.tweets[tweet.ID] = tweet

	handler := TweetHandler{Tweets: store, Limiter: &stubLimiter{allow: true}}

	body := []byte(`{"content":"edited"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/tweets/"+tweet.ID.String(), bytes.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), models.NewID()))
	req.SetPathValue("tweetId", tweet.ID.String())
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d for non-owner got %d", http.StatusForbidden, rec.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/tweets/"+tweet.ID.String(), bytes.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), owner))
	req.SetPathValue("tweetId", tweet.ID.String())
	rec = httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if store.tweets[tweet.ID].Content != "edited" {
		t.Fatalf("expected content updated, got %q", store.tweets[tweet.ID].Content)
	}

	req = actorRequest(http.MethodDelete, "/api/v1/tweets/"+tweet.ID.String(), owner)
	req.SetPathValue("tweetId", tweet.ID.String())
	rec = httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if _, ok := store.tweets[tweet.ID]; ok {
		t.Fatalf("tweet not deleted")
	}
}

func TestTweetHandlerListForUser(t *testing.T) {
	owner := models.NewID()
	handler := TweetHandler{
		Views: &stubViews{tweetFeed: views.TweetFeed{
			Items: []views.TweetItem{{ID: models.NewID(), Content: "hi"}},
			Total: 1,
		}},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+owner.String()+"/tweets", nil)
	req.SetPathValue("userId", owner.String())
	rec := httptest.NewRecorder()

	handler.ListForUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Items []views.TweetItem `json:"items"`
		Total int               `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("unexpected feed: %+v", resp)
	}
}
