package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/views"
)

func TestDashboardHandlerStats(t *testing.T) {
	handler := DashboardHandler{
		Views: &stubViews{stats: views.ChannelStats{
			TotalSubscribers: 4,
			TotalVideos:      2,
			TotalViews:       150,
			TotalLikes:       9,
		}},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	handler.Stats(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected %d for anonymous caller got %d", http.StatusUnauthorized, rec.Code)
	}

	req = actorRequest(http.MethodGet, "/api/v1/dashboard/stats", models.NewID())
	rec = httptest.NewRecorder()
	handler.Stats(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d got %d", http.StatusOK, rec.Code)
	}

	var resp views.ChannelStats
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalViews != 150 || resp.TotalLikes != 9 {
		t.Fatalf("unexpected stats payload: %+v", resp)
	}
}

func TestDashboardHandlerVideos(t *testing.T) {
	handler := DashboardHandler{
		Views: &stubViews{videoFeed: views.VideoFeed{
			Items: []views.VideoItem{{Title: "mine"}},
			Total: 1,
		}},
	}

	req := actorRequest(http.MethodGet, "/api/v1/dashboard/videos?page=1&limit=10", models.NewID())
	rec := httptest.NewRecorder()
	handler.Videos(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Items []views.VideoItem `json:"items"`
		Total int               `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 || resp.Items[0].Title != "mine" {
		t.Fatalf("unexpected feed payload: %+v", resp)
	}
}
