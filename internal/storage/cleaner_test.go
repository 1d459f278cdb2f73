package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/models"
)

type fakeBlobStore struct {
	mu       sync.Mutex
	deleted  []string
	failures map[string]int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{failures: make(map[string]int)}
}

func (s *fakeBlobStore) Save(ctx context.Context, key string, r io.Reader) (models.MediaHandle, error) {
	return models.MediaHandle{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[key] > 0 {
		s.failures[key]--
		return errors.New("transient delete failure")
	}
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeBlobStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleanerDeletesEnqueuedBlobs(t *testing.T) {
	blobs := newFakeBlobStore()
	cleaner := NewCleaner(blobs, CleanerConfig{QueueSize: 8, Workers: 2}, quietLogger())

	if err := cleaner.Enqueue(context.Background(), "videos/a/video.mp4", "", "videos/a/thumbnail.png"); err != nil {
		t.Fatalf("enqueue blobs: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown cleaner: %v", err)
	}

	deleted := blobs.deletedKeys()
	if len(deleted) != 2 {
		t.Fatalf("expected 2 deleted blobs, got %d: %v", len(deleted), deleted)
	}
	for _, key := range deleted {
		if key == "" {
			t.Fatal("expected empty keys to be skipped")
		}
	}
}

func TestCleanerRetriesFailedDelete(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.failures["users/a/avatar.png"] = 1
	cleaner := NewCleaner(blobs, CleanerConfig{QueueSize: 4, Workers: 1}, quietLogger())

	if err := cleaner.Enqueue(context.Background(), "users/a/avatar.png"); err != nil {
		t.Fatalf("enqueue blob: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown cleaner: %v", err)
	}

	deleted := blobs.deletedKeys()
	if len(deleted) != 1 || deleted[0] != "users/a/avatar.png" {
		t.Fatalf("expected retry to delete the blob, got %v", deleted)
	}
}

func TestCleanerAbandonsBlobAfterSecondFailure(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.failures["users/a/cover.png"] = 2
	cleaner := NewCleaner(blobs, CleanerConfig{QueueSize: 4, Workers: 1}, quietLogger())

	if err := cleaner.Enqueue(context.Background(), "users/a/cover.png"); err != nil {
		t.Fatalf("enqueue blob: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown cleaner: %v", err)
	}

	if deleted := blobs.deletedKeys(); len(deleted) != 0 {
		t.Fatalf("expected abandoned blob to stay undeleted, got %v", deleted)
	}
}

func TestCleanerRejectsEnqueueAfterShutdown(t *testing.T) {
	blobs := newFakeBlobStore()
	cleaner := NewCleaner(blobs, CleanerConfig{}, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown cleaner: %v", err)
	}

	if err := cleaner.Enqueue(context.Background(), "videos/b/video.mp4"); err == nil {
		t.Fatal("expected enqueue after shutdown to fail")
	}
}
