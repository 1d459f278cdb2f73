package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/views"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleaner must be shut down after the server stops so
// queued blob deletions drain.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *storage.Cleaner, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	tweets := repositories.NewPostgresTweetRepository(pool)
	edges := repositories.NewPostgresEdgeRepository(pool)
	history := repositories.NewPostgresHistoryRepository(pool)

	blobs, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	cleaner := storage.NewCleaner(blobs, storage.CleanerConfig{
		QueueSize: cfg.CleanerQueueSize,
		Workers:   cfg.CleanerWorkers,
	}, logger)

	deps := handlers.Dependencies{
		Users:    users,
		Videos:   videos,
		Comments: comments,
		Tweets:   tweets,
		History:  history,
		Toggles:  engagement.NewService(edges),
		Views:    views.NewService(users, videos, comments, tweets, edges, history),
		Blobs:    blobs,
		Cleaner:  cleaner,
		Limiter:  middleware.NewActorRateLimiter(cfg.ToggleRatePerMinute, time.Minute, cfg.ToggleRateBurst, cfg.RateLimiterTTL),
	}

	return deps, cleaner, nil
}
