// Package views assembles derived, read-only views of the entity graph:
// counted channel profiles, paginated feeds with denormalized author
// projections, and ordered history listings. Every view is composed from
// store snapshots evaluated through the pipeline engine; nothing here mutates
// state, so any view computation may be retried or abandoned freely.
package views

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// UserSource supplies user snapshots for view composition.
type UserSource interface {
	FindByID(ctx context.Context, id models.ID) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	ListByIDs(ctx context.Context, ids []models.ID) ([]models.User, error)
}

// VideoSource supplies video snapshots for view composition.
type VideoSource interface {
	FindByID(ctx context.Context, id models.ID) (models.Video, error)
	ListByOwner(ctx context.Context, owner models.ID) ([]models.Video, error)
	ListByIDs(ctx context.Context, ids []models.ID) ([]models.Video, error)
}

// CommentSource supplies comment snapshots for view composition.
type CommentSource interface {
	ListByVideo(ctx context.Context, videoID models.ID) ([]models.Comment, error)
}

// TweetSource supplies tweet snapshots for view composition.
type TweetSource interface {
	ListByOwner(ctx context.Context, owner models.ID) ([]models.Tweet, error)
}

// EdgeSource supplies relationship edges for view composition.
type EdgeSource interface {
	ListByActor(ctx context.Context, edgeType models.EdgeType, actor models.ID) ([]models.Edge, error)
	ListBySubject(ctx context.Context, edgeType models.EdgeType, subject models.ID) ([]models.Edge, error)
	CountBySubject(ctx context.Context, edgeType models.EdgeType, subject models.ID) (int64, error)
	CountBySubjects(ctx context.Context, edgeType models.EdgeType, subjects []models.ID) (int64, error)
}

// HistorySource supplies ordered watch history references.
type HistorySource interface {
	ListForUser(ctx context.Context, userID models.ID) ([]models.ID, error)
}

// Service builds the response views consumers read.
type Service struct {
	users    UserSource
	videos   VideoSource
	comments CommentSource
	tweets   TweetSource
	edges    EdgeSource
	history  HistorySource
}

// NewService constructs a view service over the provided sources.
func NewService(users UserSource, videos VideoSource, comments CommentSource, tweets TweetSource, edges EdgeSource, history HistorySource) *Service {
	return &Service{
		users:    users,
		videos:   videos,
		comments: comments,
		tweets:   tweets,
		edges:    edges,
		history:  history,
	}
}
