package handlers

import (
	"context"
	"io"

	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/views"
)

// The interfaces below are declared on the consumer side so handlers can be
// exercised with in-memory doubles.

// EdgeToggler flips a relationship edge and reports its resulting state.
type EdgeToggler interface {
	Toggle(ctx context.Context, key models.EdgeKey) (engagement.EdgeState, error)
}

// RateLimiter bounds the mutation rate of a single actor.
type RateLimiter interface {
	Allow(key string) bool
}

// UserStore persists channel profile records.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id models.ID) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// VideoStore persists video metadata.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id models.ID) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	IncrementViews(ctx context.Context, id models.ID) error
	Delete(ctx context.Context, id models.ID) error
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id models.ID) (models.Comment, error)
	UpdateContent(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id models.ID) error
}

// TweetStore persists tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id models.ID) (models.Tweet, error)
	UpdateContent(ctx context.Context, tweet models.Tweet) error
	Delete(ctx context.Context, id models.ID) error
}

// HistoryRecorder appends entries to a user's watch history.
type HistoryRecorder interface {
	Append(ctx context.Context, entry models.WatchEntry) error
}

// BlobStore uploads media and deletes it again by key.
type BlobStore interface {
	Save(ctx context.Context, key string, r io.Reader) (models.MediaHandle, error)
	Delete(ctx context.Context, key string) error
}

// BlobCleaner schedules background deletion of orphaned media.
type BlobCleaner interface {
	Enqueue(ctx context.Context, keys ...string) error
}

// ViewReader assembles the derived read models served by the API.
type ViewReader interface {
	ChannelProfile(ctx context.Context, username string, viewer models.ID) (views.ChannelProfile, error)
	VideoComments(ctx context.Context, videoID models.ID, page views.Page) (views.CommentFeed, error)
	WatchHistory(ctx context.Context, userID models.ID) ([]views.WatchItem, error)
	ChannelVideos(ctx context.Context, owner models.ID, page views.Page, sort views.VideoSort) (views.VideoFeed, error)
	ChannelStats(ctx context.Context, channel models.ID) (views.ChannelStats, error)
	LikedVideos(ctx context.Context, actor models.ID) ([]views.VideoItem, error)
	ChannelSubscribers(ctx context.Context, channel models.ID) ([]views.SubscriberItem, error)
	SubscribedChannels(ctx context.Context, subscriber models.ID) ([]views.ChannelItem, error)
	UserTweets(ctx context.Context, owner models.ID, page views.Page) (views.TweetFeed, error)
}
