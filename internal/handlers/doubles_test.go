package handlers

import (
	"context"
	"io"
	"sync"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

// Shared in-memory doubles for handler tests.

type memoryVideoStore struct {
	mu        sync.Mutex
	videos    map[models.ID]models.Video
	createErr error
}

func newMemoryVideoStore() *memoryVideoStore {
	return &memoryVideoStore{videos: make(map[models.ID]models.Video)}
}

func (s *memoryVideoStore) Create(_ context.Context, video models.Video) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return nil
}

func (s *memoryVideoStore) FindByID(_ context.Context, id models.ID) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *memoryVideoStore) Update(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s *memoryVideoStore) IncrementViews(_ context.Context, id models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

func (s *memoryVideoStore) Delete(_ context.Context, id models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

type memoryCommentStore struct {
	comments map[models.ID]models.Comment
}

func newMemoryCommentStore() *memoryCommentStore {
	return &memoryCommentStore{comments: make(map[models.ID]models.Comment)}
}

func (s *memoryCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *memoryCommentStore) FindByID(_ context.Context, id models.ID) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *memoryCommentStore) UpdateContent(_ context.Context, comment models.Comment) error {
	if _, ok := s.comments[comment.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.comments[comment.ID] = comment
	return nil
}

func (s *memoryCommentStore) Delete(_ context.Context, id models.ID) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type memoryTweetStore struct {
	tweets map[models.ID]models.Tweet
}

func newMemoryTweetStore() *memoryTweetStore {
	return &memoryTweetStore{tweets: make(map[models.ID]models.Tweet)}
}

func (s *memoryTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *memoryTweetStore) FindByID(_ context.Context, id models.ID) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s *memoryTweetStore) UpdateContent(_ context.Context, tweet models.Tweet) error {
	if _, ok := s.tweets[tweet.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *memoryTweetStore) Delete(_ context.Context, id models.ID) error {
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

type memoryUserStore struct {
	users     map[models.ID]models.User
	createErr error
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[models.ID]models.User)}
}

func (s *memoryUserStore) Create(_ context.Context, user models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.users[user.ID] = user
	return nil
}

func (s *memoryUserStore) FindByID(_ context.Context, id models.ID) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memoryUserStore) Update(_ context.Context, user models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

type recordingHistory struct {
	entries []models.WatchEntry
}

func (s *recordingHistory) Append(_ context.Context, entry models.WatchEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

// memoryBlobStore stores uploads by key in memory.
type memoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{objects: make(map[string][]byte)}
}

func (s *memoryBlobStore) Save(_ context.Context, key string, r io.Reader) (models.MediaHandle, error) {
	if s.saveErr != nil {
		return models.MediaHandle{}, s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return models.MediaHandle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return models.MediaHandle{URL: "https://media.local/" + key, Key: key}, nil
}

func (s *memoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryBlobStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// recordingCleaner captures enqueued keys instead of deleting anything.
type recordingCleaner struct {
	keys []string
}

func (c *recordingCleaner) Enqueue(_ context.Context, keys ...string) error {
	c.keys = append(c.keys, keys...)
	return nil
}

// stubLimiter answers every Allow call with a fixed verdict.
type stubLimiter struct {
	allow bool
}

func (l *stubLimiter) Allow(string) bool { return l.allow }

// stubViews returns canned view results.
type stubViews struct {
	profile     views.ChannelProfile
	commentFeed views.CommentFeed
	watch       []views.WatchItem
	videoFeed   views.VideoFeed
	stats       views.ChannelStats
	liked       []views.VideoItem
	subscribers []views.SubscriberItem
	channels    []views.ChannelItem
	tweetFeed   views.TweetFeed
	gotSort     views.VideoSort
	err         error
}

func (s *stubViews) ChannelProfile(context.Context, string, models.ID) (views.ChannelProfile, error) {
	return s.profile, s.err
}

func (s *stubViews) VideoComments(context.Context, models.ID, views.Page) (views.CommentFeed, error) {
	return s.commentFeed, s.err
}

func (s *stubViews) WatchHistory(context.Context, models.ID) ([]views.WatchItem, error) {
	return s.watch, s.err
}

func (s *stubViews) ChannelVideos(_ context.Context, _ models.ID, _ views.Page, sort views.VideoSort) (views.VideoFeed, error) {
	s.gotSort = sort
	return s.videoFeed, s.err
}

func (s *stubViews) ChannelStats(context.Context, models.ID) (views.ChannelStats, error) {
	return s.stats, s.err
}

func (s *stubViews) LikedVideos(context.Context, models.ID) ([]views.VideoItem, error) {
	return s.liked, s.err
}

func (s *stubViews) ChannelSubscribers(context.Context, models.ID) ([]views.SubscriberItem, error) {
	return s.subscribers, s.err
}

func (s *stubViews) SubscribedChannels(context.Context, models.ID) ([]views.ChannelItem, error) {
	return s.channels, s.err
}

func (s *stubViews) UserTweets(context.Context, models.ID, views.Page) (views.TweetFeed, error) {
	return s.tweetFeed, s.err
}
