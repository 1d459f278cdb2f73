package views

import (
	"context"
	"fmt"
	"time"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
)

// Author is the denormalized public projection of a user attached to feed
// items. Feeds carry only this, never full user records.
type Author struct {
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar"`
}

// ChannelProfile is a user enriched with subscription counters relative to
// the requesting viewer.
type ChannelProfile struct {
	ID                        models.ID `json:"id"`
	Username                  string    `json:"username"`
	FullName                  string    `json:"fullName"`
	Email                     string    `json:"email"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscriberCount           int       `json:"subscriberCount"`
	ChannelsSubscribedToCount int       `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
}

// CommentItem is one entry of a video's comment feed.
type CommentItem struct {
	ID        models.ID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *Author   `json:"author"`
}

// CommentFeed is a page of comments plus the total matching count.
type CommentFeed struct {
	Items []CommentItem
	Total int
}

// VideoItem is one entry of a video listing.
type VideoItem struct {
	ID          models.ID `json:"id"`
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail"`
	VideoFile   string    `json:"videoFile"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	Author      *Author   `json:"author,omitempty"`
}

// VideoFeed is a page of videos plus the total matching count.
type VideoFeed struct {
	Items []VideoItem
	Total int
}

// WatchItem is one entry of a user's watch history, in watch order.
type WatchItem struct {
	VideoID   models.ID `json:"videoId"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail"`
	Owner     *Author   `json:"owner"`
}

// SubscriberItem is one subscriber of a channel. User is nil when the
// subscriber's account no longer exists; the edge itself is still reported.
type SubscriberItem struct {
	SubscriberID models.ID `json:"subscriberId"`
	User         *Author   `json:"user"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// ChannelItem is one channel a user subscribes to.
type ChannelItem struct {
	ChannelID models.ID `json:"channelId"`
	User      *Author   `json:"user"`
}

// TweetItem is one entry of a user's tweet feed.
type TweetItem struct {
	ID        models.ID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *Author   `json:"author"`
}

// TweetFeed is a page of tweets plus the total matching count.
type TweetFeed struct {
	Items []TweetItem
	Total int
}

// ChannelStats aggregates a channel's headline counters.
type ChannelStats struct {
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int64 `json:"totalLikes"`
}

func authorProjection() *pipeline.Pipeline {
	return pipeline.New(pipeline.Project("username", "avatar"))
}

// ChannelProfile computes the counted profile view for the channel with the
// given username, relative to viewer. A channel with no activity yields zero
// counters, not an error.
func (s *Service) ChannelProfile(ctx context.Context, username string, viewer models.ID) (ChannelProfile, error) {
	ctx, span := logging.StartSpan(ctx, "views.channel_profile")
	defer span.End()

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("find channel %q: %w", username, err)
	}

	subscribers, err := s.edges.ListBySubject(ctx, models.EdgeSubscription, user.ID)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("list subscribers: %w", err)
	}
	subscribedTo, err := s.edges.ListByActor(ctx, models.EdgeSubscription, user.ID)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("list subscriptions: %w", err)
	}

	p := pipeline.New(
		pipeline.Join(edgeRecords(subscribers), "id", "subject", "subscribers", nil),
		pipeline.Join(edgeRecords(subscribedTo), "id", "actor", "subscribedTo", nil),
		pipeline.Compute(map[string]pipeline.Expr{
			"subscriberCount":           pipeline.Size("subscribers"),
			"channelsSubscribedToCount": pipeline.Size("subscribedTo"),
			"isSubscribed":              pipeline.Membership(viewer, "subscribers.actor"),
		}),
		pipeline.Project("id", "username", "fullName", "email", "avatar", "coverImage",
			"subscriberCount", "channelsSubscribedToCount", "isSubscribed"),
	)

	out, err := p.Run(ctx, []pipeline.Record{userRecord(user)})
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("evaluate profile pipeline: %w", err)
	}

	rec := out[0]
	return ChannelProfile{
		ID:                        idField(rec, "id"),
		Username:                  stringField(rec, "username"),
		FullName:                  stringField(rec, "fullName"),
		Email:                     stringField(rec, "email"),
		Avatar:                    stringField(rec, "avatar"),
		CoverImage:                stringField(rec, "coverImage"),
		SubscriberCount:           intField(rec, "subscriberCount"),
		ChannelsSubscribedToCount: intField(rec, "channelsSubscribedToCount"),
		IsSubscribed:              boolField(rec, "isSubscribed"),
	}, nil
}

// VideoComments returns one page of a video's comments, newest first, each
// carrying its author projection. Comments whose author no longer exists are
// kept with a nil author.
func (s *Service) VideoComments(ctx context.Context, videoID models.ID, page Page) (CommentFeed, error) {
	ctx, span := logging.StartSpan(ctx, "views.video_comments")
	defer span.End()

	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		return CommentFeed{}, fmt.Errorf("find video: %w", err)
	}

	comments, err := s.comments.ListByVideo(ctx, videoID)
	if err != nil {
		return CommentFeed{}, fmt.Errorf("list comments: %w", err)
	}

	authors, err := s.users.ListByIDs(ctx, ownerIDs(comments))
	if err != nil {
		return CommentFeed{}, fmt.Errorf("list comment authors: %w", err)
	}

	p := pipeline.New(
		pipeline.Match("videoId", videoID),
		pipeline.Join(userRecords(authors), "owner", "id", "author", authorProjection()),
		pipeline.Unwind("author", true),
		pipeline.Sort("createdAt", pipeline.Descending),
		pipeline.Facet(map[string]*pipeline.Pipeline{
			"items": pipeline.New(
				pipeline.Skip(page.Skip()),
				pipeline.Limit(page.Limit),
				pipeline.Project("id", "content", "createdAt", "author"),
			),
			"total": pipeline.New(pipeline.Count("count")),
		}),
	)

	out, err := p.Run(ctx, commentRecords(comments))
	if err != nil {
		return CommentFeed{}, fmt.Errorf("evaluate comment pipeline: %w", err)
	}

	items, total := facetResults(out[0])
	feed := CommentFeed{Items: make([]CommentItem, 0, len(items)), Total: total}
	for _, rec := range items {
		feed.Items = append(feed.Items, CommentItem{
			ID:        idField(rec, "id"),
			Content:   stringField(rec, "content"),
			CreatedAt: timeField(rec, "createdAt"),
			Author:    authorField(rec, "author"),
		})
	}
	return feed, nil
}

// WatchHistory returns the viewer's watched videos in watch order (most
// recent first), each joined with its owner's public projection. References
// to deleted videos are skipped.
func (s *Service) WatchHistory(ctx context.Context, userID models.ID) ([]WatchItem, error) {
	ctx, span := logging.StartSpan(ctx, "views.watch_history")
	defer span.End()

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	refs, err := s.history.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list watch history: %w", err)
	}

	videos, err := s.videos.ListByIDs(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("list watched videos: %w", err)
	}
	owners, err := s.users.ListByIDs(ctx, videoOwnerIDs(videos))
	if err != nil {
		return nil, fmt.Errorf("list video owners: %w", err)
	}

	videoSub := pipeline.New(
		pipeline.Join(userRecords(owners), "owner", "id", "owner",
			pipeline.New(pipeline.Project("username", "fullName", "avatar"))),
		pipeline.Compute(map[string]pipeline.Expr{"owner": pipeline.First("owner")}),
		pipeline.Project("id", "title", "thumbnail", "owner"),
	)

	// The base records mirror the reference sequence so the join preserves
	// watch order rather than the video collection's order.
	base := make([]pipeline.Record, len(refs))
	for i, ref := range refs {
		base[i] = pipeline.Record{"videoId": ref}
	}

	p := pipeline.New(
		pipeline.Join(videoRecords(videos), "videoId", "id", "video", videoSub),
		pipeline.Unwind("video", false),
	)

	out, err := p.Run(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("evaluate history pipeline: %w", err)
	}

	items := make([]WatchItem, 0, len(out))
	for _, rec := range out {
		video, ok := rec["video"].(pipeline.Record)
		if !ok {
			continue
		}
		items = append(items, WatchItem{
			VideoID:   idField(video, "id"),
			Title:     stringField(video, "title"),
			Thumbnail: stringField(video, "thumbnail"),
			Owner:     authorField(video, "owner"),
		})
	}
	return items, nil
}

// ChannelVideos returns one page of a channel's uploads plus the total count,
// ordered by the requested sort. An out-of-range page yields an empty item
// list.
func (s *Service) ChannelVideos(ctx context.Context, owner models.ID, page Page, sort VideoSort) (VideoFeed, error) {
	ctx, span := logging.StartSpan(ctx, "views.channel_videos")
	defer span.End()

	dir, err := sort.direction()
	if err != nil {
		return VideoFeed{}, err
	}

	videos, err := s.videos.ListByOwner(ctx, owner)
	if err != nil {
		return VideoFeed{}, fmt.Errorf("list channel videos: %w", err)
	}

	p := pipeline.New(
		pipeline.Match("owner", owner),
		pipeline.Sort(sort.Field, dir),
		pipeline.Facet(map[string]*pipeline.Pipeline{
			"items": pipeline.New(
				pipeline.Skip(page.Skip()),
				pipeline.Limit(page.Limit),
				pipeline.Project("id", "title", "thumbnail", "videoFile", "views", "isPublished", "createdAt"),
			),
			"total": pipeline.New(pipeline.Count("count")),
		}),
	)

	out, err := p.Run(ctx, videoRecords(videos))
	if err != nil {
		return VideoFeed{}, fmt.Errorf("evaluate channel video pipeline: %w", err)
	}

	items, total := facetResults(out[0])
	feed := VideoFeed{Items: make([]VideoItem, 0, len(items)), Total: total}
	for _, rec := range items {
		feed.Items = append(feed.Items, decodeVideoItem(rec))
	}
	return feed, nil
}

// ChannelStats aggregates a channel's counters. A channel with no activity
// reports zeros.
func (s *Service) ChannelStats(ctx context.Context, channel models.ID) (ChannelStats, error) {
	ctx, span := logging.StartSpan(ctx, "views.channel_stats")
	defer span.End()

	if _, err := s.users.FindByID(ctx, channel); err != nil {
		return ChannelStats{}, fmt.Errorf("find channel: %w", err)
	}

	subscribers, err := s.edges.CountBySubject(ctx, models.EdgeSubscription, channel)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("count subscribers: %w", err)
	}

	videos, err := s.videos.ListByOwner(ctx, channel)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("list channel videos: %w", err)
	}

	var totalViews int64
	for _, v := range videos {
		totalViews += v.Views
	}

	likes, err := s.edges.CountBySubjects(ctx, models.EdgeVideoLike, videoIDs(videos))
	if err != nil {
		return ChannelStats{}, fmt.Errorf("count video likes: %w", err)
	}

	return ChannelStats{
		TotalSubscribers: subscribers,
		TotalVideos:      int64(len(videos)),
		TotalViews:       totalViews,
		TotalLikes:       likes,
	}, nil
}

// LikedVideos returns the videos the actor has liked, most recent like first.
// Likes on since-deleted videos are skipped.
func (s *Service) LikedVideos(ctx context.Context, actor models.ID) ([]VideoItem, error) {
	ctx, span := logging.StartSpan(ctx, "views.liked_videos")
	defer span.End()

	likes, err := s.edges.ListByActor(ctx, models.EdgeVideoLike, actor)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}

	var subjects []models.ID
	for _, edge := range likes {
		subjects = append(subjects, edge.Subject)
	}
	videos, err := s.videos.ListByIDs(ctx, subjects)
	if err != nil {
		return nil, fmt.Errorf("list liked videos: %w", err)
	}
	owners, err := s.users.ListByIDs(ctx, videoOwnerIDs(videos))
	if err != nil {
		return nil, fmt.Errorf("list video owners: %w", err)
	}

	videoSub := pipeline.New(
		pipeline.Join(userRecords(owners), "owner", "id", "author", authorProjection()),
		pipeline.Compute(map[string]pipeline.Expr{"author": pipeline.First("author")}),
		pipeline.Project("id", "title", "thumbnail", "videoFile", "views", "isPublished", "createdAt", "author"),
	)

	p := pipeline.New(
		pipeline.Join(videoRecords(videos), "subject", "id", "video", videoSub),
		pipeline.Unwind("video", false),
	)

	out, err := p.Run(ctx, edgeRecords(likes))
	if err != nil {
		return nil, fmt.Errorf("evaluate liked video pipeline: %w", err)
	}

	items := make([]VideoItem, 0, len(out))
	for _, rec := range out {
		video, ok := rec["video"].(pipeline.Record)
		if !ok {
			continue
		}
		item := decodeVideoItem(video)
		item.Author = authorField(video, "author")
		items = append(items, item)
	}
	return items, nil
}

// ChannelSubscribers lists a channel's subscribers, newest first. An edge
// whose subscriber account was deleted is still listed, with a nil user.
func (s *Service) ChannelSubscribers(ctx context.Context, channel models.ID) ([]SubscriberItem, error) {
	ctx, span := logging.StartSpan(ctx, "views.channel_subscribers")
	defer span.End()

	edges, err := s.edges.ListBySubject(ctx, models.EdgeSubscription, channel)
	if err != nil {
		return nil, fmt.Errorf("list subscriber edges: %w", err)
	}

	var actors []models.ID
	for _, edge := range edges {
		actors = append(actors, edge.Actor)
	}
	users, err := s.users.ListByIDs(ctx, actors)
	if err != nil {
		return nil, fmt.Errorf("list subscriber users: %w", err)
	}

	p := pipeline.New(
		pipeline.Join(userRecords(users), "actor", "id", "user", authorProjection()),
		pipeline.Unwind("user", true),
	)

	out, err := p.Run(ctx, edgeRecords(edges))
	if err != nil {
		return nil, fmt.Errorf("evaluate subscriber pipeline: %w", err)
	}

	items := make([]SubscriberItem, 0, len(out))
	for _, rec := range out {
		items = append(items, SubscriberItem{
			SubscriberID: idField(rec, "actor"),
			User:         authorField(rec, "user"),
			SubscribedAt: timeField(rec, "createdAt"),
		})
	}
	return items, nil
}

// SubscribedChannels lists the channels the subscriber follows, most recent
// first. Edges to since-deleted channels are skipped.
func (s *Service) SubscribedChannels(ctx context.Context, subscriber models.ID) ([]ChannelItem, error) {
	ctx, span := logging.StartSpan(ctx, "views.subscribed_channels")
	defer span.End()

	edges, err := s.edges.ListByActor(ctx, models.EdgeSubscription, subscriber)
	if err != nil {
		return nil, fmt.Errorf("list subscription edges: %w", err)
	}

	var channels []models.ID
	for _, edge := range edges {
		channels = append(channels, edge.Subject)
	}
	users, err := s.users.ListByIDs(ctx, channels)
	if err != nil {
		return nil, fmt.Errorf("list channel users: %w", err)
	}

	p := pipeline.New(
		pipeline.Join(userRecords(users), "subject", "id", "user",
			pipeline.New(pipeline.Project("username", "fullName", "avatar"))),
		pipeline.Unwind("user", false),
	)

	out, err := p.Run(ctx, edgeRecords(edges))
	if err != nil {
		return nil, fmt.Errorf("evaluate subscribed channel pipeline: %w", err)
	}

	items := make([]ChannelItem, 0, len(out))
	for _, rec := range out {
		items = append(items, ChannelItem{
			ChannelID: idField(rec, "subject"),
			User:      authorField(rec, "user"),
		})
	}
	return items, nil
}

// UserTweets returns one page of a user's tweets, newest first, with the
// author projection attached.
func (s *Service) UserTweets(ctx context.Context, owner models.ID, page Page) (TweetFeed, error) {
	ctx, span := logging.StartSpan(ctx, "views.user_tweets")
	defer span.End()

	author, err := s.users.FindByID(ctx, owner)
	if err != nil {
		return TweetFeed{}, fmt.Errorf("find tweet author: %w", err)
	}

	tweets, err := s.tweets.ListByOwner(ctx, owner)
	if err != nil {
		return TweetFeed{}, fmt.Errorf("list tweets: %w", err)
	}

	p := pipeline.New(
		pipeline.Match("owner", owner),
		pipeline.Join(userRecords([]models.User{author}), "owner", "id", "author", authorProjection()),
		pipeline.Unwind("author", true),
		pipeline.Sort("createdAt", pipeline.Descending),
		pipeline.Facet(map[string]*pipeline.Pipeline{
			"items": pipeline.New(
				pipeline.Skip(page.Skip()),
				pipeline.Limit(page.Limit),
				pipeline.Project("id", "content", "createdAt", "author"),
			),
			"total": pipeline.New(pipeline.Count("count")),
		}),
	)

	out, err := p.Run(ctx, tweetRecords(tweets))
	if err != nil {
		return TweetFeed{}, fmt.Errorf("evaluate tweet pipeline: %w", err)
	}

	items, total := facetResults(out[0])
	feed := TweetFeed{Items: make([]TweetItem, 0, len(items)), Total: total}
	for _, rec := range items {
		feed.Items = append(feed.Items, TweetItem{
			ID:        idField(rec, "id"),
			Content:   stringField(rec, "content"),
			CreatedAt: timeField(rec, "createdAt"),
			Author:    authorField(rec, "author"),
		})
	}
	return feed, nil
}

func decodeVideoItem(rec pipeline.Record) VideoItem {
	return VideoItem{
		ID:          idField(rec, "id"),
		Title:       stringField(rec, "title"),
		Thumbnail:   stringField(rec, "thumbnail"),
		VideoFile:   stringField(rec, "videoFile"),
		Views:       int64Field(rec, "views"),
		IsPublished: boolField(rec, "isPublished"),
		CreatedAt:   timeField(rec, "createdAt"),
	}
}

func facetResults(rec pipeline.Record) ([]pipeline.Record, int) {
	items := recordsField(rec, "items")
	total := 0
	if counts := recordsField(rec, "total"); len(counts) > 0 {
		total = intField(counts[0], "count")
	}
	return items, total
}

func ownerIDs(comments []models.Comment) []models.ID {
	seen := make(map[models.ID]struct{}, len(comments))
	var out []models.ID
	for _, c := range comments {
		if _, ok := seen[c.Owner]; ok {
			continue
		}
		seen[c.Owner] = struct{}{}
		out = append(out, c.Owner)
	}
	return out
}

func videoOwnerIDs(videos []models.Video) []models.ID {
	seen := make(map[models.ID]struct{}, len(videos))
	var out []models.ID
	for _, v := range videos {
		if _, ok := seen[v.Owner]; ok {
			continue
		}
		seen[v.Owner] = struct{}{}
		out = append(out, v.Owner)
	}
	return out
}

func videoIDs(videos []models.Video) []models.ID {
	out := make([]models.ID, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}
