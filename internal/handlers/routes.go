package handlers

import "net/http"

// Dependencies gathers everything the handlers need. The app layer fills it
// with the real implementations; tests substitute in-memory doubles.
type Dependencies struct {
	Users    UserStore
	Videos   VideoStore
	Comments CommentStore
	Tweets   TweetStore
	History  HistoryRecorder
	Toggles  EdgeToggler
	Views    ViewReader
	Blobs    BlobStore
	Cleaner  BlobCleaner
	Limiter  RateLimiter
}

// RegisterRoutes wires every endpoint onto the mux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := &HealthHandler{}
	users := &UserHandler{Users: deps.Users, Views: deps.Views, Blobs: deps.Blobs, Cleaner: deps.Cleaner, Limiter: deps.Limiter}
	videos := &VideoHandler{Videos: deps.Videos, Views: deps.Views, Blobs: deps.Blobs, Cleaner: deps.Cleaner, History: deps.History, Limiter: deps.Limiter}
	comments := &CommentHandler{Comments: deps.Comments, Views: deps.Views, Limiter: deps.Limiter}
	tweets := &TweetHandler{Tweets: deps.Tweets, Views: deps.Views, Limiter: deps.Limiter}
	likes := &LikeHandler{Toggles: deps.Toggles, Views: deps.Views, Limiter: deps.Limiter}
	subs := &SubscriptionHandler{Toggles: deps.Toggles, Views: deps.Views, Limiter: deps.Limiter}
	dashboard := &DashboardHandler{Views: deps.Views}

	mux.HandleFunc("GET /healthz", health.Check)

	mux.HandleFunc("POST /api/v1/users", users.Create)
	mux.HandleFunc("PATCH /api/v1/users/me", users.UpdateAccount)
	mux.HandleFunc("PUT /api/v1/users/me/avatar", users.UpdateAvatar)
	mux.HandleFunc("PUT /api/v1/users/me/cover", users.UpdateCover)
	mux.HandleFunc("GET /api/v1/users/me/history", users.WatchHistory)
	mux.HandleFunc("GET /api/v1/users/me/likes/videos", likes.ListLiked)
	mux.HandleFunc("GET /api/v1/users/{userId}/tweets", tweets.ListForUser)
	mux.HandleFunc("GET /api/v1/users/{userId}/subscriptions", subs.ListSubscribed)

	mux.HandleFunc("GET /api/v1/channels/{username}", users.GetChannel)
	mux.HandleFunc("POST /api/v1/channels/{channelId}/subscribe", subs.Toggle)
	mux.HandleFunc("GET /api/v1/channels/{channelId}/subscribers", subs.ListSubscribers)
	mux.HandleFunc("GET /api/v1/channels/{channelId}/videos", videos.ListForChannel)

	mux.HandleFunc("POST /api/v1/videos", videos.Publish)
	mux.HandleFunc("GET /api/v1/videos/{videoId}", videos.Get)
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}", videos.Update)
	mux.HandleFunc("PUT /api/v1/videos/{videoId}/thumbnail", videos.ReplaceThumbnail)
	mux.HandleFunc("POST /api/v1/videos/{videoId}/publish-toggle", videos.TogglePublish)
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", videos.Delete)
	mux.HandleFunc("POST /api/v1/videos/{videoId}/like", likes.ToggleVideo)

	mux.HandleFunc("GET /api/v1/videos/{videoId}/comments", comments.List)
	mux.HandleFunc("POST /api/v1/videos/{videoId}/comments", comments.Create)
	mux.HandleFunc("PATCH /api/v1/comments/{commentId}", comments.Update)
	mux.HandleFunc("DELETE /api/v1/comments/{commentId}", comments.Delete)
	mux.HandleFunc("POST /api/v1/comments/{commentId}/like", likes.ToggleComment)

	mux.HandleFunc("POST /api/v1/tweets", tweets.Create)
	mux.HandleFunc("PATCH /api/v1/tweets/{tweetId}", tweets.Update)
	mux.HandleFunc("DELETE /api/v1/tweets/{tweetId}", tweets.Delete)
	mux.HandleFunc("POST /api/v1/tweets/{tweetId}/like", likes.ToggleTweet)

	mux.HandleFunc("GET /api/v1/dashboard/stats", dashboard.Stats)
	mux.HandleFunc("GET /api/v1/dashboard/videos", dashboard.Videos)
}
