package models

import "time"

// EdgeType distinguishes the directed relationship kinds stored in the edge
// table. Each kind carries its own uniqueness scope for (actor, subject).
type EdgeType string

const (
	EdgeSubscription EdgeType = "subscription"
	EdgeVideoLike    EdgeType = "like:video"
	EdgeCommentLike  EdgeType = "like:comment"
	EdgeTweetLike    EdgeType = "like:tweet"
)

// Valid reports whether t is one of the known edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeSubscription, EdgeVideoLike, EdgeCommentLike, EdgeTweetLike:
		return true
	}
	return false
}

// EdgeKey identifies a single directed edge. For likes the actor is the liking
// user and the subject is the liked entity; for subscriptions the actor is the
// subscriber and the subject is the channel.
type EdgeKey struct {
	Type    EdgeType
	Actor   ID
	Subject ID
}

// Edge is a persisted relationship record.
type Edge struct {
	EdgeKey
	CreatedAt time.Time
}
