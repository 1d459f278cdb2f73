package models

import "time"

// User represents an account and its public channel profile. Credential
// material lives with the identity provider, never here.
type User struct {
	ID         ID
	Username   string
	FullName   string
	Email      string
	Avatar     MediaHandle
	CoverImage MediaHandle
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Video stores the metadata for a published video. The media itself lives in
// the blob store; only the handles are kept here.
type Video struct {
	ID          ID
	Owner       ID
	Title       string
	Description string
	VideoFile   MediaHandle
	Thumbnail   MediaHandle
	Views       int64
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment is a single remark on a video. No edit history is retained.
type Comment struct {
	ID        ID
	VideoID   ID
	Owner     ID
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tweet is a short standalone post by a user.
type Tweet struct {
	ID        ID
	Owner     ID
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MediaHandle pairs the public URL of an uploaded asset with the storage key
// needed to delete it again.
type MediaHandle struct {
	URL string
	Key string
}

// WatchEntry records one video view in a user's history. Repeats are allowed;
// ordering is most-recent-first.
type WatchEntry struct {
	UserID    ID
	VideoID   ID
	WatchedAt time.Time
}
