package views

import (
	"time"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
)

// Snapshot conversion: models become pipeline records with the public fields
// views are allowed to expose. Media handles collapse to their URLs here so
// storage keys never leak into a response.

func userRecord(user models.User) pipeline.Record {
	return pipeline.Record{
		"id":         user.ID,
		"username":   user.Username,
		"fullName":   user.FullName,
		"email":      user.Email,
		"avatar":     user.Avatar.URL,
		"coverImage": user.CoverImage.URL,
		"createdAt":  user.CreatedAt,
	}
}

func userRecords(users []models.User) []pipeline.Record {
	out := make([]pipeline.Record, len(users))
	for i, u := range users {
		out[i] = userRecord(u)
	}
	return out
}

func videoRecord(video models.Video) pipeline.Record {
	return pipeline.Record{
		"id":          video.ID,
		"owner":       video.Owner,
		"title":       video.Title,
		"description": video.Description,
		"videoFile":   video.VideoFile.URL,
		"thumbnail":   video.Thumbnail.URL,
		"views":       video.Views,
		"isPublished": video.IsPublished,
		"createdAt":   video.CreatedAt,
	}
}

func videoRecords(videos []models.Video) []pipeline.Record {
	out := make([]pipeline.Record, len(videos))
	for i, v := range videos {
		out[i] = videoRecord(v)
	}
	return out
}

func commentRecord(comment models.Comment) pipeline.Record {
	return pipeline.Record{
		"id":        comment.ID,
		"videoId":   comment.VideoID,
		"owner":     comment.Owner,
		"content":   comment.Content,
		"createdAt": comment.CreatedAt,
	}
}

func commentRecords(comments []models.Comment) []pipeline.Record {
	out := make([]pipeline.Record, len(comments))
	for i, c := range comments {
		out[i] = commentRecord(c)
	}
	return out
}

func tweetRecord(tweet models.Tweet) pipeline.Record {
	return pipeline.Record{
		"id":        tweet.ID,
		"owner":     tweet.Owner,
		"content":   tweet.Content,
		"createdAt": tweet.CreatedAt,
	}
}

func tweetRecords(tweets []models.Tweet) []pipeline.Record {
	out := make([]pipeline.Record, len(tweets))
	for i, t := range tweets {
		out[i] = tweetRecord(t)
	}
	return out
}

func edgeRecord(edge models.Edge) pipeline.Record {
	return pipeline.Record{
		"type":      edge.Type,
		"actor":     edge.Actor,
		"subject":   edge.Subject,
		"createdAt": edge.CreatedAt,
	}
}

func edgeRecords(edges []models.Edge) []pipeline.Record {
	out := make([]pipeline.Record, len(edges))
	for i, e := range edges {
		out[i] = edgeRecord(e)
	}
	return out
}

// Field readers for decoding pipeline output. Missing and Absent values decay
// to zero values; the author reader keeps nil to preserve left-join absence.

func stringField(rec pipeline.Record, field string) string {
	if s, ok := rec[field].(string); ok {
		return s
	}
	return ""
}

func idField(rec pipeline.Record, field string) models.ID {
	if id, ok := rec[field].(models.ID); ok {
		return id
	}
	return ""
}

func intField(rec pipeline.Record, field string) int {
	switch n := rec[field].(type) {
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}

func int64Field(rec pipeline.Record, field string) int64 {
	switch n := rec[field].(type) {
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

func boolField(rec pipeline.Record, field string) bool {
	if b, ok := rec[field].(bool); ok {
		return b
	}
	return false
}

func timeField(rec pipeline.Record, field string) time.Time {
	if t, ok := rec[field].(time.Time); ok {
		return t
	}
	return time.Time{}
}

// authorField decodes the unwound author projection; nil means the joined
// record was absent (for example a deleted owner).
func authorField(rec pipeline.Record, field string) *Author {
	nested, ok := rec[field].(pipeline.Record)
	if !ok {
		return nil
	}
	return &Author{
		Username: stringField(nested, "username"),
		FullName: stringField(nested, "fullName"),
		Avatar:   stringField(nested, "avatar"),
	}
}

func recordsField(rec pipeline.Record, field string) []pipeline.Record {
	if seq, ok := rec[field].([]pipeline.Record); ok {
		return seq
	}
	return nil
}
