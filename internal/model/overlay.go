package model

import "time"

// Streaming overlay tables layered on top of Sakila.  Any of them may be
// absent from a given database.

type Video struct {
	VideoID         uint64    `json:"video_id"`
	FilmID          *uint16   `json:"film_id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`

	ViewCount    *int64 `json:"view_count,omitempty"`
	CommentCount *int64 `json:"comment_count,omitempty"`
}

type User struct {
	UserID    uint64    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`

	SubscriptionCount *int64 `json:"subscription_count,omitempty"`
}

type Subscription struct {
	SubscriptionID uint64     `json:"subscription_id"`
	UserID         uint64     `json:"user_id"`
	Plan           string     `json:"plan"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	EndsAt         *time.Time `json:"ends_at"`

	User *Embedded `json:"user,omitempty"`
}

type Comment struct {
	CommentID uint64    `json:"comment_id"`
	VideoID   uint64    `json:"video_id"`
	UserID    uint64    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type ViewEvent struct {
	ViewEventID    uint64    `json:"view_event_id"`
	VideoID        uint64    `json:"video_id"`
	UserID         *uint64   `json:"user_id"`
	WatchedSeconds int       `json:"watched_seconds"`
	ViewedAt       time.Time `json:"viewed_at"`
}
