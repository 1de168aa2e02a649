package model

import "time"

// NotificationType enumerates the events that produce a notification row.
// The numeric values are stored in the database.
type NotificationType int

const (
	NotificationCommentMade  NotificationType = 1 // someone commented on your post
	NotificationGameModified NotificationType = 2 // a game wiki you contributed to changed
	NotificationGameDenied   NotificationType = 3 // your game creation request was denied
)

// Notification is a typed event record targeting one user. GameIdx is always
// set; PostIdx only for comment events. Like everything else it is
// soft-deleted, never removed.
type Notification struct {
	Idx       int64            `json:"idx"`
	Type      NotificationType `json:"type"`
	UserIdx   int64            `json:"userIdx"`
	GameIdx   int64            `json:"gameIdx"`
	PostIdx   *int64           `json:"postIdx,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	DeletedAt *time.Time       `json:"-"`

	// Joined context for listings: the post title for comment events, the
	// game title for wiki/denial events.
	PostTitle string `json:"postTitle,omitempty"`
	GameTitle string `json:"gameTitle,omitempty"`
}

// EmailVerification is a short-lived signup code. A code is valid for five
// minutes from CreatedAt; stale rows are purged by a deferred sweep
// scheduled at issuance.
type EmailVerification struct {
	Idx       int64     `json:"idx"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

// RequestLog is one row of the admin-facing API audit trail written by the
// request-log middleware.
type RequestLog struct {
	Idx                int64     `json:"idx"`
	Method             string    `json:"method"`
	URL                string    `json:"url"`
	Status             int       `json:"status"`
	UserIdx            *int64    `json:"userIdx,omitempty"`
	RequestedTimestamp time.Time `json:"requestedTimestamp"`
}
