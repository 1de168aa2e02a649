package model

import "time"

// Post is a user-authored article on a game's board.
type Post struct {
	Idx       int64      `json:"idx"`
	UserIdx   int64      `json:"userIdx"`
	GameIdx   int64      `json:"gameIdx"`
	Title     string     `json:"title"`
	Content   string     `json:"content,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"-"`
}

// PostSummary is the board-listing projection: post metadata, author
// nickname, and the view count aggregated from the view table.
type PostSummary struct {
	PostIdx   int64     `json:"postIdx"`
	GameIdx   int64     `json:"gameIdx,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UserIdx   int64     `json:"userIdx"`
	Nickname  string    `json:"nickname"`
	View      int64     `json:"view"`
}

// PostDetail is the single-post projection returned by GET /post/{idx}.
// Reading a post records a view row in the same transaction, so View
// already includes the read that produced this value.
type PostDetail struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	GameIdx   int64     `json:"gameIdx"`
	UserIdx   int64     `json:"userIdx"`
	Nickname  string    `json:"nickname"`
	View      int64     `json:"view"`
}

// Comment is a user-authored reply on a post.
type Comment struct {
	Idx       int64      `json:"idx"`
	UserIdx   int64      `json:"userIdx"`
	PostIdx   int64      `json:"postIdx"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	Nickname  string     `json:"nickname,omitempty"`
	DeletedAt *time.Time `json:"-"`
}
