package model

import "time"

// Game is a wiki subject. Title comes in three variants (plain, Korean,
// English); uniqueness is enforced on the kor/eng variants among non-deleted
// rows.
//
// A soft-deleted Game is also fabricated when an admin denies a creation
// request: the denial notification's game_idx foreign key needs a real row
// to point at, and a row born with deleted_at set never shows up anywhere
// else.
type Game struct {
	Idx       int64      `json:"idx"`
	UserIdx   int64      `json:"userIdx"`
	Title     string     `json:"title"`
	TitleKor  string     `json:"titleKor,omitempty"`
	TitleEng  string     `json:"titleEng,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"-"`
}

// GameSummary is the listing/search projection: a game plus its live
// thumbnail path (and post count for the popularity ordering).
type GameSummary struct {
	Idx       int64     `json:"idx"`
	Title     string    `json:"title"`
	ImgPath   string    `json:"imgPath,omitempty"`
	PostCount int64     `json:"postCount,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// GameRequest is a pending proposal for a new Game. An admin resolves it by
// approving (IsConfirmed=true, a real Game is created) or denying
// (IsConfirmed=false, a placeholder Game anchors the denial notification).
// Either way the request row is soft-deleted at resolution time.
type GameRequest struct {
	Idx         int64      `json:"idx"`
	UserIdx     int64      `json:"userIdx"`
	Title       string     `json:"title"`
	IsConfirmed bool       `json:"isConfirmed"`
	CreatedAt   time.Time  `json:"createdAt"`
	DeletedAt   *time.Time `json:"-"`
}

// WikiHistory is one content revision of a game's wiki page.
//
// CreatedAt is nullable on purpose: a NULL timestamp marks an in-progress
// draft opened by POST /game/{idx}/wiki that has not been committed as a
// real revision yet. Committed revisions always carry a timestamp, and only
// they appear in history listings.
type WikiHistory struct {
	Idx       int64      `json:"idx"`
	GameIdx   int64      `json:"gameIdx"`
	UserIdx   int64      `json:"userIdx"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"createdAt"`
	Nickname  string     `json:"nickname,omitempty"`
}

// GameImageKind selects between the two game image tables.
type GameImageKind string

const (
	GameImageThumbnail GameImageKind = "thumbnail"
	GameImageBanner    GameImageKind = "banner"
)

// GameImage is a thumbnail or banner row. The kind lives in the table name
// (game_img_thumbnail / game_img_banner), not in the struct.
type GameImage struct {
	Idx       int64      `json:"idx"`
	GameIdx   int64      `json:"gameIdx"`
	ImgPath   string     `json:"imgPath"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"-"`
}
