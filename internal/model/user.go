// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the identity record. A user owns exactly one of LocalAccount or
// KakaoAccount; local signup and Kakao signup each create their own pair
// inside a single transaction.
//
// WHY Idx int64?
// The database assigns sequential integer keys. int64 matches what
// database/sql hands back from an AUTOINCREMENT column, and notification,
// post, and comment rows all reference users by this number.
//
// Soft delete: DeletedAt is set on withdrawal, the row is never removed.
// Every uniqueness check and listing filters on deleted_at IS NULL, so a
// withdrawn user's nickname and email become reusable.
type User struct {
	Idx       int64      `json:"idx"`
	Nickname  string     `json:"nickname"`
	Email     string     `json:"email"`
	IsAdmin   bool       `json:"isAdmin"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// LocalAccount is the id/password credential, 1:1 with User.
// PwHash is a bcrypt hash and never leaves the server.
type LocalAccount struct {
	Idx       int64     `json:"idx"`
	UserIdx   int64     `json:"userIdx"`
	LoginID   string    `json:"id"`
	PwHash    string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// KakaoAccount links a User to a Kakao identity. KakaoKey is Kakao's numeric
// user id, the dedup key for repeat Kakao logins.
type KakaoAccount struct {
	Idx       int64     `json:"idx"`
	UserIdx   int64     `json:"userIdx"`
	KakaoKey  int64     `json:"kakaoKey"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserInfo is the GET /account/info projection: the user row plus whichever
// credential exists. LoginID is empty for Kakao users; KakaoKey is nil for
// local users.
type UserInfo struct {
	Idx       int64     `json:"idx"`
	IsAdmin   bool      `json:"isAdmin"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	LoginID   string    `json:"id,omitempty"`
	KakaoKey  *int64    `json:"kakaoKey,omitempty"`
}

// ProfileImage is a user's profile picture. Swapping the image soft-deletes
// the previous row and inserts a new one in the same transaction.
type ProfileImage struct {
	Idx       int64      `json:"idx"`
	UserIdx   int64      `json:"userIdx"`
	ImgPath   string     `json:"imgPath"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"-"`
}
