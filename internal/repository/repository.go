// Package repository declares the data-access interfaces consumed by the
// service layer. The sqlite subpackage implements them; services never see
// the concrete type.
//
// Methods that name a "workflow" execute a multi-statement transaction on a
// dedicated connection: pre-condition reads, a primary write whose generated
// key feeds dependent writes, and any notification rows, committed or
// rolled back as one unit.
package repository

import (
	"context"
	"time"

	"github.com/nundung/gamebible/internal/model"
)

// ApproveGameCommand carries everything the game-approval workflow writes:
// the request being resolved, the admin acting, the final title variants,
// and the already-stored image paths.
type ApproveGameCommand struct {
	RequestIdx    int64
	AdminIdx      int64
	Title         string
	TitleKor      string
	TitleEng      string
	ThumbnailPath string
	BannerPath    string
}

// LogFilter narrows the request-log listing. Zero values mean "no filter".
type LogFilter struct {
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive
	Idx       int64
	API       string // route group: account, admin, game, post, comment, log
}

type UserRepository interface {
	// CreateLocalUser is the signup workflow: uniqueness pre-checks on
	// login id, nickname, and email among active users, then the user
	// insert and the dependent account_local insert. Returns the new user
	// index.
	CreateLocalUser(ctx context.Context, loginID, pwHash, nickname, email string) (int64, error)

	// GetOrCreateKakaoUser is the Kakao signup workflow: looks up an
	// active user by kakao key; when absent it checks the email is not
	// already a local signup, picks a non-colliding nickname from the
	// generator, and inserts user + account_kakao. Returns the user either
	// way.
	GetOrCreateKakaoUser(ctx context.Context, kakaoKey int64, email string, nickname func() string) (*model.User, error)

	// GetLocalCredentials returns the user and stored hash for an active
	// local account, for login.
	GetLocalCredentials(ctx context.Context, loginID string) (*model.User, string, error)

	LoginIDTaken(ctx context.Context, loginID string) (bool, error)
	NicknameTaken(ctx context.Context, nickname string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)

	FindLoginIDByEmail(ctx context.Context, email string) (string, error)
	FindUserIdxByEmail(ctx context.Context, email string) (int64, error)

	GetInfo(ctx context.Context, userIdx int64) (*model.UserInfo, error)
	// UpdateInfo changes nickname and email with exclude-self uniqueness
	// checks.
	UpdateInfo(ctx context.Context, userIdx int64, nickname, email string) error
	UpdatePassword(ctx context.Context, userIdx int64, pwHash string) error
	SoftDelete(ctx context.Context, userIdx int64) error

	// SwapProfileImage is the profile-image workflow: soft-deletes any
	// current profile_img rows and inserts the new one, atomically.
	SwapProfileImage(ctx context.Context, userIdx int64, imgPath string) error
}

type NotificationRepository interface {
	// CreateNotification writes a standalone notification row, outside any
	// workflow transaction.
	CreateNotification(ctx context.Context, n *model.Notification) error
	// ListNotifications pages the user's live notifications by descending
	// idx, starting strictly below lastIdx (0 means from the top).
	ListNotifications(ctx context.Context, userIdx, lastIdx int64, limit int) ([]model.Notification, error)
	// DeleteNotification soft-deletes a notification after confirming
	// ownership.
	DeleteNotification(ctx context.Context, idx, userIdx int64) error
}

type VerificationRepository interface {
	CreateCode(ctx context.Context, email, code string) error
	// CodeValid reports whether a code for the email exists and is younger
	// than maxAge.
	CodeValid(ctx context.Context, email, code string, maxAge time.Duration) (bool, error)
	// DeleteExpired purges codes older than maxAge; returns how many rows
	// went away.
	DeleteExpired(ctx context.Context, maxAge time.Duration) (int64, error)
}

type GameRepository interface {
	TitleTaken(ctx context.Context, title string) (bool, error)
	GameExists(ctx context.Context, gameIdx int64) (bool, error)

	CreateRequest(ctx context.Context, userIdx int64, title string) error
	ListRequests(ctx context.Context, lastIdx int64, limit int) ([]model.GameRequest, error)

	// ApproveRequest is the game-approval workflow: resolve the request,
	// title uniqueness pre-checks, insert game, welcome post, thumbnail
	// and banner rows, all or nothing.
	ApproveRequest(ctx context.Context, cmd ApproveGameCommand) error

	// DenyRequest is the game-denial workflow: resolve the request as
	// denied, fabricate the soft-deleted placeholder game, and emit the
	// game-denied notification to the requester, atomically.
	DenyRequest(ctx context.Context, requestIdx int64) error

	ListGames(ctx context.Context, page, perPage int) ([]model.GameSummary, int64, error)
	SearchGames(ctx context.Context, title string) ([]model.GameSummary, error)
	PopularGames(ctx context.Context, limit, offset int) ([]model.GameSummary, int64, error)

	LiveImagePaths(ctx context.Context, gameIdx int64, kind model.GameImageKind) ([]string, error)
	// ReplaceGameImage soft-deletes the live thumbnail/banner rows and
	// inserts the new path, atomically.
	ReplaceGameImage(ctx context.Context, gameIdx int64, kind model.GameImageKind, imgPath string) error
}

type WikiRepository interface {
	LatestWiki(ctx context.Context, gameIdx int64) (*model.WikiHistory, error)
	// CreateWikiDraft opens an uncommitted revision (NULL created_at)
	// seeded from the current one, so the editor starts from live content.
	CreateWikiDraft(ctx context.Context, gameIdx, userIdx int64) (*model.WikiHistory, error)
	// CommitWiki is the wiki-edit workflow: insert the committed revision
	// and bulk-emit one game-modified notification per distinct prior
	// contributor (excluding the editor), atomically.
	CommitWiki(ctx context.Context, gameIdx, userIdx int64, content string) error
	ListWikiHistory(ctx context.Context, gameIdx int64) ([]model.WikiHistory, error)
	GetWikiRevision(ctx context.Context, gameIdx, historyIdx int64) (*model.WikiHistory, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	ListPosts(ctx context.Context, gameIdx int64, page, perPage int) ([]model.PostSummary, int64, error)
	SearchPosts(ctx context.Context, title string, page, perPage int) ([]model.PostSummary, int64, error)
	// GetPostDetail records a view row for the reader and returns the post
	// with author and view count, in one transaction. The read is
	// intentionally not idempotent.
	GetPostDetail(ctx context.Context, postIdx, viewerIdx int64) (*model.PostDetail, error)
	// SoftDeletePost removes the viewer's own post; returns the rows
	// affected so callers can turn 0 into a Forbidden.
	SoftDeletePost(ctx context.Context, postIdx, userIdx int64) (int64, error)
}

type CommentRepository interface {
	// CreateComment inserts the comment and emits a comment-made
	// notification to the post author (unless the author is commenting on
	// their own post) in the same transaction.
	CreateComment(ctx context.Context, comment *model.Comment, gameIdx int64) error
	ListComments(ctx context.Context, postIdx, lastIdx int64, limit int) ([]model.Comment, int64, error)
	SoftDeleteComment(ctx context.Context, commentIdx, userIdx int64) (int64, error)
}

type LogRepository interface {
	InsertLog(ctx context.Context, entry *model.RequestLog) error
	ListLogs(ctx context.Context, filter LogFilter) ([]model.RequestLog, error)
}
