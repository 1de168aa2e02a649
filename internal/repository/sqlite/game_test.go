package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

func TestApproveRequest(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "requester", "요청자", "req@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)

	if err := db.CreateRequest(ctx, requester, "스타크래프트"); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	requests, err := db.ListRequests(ctx, 0, 20)
	if err != nil {
		t.Fatalf("ListRequests() error = %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("pending requests = %d, want 1", len(requests))
	}

	err = db.ApproveRequest(ctx, repository.ApproveGameCommand{
		RequestIdx:    requests[0].Idx,
		AdminIdx:      admin,
		Title:         "스타크래프트",
		TitleKor:      "스타크래프트",
		TitleEng:      "StarCraft",
		ThumbnailPath: "/images/sc-thumb.png",
		BannerPath:    "/images/sc-banner.png",
	})
	if err != nil {
		t.Fatalf("ApproveRequest() error = %v", err)
	}

	// The approval is a single unit: game, welcome post, both images, and
	// the request resolved.
	if n := countRows(t, db, `SELECT COUNT(*) FROM game WHERE deleted_at IS NULL`); n != 1 {
		t.Errorf("live games = %d, want 1", n)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM post WHERE user_idx = ?`, admin); n != 1 {
		t.Errorf("welcome posts = %d, want 1", n)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM game_img_thumbnail`); n != 1 {
		t.Errorf("thumbnail rows = %d, want 1", n)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM game_img_banner`); n != 1 {
		t.Errorf("banner rows = %d, want 1", n)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM request WHERE deleted_at IS NULL`); n != 0 {
		t.Errorf("unresolved requests = %d, want 0", n)
	}

	// A resolved request cannot be approved twice.
	err = db.ApproveRequest(ctx, repository.ApproveGameCommand{
		RequestIdx: requests[0].Idx,
		AdminIdx:   admin,
		Title:      "스타크래프트",
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second approval: got %v, want ErrNotFound", err)
	}
}

func TestApproveRequest_TitleConflictRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "requester", "요청자", "req@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)

	createTestGame(t, db, requester, admin, "롤")

	if err := db.CreateRequest(ctx, requester, "롤"); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	requests, err := db.ListRequests(ctx, 0, 20)
	if err != nil {
		t.Fatalf("ListRequests() error = %v", err)
	}

	err = db.ApproveRequest(ctx, repository.ApproveGameCommand{
		RequestIdx:    requests[0].Idx,
		AdminIdx:      admin,
		Title:         "롤",
		TitleKor:      "롤 한글",
		TitleEng:      "롤 eng",
		ThumbnailPath: "/images/dup-thumb.png",
		BannerPath:    "/images/dup-banner.png",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate title approval: got %v, want ErrConflict", err)
	}

	// Nothing was applied, including the request resolution.
	if n := countRows(t, db, `SELECT COUNT(*) FROM game WHERE deleted_at IS NULL`); n != 1 {
		t.Errorf("live games = %d, want 1", n)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM request WHERE deleted_at IS NULL`); n != 1 {
		t.Errorf("unresolved requests = %d, want 1", n)
	}
}

func TestDenyRequest(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "requester", "요청자", "req@example.com")

	if err := db.CreateRequest(ctx, requester, "거절될게임"); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	requests, err := db.ListRequests(ctx, 0, 20)
	if err != nil {
		t.Fatalf("ListRequests() error = %v", err)
	}

	if err := db.DenyRequest(ctx, requests[0].Idx); err != nil {
		t.Fatalf("DenyRequest() error = %v", err)
	}

	// The placeholder game is born soft-deleted so it never surfaces in
	// listings, but it anchors the denial notification.
	if n := countRows(t, db, `SELECT COUNT(*) FROM game WHERE deleted_at IS NULL`); n != 0 {
		t.Errorf("live games = %d, want 0", n)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM game WHERE deleted_at IS NOT NULL`); n != 1 {
		t.Errorf("placeholder games = %d, want 1", n)
	}

	notes, err := db.ListNotifications(ctx, requester, 0, 20)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes))
	}
	if notes[0].Type != model.NotificationGameDenied {
		t.Errorf("notification type = %d, want %d", notes[0].Type, model.NotificationGameDenied)
	}

	if err := db.DenyRequest(ctx, requests[0].Idx); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second denial: got %v, want ErrNotFound", err)
	}
}

func TestListGames(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "requester", "요청자", "req@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)

	// Inserted out of order to prove the alphabetical sort.
	createTestGame(t, db, requester, admin, "바람의나라")
	createTestGame(t, db, requester, admin, "메이플스토리")

	games, total, err := db.ListGames(ctx, 1, 20)
	if err != nil {
		t.Fatalf("ListGames() error = %v", err)
	}
	if total != 2 || len(games) != 2 {
		t.Fatalf("total = %d, page len = %d, want 2 and 2", total, len(games))
	}
	if games[0].Title != "메이플스토리" || games[1].Title != "바람의나라" {
		t.Errorf("unexpected order: %q, %q", games[0].Title, games[1].Title)
	}
}

func TestSearchGames(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "requester", "요청자", "req@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)

	idx := createTestGame(t, db, requester, admin, "오버워치")
	createTestGame(t, db, requester, admin, "디아블로")

	// Substring match against either title variant, thumbnail joined in.
	games, err := db.SearchGames(ctx, "오버")
	if err != nil {
		t.Fatalf("SearchGames() error = %v", err)
	}
	if len(games) != 1 || games[0].Idx != idx {
		t.Fatalf("search hits = %+v, want the one game", games)
	}
	if games[0].ImgPath == "" {
		t.Error("search hit has no thumbnail path")
	}
}

func TestPopularGames(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "requester", "요청자", "req@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)

	quiet := createTestGame(t, db, requester, admin, "한산한게임")
	busy := createTestGame(t, db, requester, admin, "북적이는게임")

	// The approval already seeded one welcome post per game; tip the scale.
	for i := 0; i < 3; i++ {
		post := &model.Post{GameIdx: busy, UserIdx: requester, Title: "글", Content: "내용"}
		if err := db.CreatePost(ctx, post); err != nil {
			t.Fatalf("CreatePost() error = %v", err)
		}
	}

	games, total, err := db.PopularGames(ctx, 19, 0)
	if err != nil {
		t.Fatalf("PopularGames() error = %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(games) != 2 || games[0].Idx != busy || games[1].Idx != quiet {
		t.Fatalf("unexpected popularity order: %+v", games)
	}
	if games[0].PostCount != 4 {
		t.Errorf("busy game post count = %d, want 4", games[0].PostCount)
	}
}

func TestReplaceGameImage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "requester", "요청자", "req@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)

	idx := createTestGame(t, db, requester, admin, "이미지게임")

	if err := db.ReplaceGameImage(ctx, idx, model.GameImageBanner, "/images/new-banner.png"); err != nil {
		t.Fatalf("ReplaceGameImage() error = %v", err)
	}

	paths, err := db.LiveImagePaths(ctx, idx, model.GameImageBanner)
	if err != nil {
		t.Fatalf("LiveImagePaths() error = %v", err)
	}
	if len(paths) != 1 || paths[0] != "/images/new-banner.png" {
		t.Errorf("live banners = %v, want just the replacement", paths)
	}

	// The thumbnail side is untouched.
	thumbs, err := db.LiveImagePaths(ctx, idx, model.GameImageThumbnail)
	if err != nil {
		t.Fatalf("LiveImagePaths() error = %v", err)
	}
	if len(thumbs) != 1 {
		t.Errorf("live thumbnails = %d, want 1", len(thumbs))
	}
}
