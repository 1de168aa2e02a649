package sqlite

import (
	"context"
	"testing"

	"github.com/nundung/gamebible/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser signs up a local user and returns the new idx.
func createTestUser(t *testing.T, db *DB, loginID, nickname, email string) int64 {
	t.Helper()
	idx, err := db.CreateLocalUser(context.Background(), loginID, "hash-"+loginID, nickname, email)
	if err != nil {
		t.Fatalf("failed to create test user %s: %v", loginID, err)
	}
	return idx
}

// promoteToAdmin flips the admin flag directly; no API does this.
func promoteToAdmin(t *testing.T, db *DB, userIdx int64) {
	t.Helper()
	if _, err := db.conn.Exec(`UPDATE users SET is_admin = 1 WHERE idx = ?`, userIdx); err != nil {
		t.Fatalf("failed to promote user %d: %v", userIdx, err)
	}
}

// createTestGame walks the real path: file a request, then approve it.
// Returns the new game idx.
func createTestGame(t *testing.T, db *DB, requesterIdx, adminIdx int64, title string) int64 {
	t.Helper()
	ctx := context.Background()

	if err := db.CreateRequest(ctx, requesterIdx, title); err != nil {
		t.Fatalf("failed to create game request: %v", err)
	}
	requests, err := db.ListRequests(ctx, 0, 1)
	if err != nil || len(requests) == 0 {
		t.Fatalf("failed to list game requests: %v", err)
	}

	err = db.ApproveRequest(ctx, repository.ApproveGameCommand{
		RequestIdx:    requests[0].Idx,
		AdminIdx:      adminIdx,
		Title:         title,
		TitleKor:      title + " 한글",
		TitleEng:      title + " eng",
		ThumbnailPath: "/images/" + title + "-thumb.png",
		BannerPath:    "/images/" + title + "-banner.png",
	})
	if err != nil {
		t.Fatalf("failed to approve game request: %v", err)
	}

	var gameIdx int64
	err = db.conn.QueryRow(
		`SELECT idx FROM game WHERE title = ? AND deleted_at IS NULL`, title,
	).Scan(&gameIdx)
	if err != nil {
		t.Fatalf("failed to load approved game: %v", err)
	}
	return gameIdx
}

func countRows(t *testing.T, db *DB, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}
