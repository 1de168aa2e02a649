package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
)

func TestCreateWikiDraft(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "requester", "요청자", "req@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)
	game := createTestGame(t, db, requester, admin, "위키게임")

	// No revision yet: the draft starts empty.
	draft, err := db.CreateWikiDraft(ctx, game, requester)
	if err != nil {
		t.Fatalf("CreateWikiDraft() error = %v", err)
	}
	if draft.Idx == 0 || draft.Content != "" {
		t.Errorf("unexpected first draft: %+v", draft)
	}

	if err := db.CommitWiki(ctx, game, requester, "첫 번째 버전"); err != nil {
		t.Fatalf("CommitWiki() error = %v", err)
	}

	// A later draft clones the committed content.
	draft2, err := db.CreateWikiDraft(ctx, game, admin)
	if err != nil {
		t.Fatalf("second CreateWikiDraft() error = %v", err)
	}
	if draft2.Content != "첫 번째 버전" {
		t.Errorf("draft content = %q, want the live revision", draft2.Content)
	}
}

func TestCreateWikiDraft_UnknownGame(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "someone", "누군가", "who@example.com")
	_, err := db.CreateWikiDraft(context.Background(), 999, user)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("draft on missing game: got %v, want ErrNotFound", err)
	}
}

func TestLatestWiki_IgnoresDrafts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "requester", "요청자", "req@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)
	game := createTestGame(t, db, requester, admin, "초안게임")

	if err := db.CommitWiki(ctx, game, requester, "공개된 내용"); err != nil {
		t.Fatalf("CommitWiki() error = %v", err)
	}
	if _, err := db.CreateWikiDraft(ctx, game, admin); err != nil {
		t.Fatalf("CreateWikiDraft() error = %v", err)
	}

	latest, err := db.LatestWiki(ctx, game)
	if err != nil {
		t.Fatalf("LatestWiki() error = %v", err)
	}
	if latest.Content != "공개된 내용" {
		t.Errorf("latest content = %q, want the committed revision", latest.Content)
	}

	// The open draft stays out of the public history too.
	history, err := db.ListWikiHistory(ctx, game)
	if err != nil {
		t.Fatalf("ListWikiHistory() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history))
	}
	if history[0].Nickname != "요청자" {
		t.Errorf("history nickname = %q, want 요청자", history[0].Nickname)
	}
}

func TestCommitWiki_NotifiesPriorContributors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := createTestUser(t, db, "firstuser", "첫기여자", "first@example.com")
	second := createTestUser(t, db, "seconduser", "둘째기여자", "second@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)
	game := createTestGame(t, db, first, admin, "알림게임")

	if err := db.CommitWiki(ctx, game, first, "v1"); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	// Two commits by the same editor still yield one notification per later
	// edit, not two.
	if err := db.CommitWiki(ctx, game, first, "v2"); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	if err := db.CommitWiki(ctx, game, second, "v3"); err != nil {
		t.Fatalf("third commit: %v", err)
	}

	notes, err := db.ListNotifications(ctx, first, 0, 20)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notifications for first contributor = %d, want 1", len(notes))
	}
	if notes[0].Type != model.NotificationGameModified || notes[0].GameIdx != game {
		t.Errorf("unexpected notification: %+v", notes[0])
	}

	// The editor never notifies themselves.
	selfNotes, err := db.ListNotifications(ctx, second, 0, 20)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(selfNotes) != 0 {
		t.Errorf("notifications for the editor = %d, want 0", len(selfNotes))
	}
}

func TestGetWikiRevision(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "requester", "요청자", "req@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)
	game := createTestGame(t, db, requester, admin, "버전게임")

	if err := db.CommitWiki(ctx, game, requester, "옛날 내용"); err != nil {
		t.Fatalf("CommitWiki() error = %v", err)
	}
	history, err := db.ListWikiHistory(ctx, game)
	if err != nil {
		t.Fatalf("ListWikiHistory() error = %v", err)
	}

	rev, err := db.GetWikiRevision(ctx, game, history[0].Idx)
	if err != nil {
		t.Fatalf("GetWikiRevision() error = %v", err)
	}
	if rev.Content != "옛날 내용" {
		t.Errorf("revision content = %q", rev.Content)
	}

	if _, err := db.GetWikiRevision(ctx, game, 9999); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("missing revision: got %v, want ErrNotFound", err)
	}
}
