package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
)

func TestCreateComment_NotifiesPostAuthor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "작성자", "author@example.com")
	commenter := createTestUser(t, db, "commenter", "댓글러", "commenter@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)
	game := createTestGame(t, db, author, admin, "댓글게임")
	post := createTestPost(t, db, game, author, "댓글 달릴 글")

	comment := &model.Comment{UserIdx: commenter, PostIdx: post, Content: "좋은 글이네요"}
	if err := db.CreateComment(ctx, comment, game); err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}
	if comment.Idx == 0 {
		t.Error("CreateComment() left idx unset")
	}

	notes, err := db.ListNotifications(ctx, author, 0, 20)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("author notifications = %d, want 1", len(notes))
	}
	n := notes[0]
	if n.Type != model.NotificationCommentMade || n.GameIdx != game {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.PostIdx == nil || *n.PostIdx != post {
		t.Errorf("notification post idx = %v, want %d", n.PostIdx, post)
	}
}

func TestCreateComment_SelfCommentStaysQuiet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "작성자", "author@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)
	game := createTestGame(t, db, author, admin, "혼잣말게임")
	post := createTestPost(t, db, game, author, "내 글")

	comment := &model.Comment{UserIdx: author, PostIdx: post, Content: "셀프 댓글"}
	if err := db.CreateComment(ctx, comment, game); err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}

	notes, err := db.ListNotifications(ctx, author, 0, 20)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("self comment produced %d notifications, want 0", len(notes))
	}
}

func TestCreateComment_MissingPost(t *testing.T) {
	db := newTestDB(t)

	commenter := createTestUser(t, db, "commenter", "댓글러", "commenter@example.com")
	comment := &model.Comment{UserIdx: commenter, PostIdx: 31337, Content: "어디다 남기지"}
	err := db.CreateComment(context.Background(), comment, 1)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("comment on missing post: got %v, want ErrNotFound", err)
	}
	// The failed workflow writes nothing.
	if n := countRows(t, db, `SELECT COUNT(*) FROM comment`); n != 0 {
		t.Errorf("comment rows = %d, want 0", n)
	}
}

func TestListComments_KeysetPaging(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "작성자", "author@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)
	game := createTestGame(t, db, author, admin, "페이징게임")
	post := createTestPost(t, db, game, author, "댓글 많은 글")

	for i := 1; i <= 5; i++ {
		c := &model.Comment{UserIdx: author, PostIdx: post, Content: fmt.Sprintf("댓글 %d", i)}
		if err := db.CreateComment(ctx, c, game); err != nil {
			t.Fatalf("CreateComment() error = %v", err)
		}
	}

	first, total, err := db.ListComments(ctx, post, 0, 3)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if total != 5 || len(first) != 3 {
		t.Fatalf("total = %d, page len = %d, want 5 and 3", total, len(first))
	}
	if first[0].Content != "댓글 1" {
		t.Errorf("oldest first: got %q", first[0].Content)
	}
	if first[0].Nickname != "작성자" {
		t.Errorf("nickname = %q, want 작성자", first[0].Nickname)
	}

	// The next page picks up after the last idx of the previous one.
	second, _, err := db.ListComments(ctx, post, first[len(first)-1].Idx, 3)
	if err != nil {
		t.Fatalf("second ListComments() error = %v", err)
	}
	if len(second) != 2 || second[0].Content != "댓글 4" {
		t.Fatalf("unexpected second page: %+v", second)
	}
}

func TestSoftDeleteComment_OwnerOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "작성자", "author@example.com")
	other := createTestUser(t, db, "intruder", "남", "other@example.com")
	admin := createTestUser(t, db, "adminuser", "관리자", "admin@example.com")
	promoteToAdmin(t, db, admin)
	game := createTestGame(t, db, author, admin, "댓글삭제게임")
	post := createTestPost(t, db, game, author, "글")

	comment := &model.Comment{UserIdx: author, PostIdx: post, Content: "지울 댓글"}
	if err := db.CreateComment(ctx, comment, game); err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}

	n, err := db.SoftDeleteComment(ctx, comment.Idx, other)
	if err != nil {
		t.Fatalf("SoftDeleteComment() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("foreign delete affected %d rows, want 0", n)
	}

	n, err = db.SoftDeleteComment(ctx, comment.Idx, author)
	if err != nil {
		t.Fatalf("SoftDeleteComment() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("owner delete affected %d rows, want 1", n)
	}

	_, total, err := db.ListComments(ctx, post, 0, 20)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if total != 0 {
		t.Errorf("live comments = %d, want 0", total)
	}
}
