package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

type fakeCommentRepo struct {
	repository.CommentRepository

	created     *model.Comment
	createdGame int64
	deletedRows int64
}

func (f *fakeCommentRepo) CreateComment(ctx context.Context, comment *model.Comment, gameIdx int64) error {
	comment.Idx = 21
	f.created = comment
	f.createdGame = gameIdx
	return nil
}

func (f *fakeCommentRepo) SoftDeleteComment(ctx context.Context, commentIdx, userIdx int64) (int64, error) {
	return f.deletedRows, nil
}

func TestCommentCreate(t *testing.T) {
	comments := &fakeCommentRepo{}
	svc := NewCommentService(comments, slog.New(slog.NewTextHandler(io.Discard, nil)))

	comment, err := svc.Create(context.Background(), 3, 5, 11, "  잘 봤습니다  ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if comment.Idx != 21 {
		t.Errorf("comment idx = %d, want 21", comment.Idx)
	}
	if comments.created.Content != "잘 봤습니다" {
		t.Errorf("stored content = %q, want trimmed", comments.created.Content)
	}
	if comments.createdGame != 5 {
		t.Errorf("game idx = %d, want 5", comments.createdGame)
	}
}

func TestCommentCreate_Validation(t *testing.T) {
	svc := NewCommentService(&fakeCommentRepo{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	for _, content := range []string{"", "   ", strings.Repeat("댓", 1001)} {
		if _, err := svc.Create(ctx, 3, 5, 11, content); !errors.Is(err, apperror.ErrBadRequest) {
			t.Errorf("content %q: got %v, want ErrBadRequest", content, err)
		}
	}
}

func TestCommentDelete_ZeroRowsIsForbidden(t *testing.T) {
	svc := NewCommentService(&fakeCommentRepo{deletedRows: 0}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := svc.Delete(context.Background(), 21, 4)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("zero-row delete: got %v, want ErrForbidden", err)
	}
}
