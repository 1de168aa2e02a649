package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

const (
	MinCommentLength = 1
	MaxCommentLength = 1000

	CommentPageSize = 20
)

// CommentPage is one keyset page of a post's comments, oldest first.
type CommentPage struct {
	Total       int64           `json:"total"`
	CommentList []model.Comment `json:"commentList"`
}

// CommentService handles replies on posts.
type CommentService struct {
	comments repository.CommentRepository
	logger   *slog.Logger
}

func NewCommentService(comments repository.CommentRepository, logger *slog.Logger) *CommentService {
	return &CommentService{comments: comments, logger: logger}
}

// Create inserts the comment. The repository transaction also notifies the
// post's author, unless they are commenting under their own post.
func (s *CommentService) Create(ctx context.Context, userIdx, gameIdx, postIdx int64, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if l := len([]rune(content)); l < MinCommentLength || l > MaxCommentLength {
		return nil, apperror.ValidationFailed("content", fmt.Sprintf("댓글은 %d~%d자여야 합니다", MinCommentLength, MaxCommentLength))
	}

	comment := &model.Comment{UserIdx: userIdx, PostIdx: postIdx, Content: content}
	if err := s.comments.CreateComment(ctx, comment, gameIdx); err != nil {
		return nil, err
	}
	s.logger.Info("comment created", slog.Int64("commentIdx", comment.Idx), slog.Int64("postIdx", postIdx))
	return comment, nil
}

func (s *CommentService) List(ctx context.Context, postIdx, lastIdx int64) (*CommentPage, error) {
	comments, total, err := s.comments.ListComments(ctx, postIdx, lastIdx, CommentPageSize)
	if err != nil {
		return nil, err
	}
	return &CommentPage{Total: total, CommentList: comments}, nil
}

func (s *CommentService) Delete(ctx context.Context, commentIdx, userIdx int64) error {
	n, err := s.comments.SoftDeleteComment(ctx, commentIdx, userIdx)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.Forbidden("댓글을 찾을 수 없거나 삭제할 권한이 없습니다")
	}
	return nil
}
