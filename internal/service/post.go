package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
	"github.com/nundung/gamebible/internal/storage"
)

const (
	MinPostTitleLength   = 2
	MaxPostTitleLength   = 40
	MinPostContentLength = 2
	MaxPostContentLength = 10000

	PostPageSize       = 20
	PostSearchPageSize = 7
)

// PostPage is one page of a game's board.
type PostPage struct {
	MaxPage  int64               `json:"maxPage"`
	Page     int                 `json:"page"`
	Total    int64               `json:"total"`
	PostList []model.PostSummary `json:"postList"`
}

// PostView is a post detail plus whether the viewer wrote it.
type PostView struct {
	*model.PostDetail
	IsAuthor bool `json:"isAuthor"`
}

// PostService handles board posts: writing, listing, the view-counting
// read, and deletion.
type PostService struct {
	posts  repository.PostRepository
	games  repository.GameRepository
	store  storage.ImageStore
	logger *slog.Logger
}

func NewPostService(posts repository.PostRepository, games repository.GameRepository, store storage.ImageStore, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, games: games, store: store, logger: logger}
}

func (s *PostService) Create(ctx context.Context, userIdx, gameIdx int64, title, content string) (*model.Post, error) {
	title = strings.TrimSpace(title)
	if l := len([]rune(title)); l < MinPostTitleLength || l > MaxPostTitleLength {
		return nil, apperror.ValidationFailed("title", fmt.Sprintf("제목은 %d~%d자여야 합니다", MinPostTitleLength, MaxPostTitleLength))
	}
	if l := len([]rune(content)); l < MinPostContentLength || l > MaxPostContentLength {
		return nil, apperror.ValidationFailed("content", fmt.Sprintf("내용은 %d~%d자여야 합니다", MinPostContentLength, MaxPostContentLength))
	}

	live, err := s.games.GameExists(ctx, gameIdx)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, apperror.NotFound("게임이 존재하지 않습니다")
	}

	post := &model.Post{UserIdx: userIdx, GameIdx: gameIdx, Title: title, Content: content}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	s.logger.Info("post created", slog.Int64("postIdx", post.Idx), slog.Int64("gameIdx", gameIdx))
	return post, nil
}

// SaveImage stores an inline post image and returns its public path. The
// editor embeds the path into the post content client-side.
func (s *PostService) SaveImage(upload ImageUpload) (string, error) {
	if upload.empty() {
		return "", apperror.BadRequest("이미지를 업로드해 주세요")
	}
	return s.store.SaveImage(upload.Filename, upload.ContentType, upload.Body)
}

func (s *PostService) List(ctx context.Context, gameIdx int64, page int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	posts, total, err := s.posts.ListPosts(ctx, gameIdx, page, PostPageSize)
	if err != nil {
		return nil, err
	}
	return &PostPage{
		MaxPage:  (total + PostPageSize - 1) / PostPageSize,
		Page:     page,
		Total:    total,
		PostList: posts,
	}, nil
}

func (s *PostService) Search(ctx context.Context, title string, page int) (*PostPage, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "검색어를 입력해 주세요")
	}
	if page < 1 {
		page = 1
	}
	posts, total, err := s.posts.SearchPosts(ctx, title, page, PostSearchPageSize)
	if err != nil {
		return nil, err
	}
	return &PostPage{
		MaxPage:  (total + PostSearchPageSize - 1) / PostSearchPageSize,
		Page:     page,
		Total:    total,
		PostList: posts,
	}, nil
}

// Read returns the post and records the view; the count in the response
// already includes this read.
func (s *PostService) Read(ctx context.Context, postIdx, viewerIdx int64) (*PostView, error) {
	detail, err := s.posts.GetPostDetail(ctx, postIdx, viewerIdx)
	if err != nil {
		return nil, err
	}
	return &PostView{PostDetail: detail, IsAuthor: detail.UserIdx == viewerIdx}, nil
}

// Delete removes the viewer's own post. A zero-row update means the post
// is gone or theirs to keep, which the client sees as Forbidden.
func (s *PostService) Delete(ctx context.Context, postIdx, userIdx int64) error {
	n, err := s.posts.SoftDeletePost(ctx, postIdx, userIdx)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.Forbidden("게시글을 찾을 수 없거나 삭제할 권한이 없습니다")
	}
	return nil
}
