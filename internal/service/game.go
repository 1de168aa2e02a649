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
	MinGameTitleLength = 2
	GamePageSize       = 20
	RequestPageSize    = 20

	// The popular listing's window arithmetic comes from the shipping
	// client: the front page renders a 19-card grid, later pages 16, and
	// the skip for page n is (n-1)*16+3.
	popularFirstPageSize = 19
	popularPageSize      = 16
)

// GamePage is one page of the alphabetical listing.
type GamePage struct {
	MaxPage  int64               `json:"maxPage"`
	Page     int                 `json:"page"`
	GameList []model.GameSummary `json:"gameList"`
}

// GameService handles game creation requests, the public listings, and the
// wiki attached to each game.
type GameService struct {
	games  repository.GameRepository
	wikis  repository.WikiRepository
	logger *slog.Logger
}

func NewGameService(games repository.GameRepository, wikis repository.WikiRepository, logger *slog.Logger) *GameService {
	return &GameService{games: games, wikis: wikis, logger: logger}
}

// RequestCreation files a proposal for a new game after checking the title
// is not already live. The admin-side approval re-checks inside its
// transaction; this early Conflict just saves the user a doomed wait.
func (s *GameService) RequestCreation(ctx context.Context, userIdx int64, title string) error {
	title = strings.TrimSpace(title)
	if len([]rune(title)) < MinGameTitleLength {
		return apperror.ValidationFailed("title", fmt.Sprintf("게임 이름은 %d자 이상이어야 합니다", MinGameTitleLength))
	}

	taken, err := s.games.TitleTaken(ctx, title)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("이미 존재하는 게임입니다")
	}

	if err := s.games.CreateRequest(ctx, userIdx, title); err != nil {
		return err
	}
	s.logger.Info("game requested", slog.Int64("userIdx", userIdx), slog.String("title", title))
	return nil
}

// List returns the alphabetical page. An out-of-range page comes back as
// an empty list, not an error.
func (s *GameService) List(ctx context.Context, page int) (*GamePage, error) {
	if page < 1 {
		page = 1
	}
	games, total, err := s.games.ListGames(ctx, page, GamePageSize)
	if err != nil {
		return nil, err
	}
	return &GamePage{
		MaxPage:  (total + GamePageSize - 1) / GamePageSize,
		Page:     page,
		GameList: games,
	}, nil
}

func (s *GameService) Search(ctx context.Context, title string) ([]model.GameSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "검색어를 입력해 주세요")
	}
	return s.games.SearchGames(ctx, title)
}

// Popular pages games by post count with the client's uneven windows: 19
// items on page one, 16 afterwards.
func (s *GameService) Popular(ctx context.Context, page int) (*GamePage, error) {
	if page < 1 {
		page = 1
	}
	limit, offset := popularFirstPageSize, 0
	if page > 1 {
		limit = popularPageSize
		offset = (page-1)*popularPageSize + 3
	}

	games, total, err := s.games.PopularGames(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	maxPage := int64(1)
	if total > popularFirstPageSize {
		maxPage = 1 + (total-popularFirstPageSize+popularPageSize-1)/popularPageSize
	}
	return &GamePage{MaxPage: maxPage, Page: page, GameList: games}, nil
}

// ImagePaths returns the live thumbnail or banner paths of a game.
func (s *GameService) ImagePaths(ctx context.Context, gameIdx int64, kind model.GameImageKind) ([]string, error) {
	live, err := s.games.GameExists(ctx, gameIdx)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, apperror.NotFound("게임이 존재하지 않습니다")
	}
	return s.games.LiveImagePaths(ctx, gameIdx, kind)
}

// Wiki returns the latest committed revision.
func (s *GameService) Wiki(ctx context.Context, gameIdx int64) (*model.WikiHistory, error) {
	return s.wikis.LatestWiki(ctx, gameIdx)
}

// OpenWikiDraft starts an edit session seeded with the current content.
func (s *GameService) OpenWikiDraft(ctx context.Context, gameIdx, userIdx int64) (*model.WikiHistory, error) {
	return s.wikis.CreateWikiDraft(ctx, gameIdx, userIdx)
}

// CommitWiki publishes the edited content as a new revision. The
// repository transaction also notifies every prior contributor.
func (s *GameService) CommitWiki(ctx context.Context, gameIdx, userIdx int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return apperror.ValidationFailed("content", "내용을 입력해 주세요")
	}
	live, err := s.games.GameExists(ctx, gameIdx)
	if err != nil {
		return err
	}
	if !live {
		return apperror.NotFound("게임이 존재하지 않습니다")
	}
	if err := s.wikis.CommitWiki(ctx, gameIdx, userIdx, content); err != nil {
		return err
	}
	s.logger.Info("wiki committed", slog.Int64("gameIdx", gameIdx), slog.Int64("userIdx", userIdx))
	return nil
}

func (s *GameService) WikiHistory(ctx context.Context, gameIdx int64) ([]model.WikiHistory, error) {
	return s.wikis.ListWikiHistory(ctx, gameIdx)
}

func (s *GameService) WikiRevision(ctx context.Context, gameIdx, historyIdx int64) (*model.WikiHistory, error) {
	return s.wikis.GetWikiRevision(ctx, gameIdx, historyIdx)
}
