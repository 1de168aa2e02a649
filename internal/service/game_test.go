package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

type fakeGameRepo struct {
	repository.GameRepository

	titleInUse bool

	requestedTitle string

	popularTotal  int64
	popularLimit  int
	popularOffset int
}

func (f *fakeGameRepo) TitleTaken(ctx context.Context, title string) (bool, error) {
	return f.titleInUse, nil
}

func (f *fakeGameRepo) CreateRequest(ctx context.Context, userIdx int64, title string) error {
	f.requestedTitle = title
	return nil
}

func (f *fakeGameRepo) PopularGames(ctx context.Context, limit, offset int) ([]model.GameSummary, int64, error) {
	f.popularLimit = limit
	f.popularOffset = offset
	return nil, f.popularTotal, nil
}

func (f *fakeGameRepo) ListGames(ctx context.Context, page, perPage int) ([]model.GameSummary, int64, error) {
	return nil, 45, nil
}

func newTestGameService(games *fakeGameRepo) *GameService {
	return NewGameService(games, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRequestCreation(t *testing.T) {
	games := &fakeGameRepo{}
	svc := newTestGameService(games)

	// Surrounding whitespace never reaches the request row.
	if err := svc.RequestCreation(context.Background(), 1, "  포켓몬  "); err != nil {
		t.Fatalf("RequestCreation() error = %v", err)
	}
	if games.requestedTitle != "포켓몬" {
		t.Errorf("requested title = %q, want trimmed", games.requestedTitle)
	}
}

func TestRequestCreation_Validation(t *testing.T) {
	svc := newTestGameService(&fakeGameRepo{})
	ctx := context.Background()

	for _, title := range []string{"", " ", "겜", "  a  "} {
		if err := svc.RequestCreation(ctx, 1, title); !errors.Is(err, apperror.ErrBadRequest) {
			t.Errorf("title %q: got %v, want ErrBadRequest", title, err)
		}
	}
}

func TestRequestCreation_TitleTaken(t *testing.T) {
	svc := newTestGameService(&fakeGameRepo{titleInUse: true})

	err := svc.RequestCreation(context.Background(), 1, "이미있는게임")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("taken title: got %v, want ErrConflict", err)
	}
}

func TestList_MaxPage(t *testing.T) {
	svc := newTestGameService(&fakeGameRepo{})

	// 45 games at 20 per page is 3 pages.
	page, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.MaxPage != 3 {
		t.Errorf("MaxPage = %d, want 3", page.MaxPage)
	}
}

func TestPopular_WindowArithmetic(t *testing.T) {
	cases := []struct {
		name       string
		page       int
		total      int64
		wantLimit  int
		wantOffset int
		wantMax    int64
	}{
		{"front page", 1, 10, 19, 0, 1},
		{"front page full", 1, 19, 19, 0, 1},
		{"one over the grid", 1, 20, 19, 0, 2},
		{"second page", 2, 40, 16, 19, 3},
		{"third page", 3, 60, 16, 35, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			games := &fakeGameRepo{popularTotal: tc.total}
			svc := newTestGameService(games)

			page, err := svc.Popular(context.Background(), tc.page)
			if err != nil {
				t.Fatalf("Popular() error = %v", err)
			}
			if games.popularLimit != tc.wantLimit || games.popularOffset != tc.wantOffset {
				t.Errorf("window = (%d, %d), want (%d, %d)",
					games.popularLimit, games.popularOffset, tc.wantLimit, tc.wantOffset)
			}
			if page.MaxPage != tc.wantMax {
				t.Errorf("MaxPage = %d, want %d", page.MaxPage, tc.wantMax)
			}
		})
	}
}

func TestCommitWiki_Validation(t *testing.T) {
	svc := newTestGameService(&fakeGameRepo{})

	err := svc.CommitWiki(context.Background(), 1, 1, "   ")
	if !errors.Is(err, apperror.ErrBadRequest) {
		t.Fatalf("blank content: got %v, want ErrBadRequest", err)
	}
}
