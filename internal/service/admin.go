package service

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
	"github.com/nundung/gamebible/internal/storage"
)

// ApproveGameInput is the admin's approval form: the request being
// resolved, the final title variants, and the two uploaded images.
type ApproveGameInput struct {
	RequestIdx int64
	AdminIdx   int64
	Title      string
	TitleKor   string
	TitleEng   string
	Thumbnail  ImageUpload
	Banner     ImageUpload
}

// ImageUpload carries one uploaded file into the service layer.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

func (u ImageUpload) empty() bool { return u.Body == nil }

// AdminService handles the moderation surface: resolving game creation
// requests and swapping game images.
type AdminService struct {
	games  repository.GameRepository
	store  storage.ImageStore
	logger *slog.Logger
}

func NewAdminService(games repository.GameRepository, store storage.ImageStore, logger *slog.Logger) *AdminService {
	return &AdminService{games: games, store: store, logger: logger}
}

// ApproveGame stores both images and runs the approval workflow. The image
// writes happen first because the transaction needs their final paths; a
// failed transaction leaves two orphan files behind, which is accepted
// over holding a transaction open across disk writes.
func (s *AdminService) ApproveGame(ctx context.Context, in ApproveGameInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.TitleKor = strings.TrimSpace(in.TitleKor)
	in.TitleEng = strings.TrimSpace(in.TitleEng)
	if in.Title == "" || in.TitleKor == "" || in.TitleEng == "" {
		return apperror.BadRequest("게임 이름을 모두 입력해 주세요")
	}
	if in.Thumbnail.empty() || in.Banner.empty() {
		return apperror.BadRequest("썸네일과 배너 이미지를 모두 업로드해 주세요")
	}

	thumbPath, err := s.store.SaveImage(in.Thumbnail.Filename, in.Thumbnail.ContentType, in.Thumbnail.Body)
	if err != nil {
		return err
	}
	bannerPath, err := s.store.SaveImage(in.Banner.Filename, in.Banner.ContentType, in.Banner.Body)
	if err != nil {
		return err
	}

	err = s.games.ApproveRequest(ctx, repository.ApproveGameCommand{
		RequestIdx:    in.RequestIdx,
		AdminIdx:      in.AdminIdx,
		Title:         in.Title,
		TitleKor:      in.TitleKor,
		TitleEng:      in.TitleEng,
		ThumbnailPath: thumbPath,
		BannerPath:    bannerPath,
	})
	if err != nil {
		return err
	}

	s.logger.Info("game approved",
		slog.Int64("requestIdx", in.RequestIdx),
		slog.String("title", in.Title))
	return nil
}

// DenyGame runs the denial workflow; the requester's notification commits
// with the resolution.
func (s *AdminService) DenyGame(ctx context.Context, requestIdx int64) error {
	if err := s.games.DenyRequest(ctx, requestIdx); err != nil {
		return err
	}
	s.logger.Info("game denied", slog.Int64("requestIdx", requestIdx))
	return nil
}

// ListRequests pages unresolved creation requests, newest first.
func (s *AdminService) ListRequests(ctx context.Context, lastIdx int64) ([]model.GameRequest, error) {
	return s.games.ListRequests(ctx, lastIdx, RequestPageSize)
}

// ReplaceGameImage stores the upload and swaps it in as the game's new
// thumbnail or banner.
func (s *AdminService) ReplaceGameImage(ctx context.Context, gameIdx int64, kind model.GameImageKind, upload ImageUpload) error {
	if upload.empty() {
		return apperror.BadRequest("이미지를 업로드해 주세요")
	}
	live, err := s.games.GameExists(ctx, gameIdx)
	if err != nil {
		return err
	}
	if !live {
		return apperror.NotFound("게임이 존재하지 않습니다")
	}

	imgPath, err := s.store.SaveImage(upload.Filename, upload.ContentType, upload.Body)
	if err != nil {
		return err
	}
	if err := s.games.ReplaceGameImage(ctx, gameIdx, kind, imgPath); err != nil {
		return err
	}

	s.logger.Info("game image replaced",
		slog.Int64("gameIdx", gameIdx),
		slog.String("kind", string(kind)))
	return nil
}
