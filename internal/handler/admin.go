package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/auth"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/service"
	"github.com/nundung/gamebible/internal/storage"
)

// AdminHandler owns the /admin routes; the router guards them with the
// admin middleware.
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

func NewAdminHandler(admin *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

func (h *AdminHandler) Routes(r chi.Router) {
	r.Post("/game", h.HandleApproveGame)
	r.Get("/game/request/all", h.HandleListRequests)
	r.Delete("/game/request/{requestIdx}", h.HandleDenyGame)
	r.Post("/game/{gameIdx}/thumbnail", h.HandleReplaceThumbnail)
	r.Post("/game/{gameIdx}/banner", h.HandleReplaceBanner)
}

// HandleApproveGame reads the multipart approval form (both images plus
// the title fields) and runs the approval workflow.
func (h *AdminHandler) HandleApproveGame(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	if err := r.ParseMultipartForm(2*storage.MaxImageSize + 1<<20); err != nil {
		writeError(w, apperror.BadRequest("업로드 형식이 올바르지 않습니다"))
		return
	}

	requestIdx, err := strconv.ParseInt(r.FormValue("requestIdx"), 10, 64)
	if err != nil || requestIdx <= 0 {
		writeError(w, apperror.BadRequest("requestIdx가 올바르지 않습니다"))
		return
	}

	thumbFile, thumbHeader, err := r.FormFile("thumbnail")
	if err != nil {
		writeError(w, apperror.BadRequest("썸네일과 배너 이미지를 모두 업로드해 주세요"))
		return
	}
	defer thumbFile.Close()
	bannerFile, bannerHeader, err := r.FormFile("banner")
	if err != nil {
		writeError(w, apperror.BadRequest("썸네일과 배너 이미지를 모두 업로드해 주세요"))
		return
	}
	defer bannerFile.Close()

	err = h.admin.ApproveGame(r.Context(), service.ApproveGameInput{
		RequestIdx: requestIdx,
		AdminIdx:   id.Idx,
		Title:      r.FormValue("title"),
		TitleKor:   r.FormValue("titleKor"),
		TitleEng:   r.FormValue("titleEng"),
		Thumbnail: service.ImageUpload{
			Filename:    thumbHeader.Filename,
			ContentType: thumbHeader.Header.Get("Content-Type"),
			Body:        thumbFile,
		},
		Banner: service.ImageUpload{
			Filename:    bannerHeader.Filename,
			ContentType: bannerHeader.Header.Get("Content-Type"),
			Body:        bannerFile,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "게임 생성 완료"})
}

func (h *AdminHandler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	lastIdx, err := queryInt64(r, "lastidx", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	requests, err := h.admin.ListRequests(r.Context(), lastIdx)
	if err != nil {
		writeError(w, err)
		return
	}
	if requests == nil {
		requests = []model.GameRequest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *AdminHandler) HandleDenyGame(w http.ResponseWriter, r *http.Request) {
	requestIdx, err := idxParam(r, "requestIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.admin.DenyGame(r.Context(), requestIdx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "요청 거절 완료"})
}

func (h *AdminHandler) HandleReplaceThumbnail(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, model.GameImageThumbnail)
}

func (h *AdminHandler) HandleReplaceBanner(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, model.GameImageBanner)
}

func (h *AdminHandler) replaceImage(w http.ResponseWriter, r *http.Request, kind model.GameImageKind) {
	gameIdx, err := idxParam(r, "gameIdx")
	if err != nil {
		writeError(w, err)
		return
	}

	file, header, err := formImage(r, "image")
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	err = h.admin.ReplaceGameImage(r.Context(), gameIdx, kind, service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "이미지 교체 완료"})
}
