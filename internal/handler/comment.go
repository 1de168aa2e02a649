package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nundung/gamebible/internal/auth"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/service"
)

// CommentHandler owns the /comment routes.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

func (h *CommentHandler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/all", h.HandleList)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", h.HandleCreate)
		r.Delete("/{commentIdx}", h.HandleDelete)
	})
}

func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	gameIdx, err := queryInt64(r, "gameidx", 0)
	if err != nil || gameIdx == 0 {
		writeError(w, badQuery(err))
		return
	}
	postIdx, err := queryInt64(r, "postidx", 0)
	if err != nil || postIdx == 0 {
		writeError(w, badQuery(err))
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), id.Idx, gameIdx, postIdx, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	postIdx, err := queryInt64(r, "postidx", 0)
	if err != nil || postIdx == 0 {
		writeError(w, badQuery(err))
		return
	}
	lastIdx, err := queryInt64(r, "lastidx", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.comments.List(r.Context(), postIdx, lastIdx)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.CommentList == nil {
		result.CommentList = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	commentIdx, err := idxParam(r, "commentIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.comments.Delete(r.Context(), commentIdx, id.Idx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "댓글 삭제 성공"})
}
