package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nundung/gamebible/internal/auth"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/service"
)

// PostHandler owns the /post routes.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

func (h *PostHandler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/all", h.HandleList)
	r.Get("/search", h.HandleSearch)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", h.HandleCreate)
		r.Post("/image", h.HandleImage)
		r.Get("/{postIdx}", h.HandleRead)
		r.Delete("/{postIdx}", h.HandleDelete)
	})
}

func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	gameIdx, err := queryInt64(r, "gameidx", 0)
	if err != nil || gameIdx == 0 {
		writeError(w, badQuery(err))
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.Create(r.Context(), id.Idx, gameIdx, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleImage stores an inline editor image and returns its public path.
func (h *PostHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := formImage(r, "image")
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	path, err := h.posts.SaveImage(service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"data": path})
}

func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	gameIdx, err := queryInt64(r, "gameidx", 0)
	if err != nil || gameIdx == 0 {
		writeError(w, badQuery(err))
		return
	}
	page, err := queryPage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.posts.List(r.Context(), gameIdx, page)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.PostList == nil {
		result.PostList = []model.PostSummary{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PostHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.posts.Search(r.Context(), r.URL.Query().Get("title"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.PostList == nil {
		result.PostList = []model.PostSummary{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PostHandler) HandleRead(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	postIdx, err := idxParam(r, "postIdx")
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.posts.Read(r.Context(), postIdx, id.Idx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	postIdx, err := idxParam(r, "postIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.posts.Delete(r.Context(), postIdx, id.Idx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "게시글 삭제 성공"})
}
