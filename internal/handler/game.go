package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nundung/gamebible/internal/auth"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/service"
)

// GameHandler owns the /game routes: the public catalogue and the wiki.
type GameHandler struct {
	games  *service.GameService
	logger *slog.Logger
}

func NewGameHandler(games *service.GameService, logger *slog.Logger) *GameHandler {
	return &GameHandler{games: games, logger: logger}
}

func (h *GameHandler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/all", h.HandleList)
	r.Get("/search", h.HandleSearch)
	r.Get("/popular", h.HandlePopular)
	r.Get("/{gameIdx}/thumbnail", h.HandleThumbnail)
	r.Get("/{gameIdx}/banner", h.HandleBanner)
	r.Get("/{gameIdx}/wiki", h.HandleWiki)
	r.Get("/{gameIdx}/history/all", h.HandleWikiHistory)
	r.Get("/{gameIdx}/history/{historyIdx}", h.HandleWikiRevision)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/request", h.HandleRequestCreation)
		r.Post("/{gameIdx}/wiki", h.HandleOpenWikiDraft)
		r.Put("/{gameIdx}/wiki", h.HandleCommitWiki)
	})
}

func (h *GameHandler) HandleRequestCreation(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.games.RequestCreation(r.Context(), id.Idx, req.Title); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "게임 생성 요청 완료"})
}

func (h *GameHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.games.List(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.GameList == nil {
		result.GameList = []model.GameSummary{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *GameHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.Search(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		writeError(w, err)
		return
	}
	if games == nil {
		games = []model.GameSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"gameList": games})
}

func (h *GameHandler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.games.Popular(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.GameList == nil {
		result.GameList = []model.GameSummary{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *GameHandler) HandleThumbnail(w http.ResponseWriter, r *http.Request) {
	h.imagePaths(w, r, model.GameImageThumbnail)
}

func (h *GameHandler) HandleBanner(w http.ResponseWriter, r *http.Request) {
	h.imagePaths(w, r, model.GameImageBanner)
}

func (h *GameHandler) imagePaths(w http.ResponseWriter, r *http.Request, kind model.GameImageKind) {
	gameIdx, err := idxParam(r, "gameIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	paths, err := h.games.ImagePaths(r.Context(), gameIdx, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	if paths == nil {
		paths = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"imgPaths": paths})
}

func (h *GameHandler) HandleWiki(w http.ResponseWriter, r *http.Request) {
	gameIdx, err := idxParam(r, "gameIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	wiki, err := h.games.Wiki(r.Context(), gameIdx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wiki)
}

func (h *GameHandler) HandleOpenWikiDraft(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	gameIdx, err := idxParam(r, "gameIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	draft, err := h.games.OpenWikiDraft(r.Context(), gameIdx, id.Idx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (h *GameHandler) HandleCommitWiki(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	gameIdx, err := idxParam(r, "gameIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.games.CommitWiki(r.Context(), gameIdx, id.Idx, req.Content); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "위키 수정 완료"})
}

func (h *GameHandler) HandleWikiHistory(w http.ResponseWriter, r *http.Request) {
	gameIdx, err := idxParam(r, "gameIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	history, err := h.games.WikiHistory(r.Context(), gameIdx)
	if err != nil {
		writeError(w, err)
		return
	}
	if history == nil {
		history = []model.WikiHistory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"historyList": history})
}

func (h *GameHandler) HandleWikiRevision(w http.ResponseWriter, r *http.Request) {
	gameIdx, err := idxParam(r, "gameIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	historyIdx, err := idxParam(r, "historyIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	revision, err := h.games.WikiRevision(r.Context(), gameIdx, historyIdx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revision)
}
