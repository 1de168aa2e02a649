package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
	"github.com/nundung/gamebible/internal/service"
)

// LogHandler owns the admin-only /log route.
type LogHandler struct {
	logs   *service.LogService
	logger *slog.Logger
}

func NewLogHandler(logs *service.LogService, logger *slog.Logger) *LogHandler {
	return &LogHandler{logs: logs, logger: logger}
}

func (h *LogHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
}

func (h *LogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	idx, err := queryInt64(r, "idx", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.logs.List(r.Context(), repository.LogFilter{
		StartDate: q.Get("startdate"),
		EndDate:   q.Get("enddate"),
		Idx:       idx,
		API:       q.Get("api"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.RequestLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": entries})
}
