// Package handler is the HTTP layer: it parses requests, calls services,
// and writes JSON responses. All policy lives below it.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nundung/gamebible/internal/apperror"
)

// ErrorResponse is the error shape every endpoint returns, so the client
// always knows what fields to expect.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON sends a JSON response. Headers and status must go out before
// the first body byte, hence the fixed ordering.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a domain error to its HTTP shape. Services return
// apperror values; only this function knows which status each one maps to.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrBadRequest):
			status = http.StatusBadRequest
			errorType = "bad_request"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		if status == http.StatusInternalServerError && appErr.Err != nil {
			slog.Error("internal error", slog.String("error", appErr.Error()))
		}
		writeJSON(w, status, ErrorResponse{Error: errorType, Message: appErr.Message})
		return
	}

	// Raw errors never reach the client; they may carry SQL or paths.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "서버 오류가 발생했습니다",
	})
}

// decodeJSON parses the request body into dst, rejecting malformed JSON
// with a uniform message.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.BadRequest("요청 본문이 올바르지 않습니다")
	}
	return nil
}

// idxParam reads a positive integer route parameter.
func idxParam(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, apperror.BadRequest("올바르지 않은 경로입니다")
	}
	return v, nil
}

// queryInt64 reads an optional integer query parameter, returning def when
// absent.
func queryInt64(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, apperror.BadRequest("올바르지 않은 쿼리입니다")
	}
	return v, nil
}

// badQuery normalizes "parse failed" and "required but absent" into one
// BadRequest for query parameters.
func badQuery(err error) error {
	if err != nil {
		return err
	}
	return apperror.BadRequest("올바르지 않은 쿼리입니다")
}

// queryPage reads the page query parameter, defaulting to 1.
func queryPage(r *http.Request) (int, error) {
	v, err := queryInt64(r, "page", 1)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		v = 1
	}
	return int(v), nil
}
