// Package middleware contains the HTTP middleware shared by every route:
// structured request logging and the database audit trail behind GET /log.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nundung/gamebible/internal/auth"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

// responseWriter wraps http.ResponseWriter to capture the status code and
// body size, which the standard interface does not expose after the fact.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logger logs each completed request with structured fields.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
			)
		})
	}
}

// RequestLog writes one audit row per API request after the handler
// finishes. The user idx is taken from the auth context when the route was
// authenticated; anonymous requests log NULL. The write happens outside
// the request's latency path and a failure only logs, it never affects the
// response already sent.
func RequestLog(logs repository.LogRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			requestedAt := time.Now()

			// Context values only flow inward, so the auth middleware
			// deposits the identity into this recorder for us to read
			// after the handler returns.
			r = r.WithContext(auth.WithIdentityRecorder(r.Context()))
			next.ServeHTTP(wrapped, r)

			entry := &model.RequestLog{
				Method:             r.Method,
				URL:                r.URL.RequestURI(),
				Status:             wrapped.statusCode,
				RequestedTimestamp: requestedAt,
			}
			if id, ok := auth.RecordedIdentity(r.Context()); ok {
				idx := id.Idx
				entry.UserIdx = &idx
			}

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := logs.InsertLog(ctx, entry); err != nil {
					logger.Error("request log write failed", slog.String("error", err.Error()))
				}
			}()
		})
	}
}
