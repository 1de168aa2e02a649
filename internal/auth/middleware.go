package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package: only
// this package can create a key of this type, so nothing else can read or
// shadow the identity stored in the request context.
type contextKey string

const (
	identityKey contextKey = "identity"
	recorderKey contextKey = "identityRecorder"
)

// identityRecorder lets middleware installed OUTSIDE the auth chain (the
// request-log writer) observe who authenticated. Context values only flow
// inward, so RequireAuth/RequireAdmin also write into this shared holder
// when one is present.
type identityRecorder struct {
	id Identity
	ok bool
}

// WithIdentityRecorder returns a context carrying a fresh recorder.
func WithIdentityRecorder(ctx context.Context) context.Context {
	return context.WithValue(ctx, recorderKey, &identityRecorder{})
}

// RecordedIdentity reads the identity the auth middleware recorded, if the
// request authenticated at all.
func RecordedIdentity(ctx context.Context) (Identity, bool) {
	rec, ok := ctx.Value(recorderKey).(*identityRecorder)
	if !ok || !rec.ok {
		return Identity{}, false
	}
	return rec.id, true
}

func recordIdentity(ctx context.Context, id Identity) {
	if rec, ok := ctx.Value(recorderKey).(*identityRecorder); ok {
		rec.id = id
		rec.ok = true
	}
}

// RequireAuth enforces authentication on protected routes.
//
// It reads the "Authorization: Bearer <token>" header, validates the token,
// and stores the decoded Identity in the request context. A missing or
// prefix-less header is a 400 (the client sent a malformed request, not bad
// credentials); a present-but-invalid token is a 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusBadRequest, "no token")
				return
			}

			id, err := tokens.Validate(tokenStr)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "valid authentication required")
				return
			}

			recordIdentity(r.Context(), id)
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is RequireAuth plus an admin-flag gate. A valid token without
// the admin flag is a 403: the caller is authenticated but not permitted.
func RequireAdmin(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "no token")
				return
			}

			id, err := tokens.Validate(tokenStr)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "valid authentication required")
				return
			}
			if !id.IsAdmin {
				writeAuthError(w, http.StatusForbidden, "no admin")
				return
			}

			recordIdentity(r.Context(), id)
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity set by
// RequireAuth/RequireAdmin. Returns (zero, false) on an unauthenticated
// request.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.Idx != 0
}

// bearerToken extracts the token from the Authorization header. The header
// must use the "Bearer" scheme.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"auth","message":"` + message + `"}`))
}
