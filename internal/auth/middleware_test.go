package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-secret-at-least-16-chars")
	require.NoError(t, err)
	return svc
}

func TestRequireAuth(t *testing.T) {
	tokens := newTestTokens(t)

	var seen Identity
	handler := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusOK)
	}))

	token, err := tokens.GenerateAccess(Identity{Idx: 5, IsAdmin: false})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/account/info", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), seen.Idx)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	tokens := newTestTokens(t)
	handler := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/account/info", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// No header at all is a malformed request, not bad credentials.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireAuth_BadToken(t *testing.T) {
	tokens := newTestTokens(t)
	handler := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/account/info", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	tokens := newTestTokens(t)

	handler := RequireAdmin(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	adminToken, err := tokens.GenerateAccess(Identity{Idx: 1, IsAdmin: true})
	require.NoError(t, err)
	userToken, err := tokens.GenerateAccess(Identity{Idx: 2, IsAdmin: false})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"admin token", "Bearer " + adminToken, http.StatusOK},
		{"non-admin token", "Bearer " + userToken, http.StatusForbidden},
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/game/request/all", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestIdentityRecorder(t *testing.T) {
	tokens := newTestTokens(t)

	inner := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	token, err := tokens.GenerateAccess(Identity{Idx: 9, IsAdmin: true})
	require.NoError(t, err)

	// The outer layer installs the recorder before auth runs and reads it
	// after the handler returns, the way the request logger does.
	req := httptest.NewRequest(http.MethodGet, "/account/info", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	ctx := WithIdentityRecorder(req.Context())
	rec := httptest.NewRecorder()
	inner.ServeHTTP(rec, req.WithContext(ctx))

	id, ok := RecordedIdentity(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(9), id.Idx)
	assert.True(t, id.IsAdmin)
}

func TestRecordedIdentity_Unauthenticated(t *testing.T) {
	ctx := WithIdentityRecorder(httptest.NewRequest(http.MethodGet, "/game/all", nil).Context())
	_, ok := RecordedIdentity(ctx)
	assert.False(t, ok)
}
