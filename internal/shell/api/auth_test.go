package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipway-sh/slipway/internal/shell/store"
)

func setupAuthHandler(t *testing.T) (*Handler, *stubStore) {
	t.Helper()
	s := newStubStore()

	hash, err := HashSecret("s3cret")
	require.NoError(t, err)
	require.NoError(t, s.CreateAPIToken(context.Background(), &store.APIToken{
		Name:       "ci",
		SecretHash: hash,
	}))

	auth := NewTokenAuth(s, nil)
	return NewHandler(s, &stubDocker{}, auth, nil), s
}

func TestTokenAuth_ValidToken(t *testing.T) {
	h, _ := setupAuthHandler(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/workloads", nil)
	r.Header.Set("Authorization", "Bearer ci.s3cret")
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic Y2k6czNjcmV0"},
		{"no separator", "Bearer cis3cret"},
		{"wrong secret", "Bearer ci.wrong"},
		{"unknown token name", "Bearer other.s3cret"},
	}

	h, _ := setupAuthHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/workloads", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, r)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "unauthorized")
		})
	}
}

func TestTokenAuth_HealthUnprotected(t *testing.T) {
	h, _ := setupAuthHandler(t)

	// Health and readiness stay reachable without credentials.
	for _, path := range []string{"/health", "/openapi.json"} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.Routes().ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

// A freshly minted credential must authenticate as-is; the operator copies
// the printed "<name>.<secret>" straight into an Authorization header.
func TestMintToken_CredentialAuthenticates(t *testing.T) {
	s := newStubStore()
	credential, err := MintToken(context.Background(), s, "deploy")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(credential, "deploy."))

	h := NewHandler(s, &stubDocker{}, NewTokenAuth(s, nil), nil)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/workloads", nil)
	r.Header.Set("Authorization", "Bearer "+credential)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	// Only the hash is stored.
	stored, err := s.GetAPIToken(context.Background(), "deploy")
	require.NoError(t, err)
	assert.NotContains(t, credential, stored.SecretHash)
	assert.NotEqual(t, strings.TrimPrefix(credential, "deploy."), stored.SecretHash)
}

func TestMintToken_RejectsDottedName(t *testing.T) {
	// parseBearer cuts at the first dot, so a dotted name could never
	// authenticate.
	_, err := MintToken(context.Background(), newStubStore(), "ci.deploy")
	assert.Error(t, err)
}

func TestParseBearer(t *testing.T) {
	name, secret, ok := parseBearer("Bearer ci.s3cret")
	require.True(t, ok)
	assert.Equal(t, "ci", name)
	assert.Equal(t, "s3cret", secret)

	// Secrets may contain dots; only the first one separates the name.
	name, secret, ok = parseBearer("Bearer ci.part1.part2")
	require.True(t, ok)
	assert.Equal(t, "ci", name)
	assert.Equal(t, "part1.part2", secret)

	_, _, ok = parseBearer("Bearer .nosecret")
	assert.False(t, ok)

	_, _, ok = parseBearer("Bearer noname.")
	assert.False(t, ok)
}
