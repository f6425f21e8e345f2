package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/slipway-sh/slipway/internal/shell/store"
)

// =============================================================================
// Token Auth
// =============================================================================

// TokenAuth authenticates requests against named bearer tokens. The wire
// format is "Authorization: Bearer <name>.<secret>"; only the bcrypt hash
// of the secret is stored.
type TokenAuth struct {
	store  store.Store
	logger *slog.Logger
}

// NewTokenAuth creates token-based auth backed by the store.
func NewTokenAuth(s store.Store, l *slog.Logger) *TokenAuth {
	if l == nil {
		l = slog.Default()
	}
	return &TokenAuth{store: s, logger: l}
}

// HashSecret produces the stored form of a token secret.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// MintToken creates a named API token and returns the full credential in
// the "<name>.<secret>" wire form. The secret is generated here and returned
// exactly once; only its hash is persisted.
func MintToken(ctx context.Context, s store.Store, name string) (string, error) {
	if name == "" || strings.Contains(name, ".") {
		return "", fmt.Errorf("invalid token name %q", name)
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	secret := hex.EncodeToString(raw)

	hash, err := HashSecret(secret)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}

	token := &store.APIToken{
		Name:       name,
		SecretHash: hash,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.CreateAPIToken(ctx, token); err != nil {
		return "", err
	}
	return name + "." + secret, nil
}

// Middleware rejects requests without a valid bearer token.
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, secret, ok := parseBearer(r.Header.Get("Authorization"))
		if !ok {
			a.unauthorized(w, "missing or malformed bearer token")
			return
		}

		token, err := a.store.GetAPIToken(r.Context(), name)
		if err != nil {
			// Same response for unknown name and bad secret.
			a.logger.Warn("auth failed", "token_name", name, "remote_addr", r.RemoteAddr)
			a.unauthorized(w, "invalid token")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(token.SecretHash), []byte(secret)) != nil {
			a.logger.Warn("auth failed", "token_name", name, "remote_addr", r.RemoteAddr)
			a.unauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// parseBearer splits "Bearer <name>.<secret>" into its parts.
func parseBearer(header string) (name, secret string, ok bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	token := strings.TrimPrefix(header, prefix)

	name, secret, found := strings.Cut(token, ".")
	if !found || name == "" || secret == "" {
		return "", "", false
	}
	return name, secret, true
}

func (a *TokenAuth) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="slipway"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
		Code:  "unauthorized",
	})
}
