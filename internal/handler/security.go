package handler

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned by APIKeyRepository when no active key
// matches the presented hash.
var ErrUnauthorized = errors.New("unauthorized")

// APIKeyInfo holds the identity data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
}

// APIKeyRepository provides lookup of API keys by their SHA-256 hex hash.
type APIKeyRepository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

type apiKeyNameKey struct{}

// APIKeyName extracts the authenticated key's name from the context.
func APIKeyName(ctx context.Context) string {
	if name, ok := ctx.Value(apiKeyNameKey{}).(string); ok {
		return name
	}
	return ""
}

// APIKeyAuth returns a middleware that authenticates requests by the
// X-API-Key header: hash the presented key, look it up, and compare in
// constant time to keep timing side-channels out even when the lookup
// already succeeded.
func APIKeyAuth(keys APIKeyRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				respondError(w, http.StatusUnauthorized, "api key required")
				return
			}

			hash := sha256.Sum256([]byte(key))
			hexHash := hex.EncodeToString(hash[:])

			info, err := keys.FindByHash(r.Context(), hexHash)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash[:], stored) != 1 {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyNameKey{}, info.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
