package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"slices"
)

// ScopeAdmin grants access to admin-only operations.
const ScopeAdmin = "admin"

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key carries scope.
func (k *APIKeyInfo) HasScope(scope string) bool {
	return slices.Contains(k.Scopes, scope)
}

// Repository provides lookup of active API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// HashAPIKey returns the hex HMAC-SHA256 of key under pepper. Keys are only
// ever stored in this form.
func HashAPIKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAPIKey resolves a raw key to its stored record. Any lookup failure is
// reported as ErrInvalidAPIKey.
func VerifyAPIKey(ctx context.Context, keys Repository, pepper []byte, key string) (*APIKeyInfo, error) {
	if key == "" {
		return nil, ErrInvalidAPIKey
	}
	hash := HashAPIKey(pepper, key)

	info, err := keys.FindByHash(ctx, hash)
	if err != nil {
		return nil, ErrInvalidAPIKey
	}

	// The stored hash may differ from ours if the repository returned the
	// wrong row.
	computed, _ := hex.DecodeString(hash)
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(computed, stored) != 1 {
		return nil, ErrInvalidAPIKey
	}
	return info, nil
}
