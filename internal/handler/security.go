package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/greenbite/internal/domain/auth"
	"github.com/xenking/greenbite/internal/domain/user"
)

// APIKeyHeader carries an operator key.
const APIKeyHeader = "api_key"

// Principal is the authenticated caller. Key-authenticated callers have no
// UserID.
type Principal struct {
	UserID   int64
	Role     user.Role
	APIKeyID string
	Admin    bool
}

// CanActFor reports whether p may read or change userID's data.
func (p Principal) CanActFor(userID int64) bool {
	return p.Admin || (p.UserID != 0 && p.UserID == userID)
}

type principalKey struct{}

// PrincipalFrom returns the caller stored by Authenticate.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// SecurityHandler resolves callers from the api_key header or a bearer
// token.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
	tokens  TokenParser
}

// NewSecurityHandler creates a SecurityHandler.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte, tokens TokenParser) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
		tokens:  tokens,
	}
}

func (s *SecurityHandler) principal(r *http.Request) (Principal, error) {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		info, err := auth.VerifyAPIKey(r.Context(), s.apikeys, s.pepper, key)
		if err != nil {
			return Principal{}, err
		}
		return Principal{
			APIKeyID: info.ID,
			Admin:    info.HasScope(auth.ScopeAdmin),
		}, nil
	}

	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return Principal{}, errUnauthorized
	}
	claims, err := s.tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Principal{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		UserID: id,
		Role:   claims.Role,
		Admin:  claims.Role == user.RoleAdmin,
	}, nil
}

// RequireAuth rejects requests without valid credentials and stores the
// Principal for handlers.
func (s *SecurityHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.principal(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	})
}

// RequireAdmin is RequireAuth restricted to admins.
func (s *SecurityHandler) RequireAdmin(next http.Handler) http.Handler {
	return s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, _ := PrincipalFrom(r.Context()); !p.Admin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// authorizeUser fails unless the caller may act for userID.
func authorizeUser(r *http.Request, userID int64) error {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		return errUnauthorized
	}
	if !p.CanActFor(userID) {
		return errors.Wrapf(errForbidden, "user %d", userID)
	}
	return nil
}
