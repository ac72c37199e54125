package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/greenbite/internal/domain/user"
)

// --- Mock implementations ---

type mockAccounts struct {
	byEmail map[string]*Credentials
	nextID  int64
}

func (m *mockAccounts) CreateAccount(_ context.Context, u *user.User, hash []byte) error {
	key := strings.ToLower(u.Profile.Email)
	if _, ok := m.byEmail[key]; ok {
		return ErrEmailTaken
	}
	m.nextID++
	u.ID = m.nextID
	m.byEmail[key] = &Credentials{UserID: u.ID, Role: u.Role, PasswordHash: hash}
	return nil
}

func (m *mockAccounts) FindCredentials(_ context.Context, email string) (*Credentials, error) {
	c, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, user.ErrNotFound
	}
	return c, nil
}

type mockKeys struct {
	keys map[string]*APIKeyInfo
}

func (m *mockKeys) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	k, ok := m.keys[hash]
	if !ok {
		return nil, user.ErrNotFound
	}
	return k, nil
}

// --- Helpers ---

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newIssuer() *TokenIssuer {
	t := NewTokenIssuer([]byte("test-secret"), time.Hour, "greenbite")
	t.now = func() time.Time { return testNow }
	return t
}

func newAccounts() (*Accounts, *mockAccounts) {
	repo := &mockAccounts{byEmail: map[string]*Credentials{}}
	a := NewAccounts(repo, newIssuer())
	a.bcryptCost = bcrypt.MinCost
	return a, repo
}

// --- Tests ---

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     SignupRequest
		wantErr error
	}{
		{name: "bad email", req: SignupRequest{Profile: user.Profile{Email: "ann"}, Password: "long-enough"}, wantErr: user.ErrInvalidEmail},
		{name: "short password", req: SignupRequest{Profile: user.Profile{Email: "ann@x.io"}, Password: "short"}, wantErr: ErrWeakPassword},
		{name: "admin role", req: SignupRequest{Profile: user.Profile{Email: "ann@x.io"}, Password: "long-enough", Role: user.RoleAdmin}, wantErr: ErrRoleNotAllowed},
		{name: "unknown role", req: SignupRequest{Profile: user.Profile{Email: "ann@x.io"}, Password: "long-enough", Role: "root"}, wantErr: ErrRoleNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, repo := newAccounts()
			_, err := a.Signup(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.byEmail)
		})
	}
}

func TestSignupAndLogin(t *testing.T) {
	a, repo := newAccounts()
	ctx := context.Background()

	u, err := a.Signup(ctx, SignupRequest{Profile: user.Profile{Email: " Ann@Green.Bite "}, Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, user.RoleCustomer, u.Role)
	assert.NotEqual(t, []byte("correct horse"), repo.byEmail["ann@green.bite"].PasswordHash)

	_, err = a.Signup(ctx, SignupRequest{Profile: user.Profile{Email: "ann@green.bite"}, Password: "another one"})
	require.ErrorIs(t, err, ErrEmailTaken)

	tok, err := a.Login(ctx, "ann@green.bite", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Hour), tok.ExpiresAt)

	claims, err := a.tokens.Parse(tok.Value)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, user.RoleCustomer, claims.Role)

	_, err = a.Login(ctx, "ann@green.bite", "wrong horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Login(ctx, "bob@green.bite", "correct horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenIssuer_Parse(t *testing.T) {
	issuer := newIssuer()
	tok, err := issuer.Issue(42, user.RoleAdmin)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		late := newIssuer()
		late.now = func() time.Time { return testNow.Add(2 * time.Hour) }
		_, err := late.Parse(tok.Value)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer([]byte("other"), time.Hour, "greenbite")
		other.now = issuer.now
		_, err := other.Parse(tok.Value)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenIssuer([]byte("test-secret"), time.Hour, "someone-else")
		other.now = issuer.now
		_, err := other.Parse(tok.Value)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: "greenbite"},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Parse(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("valid", func(t *testing.T) {
		claims, err := issuer.Parse(tok.Value)
		require.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, claims.Role)
		assert.Equal(t, "42", claims.Subject)
	})
}

func TestVerifyAPIKey(t *testing.T) {
	pepper := []byte("pepper")
	hash := HashAPIKey(pepper, "secret-key")
	keys := &mockKeys{keys: map[string]*APIKeyInfo{
		hash: {ID: "ops", KeyHash: hash, Scopes: []string{ScopeAdmin}},
		// Simulates a repository returning a row whose hash does not match.
		HashAPIKey(pepper, "tampered"): {ID: "bad", KeyHash: HashAPIKey(pepper, "other")},
	}}
	ctx := context.Background()

	info, err := VerifyAPIKey(ctx, keys, pepper, "secret-key")
	require.NoError(t, err)
	assert.Equal(t, "ops", info.ID)
	assert.True(t, info.HasScope(ScopeAdmin))
	assert.False(t, info.HasScope("orders"))

	for _, key := range []string{"", "unknown", "tampered"} {
		_, err := VerifyAPIKey(ctx, keys, pepper, key)
		require.ErrorIs(t, err, ErrInvalidAPIKey, key)
	}

	_, err = VerifyAPIKey(ctx, keys, []byte("other pepper"), "secret-key")
	require.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestHashAPIKey_Stable(t *testing.T) {
	a := HashAPIKey([]byte("p"), "k")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashAPIKey([]byte("p"), "k"))
	assert.NotEqual(t, a, HashAPIKey([]byte("q"), "k"))
}
