package auth

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/greenbite/internal/domain/user"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Credentials is the login record of an account.
type Credentials struct {
	UserID       int64
	Role         user.Role
	PasswordHash []byte
}

// AccountRepository stores accounts with their password hashes.
type AccountRepository interface {
	// CreateAccount inserts u and fills in its ID. It returns ErrEmailTaken
	// when the email is already registered.
	CreateAccount(ctx context.Context, u *user.User, passwordHash []byte) error
	// FindCredentials looks an account up by email, case-insensitively.
	FindCredentials(ctx context.Context, email string) (*Credentials, error)
}

// SignupRequest holds the input for Signup.
type SignupRequest struct {
	Profile  user.Profile
	Password string
	Role     user.Role
}

// Accounts implements signup and login.
type Accounts struct {
	accounts   AccountRepository
	tokens     *TokenIssuer
	bcryptCost int
}

// NewAccounts creates an Accounts service.
func NewAccounts(accounts AccountRepository, tokens *TokenIssuer) *Accounts {
	return &Accounts{accounts: accounts, tokens: tokens, bcryptCost: bcrypt.DefaultCost}
}

// HashPassword returns the bcrypt hash of password at the given cost.
func HashPassword(password string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	return hash, nil
}

// Signup registers a customer or shop account. Admin accounts are seeded,
// never self-registered.
func (a *Accounts) Signup(ctx context.Context, req SignupRequest) (*user.User, error) {
	req.Profile.Email = strings.TrimSpace(req.Profile.Email)
	if !user.ValidEmail(req.Profile.Email) {
		return nil, user.ErrInvalidEmail
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if req.Role == "" {
		req.Role = user.RoleCustomer
	}
	if req.Role != user.RoleCustomer && req.Role != user.RoleShop {
		return nil, ErrRoleNotAllowed
	}

	hash, err := HashPassword(req.Password, a.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &user.User{Profile: req.Profile, Role: req.Role}
	if err := a.accounts.CreateAccount(ctx, u, hash); err != nil {
		return nil, errors.Wrap(err, "signup")
	}
	return u, nil
}

// Login checks the password and issues an access token.
func (a *Accounts) Login(ctx context.Context, email, password string) (Token, error) {
	creds, err := a.accounts.FindCredentials(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, errors.Wrap(err, "find credentials")
	}
	if len(creds.PasswordHash) == 0 {
		return Token{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(creds.PasswordHash, []byte(password)); err != nil {
		return Token{}, ErrInvalidCredentials
	}
	return a.tokens.Issue(creds.UserID, creds.Role)
}
