package user

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

// Service implements profile management.
type Service struct {
	users Repository
}

// NewService creates a user Service.
func NewService(users Repository) *Service {
	return &Service{users: users}
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// UpdateProfile replaces the editable profile fields of a user.
func (s *Service) UpdateProfile(ctx context.Context, id int64, p Profile) (*User, error) {
	p.Email = strings.TrimSpace(p.Email)
	if p.Email != "" && !ValidEmail(p.Email) {
		return nil, ErrInvalidEmail
	}
	u, err := s.users.UpdateProfile(ctx, id, p)
	if err != nil {
		return nil, errors.Wrap(err, "update profile")
	}
	return u, nil
}

// UpdateLocation stores the user's current position.
func (s *Service) UpdateLocation(ctx context.Context, id int64, loc Location) error {
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return ErrInvalidLocation
	}
	return s.users.UpdateLocation(ctx, id, loc)
}

// Location returns the user's stored position.
func (s *Service) Location(ctx context.Context, id int64) (Location, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return Location{}, err
	}
	if u.Location == nil {
		return Location{}, ErrLocationUnset
	}
	return *u.Location, nil
}

// Delete removes a user that nothing references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

// ValidEmail performs a shallow syntax check: one @ with text on both sides.
func ValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at == strings.LastIndexByte(email, '@') && at < len(email)-1
}
