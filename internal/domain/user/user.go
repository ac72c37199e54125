// Package user manages customer profiles and their last known location.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role is the account type of a user.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleShop     Role = "shop"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleShop, RoleAdmin:
		return true
	}
	return false
}

var (
	ErrNotFound        = errors.New("user not found")
	ErrReferenced      = errors.New("user has orders or issued codes")
	ErrLocationUnset   = errors.New("user location not set")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidLocation = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")
)

// Profile is the user-editable part of an account.
type Profile struct {
	FirstName         string
	Surname           string
	Username          string
	Email             string
	District          string
	PhoneNumber       string
	Address           string
	ProfilePictureURL string
}

// Location is a point in WGS84 degrees.
type Location struct {
	Latitude  float64
	Longitude float64
}

// User is a marketplace account.
type User struct {
	ID              int64
	Profile         Profile
	Role            Role
	NormalPoints    int
	GreenBitePoints int
	Location        *Location
	CreatedAt       time.Time
}

// Repository persists users.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id int64, p Profile) (*User, error)
	UpdateLocation(ctx context.Context, id int64, loc Location) error
	// Delete removes the user. It returns ErrReferenced when orders or
	// issuances still point at the user.
	Delete(ctx context.Context, id int64) error
}
