// Package loyalty implements the two-tier points ledger: normal points accrue
// per order and convert to spendable greenBite points in blocks of 100.
package loyalty

import (
	"context"

	"github.com/go-faster/errors"
)

// ConversionThreshold is how many normal points make one greenBite point.
const ConversionThreshold = 100

var (
	// ErrUserNotFound is returned when the balance owner does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrNegativePoints is returned when accruing a negative amount.
	ErrNegativePoints = errors.New("earned points must not be negative")
)

// Balance is a user's pair of point counters.
type Balance struct {
	UserID          int64
	NormalPoints    int
	GreenBitePoints int
}

// Value returns the balance expressed in normal points. Accrual preserves
// Value exactly, plus whatever was earned.
func (b Balance) Value() int {
	return ConversionThreshold*b.GreenBitePoints + b.NormalPoints
}

// Accrue adds earned normal points and converts every full block of
// ConversionThreshold into greenBite points.
func Accrue(b Balance, earned int) Balance {
	b.NormalPoints += earned
	if b.NormalPoints >= ConversionThreshold {
		b.GreenBitePoints += b.NormalPoints / ConversionThreshold
		b.NormalPoints %= ConversionThreshold
	}
	return b
}

// Repository persists balances.
type Repository interface {
	GetBalance(ctx context.Context, userID int64) (Balance, error)
	// LockBalance reads the balance and holds a row lock until the
	// surrounding transaction ends.
	LockBalance(ctx context.Context, userID int64) (Balance, error)
	SaveBalance(ctx context.Context, b Balance) error
}
