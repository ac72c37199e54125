// Package redeem handles deals and coupons bought with greenBite points: the
// offer catalog, issuing a single-use code, and redeeming it exactly once.
package redeem

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind distinguishes the two offer catalogs. Both share one issuance model.
type Kind string

const (
	KindDeal   Kind = "deal"
	KindCoupon Kind = "coupon"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindDeal || k == KindCoupon
}

var (
	ErrOfferNotFound    = errors.New("offer not found")
	ErrOfferInUse       = errors.New("offer has issued codes")
	ErrUserNotFound     = errors.New("user not found")
	ErrIssuanceNotFound = errors.New("coupon not found")
	ErrAlreadyRedeemed  = errors.New("coupon already redeemed")
	ErrCodeTaken        = errors.New("redemption code already in use")
	ErrEmptyCode        = errors.New("code required")
	ErrInvalidKind      = errors.New("kind must be deal or coupon")
	ErrEmptyTitle       = errors.New("title required")
	ErrInvalidCost      = errors.New("cost must be greater than 0")
	ErrInvalidDiscount  = errors.New("discount must not be negative and deals carry no discount")
)

// InsufficientBalanceError indicates the user cannot afford an offer.
type InsufficientBalanceError struct {
	Balance int
	Cost    int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("not enough green bite points: have %d, need %d", e.Balance, e.Cost)
}

// Offer is a deal or coupon in the catalog, priced in greenBite points.
type Offer struct {
	ID        int64
	Kind      Kind
	Title     string
	Icon      string
	Color     string
	Cost      int
	Discount  decimal.Decimal
	CreatedAt time.Time
}

// Issuance is one purchased unit of an offer. Active is true until the code
// is redeemed, then false forever.
type Issuance struct {
	ID         int64
	UserID     int64
	OfferID    int64
	Kind       Kind
	OfferTitle string
	Code       string
	Discount   decimal.Decimal
	Active     bool
	CreatedAt  time.Time
	RedeemedAt *time.Time
}

// InventoryEntry is the display projection of an issuance.
type InventoryEntry struct {
	Kind     Kind
	Name     string
	Code     string
	Discount decimal.Decimal
	Redeemed bool
}

// OfferRepository persists the offer catalog.
type OfferRepository interface {
	CreateOffer(ctx context.Context, o *Offer) error
	GetOffer(ctx context.Context, kind Kind, id int64) (*Offer, error)
	ListOffers(ctx context.Context, kind Kind) ([]Offer, error)
	DeleteOffer(ctx context.Context, kind Kind, id int64) error
}

// IssuanceRepository persists issuances.
type IssuanceRepository interface {
	// Create inserts is. It returns ErrCodeTaken without side effects when the
	// code already exists.
	Create(ctx context.Context, is *Issuance) error
	// Deactivate flips an active issuance to redeemed. It returns
	// ErrIssuanceNotFound or ErrAlreadyRedeemed when nothing was flipped.
	Deactivate(ctx context.Context, code string) (*Issuance, error)
	ListByUser(ctx context.Context, userID int64) ([]Issuance, error)
}

// Wallet debits greenBite points.
type Wallet interface {
	// Debit subtracts amount only if the balance covers it and returns the
	// new balance. It returns ErrUserNotFound or *InsufficientBalanceError
	// leaving the balance untouched.
	Debit(ctx context.Context, userID int64, amount int) (int, error)
}
