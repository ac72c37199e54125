// Package catalog models food shops and the food items they sell, including
// the stock counter that the order flow decrements.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrShopNotFound is returned when a requested shop does not exist.
	ErrShopNotFound = errors.New("food shop not found")
	// ErrShopReferenced is returned when deleting a shop that orders still reference.
	ErrShopReferenced = errors.New("food shop has orders")
)

// ItemNotFoundError indicates a requested food item does not exist.
type ItemNotFoundError struct {
	ItemID int64
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("food item %d not found", e.ItemID)
}

// InsufficientStockError indicates a decrement would take stock below zero.
type InsufficientStockError struct {
	ItemID    int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("food item %d: requested %d, only %d in stock", e.ItemID, e.Requested, e.Available)
}

// Shop is a food shop registered on the marketplace.
type Shop struct {
	ID                  int64
	Name                string
	Address             string
	PhoneNumber         string
	Email               string
	BusinessName        string
	BusinessDescription string
	Photo               string
	LicenseExpiresAt    *time.Time
	Location            *Location
	CreatedAt           time.Time
}

// Item is a food item listed by a shop. Quantity is the units in stock.
type Item struct {
	ID          int64
	ShopID      int64
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Photo       string
	Tags        []string
	Category    string
	Location    *Location
	CreatedAt   time.Time
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	ShopID   int64
	Category string
}

// ShopRepository defines persistence operations for shops.
type ShopRepository interface {
	CreateShop(ctx context.Context, s *Shop) error
	GetShop(ctx context.Context, id int64) (*Shop, error)
	ListShops(ctx context.Context) ([]Shop, error)
	ListShopsLicensedBefore(ctx context.Context, before time.Time) ([]Shop, error)
	DeleteShop(ctx context.Context, id int64) error
}

// ItemRepository defines persistence operations for food items.
type ItemRepository interface {
	CreateItem(ctx context.Context, it *Item) error
	GetItem(ctx context.Context, id int64) (*Item, error)
	ListItems(ctx context.Context, f ItemFilter) ([]Item, error)
	DeleteItem(ctx context.Context, id int64) error
	// DecrementStock atomically subtracts qty from the item's stock and
	// returns what remains. It returns *ItemNotFoundError or
	// *InsufficientStockError without modifying anything.
	DecrementStock(ctx context.Context, itemID int64, qty int) (int, error)
}
