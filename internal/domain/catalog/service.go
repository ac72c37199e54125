package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Validation errors returned by Service.
var (
	ErrEmptyName        = errors.New("name required")
	ErrNegativePrice    = errors.New("price must not be negative")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrInvalidShopID    = errors.New("shop id must be positive")
	ErrInvalidLocation  = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")
)

// DefaultExpiryWindow is how far ahead ExpiringShops looks when no window is given.
const DefaultExpiryWindow = 30 * 24 * time.Hour

// Service implements catalog management for shops and food items.
type Service struct {
	shops ShopRepository
	items ItemRepository
	now   func() time.Time
}

// NewService creates a catalog Service.
func NewService(shops ShopRepository, items ItemRepository) *Service {
	return &Service{shops: shops, items: items, now: time.Now}
}

// CreateShop validates and persists a new shop.
func (s *Service) CreateShop(ctx context.Context, shop *Shop) error {
	shop.Name = strings.TrimSpace(shop.Name)
	if shop.Name == "" {
		return ErrEmptyName
	}
	if err := ValidateLocation(shop.Location); err != nil {
		return err
	}
	if err := s.shops.CreateShop(ctx, shop); err != nil {
		return fmt.Errorf("create shop: %w", err)
	}
	return nil
}

// GetShop returns a shop by id.
func (s *Service) GetShop(ctx context.Context, id int64) (*Shop, error) {
	return s.shops.GetShop(ctx, id)
}

// ListShops returns every shop.
func (s *Service) ListShops(ctx context.Context) ([]Shop, error) {
	return s.shops.ListShops(ctx)
}

// DeleteShop removes a shop and its items. Shops with orders are kept.
func (s *Service) DeleteShop(ctx context.Context, id int64) error {
	return s.shops.DeleteShop(ctx, id)
}

// ExpiredShops returns shops whose licence ended before today.
func (s *Service) ExpiredShops(ctx context.Context) ([]Shop, error) {
	return s.shops.ListShopsLicensedBefore(ctx, startOfDay(s.now()))
}

// ExpiringShops returns shops whose licence is already expired or ends within
// the given window. A non-positive window uses DefaultExpiryWindow.
func (s *Service) ExpiringShops(ctx context.Context, within time.Duration) ([]Shop, error) {
	if within <= 0 {
		within = DefaultExpiryWindow
	}
	return s.shops.ListShopsLicensedBefore(ctx, startOfDay(s.now()).Add(within))
}

// CreateItem validates and persists a new food item for an existing shop.
func (s *Service) CreateItem(ctx context.Context, it *Item) error {
	it.Name = strings.TrimSpace(it.Name)
	switch {
	case it.Name == "":
		return ErrEmptyName
	case it.ShopID <= 0:
		return ErrInvalidShopID
	case it.Price.IsNegative():
		return ErrNegativePrice
	case it.Quantity < 0:
		return ErrNegativeQuantity
	}
	if err := ValidateLocation(it.Location); err != nil {
		return err
	}

	if _, err := s.shops.GetShop(ctx, it.ShopID); err != nil {
		return err
	}
	if err := s.items.CreateItem(ctx, it); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// GetItem returns a food item by id.
func (s *Service) GetItem(ctx context.Context, id int64) (*Item, error) {
	return s.items.GetItem(ctx, id)
}

// ListItems returns food items matching f.
func (s *Service) ListItems(ctx context.Context, f ItemFilter) ([]Item, error) {
	f.Category = strings.TrimSpace(f.Category)
	return s.items.ListItems(ctx, f)
}

// DeleteItem removes a food item. Past orders keep their snapshot.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return s.items.DeleteItem(ctx, id)
}

// ValidateLocation reports whether loc is a valid coordinate pair. A nil
// location is valid.
func ValidateLocation(loc *Location) error {
	if loc == nil {
		return nil
	}
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return ErrInvalidLocation
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
