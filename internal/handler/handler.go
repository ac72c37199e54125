// Package handler exposes the marketplace over HTTP. It decodes requests,
// enforces who may act for whom, and maps domain errors to statuses. All
// business rules live in the domain services behind the interfaces below.
package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/greenbite/internal/domain/auth"
	"github.com/xenking/greenbite/internal/domain/catalog"
	"github.com/xenking/greenbite/internal/domain/loyalty"
	"github.com/xenking/greenbite/internal/domain/order"
	"github.com/xenking/greenbite/internal/domain/redeem"
	"github.com/xenking/greenbite/internal/domain/user"
)

// OrderService is the order flow as seen by HTTP.
type OrderService interface {
	CreateOrder(ctx context.Context, req order.CreateOrderRequest) (*order.Order, error)
	Latest(ctx context.Context) (*order.Order, error)
	ListByShop(ctx context.Context, shopID int64) ([]order.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]order.Order, error)
	TotalCalories(ctx context.Context, customerID int64) (float64, error)
	UpdateStatus(ctx context.Context, orderID int64, status string) (*order.Order, error)
}

// LoyaltyService accrues and reads point balances.
type LoyaltyService interface {
	AddPoints(ctx context.Context, userID int64, earned int) (loyalty.Balance, error)
	Balance(ctx context.Context, userID int64) (loyalty.Balance, error)
}

// RedeemService sells and redeems deals and coupons.
type RedeemService interface {
	Purchase(ctx context.Context, req redeem.PurchaseRequest) (*redeem.Issuance, error)
	Redeem(ctx context.Context, code string) (*redeem.Issuance, error)
	ListForUser(ctx context.Context, userID int64) ([]redeem.InventoryEntry, error)
	ListOffers(ctx context.Context, kind redeem.Kind) ([]redeem.Offer, error)
	CreateOffer(ctx context.Context, o *redeem.Offer) error
	DeleteOffer(ctx context.Context, kind redeem.Kind, id int64) error
}

// CatalogService manages shops and food items.
type CatalogService interface {
	CreateShop(ctx context.Context, shop *catalog.Shop) error
	GetShop(ctx context.Context, id int64) (*catalog.Shop, error)
	ListShops(ctx context.Context) ([]catalog.Shop, error)
	DeleteShop(ctx context.Context, id int64) error
	ExpiredShops(ctx context.Context) ([]catalog.Shop, error)
	ExpiringShops(ctx context.Context, within time.Duration) ([]catalog.Shop, error)
	CreateItem(ctx context.Context, it *catalog.Item) error
	ListItems(ctx context.Context, f catalog.ItemFilter) ([]catalog.Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

// FavoriteService keeps the food items users mark as favorite.
type FavoriteService interface {
	Add(ctx context.Context, userID, itemID int64) (bool, error)
	List(ctx context.Context, userID int64) ([]catalog.Item, error)
	Remove(ctx context.Context, userID, itemID int64) error
}

// UserService manages profiles and locations.
type UserService interface {
	Get(ctx context.Context, id int64) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
	UpdateProfile(ctx context.Context, id int64, p user.Profile) (*user.User, error)
	UpdateLocation(ctx context.Context, id int64, loc user.Location) error
	Location(ctx context.Context, id int64) (user.Location, error)
	Delete(ctx context.Context, id int64) error
}

// SalesService reports revenue.
type SalesService interface {
	TotalSales(ctx context.Context, shopID int64, from, to time.Time) (decimal.Decimal, error)
	TotalSalesAllShops(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	ItemRevenue(ctx context.Context, shopID int64, from, to time.Time) (map[int64]decimal.Decimal, error)
}

// AccountService signs users up and in.
type AccountService interface {
	Signup(ctx context.Context, req auth.SignupRequest) (*user.User, error)
	Login(ctx context.Context, email, password string) (auth.Token, error)
}

// Services bundles the domain dependencies of Handler.
type Services struct {
	Orders    OrderService
	Loyalty   LoyaltyService
	Redeem    RedeemService
	Catalog   CatalogService
	Favorites FavoriteService
	Users     UserService
	Sales     SalesService
	Accounts  AccountService
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ExpiryWindow is how far ahead nearExpiryFoodShops looks.
	ExpiryWindow time.Duration
}

// Handler serves the marketplace API.
type Handler struct {
	svc          Services
	metrics      *Metrics
	expiryWindow time.Duration
}

// NewHandler constructs a Handler. A nil metrics disables domain counters.
func NewHandler(cfg Config, svc Services, metrics *Metrics) *Handler {
	window := cfg.ExpiryWindow
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &Handler{
		svc:          svc,
		metrics:      metrics,
		expiryWindow: window,
	}
}
