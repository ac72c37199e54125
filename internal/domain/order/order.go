package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatusPending is the status every order starts in.
const StatusPending = "pending"

// Order is a checkout record. Everything except Status is immutable once
// created.
type Order struct {
	ID            int64
	CustomerID    int64
	ShopID        int64
	PaymentMethod string
	Status        string
	TotalAmount   decimal.Decimal
	TotalCalories float64
	OrderDate     time.Time
	Latitude      float64
	Longitude     float64
	// ItemsJSON is the line-item snapshot taken at checkout, stored verbatim.
	ItemsJSON []byte
}

// LineItems decodes the order's snapshot.
func (o *Order) LineItems() ([]LineItem, error) {
	return DecodeLineItems(o.ItemsJSON)
}

// LineItem is one purchased food item at the price paid.
type LineItem struct {
	FoodItemID int64
	Quantity   int
	Price      decimal.Decimal
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create inserts o and fills in its ID.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByShop(ctx context.Context, shopID int64) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	Latest(ctx context.Context) (*Order, error)
	SumCalories(ctx context.Context, customerID int64) (float64, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*Order, error)
}

// Stock is the part of the catalog the order flow mutates.
type Stock interface {
	DecrementStock(ctx context.Context, itemID int64, qty int) (int, error)
}
