// Package order implements checkout: stock decrement, the line-item snapshot
// and the order record, all inside one transaction.
package order

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/greenbite/internal/domain/txn"
)

var tracer = otel.Tracer("github.com/xenking/greenbite/internal/domain/order")

// Sentinel errors for order validation and lookup.
var (
	ErrEmptyItems       = errors.New("items required")
	ErrInvalidParty     = errors.New("customer id and shop id must be positive")
	ErrNegativeCalories = errors.New("total calories must not be negative")
	ErrEmptyStatus      = errors.New("status required")
	ErrNotFound         = errors.New("order not found")
	ErrNoOrders         = errors.New("no orders found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrShopNotFound     = errors.New("shop not found")
)

// totalTolerance is the largest accepted gap between a client-claimed total
// and the recomputed one.
var totalTolerance = decimal.RequireFromString("0.01")

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ItemID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for food item %d", e.ItemID)
}

// InvalidPriceError indicates a line item has a negative price.
type InvalidPriceError struct {
	ItemID int64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("price must not be negative for food item %d", e.ItemID)
}

// TotalMismatchError indicates the client-supplied total disagrees with the
// sum of the line items.
type TotalMismatchError struct {
	Claimed  decimal.Decimal
	Computed decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("total amount %s does not match line items total %s",
		e.Claimed.StringFixed(2), e.Computed.StringFixed(2))
}

// CreateOrderRequest holds the input for CreateOrder. TotalAmount and
// OrderDate are optional.
type CreateOrderRequest struct {
	CustomerID    int64
	ShopID        int64
	PaymentMethod string
	Items         []LineItem
	TotalAmount   *decimal.Decimal
	TotalCalories float64
	Latitude      float64
	Longitude     float64
	OrderDate     *time.Time
}

// Service encapsulates order business logic.
type Service struct {
	orders Repository
	stock  Stock
	tx     txn.Runner
	now    func() time.Time
}

// NewService creates an order Service.
func NewService(orders Repository, stock Stock, tx txn.Runner) *Service {
	return &Service{
		orders: orders,
		stock:  stock,
		tx:     tx,
		now:    time.Now,
	}
}

// CreateOrder validates the request, decrements stock for every line item,
// snapshots the items and persists the order. Either all of it commits or
// none of it does.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	ctx, span := tracer.Start(ctx, "order.CreateOrder", trace.WithAttributes(
		attribute.Int64("order.customer_id", req.CustomerID),
		attribute.Int64("order.shop_id", req.ShopID),
		attribute.Int("order.lines", len(req.Items)),
	))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	total := Subtotal(req.Items).Round(2)
	if req.TotalAmount != nil && req.TotalAmount.Sub(total).Abs().GreaterThan(totalTolerance) {
		return nil, &TotalMismatchError{Claimed: *req.TotalAmount, Computed: total}
	}

	o := &Order{
		CustomerID:    req.CustomerID,
		ShopID:        req.ShopID,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Status:        StatusPending,
		TotalAmount:   total,
		TotalCalories: req.TotalCalories,
		OrderDate:     s.now(),
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		ItemsJSON:     EncodeLineItems(req.Items),
	}
	if req.OrderDate != nil && !req.OrderDate.IsZero() {
		o.OrderDate = *req.OrderDate
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		for _, d := range stockDemand(req.Items) {
			if _, err := s.stock.DecrementStock(ctx, d.itemID, d.qty); err != nil {
				return err
			}
		}
		return s.orders.Create(ctx, o)
	})
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "create order")
	}

	span.SetAttributes(attribute.Int64("order.id", o.ID))
	return o, nil
}

// Latest returns the most recent order across all shops and customers.
func (s *Service) Latest(ctx context.Context) (*Order, error) {
	return s.orders.Latest(ctx)
}

// ListByShop returns the orders placed with a shop.
func (s *Service) ListByShop(ctx context.Context, shopID int64) ([]Order, error) {
	return s.orders.ListByShop(ctx, shopID)
}

// ListByCustomer returns the orders placed by a customer.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// TotalCalories returns the calories summed over all of a customer's orders.
func (s *Service) TotalCalories(ctx context.Context, customerID int64) (float64, error) {
	return s.orders.SumCalories(ctx, customerID)
}

// UpdateStatus overwrites an order's status. Any non-empty value is accepted.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status string) (*Order, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, ErrEmptyStatus
	}
	return s.orders.UpdateStatus(ctx, orderID, status)
}

// Subtotal returns sum(quantity * price) over items.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

func validateRequest(req CreateOrderRequest) error {
	if req.CustomerID <= 0 || req.ShopID <= 0 {
		return ErrInvalidParty
	}
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	if req.TotalCalories < 0 {
		return ErrNegativeCalories
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return &InvalidQuantityError{ItemID: it.FoodItemID}
		}
		if it.Price.IsNegative() {
			return &InvalidPriceError{ItemID: it.FoodItemID}
		}
	}
	return nil
}

type demand struct {
	itemID int64
	qty    int
}

// stockDemand merges repeated items and orders them by id so concurrent
// checkouts lock rows in the same order.
func stockDemand(items []LineItem) []demand {
	byID := make(map[int64]int, len(items))
	for _, it := range items {
		byID[it.FoodItemID] += it.Quantity
	}
	out := make([]demand, 0, len(byID))
	for id, qty := range byID {
		out = append(out, demand{itemID: id, qty: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].itemID < out[j].itemID })
	return out
}
