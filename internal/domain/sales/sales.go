// Package sales aggregates revenue from stored orders.
package sales

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/greenbite/internal/domain/order"
)

// ErrInvalidPeriod is returned when a period starts after it ends.
var ErrInvalidPeriod = errors.New("start date must not be after end date")

// OrderSource lists orders placed within [from, to]. A nil shopID means all shops.
type OrderSource interface {
	ListBetween(ctx context.Context, shopID *int64, from, to time.Time) ([]order.Order, error)
}

// Service computes sales reports.
type Service struct {
	orders OrderSource
}

// NewService creates a sales Service.
func NewService(orders OrderSource) *Service {
	return &Service{orders: orders}
}

// TotalSales sums the order totals of one shop over the period.
func (s *Service) TotalSales(ctx context.Context, shopID int64, from, to time.Time) (decimal.Decimal, error) {
	return s.total(ctx, &shopID, from, to)
}

// TotalSalesAllShops sums the order totals of every shop over the period.
func (s *Service) TotalSalesAllShops(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return s.total(ctx, nil, from, to)
}

func (s *Service) total(ctx context.Context, shopID *int64, from, to time.Time) (decimal.Decimal, error) {
	orders, err := s.list(ctx, shopID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.TotalAmount)
	}
	return sum, nil
}

// ItemRevenue returns quantity*price per food item across the shop's order
// snapshots for the period. Snapshots that fail to parse are logged and skipped.
func (s *Service) ItemRevenue(ctx context.Context, shopID int64, from, to time.Time) (map[int64]decimal.Decimal, error) {
	orders, err := s.list(ctx, &shopID, from, to)
	if err != nil {
		return nil, err
	}

	lg := zctx.From(ctx)
	revenue := make(map[int64]decimal.Decimal)
	for i := range orders {
		items, err := orders[i].LineItems()
		if err != nil {
			lg.Warn("Skipping malformed order snapshot",
				zap.Int64("order_id", orders[i].ID),
				zap.Error(err),
			)
			continue
		}
		for _, it := range items {
			line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			revenue[it.FoodItemID] = revenue[it.FoodItemID].Add(line)
		}
	}
	return revenue, nil
}

func (s *Service) list(ctx context.Context, shopID *int64, from, to time.Time) ([]order.Order, error) {
	if from.After(to) {
		return nil, ErrInvalidPeriod
	}
	orders, err := s.orders.ListBetween(ctx, shopID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}
