package sales

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/greenbite/internal/domain/order"
)

// --- Mock implementations ---

type mockOrders struct {
	orders []order.Order
}

func (m *mockOrders) ListBetween(_ context.Context, shopID *int64, from, to time.Time) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.orders {
		if shopID != nil && o.ShopID != *shopID {
			continue
		}
		if o.OrderDate.Before(from) || o.OrderDate.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// --- Helpers ---

var day = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func placed(id, shopID int64, total string, at time.Time, items ...order.LineItem) order.Order {
	return order.Order{
		ID:          id,
		ShopID:      shopID,
		TotalAmount: decimal.RequireFromString(total),
		OrderDate:   at,
		ItemsJSON:   order.EncodeLineItems(items),
	}
}

func line(id int64, qty int, price string) order.LineItem {
	return order.LineItem{FoodItemID: id, Quantity: qty, Price: decimal.RequireFromString(price)}
}

func newFixture() *Service {
	return NewService(&mockOrders{orders: []order.Order{
		placed(1, 10, "12.50", day.Add(2*time.Hour), line(100, 2, "5"), line(101, 1, "2.50")),
		placed(2, 10, "5.00", day.Add(26*time.Hour), line(100, 1, "5")),
		placed(3, 20, "7.25", day.Add(3*time.Hour), line(200, 1, "7.25")),
		placed(4, 10, "9.99", day.AddDate(0, 1, 0), line(100, 2, "4.995")),
	}})
}

// --- Tests ---

func TestTotalSales(t *testing.T) {
	svc := newFixture()
	ctx := context.Background()
	end := day.AddDate(0, 0, 7)

	got, err := svc.TotalSales(ctx, 10, day, end)
	require.NoError(t, err)
	assert.Equal(t, "17.5", got.String())

	got, err = svc.TotalSalesAllShops(ctx, day, end)
	require.NoError(t, err)
	assert.Equal(t, "24.75", got.String())

	got, err = svc.TotalSales(ctx, 99, day, end)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestInvalidPeriod(t *testing.T) {
	svc := newFixture()

	_, err := svc.TotalSales(context.Background(), 10, day.Add(time.Hour), day)
	require.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.ItemRevenue(context.Background(), 10, day.Add(time.Hour), day)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestItemRevenue(t *testing.T) {
	svc := newFixture()

	got, err := svc.ItemRevenue(context.Background(), 10, day, day.AddDate(0, 0, 7))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "15", got[100].String())
	assert.Equal(t, "2.5", got[101].String())
}

func TestItemRevenue_SkipsMalformedSnapshot(t *testing.T) {
	broken := placed(5, 10, "3.00", day.Add(time.Hour))
	broken.ItemsJSON = []byte(`{"not":"a list"}`)
	svc := NewService(&mockOrders{orders: []order.Order{
		broken,
		placed(6, 10, "3.00", day.Add(time.Hour), line(100, 1, "3")),
	}})

	core, logs := observer.New(zap.WarnLevel)
	ctx := zctx.Base(context.Background(), zap.New(core))

	got, err := svc.ItemRevenue(ctx, 10, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "3", got[100].String())

	entries := logs.FilterMessage("Skipping malformed order snapshot").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].ContextMap()["order_id"])
}
