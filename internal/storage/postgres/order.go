package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greenbite/internal/domain/order"
	"github.com/xenking/greenbite/internal/domain/sales"
)

const orderColumns = `id, customer_id, shop_id, payment_method, status, total_amount, total_calories,
	order_date, latitude, longitude, ordered_items_json`

const (
	createOrderSQL = `INSERT INTO orders
		(customer_id, shop_id, payment_method, status, total_amount, total_calories, order_date, latitude, longitude, ordered_items_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	getOrderSQL             = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	listOrdersByShopSQL     = `SELECT ` + orderColumns + ` FROM orders WHERE shop_id = $1 ORDER BY order_date DESC, id DESC`
	listOrdersByCustomerSQL = `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY order_date DESC, id DESC`
	latestOrderSQL          = `SELECT ` + orderColumns + ` FROM orders ORDER BY order_date DESC, id DESC LIMIT 1`
	sumCaloriesSQL          = `SELECT COALESCE(SUM(total_calories), 0) FROM orders WHERE customer_id = $1`

	listOrdersBetweenSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1::bigint IS NULL OR shop_id = $1) AND order_date BETWEEN $2 AND $3
		ORDER BY order_date, id`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1 RETURNING ` + orderColumns
)

// FK constraint names from the schema, used to tell the parties apart.
const (
	ordersCustomerFK = "orders_customer_id_fkey"
	ordersShopFK     = "orders_shop_id_fkey"
)

var (
	_ order.Repository  = (*OrderRepository)(nil)
	_ sales.OrderSource = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. The line-item snapshot is stored as text so
// the bytes read back are the bytes written.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := conn(ctx, r.pool).QueryRow(ctx, createOrderSQL,
		o.CustomerID, o.ShopID, o.PaymentMethod, o.Status, o.TotalAmount, o.TotalCalories,
		o.OrderDate, o.Latitude, o.Longitude, string(o.ItemsJSON),
	).Scan(&o.ID)
	if err != nil {
		if pgErr, ok := pgError(err, codeForeignKeyViolation); ok {
			switch pgErr.ConstraintName {
			case ordersCustomerFK:
				return order.ErrCustomerNotFound
			case ordersShopFK:
				return order.ErrShopNotFound
			}
		}
		return fmt.Errorf("creating order: %w", err)
	}
	return nil
}

// GetByID returns an order by id.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.one(ctx, order.ErrNotFound, getOrderSQL, id)
}

// ListByShop returns the shop's orders, newest first.
func (r *OrderRepository) ListByShop(ctx context.Context, shopID int64) ([]order.Order, error) {
	return r.many(ctx, listOrdersByShopSQL, shopID)
}

// ListByCustomer returns the customer's orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	return r.many(ctx, listOrdersByCustomerSQL, customerID)
}

// Latest returns the most recent order across all shops.
func (r *OrderRepository) Latest(ctx context.Context) (*order.Order, error) {
	return r.one(ctx, order.ErrNoOrders, latestOrderSQL)
}

// SumCalories totals the calories of every order the customer placed.
func (r *OrderRepository) SumCalories(ctx context.Context, customerID int64) (float64, error) {
	var sum float64
	if err := conn(ctx, r.pool).QueryRow(ctx, sumCaloriesSQL, customerID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("summing calories of customer %d: %w", customerID, err)
	}
	return sum, nil
}

// UpdateStatus sets the status and returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status string) (*order.Order, error) {
	return r.one(ctx, order.ErrNotFound, updateOrderStatusSQL, id, status)
}

// ListBetween returns orders placed in [from, to], oldest first. A nil
// shopID covers every shop.
func (r *OrderRepository) ListBetween(ctx context.Context, shopID *int64, from, to time.Time) ([]order.Order, error) {
	return r.many(ctx, listOrdersBetweenSQL, shopID, from, to)
}

func (r *OrderRepository) one(ctx context.Context, notFound error, sql string, args ...any) (*order.Order, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("querying order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) many(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o     order.Order
		items string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.ShopID, &o.PaymentMethod, &o.Status, &o.TotalAmount, &o.TotalCalories,
		&o.OrderDate, &o.Latitude, &o.Longitude, &items,
	)
	if err != nil {
		return order.Order{}, err
	}
	o.ItemsJSON = []byte(items)
	return o, nil
}
