package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greenbite/internal/domain/catalog"
	"github.com/xenking/greenbite/internal/domain/order"
)

const shopColumns = `id, name, address, phone_number, email, business_name, business_description,
	photo, license_expires_at, latitude, longitude, created_at`

const (
	createShopSQL = `INSERT INTO food_shops
		(name, address, phone_number, email, business_name, business_description, photo, license_expires_at, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	getShopSQL   = `SELECT ` + shopColumns + ` FROM food_shops WHERE id = $1`
	listShopsSQL = `SELECT ` + shopColumns + ` FROM food_shops ORDER BY id`

	listShopsLicensedBeforeSQL = `SELECT ` + shopColumns + ` FROM food_shops
		WHERE license_expires_at IS NOT NULL AND license_expires_at < $1
		ORDER BY license_expires_at, id`

	deleteShopSQL = `DELETE FROM food_shops WHERE id = $1`
)

const itemColumns = `id, shop_id, name, description, price, quantity, photo, tags, category,
	latitude, longitude, created_at`

const (
	createItemSQL = `INSERT INTO food_items
		(shop_id, name, description, price, quantity, photo, tags, category, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	getItemSQL = `SELECT ` + itemColumns + ` FROM food_items WHERE id = $1`

	listItemsSQL = `SELECT ` + itemColumns + ` FROM food_items
		WHERE ($1::bigint = 0 OR shop_id = $1) AND ($2::text = '' OR lower(category) = lower($2))
		ORDER BY id`

	deleteItemSQL = `DELETE FROM food_items WHERE id = $1`

	decrementStockSQL = `UPDATE food_items SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2
		RETURNING quantity`

	itemQuantitySQL = `SELECT quantity FROM food_items WHERE id = $1`
)

var (
	_ catalog.ShopRepository = (*ShopRepository)(nil)
	_ catalog.ItemRepository = (*ItemRepository)(nil)
	_ order.Stock            = (*ItemRepository)(nil)
)

// ShopRepository implements catalog.ShopRepository backed by PostgreSQL.
type ShopRepository struct {
	pool *pgxpool.Pool
}

// NewShopRepository returns a ShopRepository that uses the given pool.
func NewShopRepository(pool *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{pool: pool}
}

// CreateShop inserts s and fills in its ID.
func (r *ShopRepository) CreateShop(ctx context.Context, s *catalog.Shop) error {
	lat, lon := pointArgs(s.Location)
	err := conn(ctx, r.pool).QueryRow(ctx, createShopSQL,
		s.Name, s.Address, s.PhoneNumber, s.Email, s.BusinessName, s.BusinessDescription,
		s.Photo, s.LicenseExpiresAt, lat, lon,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating shop %q: %w", s.Name, err)
	}
	return nil
}

// GetShop returns a shop by id.
func (r *ShopRepository) GetShop(ctx context.Context, id int64) (*catalog.Shop, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getShopSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting shop %d: %w", id, err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanShop)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrShopNotFound
		}
		return nil, fmt.Errorf("getting shop %d: %w", id, err)
	}
	return &s, nil
}

// ListShops returns all shops ordered by id.
func (r *ShopRepository) ListShops(ctx context.Context) ([]catalog.Shop, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listShopsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing shops: %w", err)
	}
	return pgx.CollectRows(rows, scanShop)
}

// ListShopsLicensedBefore returns shops whose licence date is before the
// given day, soonest first.
func (r *ShopRepository) ListShopsLicensedBefore(ctx context.Context, before time.Time) ([]catalog.Shop, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listShopsLicensedBeforeSQL, before)
	if err != nil {
		return nil, fmt.Errorf("listing shops licensed before %s: %w", before.Format(time.DateOnly), err)
	}
	return pgx.CollectRows(rows, scanShop)
}

// DeleteShop removes a shop. Its items cascade; orders restrict the delete.
func (r *ShopRepository) DeleteShop(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteShopSQL, id)
	if err != nil {
		if _, ok := pgError(err, codeForeignKeyViolation); ok {
			return catalog.ErrShopReferenced
		}
		return fmt.Errorf("deleting shop %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrShopNotFound
	}
	return nil
}

// ItemRepository implements catalog.ItemRepository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// CreateItem inserts it and fills in its ID.
func (r *ItemRepository) CreateItem(ctx context.Context, it *catalog.Item) error {
	lat, lon := pointArgs(it.Location)
	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	err := conn(ctx, r.pool).QueryRow(ctx, createItemSQL,
		it.ShopID, it.Name, it.Description, it.Price, it.Quantity, it.Photo, tags, it.Category, lat, lon,
	).Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		if _, ok := pgError(err, codeForeignKeyViolation); ok {
			return catalog.ErrShopNotFound
		}
		return fmt.Errorf("creating item %q: %w", it.Name, err)
	}
	return nil
}

// GetItem returns a food item by id.
func (r *ItemRepository) GetItem(ctx context.Context, id int64) (*catalog.Item, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting item %d: %w", id, err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &catalog.ItemNotFoundError{ItemID: id}
		}
		return nil, fmt.Errorf("getting item %d: %w", id, err)
	}
	return &it, nil
}

// ListItems returns items matching the filter ordered by id.
func (r *ItemRepository) ListItems(ctx context.Context, f catalog.ItemFilter) ([]catalog.Item, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listItemsSQL, f.ShopID, f.Category)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// DeleteItem removes a food item. Order snapshots keep their copy.
func (r *ItemRepository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteItemSQL, id)
	if err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &catalog.ItemNotFoundError{ItemID: id}
	}
	return nil
}

// DecrementStock subtracts qty in a single conditional update, so concurrent
// orders can never drive the quantity below zero.
func (r *ItemRepository) DecrementStock(ctx context.Context, itemID int64, qty int) (int, error) {
	q := conn(ctx, r.pool)

	var left int
	err := q.QueryRow(ctx, decrementStockSQL, itemID, qty).Scan(&left)
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("decrementing stock of item %d: %w", itemID, err)
	}

	var have int
	if err := q.QueryRow(ctx, itemQuantitySQL, itemID).Scan(&have); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &catalog.ItemNotFoundError{ItemID: itemID}
		}
		return 0, fmt.Errorf("reading stock of item %d: %w", itemID, err)
	}
	return 0, &catalog.InsufficientStockError{ItemID: itemID, Requested: qty, Available: have}
}

func pointArgs(loc *catalog.Location) (lat, lon *float64) {
	if loc == nil {
		return nil, nil
	}
	return &loc.Latitude, &loc.Longitude
}

func scanShop(row pgx.CollectableRow) (catalog.Shop, error) {
	var (
		s        catalog.Shop
		lat, lon *float64
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Address, &s.PhoneNumber, &s.Email, &s.BusinessName, &s.BusinessDescription,
		&s.Photo, &s.LicenseExpiresAt, &lat, &lon, &s.CreatedAt,
	)
	if err != nil {
		return catalog.Shop{}, err
	}
	if la, lo, ok := optionalPoint(lat, lon); ok {
		s.Location = &catalog.Location{Latitude: la, Longitude: lo}
	}
	return s, nil
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		it       catalog.Item
		lat, lon *float64
	)
	err := row.Scan(
		&it.ID, &it.ShopID, &it.Name, &it.Description, &it.Price, &it.Quantity, &it.Photo, &it.Tags, &it.Category,
		&lat, &lon, &it.CreatedAt,
	)
	if err != nil {
		return catalog.Item{}, err
	}
	if la, lo, ok := optionalPoint(lat, lon); ok {
		it.Location = &catalog.Location{Latitude: la, Longitude: lo}
	}
	return it, nil
}
