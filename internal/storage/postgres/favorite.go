package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greenbite/internal/domain/catalog"
)

const (
	addFavoriteSQL = `INSERT INTO user_favorites (user_id, food_item_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, food_item_id) DO NOTHING`

	listFavoritesSQL = `SELECT i.id, i.shop_id, i.name, i.description, i.price, i.quantity, i.photo, i.tags,
			i.category, i.latitude, i.longitude, i.created_at
		FROM user_favorites f
		JOIN food_items i ON i.id = f.food_item_id
		WHERE f.user_id = $1
		ORDER BY f.created_at, i.id`

	removeFavoriteSQL = `DELETE FROM user_favorites WHERE user_id = $1 AND food_item_id = $2`

	favoritePartiesSQL = `SELECT
		EXISTS (SELECT 1 FROM users WHERE id = $1),
		EXISTS (SELECT 1 FROM food_items WHERE id = $2)`
)

const (
	favoritesUserFK = "user_favorites_user_id_fkey"
	favoritesItemFK = "user_favorites_food_item_id_fkey"
)

var _ catalog.FavoriteRepository = (*FavoriteRepository)(nil)

// FavoriteRepository implements catalog.FavoriteRepository backed by PostgreSQL.
type FavoriteRepository struct {
	pool *pgxpool.Pool
}

// NewFavoriteRepository returns a FavoriteRepository that uses the given pool.
func NewFavoriteRepository(pool *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// AddFavorite inserts the link; an existing link is left alone.
func (r *FavoriteRepository) AddFavorite(ctx context.Context, userID, itemID int64) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, addFavoriteSQL, userID, itemID)
	if err != nil {
		if pgErr, ok := pgError(err, codeForeignKeyViolation); ok {
			switch pgErr.ConstraintName {
			case favoritesUserFK:
				return false, catalog.ErrUserNotFound
			case favoritesItemFK:
				return false, &catalog.ItemNotFoundError{ItemID: itemID}
			}
		}
		return false, fmt.Errorf("adding favorite %d of user %d: %w", itemID, userID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListFavorites returns the user's favorite items in the order they were added.
func (r *FavoriteRepository) ListFavorites(ctx context.Context, userID int64) ([]catalog.Item, error) {
	q := conn(ctx, r.pool)
	rows, err := q.Query(ctx, listFavoritesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing favorites of user %d: %w", userID, err)
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("listing favorites of user %d: %w", userID, err)
	}
	if len(items) > 0 {
		return items, nil
	}

	userExists, _, err := r.parties(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	if !userExists {
		return nil, catalog.ErrUserNotFound
	}
	return items, nil
}

// RemoveFavorite deletes the link. When nothing was deleted the cause is
// looked up so callers can tell a missing user or item from a missing link.
func (r *FavoriteRepository) RemoveFavorite(ctx context.Context, userID, itemID int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, removeFavoriteSQL, userID, itemID)
	if err != nil {
		return fmt.Errorf("removing favorite %d of user %d: %w", itemID, userID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	userExists, itemExists, err := r.parties(ctx, userID, itemID)
	switch {
	case err != nil:
		return err
	case !userExists:
		return catalog.ErrUserNotFound
	case !itemExists:
		return &catalog.ItemNotFoundError{ItemID: itemID}
	}
	return catalog.ErrFavoriteNotFound
}

func (r *FavoriteRepository) parties(ctx context.Context, userID, itemID int64) (userExists, itemExists bool, err error) {
	err = conn(ctx, r.pool).QueryRow(ctx, favoritePartiesSQL, userID, itemID).Scan(&userExists, &itemExists)
	if err != nil {
		return false, false, fmt.Errorf("checking user %d and item %d: %w", userID, itemID, err)
	}
	return userExists, itemExists, nil
}
