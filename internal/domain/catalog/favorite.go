package catalog

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrFavoriteNotFound = errors.New("food item not in favorites")
	ErrInvalidFavorite  = errors.New("user id and food item id must be positive")
)

// FavoriteRepository persists the food items users have marked as favorite.
type FavoriteRepository interface {
	// AddFavorite links the item to the user and reports whether the link is
	// new. It returns ErrUserNotFound or *ItemNotFoundError when either side
	// is missing.
	AddFavorite(ctx context.Context, userID, itemID int64) (bool, error)
	// ListFavorites returns the user's favorite items, oldest first. It
	// returns ErrUserNotFound for an unknown user.
	ListFavorites(ctx context.Context, userID int64) ([]Item, error)
	// RemoveFavorite unlinks the item. It returns ErrUserNotFound,
	// *ItemNotFoundError or ErrFavoriteNotFound when nothing was removed.
	RemoveFavorite(ctx context.Context, userID, itemID int64) error
}

// Favorites manages per-user favorite food items.
type Favorites struct {
	repo FavoriteRepository
}

// NewFavorites creates a Favorites service.
func NewFavorites(repo FavoriteRepository) *Favorites {
	return &Favorites{repo: repo}
}

// Add marks the item as a favorite of the user. Adding an existing favorite
// is not an error; added is false then.
func (f *Favorites) Add(ctx context.Context, userID, itemID int64) (added bool, err error) {
	if userID <= 0 || itemID <= 0 {
		return false, ErrInvalidFavorite
	}
	added, err = f.repo.AddFavorite(ctx, userID, itemID)
	if err != nil {
		return false, errors.Wrap(err, "add favorite")
	}
	return added, nil
}

// List returns the user's favorite items.
func (f *Favorites) List(ctx context.Context, userID int64) ([]Item, error) {
	return f.repo.ListFavorites(ctx, userID)
}

// Remove drops the item from the user's favorites.
func (f *Favorites) Remove(ctx context.Context, userID, itemID int64) error {
	if userID <= 0 || itemID <= 0 {
		return ErrInvalidFavorite
	}
	return f.repo.RemoveFavorite(ctx, userID, itemID)
}
