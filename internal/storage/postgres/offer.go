package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greenbite/internal/domain/redeem"
)

const offerColumns = `id, kind, title, icon, color, cost, discount, created_at`

const (
	createOfferSQL = `INSERT INTO offers (kind, title, icon, color, cost, discount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	getOfferSQL    = `SELECT ` + offerColumns + ` FROM offers WHERE kind = $1 AND id = $2`
	listOffersSQL  = `SELECT ` + offerColumns + ` FROM offers WHERE kind = $1 ORDER BY id`
	deleteOfferSQL = `DELETE FROM offers WHERE kind = $1 AND id = $2`
)

var _ redeem.OfferRepository = (*OfferRepository)(nil)

// OfferRepository stores deals and coupons in one table keyed by kind.
type OfferRepository struct {
	pool *pgxpool.Pool
}

// NewOfferRepository returns an OfferRepository that uses the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// CreateOffer inserts o and fills in its ID.
func (r *OfferRepository) CreateOffer(ctx context.Context, o *redeem.Offer) error {
	err := conn(ctx, r.pool).QueryRow(ctx, createOfferSQL,
		string(o.Kind), o.Title, o.Icon, o.Color, o.Cost, o.Discount,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating %s %q: %w", o.Kind, o.Title, err)
	}
	return nil
}

// GetOffer returns an offer of the given kind.
func (r *OfferRepository) GetOffer(ctx context.Context, kind redeem.Kind, id int64) (*redeem.Offer, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getOfferSQL, string(kind), id)
	if err != nil {
		return nil, fmt.Errorf("getting %s %d: %w", kind, id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOffer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, redeem.ErrOfferNotFound
		}
		return nil, fmt.Errorf("getting %s %d: %w", kind, id, err)
	}
	return &o, nil
}

// ListOffers returns the offers of one kind ordered by id.
func (r *OfferRepository) ListOffers(ctx context.Context, kind redeem.Kind) ([]redeem.Offer, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listOffersSQL, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing %ss: %w", kind, err)
	}
	return pgx.CollectRows(rows, scanOffer)
}

// DeleteOffer removes an offer nobody has purchased.
func (r *OfferRepository) DeleteOffer(ctx context.Context, kind redeem.Kind, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteOfferSQL, string(kind), id)
	if err != nil {
		if _, ok := pgError(err, codeForeignKeyViolation); ok {
			return redeem.ErrOfferInUse
		}
		return fmt.Errorf("deleting %s %d: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return redeem.ErrOfferNotFound
	}
	return nil
}

func scanOffer(row pgx.CollectableRow) (redeem.Offer, error) {
	var (
		o    redeem.Offer
		kind string
	)
	if err := row.Scan(&o.ID, &kind, &o.Title, &o.Icon, &o.Color, &o.Cost, &o.Discount, &o.CreatedAt); err != nil {
		return redeem.Offer{}, err
	}
	o.Kind = redeem.Kind(kind)
	return o, nil
}
