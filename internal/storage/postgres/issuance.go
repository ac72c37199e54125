package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greenbite/internal/domain/redeem"
)

const (
	// ON CONFLICT keeps a surrounding transaction usable when a code collides.
	createIssuanceSQL = `INSERT INTO issuances (user_id, offer_id, kind, code, discount, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO NOTHING
		RETURNING id, created_at`

	deactivateIssuanceSQL = `UPDATE issuances i SET active = FALSE, redeemed_at = now()
		FROM offers o
		WHERE i.code = $1 AND i.active AND o.id = i.offer_id
		RETURNING i.id, i.user_id, i.offer_id, i.kind, o.title, i.code, i.discount, i.active, i.created_at, i.redeemed_at`

	issuanceExistsSQL = `SELECT EXISTS (SELECT 1 FROM issuances WHERE code = $1)`

	listIssuancesByUserSQL = `SELECT i.id, i.user_id, i.offer_id, i.kind, o.title, i.code, i.discount,
			i.active, i.created_at, i.redeemed_at
		FROM issuances i JOIN offers o ON o.id = i.offer_id
		WHERE i.user_id = $1
		ORDER BY i.id`
)

var _ redeem.IssuanceRepository = (*IssuanceRepository)(nil)

// IssuanceRepository stores purchased redemption codes.
type IssuanceRepository struct {
	pool *pgxpool.Pool
}

// NewIssuanceRepository returns an IssuanceRepository that uses the given pool.
func NewIssuanceRepository(pool *pgxpool.Pool) *IssuanceRepository {
	return &IssuanceRepository{pool: pool}
}

// Create inserts is unless its code is already taken.
func (r *IssuanceRepository) Create(ctx context.Context, is *redeem.Issuance) error {
	err := conn(ctx, r.pool).QueryRow(ctx, createIssuanceSQL,
		is.UserID, is.OfferID, string(is.Kind), is.Code, is.Discount, is.Active,
	).Scan(&is.ID, &is.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return redeem.ErrCodeTaken
		}
		if _, ok := pgError(err, codeForeignKeyViolation); ok {
			return redeem.ErrUserNotFound
		}
		return fmt.Errorf("creating issuance: %w", err)
	}
	return nil
}

// Deactivate redeems an active code in one conditional update, so two
// concurrent redemptions cannot both succeed.
func (r *IssuanceRepository) Deactivate(ctx context.Context, code string) (*redeem.Issuance, error) {
	q := conn(ctx, r.pool)

	rows, err := q.Query(ctx, deactivateIssuanceSQL, code)
	if err != nil {
		return nil, fmt.Errorf("redeeming code: %w", err)
	}
	is, err := pgx.CollectExactlyOneRow(rows, scanIssuance)
	if err == nil {
		return &is, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("redeeming code: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, issuanceExistsSQL, code).Scan(&exists); err != nil {
		return nil, fmt.Errorf("looking up code: %w", err)
	}
	if exists {
		return nil, redeem.ErrAlreadyRedeemed
	}
	return nil, redeem.ErrIssuanceNotFound
}

// ListByUser returns the user's issuances, oldest first.
func (r *IssuanceRepository) ListByUser(ctx context.Context, userID int64) ([]redeem.Issuance, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listIssuancesByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing issuances of user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanIssuance)
}

func scanIssuance(row pgx.CollectableRow) (redeem.Issuance, error) {
	var (
		is   redeem.Issuance
		kind string
	)
	err := row.Scan(
		&is.ID, &is.UserID, &is.OfferID, &kind, &is.OfferTitle, &is.Code, &is.Discount,
		&is.Active, &is.CreatedAt, &is.RedeemedAt,
	)
	if err != nil {
		return redeem.Issuance{}, err
	}
	is.Kind = redeem.Kind(kind)
	return is, nil
}
