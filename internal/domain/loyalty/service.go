package loyalty

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/greenbite/internal/domain/txn"
)

var tracer = otel.Tracer("github.com/xenking/greenbite/internal/domain/loyalty")

// Service is the loyalty ledger.
type Service struct {
	balances Repository
	tx       txn.Runner
}

// NewService creates a loyalty Service.
func NewService(balances Repository, tx txn.Runner) *Service {
	return &Service{balances: balances, tx: tx}
}

// AddPoints accrues earned points for a user and returns the new balance.
func (s *Service) AddPoints(ctx context.Context, userID int64, earned int) (Balance, error) {
	ctx, span := tracer.Start(ctx, "loyalty.AddPoints", trace.WithAttributes(
		attribute.Int64("loyalty.user_id", userID),
		attribute.Int("loyalty.earned", earned),
	))
	defer span.End()

	if earned < 0 {
		return Balance{}, ErrNegativePoints
	}

	var updated Balance
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		b, err := s.balances.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		updated = Accrue(b, earned)
		if updated == b {
			return nil
		}
		return s.balances.SaveBalance(ctx, updated)
	})
	if err != nil {
		span.RecordError(err)
		return Balance{}, errors.Wrap(err, "add points")
	}
	return updated, nil
}

// Balance returns both counters for a user.
func (s *Service) Balance(ctx context.Context, userID int64) (Balance, error) {
	return s.balances.GetBalance(ctx, userID)
}

// NormalPoints returns the user's unconverted points.
func (s *Service) NormalPoints(ctx context.Context, userID int64) (int, error) {
	b, err := s.balances.GetBalance(ctx, userID)
	if err != nil {
		return 0, err
	}
	return b.NormalPoints, nil
}

// GreenBitePoints returns the user's spendable points.
func (s *Service) GreenBitePoints(ctx context.Context, userID int64) (int, error) {
	b, err := s.balances.GetBalance(ctx, userID)
	if err != nil {
		return 0, err
	}
	return b.GreenBitePoints, nil
}
