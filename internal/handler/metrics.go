package handler

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/greenbite/internal/domain/redeem"
)

// Metrics holds the domain counters recorded on successful operations.
type Metrics struct {
	ordersCreated      metric.Int64Counter
	pointsAccrued      metric.Int64Counter
	issuancesPurchased metric.Int64Counter
	issuancesRedeemed  metric.Int64Counter
}

// NewMetrics registers the domain counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.ordersCreated, err = meter.Int64Counter("greenbite.orders.created",
		metric.WithDescription("Orders committed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.created")
	}
	if m.pointsAccrued, err = meter.Int64Counter("greenbite.points.accrued",
		metric.WithDescription("Normal points added to balances"),
	); err != nil {
		return nil, errors.Wrap(err, "points.accrued")
	}
	if m.issuancesPurchased, err = meter.Int64Counter("greenbite.issuances.purchased",
		metric.WithDescription("Deals and coupons bought with greenBite points"),
	); err != nil {
		return nil, errors.Wrap(err, "issuances.purchased")
	}
	if m.issuancesRedeemed, err = meter.Int64Counter("greenbite.issuances.redeemed",
		metric.WithDescription("Codes redeemed"),
	); err != nil {
		return nil, errors.Wrap(err, "issuances.redeemed")
	}
	return &m, nil
}

func (m *Metrics) orderCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1)
}

func (m *Metrics) pointsAdded(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.pointsAccrued.Add(ctx, int64(n))
}

func (m *Metrics) purchased(ctx context.Context, kind redeem.Kind) {
	if m == nil {
		return
	}
	m.issuancesPurchased.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}

func (m *Metrics) redeemed(ctx context.Context, kind redeem.Kind) {
	if m == nil {
		return
	}
	m.issuancesRedeemed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}
