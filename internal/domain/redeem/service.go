package redeem

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/greenbite/internal/domain/txn"
)

var tracer = otel.Tracer("github.com/xenking/greenbite/internal/domain/redeem")

// maxCodeAttempts bounds retries when a generated code collides.
const maxCodeAttempts = 5

// PurchaseRequest holds the input for Purchase. Code is optional.
type PurchaseRequest struct {
	UserID  int64
	Kind    Kind
	OfferID int64
	Code    string
}

// Service implements offer purchase and redemption.
type Service struct {
	offers    OfferRepository
	issuances IssuanceRepository
	wallet    Wallet
	tx        txn.Runner
	newCode   func() string
}

// NewService creates a redeem Service.
func NewService(offers OfferRepository, issuances IssuanceRepository, wallet Wallet, tx txn.Runner) *Service {
	return &Service{
		offers:    offers,
		issuances: issuances,
		wallet:    wallet,
		tx:        tx,
		newCode:   NewCode,
	}
}

// Purchase spends the offer's cost from the user's greenBite balance and
// issues an active redemption code carrying the offer's current discount.
// Nothing is deducted unless the issuance is created.
func (s *Service) Purchase(ctx context.Context, req PurchaseRequest) (*Issuance, error) {
	ctx, span := tracer.Start(ctx, "redeem.Purchase", trace.WithAttributes(
		attribute.Int64("redeem.user_id", req.UserID),
		attribute.String("redeem.kind", string(req.Kind)),
		attribute.Int64("redeem.offer_id", req.OfferID),
	))
	defer span.End()

	if !req.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	supplied := strings.TrimSpace(req.Code)

	var issued *Issuance
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		offer, err := s.offers.GetOffer(ctx, req.Kind, req.OfferID)
		if err != nil {
			return err
		}
		if _, err := s.wallet.Debit(ctx, req.UserID, offer.Cost); err != nil {
			return err
		}

		is := &Issuance{
			UserID:     req.UserID,
			OfferID:    offer.ID,
			Kind:       offer.Kind,
			OfferTitle: offer.Title,
			Discount:   offer.Discount,
			Active:     true,
		}
		if err := s.issue(ctx, is, supplied); err != nil {
			return err
		}
		issued = is
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "purchase")
	}
	return issued, nil
}

// issue stores is under the supplied code, or under a fresh generated code
// retried on collision.
func (s *Service) issue(ctx context.Context, is *Issuance, supplied string) error {
	if supplied != "" {
		is.Code = supplied
		return s.issuances.Create(ctx, is)
	}
	for range maxCodeAttempts {
		is.Code = s.newCode()
		err := s.issuances.Create(ctx, is)
		if !errors.Is(err, ErrCodeTaken) {
			return err
		}
	}
	return errors.Wrapf(ErrCodeTaken, "no free code after %d attempts", maxCodeAttempts)
}

// Redeem marks the issuance with the given code as used. A code can be
// redeemed once; later attempts fail with ErrAlreadyRedeemed.
func (s *Service) Redeem(ctx context.Context, code string) (*Issuance, error) {
	ctx, span := tracer.Start(ctx, "redeem.Redeem")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	is, err := s.issuances.Deactivate(ctx, code)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return is, nil
}

// ListForUser returns the user's issuances as display entries.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]InventoryEntry, error) {
	list, err := s.issuances.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list issuances")
	}
	out := make([]InventoryEntry, len(list))
	for i, is := range list {
		out[i] = InventoryEntry{
			Kind:     is.Kind,
			Name:     is.OfferTitle,
			Code:     is.Code,
			Discount: is.Discount,
			Redeemed: !is.Active,
		}
	}
	return out, nil
}

// ListOffers returns the catalog of one kind.
func (s *Service) ListOffers(ctx context.Context, kind Kind) ([]Offer, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return s.offers.ListOffers(ctx, kind)
}

// CreateOffer validates and stores a new offer.
func (s *Service) CreateOffer(ctx context.Context, o *Offer) error {
	o.Title = strings.TrimSpace(o.Title)
	switch {
	case !o.Kind.Valid():
		return ErrInvalidKind
	case o.Title == "":
		return ErrEmptyTitle
	case o.Cost <= 0:
		return ErrInvalidCost
	case o.Discount.IsNegative(), o.Kind == KindDeal && !o.Discount.IsZero():
		return ErrInvalidDiscount
	}
	if err := s.offers.CreateOffer(ctx, o); err != nil {
		return errors.Wrap(err, "create offer")
	}
	return nil
}

// DeleteOffer removes an offer. Offers with issued codes are kept.
func (s *Service) DeleteOffer(ctx context.Context, kind Kind, id int64) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	return s.offers.DeleteOffer(ctx, kind, id)
}
