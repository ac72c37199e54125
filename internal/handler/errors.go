package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/greenbite/internal/domain/auth"
	"github.com/xenking/greenbite/internal/domain/catalog"
	"github.com/xenking/greenbite/internal/domain/loyalty"
	"github.com/xenking/greenbite/internal/domain/order"
	"github.com/xenking/greenbite/internal/domain/redeem"
	"github.com/xenking/greenbite/internal/domain/sales"
	"github.com/xenking/greenbite/internal/domain/user"
)

var (
	errUnauthorized = errors.New("authentication required")
	errForbidden    = errors.New("not allowed to act for this user")
)

// badRequestError is a malformed request: bad JSON, a missing field, an
// unparsable path or query parameter.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// sentinelStatus maps domain sentinels to statuses. The sentinel's own text
// becomes the response message so wrapping context never leaks out.
var sentinelStatus = []struct {
	err    error
	status int
}{
	// Validation.
	{order.ErrEmptyItems, http.StatusBadRequest},
	{order.ErrInvalidParty, http.StatusBadRequest},
	{order.ErrNegativeCalories, http.StatusBadRequest},
	{order.ErrEmptyStatus, http.StatusBadRequest},
	{loyalty.ErrNegativePoints, http.StatusBadRequest},
	{redeem.ErrEmptyCode, http.StatusBadRequest},
	{redeem.ErrInvalidKind, http.StatusBadRequest},
	{redeem.ErrEmptyTitle, http.StatusBadRequest},
	{redeem.ErrInvalidCost, http.StatusBadRequest},
	{redeem.ErrInvalidDiscount, http.StatusBadRequest},
	{catalog.ErrEmptyName, http.StatusBadRequest},
	{catalog.ErrNegativePrice, http.StatusBadRequest},
	{catalog.ErrNegativeQuantity, http.StatusBadRequest},
	{catalog.ErrInvalidShopID, http.StatusBadRequest},
	{catalog.ErrInvalidLocation, http.StatusBadRequest},
	{catalog.ErrInvalidFavorite, http.StatusBadRequest},
	{user.ErrInvalidEmail, http.StatusBadRequest},
	{user.ErrInvalidLocation, http.StatusBadRequest},
	{sales.ErrInvalidPeriod, http.StatusBadRequest},
	{auth.ErrWeakPassword, http.StatusBadRequest},
	{auth.ErrRoleNotAllowed, http.StatusBadRequest},

	{errUnauthorized, http.StatusUnauthorized},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrInvalidToken, http.StatusUnauthorized},
	{auth.ErrInvalidAPIKey, http.StatusUnauthorized},

	{errForbidden, http.StatusForbidden},

	{order.ErrNotFound, http.StatusNotFound},
	{order.ErrNoOrders, http.StatusNotFound},
	{order.ErrCustomerNotFound, http.StatusNotFound},
	{order.ErrShopNotFound, http.StatusNotFound},
	{loyalty.ErrUserNotFound, http.StatusNotFound},
	{redeem.ErrOfferNotFound, http.StatusNotFound},
	{redeem.ErrUserNotFound, http.StatusNotFound},
	{redeem.ErrIssuanceNotFound, http.StatusNotFound},
	{catalog.ErrShopNotFound, http.StatusNotFound},
	{catalog.ErrUserNotFound, http.StatusNotFound},
	{catalog.ErrFavoriteNotFound, http.StatusNotFound},
	{user.ErrNotFound, http.StatusNotFound},
	{user.ErrLocationUnset, http.StatusNotFound},

	{redeem.ErrAlreadyRedeemed, http.StatusConflict},
	{redeem.ErrCodeTaken, http.StatusConflict},
	{redeem.ErrOfferInUse, http.StatusConflict},
	{auth.ErrEmailTaken, http.StatusConflict},
	{user.ErrReferenced, http.StatusConflict},
	{catalog.ErrShopReferenced, http.StatusConflict},
}

// classify returns the status and client-facing message for err.
func classify(err error) (int, string) {
	var (
		bad         *badRequestError
		badQty      *order.InvalidQuantityError
		badPrice    *order.InvalidPriceError
		mismatch    *order.TotalMismatchError
		itemMissing *catalog.ItemNotFoundError
		outOfStock  *catalog.InsufficientStockError
		lowBalance  *redeem.InsufficientBalanceError
	)
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, bad.Error()
	case errors.As(err, &badQty):
		return http.StatusBadRequest, badQty.Error()
	case errors.As(err, &badPrice):
		return http.StatusBadRequest, badPrice.Error()
	case errors.As(err, &itemMissing):
		return http.StatusNotFound, itemMissing.Error()
	case errors.As(err, &outOfStock):
		return http.StatusConflict, outOfStock.Error()
	case errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity, mismatch.Error()
	case errors.As(err, &lowBalance):
		return http.StatusUnprocessableEntity, lowBalance.Error()
	}
	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return s.status, s.err.Error()
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// fail writes the error response for err. Only 500s are logged here.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("http.path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, msg)
}
