package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/greenbite/internal/domain/redeem"
)

// Inventory lists every code the user has bought, redeemed ones included.
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err == nil {
		err = authorizeUser(r, userID)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	entries, err := h.svc.Redeem.ListForUser(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeArr(e, entries, encodeInventoryEntry) })
}

func (h *Handler) PurchaseDeal(w http.ResponseWriter, r *http.Request) {
	h.purchase(w, r, redeem.KindDeal, "dealId")
}

func (h *Handler) PurchaseCoupon(w http.ResponseWriter, r *http.Request) {
	h.purchase(w, r, redeem.KindCoupon, "couponId")
}

// purchase spends greenBite points on one offer. offerField names the body
// field carrying the offer id.
func (h *Handler) purchase(w http.ResponseWriter, r *http.Request, kind redeem.Kind, offerField string) {
	req := redeem.PurchaseRequest{Kind: kind}
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "userId":
			req.UserID, err = d.Int64()
		case offerField:
			req.OfferID, err = d.Int64()
		case "couponCode":
			req.Code, err = decodeOptionalStr(d)
			req.Code = strings.TrimSpace(req.Code)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	if req.OfferID <= 0 {
		fail(w, r, badRequest("%s must be a positive integer", offerField))
		return
	}
	if err := authorizeUser(r, req.UserID); err != nil {
		fail(w, r, err)
		return
	}

	is, err := h.svc.Redeem.Purchase(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.metrics.purchased(r.Context(), kind)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeIssuance(e, is) })
}

// RedeemCoupon consumes a code. A code can be redeemed exactly once.
func (h *Handler) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	var code string
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "couponCode" {
			return d.Skip()
		}
		s, err := decodeOptionalStr(d)
		code = strings.TrimSpace(s)
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}

	is, err := h.svc.Redeem.Redeem(r.Context(), code)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.metrics.redeemed(r.Context(), is.Kind)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeIssuance(e, is) })
}

func encodeIssuance(e *jx.Encoder, is *redeem.Issuance) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(is.ID)
	e.FieldStart("userId")
	e.Int64(is.UserID)
	e.FieldStart("offerId")
	e.Int64(is.OfferID)
	e.FieldStart("type")
	e.Str(string(is.Kind))
	e.FieldStart("title")
	e.Str(is.OfferTitle)
	e.FieldStart("couponCode")
	e.Str(is.Code)
	e.FieldStart("discount")
	encodeDecimal(e, is.Discount)
	e.FieldStart("active")
	e.Bool(is.Active)
	e.FieldStart("createdAt")
	encodeTime(e, is.CreatedAt)
	if is.RedeemedAt != nil {
		e.FieldStart("redeemedAt")
		encodeTime(e, *is.RedeemedAt)
	}
	e.ObjEnd()
}

// encodeInventoryEntry keeps the per-kind name key mobile clients read
// (deal_name or coupon_name).
func encodeInventoryEntry(e *jx.Encoder, en *redeem.InventoryEntry) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str(string(en.Kind))
	e.FieldStart(string(en.Kind) + "_name")
	e.Str(en.Name)
	e.FieldStart("coupon_code")
	e.Str(en.Code)
	e.FieldStart("discount")
	encodeDecimal(e, en.Discount)
	e.FieldStart("redeemed")
	e.Bool(en.Redeemed)
	e.ObjEnd()
}
