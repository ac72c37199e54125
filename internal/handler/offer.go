package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/greenbite/internal/domain/redeem"
)

func (h *Handler) ListDeals(w http.ResponseWriter, r *http.Request) {
	h.listOffers(w, r, redeem.KindDeal)
}

func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	h.listOffers(w, r, redeem.KindCoupon)
}

func (h *Handler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	h.createOffer(w, r, redeem.KindDeal)
}

func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	h.createOffer(w, r, redeem.KindCoupon)
}

func (h *Handler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	h.deleteOffer(w, r, redeem.KindDeal)
}

func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	h.deleteOffer(w, r, redeem.KindCoupon)
}

func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request, kind redeem.Kind) {
	offers, err := h.svc.Redeem.ListOffers(r.Context(), kind)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeArr(e, offers, encodeOffer) })
}

func (h *Handler) createOffer(w http.ResponseWriter, r *http.Request, kind redeem.Kind) {
	o := redeem.Offer{Kind: kind}
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "title":
			o.Title, err = d.Str()
		case "icon":
			o.Icon, err = decodeOptionalStr(d)
		case "color":
			o.Color, err = decodeOptionalStr(d)
		case "cost":
			o.Cost, err = d.Int()
		case "discount":
			if d.Next() == jx.Null {
				return d.Null()
			}
			o.Discount, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}

	if err := h.svc.Redeem.CreateOffer(r.Context(), &o); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOffer(e, &o) })
}

func (h *Handler) deleteOffer(w http.ResponseWriter, r *http.Request, kind redeem.Kind) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.Redeem.DeleteOffer(r.Context(), kind, id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func encodeOffer(e *jx.Encoder, o *redeem.Offer) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("type")
	e.Str(string(o.Kind))
	e.FieldStart("title")
	e.Str(o.Title)
	e.FieldStart("icon")
	e.Str(o.Icon)
	e.FieldStart("color")
	e.Str(o.Color)
	e.FieldStart("cost")
	e.Int(o.Cost)
	if o.Kind == redeem.KindCoupon {
		e.FieldStart("discount")
		encodeDecimal(e, o.Discount)
	}
	e.ObjEnd()
}
