package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/greenbite/internal/domain/catalog"
)

func (h *Handler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var (
		shop     catalog.Shop
		lat, lon *float64
	)
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			shop.Name, err = d.Str()
		case "address":
			shop.Address, err = decodeOptionalStr(d)
		case "phoneNumber", "tele_number":
			shop.PhoneNumber, err = decodeOptionalStr(d)
		case "email":
			shop.Email, err = decodeOptionalStr(d)
		case "businessName":
			shop.BusinessName, err = decodeOptionalStr(d)
		case "businessDescription":
			shop.BusinessDescription, err = decodeOptionalStr(d)
		case "photo":
			shop.Photo, err = decodeOptionalStr(d)
		case "licenseExpiresAt":
			if d.Next() == jx.Null {
				return d.Null()
			}
			at, derr := decodeTime(d)
			shop.LicenseExpiresAt, err = &at, derr
		case "latitude":
			lat, err = decodeOptionalFloat(d)
		case "longitude":
			lon, err = decodeOptionalFloat(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	loc, err := locationOf(lat, lon)
	if err != nil {
		fail(w, r, err)
		return
	}
	shop.Location = loc

	if err := h.svc.Catalog.CreateShop(r.Context(), &shop); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeShop(e, &shop) })
}

func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	shop, err := h.svc.Catalog.GetShop(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeShop(e, shop) })
}

func (h *Handler) ListShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.svc.Catalog.ListShops(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeArr(e, shops, encodeShop) })
}

func (h *Handler) DeleteShop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.Catalog.DeleteShop(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "food shop deleted")
}

// ExpiredShops lists shops whose licence ran out before today.
func (h *Handler) ExpiredShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.svc.Catalog.ExpiredShops(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeArr(e, shops, encodeShop) })
}

// NearExpiryShops lists shops whose licence ends within the configured
// window.
func (h *Handler) NearExpiryShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.svc.Catalog.ExpiringShops(r.Context(), h.expiryWindow)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeArr(e, shops, encodeShop) })
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var (
		it       catalog.Item
		lat, lon *float64
	)
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "shopId":
			it.ShopID, err = d.Int64()
		case "name":
			it.Name, err = d.Str()
		case "description":
			it.Description, err = decodeOptionalStr(d)
		case "price":
			it.Price, err = decodeDecimal(d)
		case "quantity":
			it.Quantity, err = d.Int()
		case "photo":
			it.Photo, err = decodeOptionalStr(d)
		case "tags":
			it.Tags, err = decodeStrings(d)
		case "category":
			it.Category, err = decodeOptionalStr(d)
		case "latitude":
			lat, err = decodeOptionalFloat(d)
		case "longitude":
			lon, err = decodeOptionalFloat(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	loc, err := locationOf(lat, lon)
	if err != nil {
		fail(w, r, err)
		return
	}
	it.Location = loc

	if err := h.svc.Catalog.CreateItem(r.Context(), &it); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeItem(e, &it) })
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	h.listItems(w, r, catalog.ItemFilter{})
}

func (h *Handler) ListItemsByShop(w http.ResponseWriter, r *http.Request) {
	shopID, err := pathID(r, "shopId")
	if err != nil {
		fail(w, r, err)
		return
	}
	h.listItems(w, r, catalog.ItemFilter{ShopID: shopID})
}

func (h *Handler) ListItemsByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := url.PathUnescape(chi.URLParam(r, "category"))
	if err != nil {
		fail(w, r, badRequest("category: %v", err))
		return
	}
	h.listItems(w, r, catalog.ItemFilter{Category: category})
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request, f catalog.ItemFilter) {
	items, err := h.svc.Catalog.ListItems(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeArr(e, items, encodeItem) })
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.Catalog.DeleteItem(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeOptionalFloat(d *jx.Decoder) (*float64, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := d.Float64()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// locationOf pairs optional coordinates. Both or neither must be given.
func locationOf(lat, lon *float64) (*catalog.Location, error) {
	switch {
	case lat == nil && lon == nil:
		return nil, nil
	case lat == nil || lon == nil:
		return nil, badRequest("latitude and longitude must be given together")
	}
	return &catalog.Location{Latitude: *lat, Longitude: *lon}, nil
}

func encodeLocation(e *jx.Encoder, loc *catalog.Location) {
	if loc == nil {
		return
	}
	e.FieldStart("latitude")
	e.Float64(loc.Latitude)
	e.FieldStart("longitude")
	e.Float64(loc.Longitude)
}

func encodeShop(e *jx.Encoder, s *catalog.Shop) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(s.ID)
	e.FieldStart("name")
	e.Str(s.Name)
	e.FieldStart("address")
	e.Str(s.Address)
	e.FieldStart("phoneNumber")
	e.Str(s.PhoneNumber)
	e.FieldStart("email")
	e.Str(s.Email)
	e.FieldStart("businessName")
	e.Str(s.BusinessName)
	e.FieldStart("businessDescription")
	e.Str(s.BusinessDescription)
	e.FieldStart("photo")
	e.Str(s.Photo)
	if s.LicenseExpiresAt != nil {
		e.FieldStart("licenseExpiresAt")
		encodeTime(e, *s.LicenseExpiresAt)
	}
	encodeLocation(e, s.Location)
	e.ObjEnd()
}

func encodeItem(e *jx.Encoder, it *catalog.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(it.ID)
	e.FieldStart("shopId")
	e.Int64(it.ShopID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("description")
	e.Str(it.Description)
	e.FieldStart("price")
	encodeDecimal(e, it.Price)
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("photo")
	e.Str(it.Photo)
	e.FieldStart("tags")
	e.ArrStart()
	for _, t := range it.Tags {
		e.Str(t)
	}
	e.ArrEnd()
	e.FieldStart("category")
	e.Str(it.Category)
	encodeLocation(e, it.Location)
	e.ObjEnd()
}
