package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/greenbite/internal/domain/order"
)

// ConfirmOrder places an order for the customer named in the body.
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	var req order.CreateOrderRequest
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "customerId":
			req.CustomerID, err = d.Int64()
		case "shopId":
			req.ShopID, err = d.Int64()
		case "paymentMethod":
			req.PaymentMethod, err = decodeOptionalStr(d)
		case "items":
			req.Items, err = decodeOrderItems(d)
		case "totalAmount":
			if d.Next() == jx.Null {
				return d.Null()
			}
			total, derr := decodeDecimal(d)
			req.TotalAmount, err = &total, derr
		case "totalCalories":
			req.TotalCalories, err = d.Float64()
		case "latitude":
			req.Latitude, err = d.Float64()
		case "longitude":
			req.Longitude, err = d.Float64()
		case "orderDate":
			if d.Next() == jx.Null {
				return d.Null()
			}
			at, derr := decodeTime(d)
			req.OrderDate, err = &at, derr
		default:
			err = d.Skip()
		}
		if err != nil {
			return badRequest("%s: %v", key, err)
		}
		return nil
	}); err != nil {
		fail(w, r, err)
		return
	}
	if err := authorizeUser(r, req.CustomerID); err != nil {
		fail(w, r, err)
		return
	}

	o, err := h.svc.Orders.CreateOrder(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.metrics.orderCreated(r.Context())
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// decodeOrderItems reads the cart. Display fields a client echoes back
// (name, photo, tags and so on) are ignored; only id, quantity and price
// are taken.
func decodeOrderItems(d *jx.Decoder) ([]order.LineItem, error) {
	var items []order.LineItem
	err := d.Arr(func(d *jx.Decoder) error {
		var it order.LineItem
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				it.FoodItemID, err = d.Int64()
			case "quantity":
				it.Quantity, err = d.Int()
			case "price":
				it.Price, err = decodeDecimal(d)
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

// LatestOrder returns the most recent order across all shops.
func (h *Handler) LatestOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.Latest(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) ListShopOrders(w http.ResponseWriter, r *http.Request) {
	shopID, err := pathID(r, "shopId")
	if err != nil {
		fail(w, r, err)
		return
	}
	orders, err := h.svc.Orders.ListByShop(r.Context(), shopID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeArr(e, orders, encodeOrder) })
}

func (h *Handler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err == nil {
		err = authorizeUser(r, userID)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	orders, err := h.svc.Orders.ListByCustomer(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeArr(e, orders, encodeOrder) })
}

// TotalCalories sums calories over the customer's orders. No orders is 0.
func (h *Handler) TotalCalories(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err == nil {
		err = authorizeUser(r, userID)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	total, err := h.svc.Orders.TotalCalories(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { e.Float64(total) })
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		fail(w, r, err)
		return
	}
	var status string
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		s, err := d.Str()
		status = strings.TrimSpace(s)
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}

	o, err := h.svc.Orders.UpdateStatus(r.Context(), orderID, status)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("customerId")
	e.Int64(o.CustomerID)
	e.FieldStart("shopId")
	e.Int64(o.ShopID)
	e.FieldStart("paymentMethod")
	e.Str(o.PaymentMethod)
	e.FieldStart("status")
	e.Str(o.Status)
	e.FieldStart("totalAmount")
	encodeDecimal(e, o.TotalAmount)
	e.FieldStart("totalCalories")
	e.Float64(o.TotalCalories)
	e.FieldStart("orderDate")
	encodeTime(e, o.OrderDate)
	e.FieldStart("latitude")
	e.Float64(o.Latitude)
	e.FieldStart("longitude")
	e.Float64(o.Longitude)
	e.FieldStart("orderedItemsJson")
	e.Str(string(o.ItemsJSON))
	e.ObjEnd()
}
