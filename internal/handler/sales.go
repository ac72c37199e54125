package handler

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/go-faster/jx"
)

// TotalSales sums order totals for ?shopId= between startDate and endDate.
func (h *Handler) TotalSales(w http.ResponseWriter, r *http.Request) {
	shopID, err := queryID(r, "shopId")
	if err != nil {
		fail(w, r, err)
		return
	}
	from, to, err := queryPeriod(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	total, err := h.svc.Sales.TotalSales(r.Context(), shopID, from, to)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeDecimal(e, total) })
}

func (h *Handler) TotalSalesAllShops(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryPeriod(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	total, err := h.svc.Sales.TotalSalesAllShops(r.Context(), from, to)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeDecimal(e, total) })
}

// ItemSales returns revenue per food item id as a JSON object.
func (h *Handler) ItemSales(w http.ResponseWriter, r *http.Request) {
	shopID, err := queryID(r, "shopId")
	if err != nil {
		fail(w, r, err)
		return
	}
	from, to, err := queryPeriod(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	revenue, err := h.svc.Sales.ItemRevenue(r.Context(), shopID, from, to)
	if err != nil {
		fail(w, r, err)
		return
	}

	ids := make([]int64, 0, len(revenue))
	for id := range revenue {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		for _, id := range ids {
			e.FieldStart(strconv.FormatInt(id, 10))
			encodeDecimal(e, revenue[id])
		}
		e.ObjEnd()
	})
}
