package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the API under /api. extra is mounted as-is at the root, for
// health endpoints.
func Routes(h *Handler, sec *SecurityHandler, extra map[string]http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	for path, fn := range extra {
		r.Get(path, fn)
	}

	r.Route("/api", func(r chi.Router) {
		// Public.
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Get("/deals", h.ListDeals)
		r.Get("/coupons", h.ListCoupons)
		r.Get("/shop/all", h.ListShops)
		r.Get("/shop/{id}", h.GetShop)
		r.Get("/food-items/get", h.ListItems)
		r.Get("/food-items/shop/{shopId}", h.ListItemsByShop)
		r.Get("/food-items/category/{category}", h.ListItemsByCategory)

		// Any authenticated caller. Self-or-admin is checked per handler.
		r.Group(func(r chi.Router) {
			r.Use(sec.RequireAuth)

			r.Post("/orders/confirm", h.ConfirmOrder)
			r.Get("/orders/user_orders/{userId}", h.ListCustomerOrders)
			r.Get("/orders/total_calories/{userId}", h.TotalCalories)

			r.Get("/users/points", h.Points)
			r.Put("/users/updateLocation", h.UpdateLocation)
			r.Get("/users/location/{userId}", h.GetLocation)
			r.Get("/users/{id}", h.GetUser)
			r.Put("/users/{id}", h.UpdateProfile)

			r.Post("/favorites/add", h.AddFavorite)
			r.Get("/favorites/user/{userId}", h.ListFavorites)
			r.Delete("/favorites/remove/{userId}/{foodItemId}", h.RemoveFavorite)

			r.Get("/user/inventory/{userId}", h.Inventory)
			r.Post("/user/inventory/purchase-deal", h.PurchaseDeal)
			r.Post("/user/inventory/purchase-coupon", h.PurchaseCoupon)
			r.Post("/user/inventory/redeem-coupon", h.RedeemCoupon)
		})

		r.Group(func(r chi.Router) {
			r.Use(sec.RequireAdmin)

			r.Get("/orders/latest", h.LatestOrder)
			r.Get("/orders/shop_order/{shopId}", h.ListShopOrders)
			r.Put("/orders/{orderId}/status", h.UpdateOrderStatus)

			r.Post("/users/add-points", h.AddPoints)

			r.Post("/admin/deals", h.CreateDeal)
			r.Post("/admin/coupons", h.CreateCoupon)
			r.Delete("/admin/deals/{id}", h.DeleteDeal)
			r.Delete("/admin/coupons/{id}", h.DeleteCoupon)
			r.Get("/admin/listUsers", h.ListUsers)
			r.Delete("/admin/deleteUser/{userId}", h.DeleteUser)
			r.Get("/admin/expiredFoodShops", h.ExpiredShops)
			r.Get("/admin/nearExpiryFoodShops", h.NearExpiryShops)
			r.Delete("/admin/deleteFoodShop/{id}", h.DeleteShop)

			r.Post("/shop/add", h.CreateShop)
			r.Post("/food-items/list-food-item", h.CreateItem)
			r.Delete("/food-items/{id}", h.DeleteItem)

			r.Get("/sales/total", h.TotalSales)
			r.Get("/sales/total-all", h.TotalSalesAllShops)
			r.Get("/sales/itemsales-shopid", h.ItemSales)
		})
	})
	return r
}
