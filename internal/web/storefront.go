package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/shop"
	"github.com/erazemk/slascicarna/internal/store"
)

const defaultOrderQuantity = "1"

// Home handles GET /. The catalog is public; the order form is only shown
// to logged-in visitors.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	pd := page(w, r, "Sweets")
	items, err := s.Shop.Catalog(r.Context())
	if err != nil {
		slog.Error("failed to list items", "error", err)
		pd.Error = shop.GenericErrorMessage
	}

	s.Templates.Render(w, "home.html", &struct {
		PageData
		Items        []model.Item
		EmptyMessage string
	}{
		PageData:     pd,
		Items:        items,
		EmptyMessage: shop.EmptyCatalogMessage,
	})
}

// PlaceOrderSubmit handles POST /order/{id}/. The outcome is reported as a
// flash message on the catalog page.
func (s *Server) PlaceOrderSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		setFlash(w, flashError, shop.NotFoundMessage)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	placement, err := s.Shop.PlaceOrder(r.Context(), identity(claims), id, orderQuantity(r))
	switch {
	case err == nil:
		setFlash(w, flashSuccess, placement.Message())
	case shop.IsRejection(err):
		setFlash(w, flashError, shop.Message(err))
	default:
		slog.Error("failed to place order", "user", claims.Username, "item", id, "error", err)
		setFlash(w, flashError, shop.GenericErrorMessage)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// orderQuantity returns the submitted quantity field. A form without the
// field orders a single unit; a present but empty field is left for
// validation to reject.
func orderQuantity(r *http.Request) string {
	raw := r.FormValue("quantity")
	if _, ok := r.PostForm["quantity"]; !ok {
		return defaultOrderQuantity
	}
	return raw
}

// OrdersPage handles GET /orders/.
func (s *Server) OrdersPage(w http.ResponseWriter, r *http.Request) {
	pd := page(w, r, "Orders")
	orders, err := s.Shop.Orders(r.Context())
	if err != nil {
		slog.Error("failed to list orders", "error", err)
		pd.Error = shop.GenericErrorMessage
	}

	s.Templates.Render(w, "orders.html", &struct {
		PageData
		Orders []model.Order
	}{
		PageData: pd,
		Orders:   orders,
	})
}

// ItemImageGet handles GET /items/{id}/image.
func (s *Server) ItemImageGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
