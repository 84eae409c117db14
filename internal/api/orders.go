package api

import (
	"encoding/json"
	"net/http"

	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/shop"
)

// OrdersHandler handles order placement and the order log.
type OrdersHandler struct {
	Shop *shop.Service
}

type placeOrderRequest struct {
	// Quantity is kept raw; both 3 and "3" are accepted.
	Quantity json.RawMessage `json:"quantity"`
}

type placeOrderResponse struct {
	Order     *model.Order `json:"order"`
	Message   string       `json:"message"`
	Remaining int          `json:"remaining"`
}

// rawQuantity returns the quantity as the text the customer entered.
// Validation is left to shop.ParseQuantity.
func (req placeOrderRequest) rawQuantity() string {
	var s string
	if err := json.Unmarshal(req.Quantity, &s); err == nil {
		return s
	}
	return string(req.Quantity)
}

// Place handles POST /api/items/{id}/orders.
func (h *OrdersHandler) Place(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	var user *shop.Identity
	if claims != nil {
		user = &shop.Identity{UserID: claims.UserID, Username: claims.Username}
	}

	placement, err := h.Shop.PlaceOrder(r.Context(), user, id, req.rawQuantity())
	if err != nil {
		domainError(w, err, "place order")
		return
	}

	jsonResponse(w, http.StatusCreated, placeOrderResponse{
		Order:     placement.Order,
		Message:   placement.Message(),
		Remaining: placement.Item.QuantityAvailable,
	})
}

// List handles GET /api/orders. Every order is returned in placement order.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Shop.Orders(r.Context())
	if err != nil {
		domainError(w, err, "list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Mine handles GET /api/orders/mine.
func (h *OrdersHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orders, err := h.Shop.UserOrders(r.Context(), claims.UserID)
	if err != nil {
		domainError(w, err, "list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}
