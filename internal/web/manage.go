package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/slascicarna/internal/imaging"
	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/store"
)

const manageURL = "/manage/"

// requireManager rejects callers below the manager role.
func requireManager(w http.ResponseWriter, r *http.Request) bool {
	claims := GetWebClaims(r.Context())
	if claims == nil || !model.RoleAtLeast(claims.Role, model.RoleManager) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// ManagePage handles GET /manage/.
func (s *Server) ManagePage(w http.ResponseWriter, r *http.Request) {
	if !requireManager(w, r) {
		return
	}

	pd := page(w, r, "Manage catalog")
	items, err := store.ListItems(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		pd.Error = "Failed to load the catalog."
	}

	s.Templates.Render(w, "manage.html", &struct {
		PageData
		Items []model.Item
	}{
		PageData: pd,
		Items:    items,
	})
}

// ItemCreateSubmit handles POST /manage/items/.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireManager(w, r) {
		return
	}
	claims := GetWebClaims(r.Context())

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	price, err := parsePrice(r.FormValue("price"))
	if err != nil {
		s.manageRedirect(w, r, flashError, "Please enter a valid price.")
		return
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil || quantity < 0 {
		s.manageRedirect(w, r, flashError, "Please enter a valid quantity.")
		return
	}

	item, err := store.CreateItem(r.Context(), s.DB, name, description, price, quantity)
	if err != nil {
		s.manageFailed(w, r, "create item", err)
		return
	}

	slog.Info("item created", "user", claims.Username, "item", item.Name,
		"price", item.Price.StringFixed(model.PriceScale), "quantity", item.QuantityAvailable)
	s.manageRedirect(w, r, flashSuccess, fmt.Sprintf("Added %s to the catalog.", item.Name))
}

// ItemUpdateSubmit handles POST /manage/items/{id}/.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireManager(w, r) {
		return
	}
	claims := GetWebClaims(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	price, err := parsePrice(r.FormValue("price"))
	if err != nil {
		s.manageRedirect(w, r, flashError, "Please enter a valid price.")
		return
	}

	if err := store.UpdateItem(r.Context(), s.DB, id, name, description, price); err != nil {
		s.manageFailed(w, r, "update item", err)
		return
	}

	slog.Info("item updated", "user", claims.Username, "item", name, "price", price.StringFixed(model.PriceScale))
	s.manageRedirect(w, r, flashSuccess, fmt.Sprintf("Saved %s.", name))
}

// ItemStockSubmit handles POST /manage/items/{id}/stock/. The delta may be
// negative for write-offs.
func (s *Server) ItemStockSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireManager(w, r) {
		return
	}
	claims := GetWebClaims(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	delta, err := strconv.Atoi(strings.TrimSpace(r.FormValue("delta")))
	if err != nil {
		s.manageRedirect(w, r, flashError, "Please enter a whole number.")
		return
	}

	available, err := store.Restock(r.Context(), s.DB, id, delta)
	if err != nil {
		s.manageFailed(w, r, "restock", err)
		return
	}

	slog.Info("item restocked", "user", claims.Username, "item", id, "delta", delta, "available", available)
	s.manageRedirect(w, r, flashSuccess, fmt.Sprintf("Stock is now %d.", available))
}

// ItemImageSubmit handles POST /manage/items/{id}/image/.
func (s *Server) ItemImageSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireManager(w, r) {
		return
	}
	claims := GetWebClaims(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		s.manageRedirect(w, r, flashError, "The image is too large.")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		s.manageRedirect(w, r, flashError, "Please choose an image.")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		s.manageRedirect(w, r, flashError, "Only JPEG and PNG images are supported.")
		return
	}

	if err := store.SetItemImage(r.Context(), s.DB, id, result.Data, result.MIME); err != nil {
		s.manageFailed(w, r, "save image", err)
		return
	}

	slog.Info("item image uploaded", "user", claims.Username, "item", id, "bytes", len(result.Data))
	s.manageRedirect(w, r, flashSuccess, "Image saved.")
}

// ItemDeleteSubmit handles POST /manage/items/{id}/delete/.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireManager(w, r) {
		return
	}
	claims := GetWebClaims(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := store.DeleteItem(r.Context(), s.DB, id); err != nil {
		s.manageFailed(w, r, "delete item", err)
		return
	}

	slog.Info("item deleted", "user", claims.Username, "item", id)
	s.manageRedirect(w, r, flashSuccess, "Item removed.")
}

func (s *Server) manageRedirect(w http.ResponseWriter, r *http.Request, kind, message string) {
	setFlash(w, kind, message)
	http.Redirect(w, r, manageURL, http.StatusSeeOther)
}

// manageFailed reports a store error back to the manage page.
func (s *Server) manageFailed(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		s.manageRedirect(w, r, flashError, "That item no longer exists.")
	case errors.Is(err, model.ErrInvalidInput):
		slog.Warn("rejected catalog change", "op", op, "error", err)
		s.manageRedirect(w, r, flashError, "Please check the values you entered.")
	default:
		slog.Error("catalog change failed", "op", op, "error", err)
		s.manageRedirect(w, r, flashError, "Something went wrong. Please try again.")
	}
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, err
	}
	return price.Round(model.PriceScale), nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}
