package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/shop"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// stockError is the body of a 409 response.
type stockError struct {
	Error     string `json:"error"`
	Item      string `json:"item"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// domainError maps the shop error taxonomy onto HTTP status codes.
// Anything outside the taxonomy is logged and reported as a 500.
func domainError(w http.ResponseWriter, err error, op string) {
	var stockErr *model.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		jsonResponse(w, http.StatusConflict, stockError{
			Error:     shop.Message(err),
			Item:      stockErr.ItemName,
			Available: stockErr.Available,
			Requested: stockErr.Requested,
		})
	case errors.Is(err, model.ErrInvalidInput):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		jsonError(w, http.StatusUnauthorized, err.Error())
	default:
		slog.Error("request failed", "op", op, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
