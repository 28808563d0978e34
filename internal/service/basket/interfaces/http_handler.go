package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/smiles-unlimited/ufund/internal/service/basket/application"
	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
	catalog "github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
)

// BasketHandler exposes baskets, availability and checkout over HTTP.
type BasketHandler struct {
	service  *application.BasketService
	checkout *application.CheckoutOrchestrator
}

func NewBasketHandler(service *application.BasketService, checkout *application.CheckoutOrchestrator) *BasketHandler {
	return &BasketHandler{service: service, checkout: checkout}
}

func (h *BasketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /baskets/{userID}", h.handleGet)
	mux.HandleFunc("POST /baskets/{userID}/toys", h.handleAddToy)
	mux.HandleFunc("DELETE /baskets/{userID}/toys/{toyID}", h.handleRemoveToy)
	mux.HandleFunc("GET /baskets/{userID}/availability", h.handleAvailability)
	mux.HandleFunc("POST /baskets/{userID}/checkout", h.handleCheckout)
}

func (h *BasketHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(w, r, "userID")
	if !ok {
		return
	}
	basket, err := h.service.GetBasket(extract(r), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, basket)
}

type addToyRequest struct {
	ToyID    int `json:"toyId"`
	Quantity int `json:"quantity"`
}

func (h *BasketHandler) handleAddToy(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(w, r, "userID")
	if !ok {
		return
	}
	var req addToyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	basket, err := h.service.AddToy(extract(r), userID, req.ToyID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, basket)
}

func (h *BasketHandler) handleRemoveToy(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(w, r, "userID")
	if !ok {
		return
	}
	toyID, ok := pathInt(w, r, "toyID")
	if !ok {
		return
	}
	basket, err := h.service.RemoveToy(extract(r), userID, toyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, basket)
}

func (h *BasketHandler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(w, r, "userID")
	if !ok {
		return
	}
	toyID, err := strconv.Atoi(r.URL.Query().Get("toyId"))
	if err != nil {
		http.Error(w, "invalid toyId", http.StatusBadRequest)
		return
	}
	max, err := h.service.MaxAddable(extract(r), userID, toyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int{"maxAddable": max})
}

// handleCheckout always answers 200 with the full report when the basket
// resolved; per-line failures are part of the report, not HTTP errors.
func (h *BasketHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(w, r, "userID")
	if !ok {
		return
	}
	email := r.URL.Query().Get("email")
	report, err := h.checkout.Checkout(extract(r), userID, email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, report)
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrBasketNotFound),
		errors.Is(err, domain.ErrLineNotFound),
		errors.Is(err, catalog.ErrToyNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity):
		statusCode = http.StatusBadRequest
	case errors.Is(err, catalog.ErrInsufficientStock):
		statusCode = http.StatusConflict
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
