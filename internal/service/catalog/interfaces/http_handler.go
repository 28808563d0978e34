package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/smiles-unlimited/ufund/internal/service/catalog/application"
	"github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
)

// CatalogHandler exposes the catalog service over HTTP.
type CatalogHandler struct {
	service *application.CatalogService
}

func NewCatalogHandler(service *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes mounts all catalog routes plus the shared health and
// metrics endpoints.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("GET /toys", h.handleList)
	mux.HandleFunc("GET /toys/search", h.handleSearch)
	mux.HandleFunc("GET /toys/{id}", h.handleGet)
	mux.HandleFunc("POST /toys", h.handleCreate)
	mux.HandleFunc("PUT /toys", h.handleUpdate)
	mux.HandleFunc("DELETE /toys/{id}", h.handleDelete)
}

func (h *CatalogHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid toy id", http.StatusBadRequest)
		return
	}
	toy, err := h.service.GetToy(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toy)
}

func (h *CatalogHandler) handleList(w http.ResponseWriter, r *http.Request) {
	toys, err := h.service.ListToys(extract(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toys)
}

func (h *CatalogHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	toys, err := h.service.SearchToys(extract(r), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toys)
}

func (h *CatalogHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var toy domain.Toy
	if err := json.NewDecoder(r.Body).Decode(&toy); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateToy(extract(r), &toy)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, created)
}

func (h *CatalogHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var toy domain.Toy
	if err := json.NewDecoder(r.Body).Decode(&toy); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	updated, err := h.service.UpdateToy(extract(r), &toy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, updated)
}

func (h *CatalogHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid toy id", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteToy(extract(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
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
	case errors.Is(err, domain.ErrToyNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidToy):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientStock):
		statusCode = http.StatusConflict
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
