package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/smiles-unlimited/ufund/internal/service/user/application"
	"github.com/smiles-unlimited/ufund/internal/service/user/domain"
)

// UserHandler exposes accounts and the partnership workflow over HTTP.
type UserHandler struct {
	service *application.UserService
}

func NewUserHandler(service *application.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /users", h.handleList)
	mux.HandleFunc("GET /users/{id}", h.handleGet)
	mux.HandleFunc("POST /users", h.handleCreate)
	mux.HandleFunc("PUT /users", h.handleUpdate)
	mux.HandleFunc("DELETE /users/{id}", h.handleDelete)

	mux.HandleFunc("POST /partnership/apply", h.handleApply)
	mux.HandleFunc("POST /partnership/accept", h.handleAccept)
	mux.HandleFunc("GET /partnership/applicants", h.handleListApplicants)
	mux.HandleFunc("GET /partnership/partners", h.handleListPartners)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	user, err := h.service.GetUser(extract(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, user)
}

// handleList resolves ?name= as an exact lookup and ?search= as a substring
// search; with neither it returns all users.
func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	if name := r.URL.Query().Get("name"); name != "" {
		user, err := h.service.GetUserByName(ctx, name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, user)
		return
	}
	if search := r.URL.Query().Get("search"); search != "" {
		users, err := h.service.SearchUsers(ctx, search)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, users)
		return
	}
	users, err := h.service.ListUsers(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, users)
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateUser(extract(r), &user)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, created)
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	updated, err := h.service.UpdateUser(extract(r), &user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, updated)
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteUser(extract(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) handleApply(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}
	if err := h.service.Apply(extract(r), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) handleAccept(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}
	if err := h.service.Accept(extract(r), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) handleListApplicants(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListApplicants(extract(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, ids)
}

func (h *UserHandler) handleListPartners(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListPartners(extract(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, ids)
}

func queryUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, err := strconv.Atoi(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "invalid userId", http.StatusBadRequest)
		return 0, false
	}
	return userID, true
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
	case errors.Is(err, domain.ErrUserNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidUser):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateApplication),
		errors.Is(err, domain.ErrAlreadyPartner),
		errors.Is(err, domain.ErrDuplicateName):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrNotApplicant):
		statusCode = http.StatusNotFound
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
