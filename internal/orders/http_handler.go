package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/schema"

	"github.com/rpattn/bookstore/internal/auth"
	"github.com/rpattn/bookstore/internal/domain"
)

// Handler exposes orders under /api/orders.
type Handler struct {
	service *Service
	decoder *schema.Decoder
}

func NewHTTPHandler(service *Service) http.Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{service: service, decoder: decoder}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/orders"), "/")
	parts := strings.Split(rest, "/")
	switch {
	case r.Method == http.MethodGet && rest == "":
		h.handleList(w, r)
	case r.Method == http.MethodGet && rest == "statuses":
		h.handleStatuses(w, r)
	case r.Method == http.MethodGet && len(parts) == 1:
		h.handleGet(w, r, parts[0])
	case r.Method == http.MethodPut && len(parts) == 2 && parts[1] == "status":
		h.handleUpdateStatus(w, r, parts[0])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type listQuery struct {
	Limit  int `schema:"limit"`
	Offset int `schema:"offset"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var q listQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		http.Error(w, fmt.Sprintf("invalid query: %v", err), http.StatusBadRequest)
		return
	}
	orders, err := h.service.List(r.Context(), q.Limit, q.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.Statuses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid order id: %v", err), http.StatusBadRequest)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type statusPayload struct {
	StatusID int64 `json:"status_id"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request, rawID string) {
	defer r.Body.Close()
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid order id: %v", err), http.StatusBadRequest)
		return
	}
	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	if payload.StatusID <= 0 {
		http.Error(w, "status_id is required", http.StatusBadRequest)
		return
	}
	change, err := h.service.UpdateStatus(r.Context(), id, payload.StatusID, auth.UsernameFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
