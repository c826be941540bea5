package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/rpattn/bookstore/internal/auth"
	"github.com/rpattn/bookstore/internal/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler exposes the inventory under /api/books.
type Handler struct {
	service  *Service
	decoder  *schema.Decoder
	validate *validator.Validate
}

func NewHTTPHandler(service *Service) http.Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{service: service, decoder: decoder, validate: validator.New()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/books"), "/")
	parts := strings.Split(rest, "/")
	switch {
	case r.Method == http.MethodGet && rest == "":
		h.handleList(w, r)
	case r.Method == http.MethodGet && rest == "export":
		h.handleExport(w, r)
	case r.Method == http.MethodPatch && len(parts) == 2 && parts[1] == "stock":
		h.handleUpdateStock(w, r, parts[0])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type listQuery struct {
	Search    string `schema:"search" validate:"max=200"`
	TypeID    *int64 `schema:"type_id" validate:"omitempty,gt=0"`
	Sort      string `schema:"sort" validate:"omitempty,oneof=name price quantity updated_on"`
	Direction string `schema:"direction" validate:"omitempty,oneof=asc desc"`
	Limit     int    `schema:"limit" validate:"gte=0,lte=500"`
	Offset    int    `schema:"offset" validate:"gte=0"`
}

func (q listQuery) filter() domain.BookFilter {
	return domain.BookFilter{
		Search: q.Search,
		TypeID: q.TypeID,
		Sort: domain.BookSort{
			Field:     domain.BookSortField(q.Sort),
			Direction: domain.SortDirection(q.Direction),
		},
		Limit:  q.Limit,
		Offset: q.Offset,
	}
}

func (h *Handler) decodeQuery(r *http.Request) (listQuery, error) {
	var q listQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		return q, err
	}
	return q, h.validate.Struct(q)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := h.decodeQuery(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid query: %v", err), http.StatusBadRequest)
		return
	}
	page, err := h.service.List(r.Context(), q.filter())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	q, err := h.decodeQuery(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid query: %v", err), http.StatusBadRequest)
		return
	}
	data, err := h.service.Export(r.Context(), q.filter())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleUpdateStock(w http.ResponseWriter, r *http.Request, rawID string) {
	defer r.Body.Close()
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid book id: %v", err), http.StatusBadRequest)
		return
	}
	var update domain.StockUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	book, err := h.service.UpdateStock(r.Context(), id, update, auth.UsernameFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errInvalidUpdate):
		http.Error(w, err.Error(), http.StatusBadRequest)
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
