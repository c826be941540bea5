package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"github.com/rpattn/bookstore/internal/auth"
	"github.com/rpattn/bookstore/internal/domain"
	"github.com/rpattn/bookstore/internal/middleware"
)

// Handler serves the console pages: index, welcome dashboard, privacy,
// signed-out and error pages.
type Handler struct {
	service  *Service
	views    views
	decoder  *schema.Decoder
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHTTPHandler wraps the service with the console page routes.
func NewHTTPHandler(service *Service, logger *zap.Logger) (*Handler, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{
		service:  service,
		views:    v,
		decoder:  decoder,
		validate: validator.New(),
		logger:   logger,
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "", "/index":
		h.renderPage(w, r, http.StatusOK, "index", pageData{Title: "Home"})
	case "/welcome":
		h.handleWelcome(w, r)
	case "/privacy":
		h.renderPage(w, r, http.StatusOK, "privacy", pageData{Title: "Privacy Policy"})
	case "/logout":
		h.renderPage(w, r, http.StatusOK, "logout", pageData{Title: "Signed out"})
	case "/error":
		h.renderError(w, r, http.StatusInternalServerError)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type welcomeQuery struct {
	SortByValue string `schema:"sortByValue"`
	MinRange    *int   `schema:"minRange" validate:"omitempty,gte=0,lte=365"`
	MaxRange    *int   `schema:"maxRange" validate:"omitempty,gte=0,lte=365"`
}

func (h *Handler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	var query welcomeQuery
	if err := h.decoder.Decode(&query, r.URL.Query()); err != nil {
		http.Error(w, fmt.Sprintf("invalid query: %v", err), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(query); err != nil {
		http.Error(w, fmt.Sprintf("invalid query: %v", err), http.StatusBadRequest)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	req := ProjectRequest{
		Username: user.Username,
		MinRange: query.MinRange,
		MaxRange: query.MaxRange,
		Sort:     query.SortByValue,
	}
	minRange, maxRange := h.service.DateWindow(req)
	if minRange > maxRange {
		http.Error(w, "minRange must not exceed maxRange", http.StatusBadRequest)
		return
	}

	updates, err := h.service.Project(r.Context(), req)
	if err != nil {
		var partial *domain.PartialDataError
		if !errors.As(err, &partial) {
			h.logger.Error("failed to project dashboard", zap.Error(err))
		}
		if wantsJSON(r) {
			http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
			return
		}
		h.renderError(w, r, http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, updates)
		return
	}
	h.renderPage(w, r, http.StatusOK, "welcome", pageData{
		Title:    "Dashboard",
		Updates:  updates,
		MinRange: minRange,
		MaxRange: maxRange,
	})
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int) {
	w.Header().Set("Cache-Control", "no-store")
	h.renderPage(w, r, status, "error", pageData{
		Title:     "Error",
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	data.User, _ = auth.UserFromContext(r.Context())
	if err := h.views.render(w, status, page, data); err != nil {
		h.logger.Error("failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
