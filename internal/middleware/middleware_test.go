package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rpattn/bookstore/internal/domain"
	"github.com/rpattn/bookstore/internal/repository"
	"github.com/rpattn/bookstore/internal/typeloader"
)

func TestLoggingMiddleware_AssignsRequestIDAndLogsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var seen string
	handler := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/welcome", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(http.StatusTeapot), fields["status"])
		assert.Equal(t, "/welcome", fields["path"])
		assert.Equal(t, seen, fields["request_id"])
	}
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	handler := LoggingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

type stubTypes struct {
	repository.BookTypeRepository
	calls int
}

func (s *stubTypes) GetByIDs(ctx context.Context, ids []int64) ([]domain.BookType, error) {
	s.calls++
	out := make([]domain.BookType, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.BookType{ID: id, Name: "type"})
	}
	return out, nil
}

func TestDataLoaderMiddleware_AttachesLoader(t *testing.T) {
	repo := &stubTypes{}
	var loaded map[int64]domain.BookType
	handler := DataLoaderMiddleware(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loader := typeloader.FromContext(r.Context())
		if loader == nil {
			t.Fatalf("expected type loader in context")
		}
		var err error
		loaded, err = loader.LoadMany(r.Context(), []int64{1, 2, 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/books", nil))

	assert.Len(t, loaded, 2)
	assert.Equal(t, 1, repo.calls)
}
