package inventory

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/bookstore/internal/auth"
	"github.com/rpattn/bookstore/internal/domain"
)

func TestHandler_List(t *testing.T) {
	repo := &fakeBooks{books: sampleBooks(3)}
	h := NewHTTPHandler(newTestService(repo))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books?search=Book&sort=price&direction=desc&type_id=2&limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total": 3`)
	require.Len(t, repo.filters, 1)
	got := repo.filters[0]
	assert.Equal(t, domain.BookSort{Field: domain.BookSortFieldPrice, Direction: domain.SortDirectionDesc}, got.Sort)
	require.NotNil(t, got.TypeID)
	assert.Equal(t, int64(2), *got.TypeID)
	assert.Equal(t, 2, got.Limit)
}

func TestHandler_RejectsUnknownSort(t *testing.T) {
	h := NewHTTPHandler(newTestService(&fakeBooks{}))

	for _, target := range []string{
		"/api/books?sort=isbn",
		"/api/books?sort=price&direction=sideways",
		"/api/books/export?sort=author",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandler_UpdateStock(t *testing.T) {
	repo := &fakeBooks{books: sampleBooks(1)}
	h := NewHTTPHandler(newTestService(repo))

	req := httptest.NewRequest(http.MethodPatch, "/api/books/1/stock", strings.NewReader(`{"price": 19.5}`))
	req = req.WithContext(auth.ContextWithUser(req.Context(), auth.User{Username: "jdoe"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 19.5, repo.books[0].Price)
	assert.Equal(t, "jdoe", repo.books[0].UpdatedBy)

	rec = httptest.NewRecorder()
	empty := httptest.NewRequest(http.MethodPatch, "/api/books/1/stock", strings.NewReader(`{}`))
	empty = empty.WithContext(auth.ContextWithUser(empty.Context(), auth.User{Username: "jdoe"}))
	h.ServeHTTP(rec, empty)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	missing := httptest.NewRequest(http.MethodPatch, "/api/books/9/stock", strings.NewReader(`{"quantity": 1}`))
	missing = missing.WithContext(auth.ContextWithUser(missing.Context(), auth.User{Username: "jdoe"}))
	h.ServeHTTP(rec, missing)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Export(t *testing.T) {
	h := NewHTTPHandler(newTestService(&fakeBooks{books: sampleBooks(2)}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}
