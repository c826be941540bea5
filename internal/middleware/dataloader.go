package middleware

import (
	"net/http"

	"github.com/rpattn/bookstore/internal/repository"
	"github.com/rpattn/bookstore/internal/typeloader"
)

// DataLoaderMiddleware attaches a fresh book type loader to every request
func DataLoaderMiddleware(repo repository.BookTypeRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := typeloader.NewTypeLoader(repo)
			ctx := typeloader.WithTypeLoader(r.Context(), loader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
