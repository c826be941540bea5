package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rpattn/bookstore/internal/domain"
	"github.com/rpattn/bookstore/internal/repository"
	"github.com/rpattn/bookstore/internal/typeloader"
)

var errInvalidUpdate = errors.New("invalid stock update")

// Service manages the book inventory.
type Service struct {
	repo     repository.BookRepository
	types    repository.BookTypeRepository
	validate *validator.Validate
	logger   *zap.Logger
	pageSize int
	now      func() time.Time
}

type Option func(*Service)

// WithExportPageSize sets how many books an export fetches per query.
func WithExportPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo repository.BookRepository, types repository.BookTypeRepository, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		types:    types,
		validate: validator.New(),
		logger:   logger,
		pageSize: 500,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Page is one page of an inventory listing.
type Page struct {
	Books []domain.Book `json:"books"`
	Total int           `json:"total"`
}

func (s *Service) List(ctx context.Context, filter domain.BookFilter) (Page, error) {
	books, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	if books == nil {
		books = []domain.Book{}
	}
	if err := s.resolveTypeNames(ctx, books); err != nil {
		return Page{}, err
	}
	return Page{Books: books, Total: total}, nil
}

// resolveTypeNames fills in book type names, batching through the request's
// type loader or a fresh one when the request carries none.
func (s *Service) resolveTypeNames(ctx context.Context, books []domain.Book) error {
	loader := typeloader.FromContext(ctx)
	if loader == nil {
		loader = typeloader.NewTypeLoader(s.types)
	}
	return loader.ResolveNames(ctx, books)
}

// UpdateStock applies a price or quantity change and records who made it.
func (s *Service) UpdateStock(ctx context.Context, id int64, update domain.StockUpdate, username string) (domain.Book, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Book{}, fmt.Errorf("%w: username is required", errInvalidUpdate)
	}
	if update.Empty() {
		return domain.Book{}, fmt.Errorf("%w: nothing to change", errInvalidUpdate)
	}
	if err := s.validate.Struct(update); err != nil {
		return domain.Book{}, fmt.Errorf("%w: %v", errInvalidUpdate, err)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Book{}, err
	}
	updated, err := s.repo.UpdateStock(ctx, current.WithStock(update, username, s.now().UTC()))
	if err != nil {
		return domain.Book{}, err
	}

	resolved := []domain.Book{updated}
	if err := s.resolveTypeNames(ctx, resolved); err != nil {
		s.logger.Warn("failed to resolve book type name", zap.Int64("book_id", id), zap.Error(err))
	}
	updated = resolved[0]

	s.logger.Info("book stock updated",
		zap.Int64("book_id", id),
		zap.Float64("price", updated.Price),
		zap.Int("quantity", updated.Quantity),
		zap.String("by", username),
	)
	return updated, nil
}
