package booktypes

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rpattn/bookstore/internal/domain"
	"github.com/rpattn/bookstore/internal/repository"
)

var errInvalidBookType = errors.New("invalid book type")

// Service manages the book type lookup table.
type Service struct {
	repo     repository.BookTypeRepository
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(repo repository.BookTypeRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger}
}

type bookTypeInput struct {
	Name string `validate:"required,max=100"`
}

func (s *Service) check(t domain.BookType) error {
	if err := s.validate.Struct(bookTypeInput{Name: t.Name}); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBookType, err)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.BookType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []domain.BookType{}
	}
	return types, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.BookType, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, name string) (domain.BookType, error) {
	t := domain.NewBookType(name)
	if err := s.check(t); err != nil {
		return domain.BookType{}, err
	}
	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return domain.BookType{}, err
	}
	s.logger.Info("book type created", zap.Int64("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// Rename changes the name of a book type. rowVersion must be the version the
// caller last read.
func (s *Service) Rename(ctx context.Context, id int64, name string, rowVersion int64) (domain.BookType, error) {
	t := domain.BookType{ID: id, RowVersion: rowVersion}.WithName(name)
	if err := s.check(t); err != nil {
		return domain.BookType{}, err
	}
	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return domain.BookType{}, err
	}
	s.logger.Info("book type renamed",
		zap.Int64("id", updated.ID),
		zap.String("name", updated.Name),
		zap.Int64("row_version", updated.RowVersion),
	)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("book type deleted", zap.Int64("id", id))
	return nil
}
