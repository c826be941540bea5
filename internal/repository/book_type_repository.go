package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rpattn/bookstore/internal/db"
	"github.com/rpattn/bookstore/internal/domain"
)

// bookTypeRepository implements BookTypeRepository interface
type bookTypeRepository struct {
	db db.DBTX
}

// NewBookTypeRepository creates a new book type repository
func NewBookTypeRepository(conn db.DBTX) BookTypeRepository {
	return &bookTypeRepository{db: conn}
}

const bookTypeColumns = "id, name, row_version"

func scanBookType(row pgx.Row) (domain.BookType, error) {
	var t domain.BookType
	err := row.Scan(&t.ID, &t.Name, &t.RowVersion)
	return t, err
}

// Create creates a new book type
func (r *bookTypeRepository) Create(ctx context.Context, bookType domain.BookType) (domain.BookType, error) {
	row := r.db.QueryRow(ctx,
		"INSERT INTO book_types (name) VALUES ($1) RETURNING "+bookTypeColumns,
		bookType.Name,
	)
	created, err := scanBookType(row)
	if isConstraintViolation(err) {
		return domain.BookType{}, fmt.Errorf("book type %q: %w", bookType.Name, domain.ErrConflict)
	}
	if err != nil {
		return domain.BookType{}, fmt.Errorf("failed to create book type: %w", err)
	}
	return created, nil
}

// GetByID retrieves a book type by ID
func (r *bookTypeRepository) GetByID(ctx context.Context, id int64) (domain.BookType, error) {
	row := r.db.QueryRow(ctx, "SELECT "+bookTypeColumns+" FROM book_types WHERE id = $1", id)
	t, err := scanBookType(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BookType{}, fmt.Errorf("book type %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.BookType{}, fmt.Errorf("failed to get book type: %w", err)
	}
	return t, nil
}

// GetByIDs retrieves the book types matching ids, in no particular order
func (r *bookTypeRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.BookType, error) {
	rows, err := r.db.Query(ctx, "SELECT "+bookTypeColumns+" FROM book_types WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get book types: %w", err)
	}
	return collectBookTypes(rows)
}

// List retrieves all book types ordered by name
func (r *bookTypeRepository) List(ctx context.Context) ([]domain.BookType, error) {
	rows, err := r.db.Query(ctx, "SELECT "+bookTypeColumns+" FROM book_types ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list book types: %w", err)
	}
	return collectBookTypes(rows)
}

func collectBookTypes(rows pgx.Rows) ([]domain.BookType, error) {
	types, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BookType, error) {
		return scanBookType(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan book types: %w", err)
	}
	return types, nil
}

// Update renames a book type. The caller's row version must match the stored one.
func (r *bookTypeRepository) Update(ctx context.Context, bookType domain.BookType) (domain.BookType, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE book_types SET name = $2, row_version = row_version + 1
		 WHERE id = $1 AND row_version = $3
		 RETURNING `+bookTypeColumns,
		bookType.ID, bookType.Name, bookType.RowVersion,
	)
	updated, err := scanBookType(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, bookType.ID); getErr != nil {
			return domain.BookType{}, getErr
		}
		return domain.BookType{}, fmt.Errorf("book type %d: %w", bookType.ID, domain.ErrConcurrentUpdate)
	}
	if isConstraintViolation(err) {
		return domain.BookType{}, fmt.Errorf("book type %q: %w", bookType.Name, domain.ErrConflict)
	}
	if err != nil {
		return domain.BookType{}, fmt.Errorf("failed to update book type: %w", err)
	}
	return updated, nil
}

// Delete deletes a book type
func (r *bookTypeRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM book_types WHERE id = $1", id)
	if isConstraintViolation(err) {
		return fmt.Errorf("book type %d is still referenced by books: %w", id, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to delete book type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("book type %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// isConstraintViolation reports unique and foreign key violations.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" || pgErr.Code == "23503"
}
