package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/rpattn/bookstore/internal/db"
	"github.com/rpattn/bookstore/internal/domain"
)

const defaultBookPageSize = 50

var bookColumns = []string{
	"b.id", "b.name", "b.isbn", "b.author", "b.publisher", "b.type_id",
	"b.price", "b.quantity", "b.updated_by", "b.updated_on",
}

// bookRepository implements BookRepository interface
type bookRepository struct {
	db db.DBTX
}

// NewBookRepository creates a new book repository
func NewBookRepository(conn db.DBTX) BookRepository {
	return &bookRepository{db: conn}
}

func scanBook(row pgx.Row) (domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ID, &b.Name, &b.ISBN, &b.Author, &b.Publisher, &b.TypeID,
		&b.Price, &b.Quantity, &b.UpdatedBy, &b.UpdatedOn,
	)
	return b, err
}

func collectBooks(rows pgx.Rows) ([]domain.Book, error) {
	books, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Book, error) {
		return scanBook(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan books: %w", err)
	}
	return books, nil
}

func selectBooks() sq.SelectBuilder {
	return sq.Select(bookColumns...).
		From("books b").
		PlaceholderFormat(sq.Dollar)
}

func applyBookFilter(builder sq.SelectBuilder, filter domain.BookFilter) sq.SelectBuilder {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"b.name": pattern},
			sq.ILike{"b.author": pattern},
			sq.Eq{"b.isbn": search},
		})
	}
	if filter.TypeID != nil {
		builder = builder.Where(sq.Eq{"b.type_id": *filter.TypeID})
	}
	return builder
}

func applyBookOrder(builder sq.SelectBuilder, sort domain.BookSort) sq.SelectBuilder {
	field := sort.Field
	if !field.Valid() {
		field = domain.BookSortFieldUpdatedOn
	}
	direction := "ASC"
	if sort.Direction == domain.SortDirectionDesc || (sort.Direction == "" && field == domain.BookSortFieldUpdatedOn) {
		direction = "DESC"
	}
	return builder.OrderBy(fmt.Sprintf("b.%s %s", field, direction), "b.id ASC")
}

// buildBookListQuery renders the paginated listing query and its count query.
func buildBookListQuery(filter domain.BookFilter) (string, []any, string, []any, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultBookPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	listBuilder := applyBookOrder(applyBookFilter(selectBooks(), filter), filter.Sort).
		Limit(uint64(limit)).
		Offset(uint64(offset))
	listSQL, listArgs, err := listBuilder.ToSql()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("error building book list query: %w", err)
	}

	countBuilder := applyBookFilter(sq.Select("count(*)").From("books b").PlaceholderFormat(sq.Dollar), filter)
	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("error building book count query: %w", err)
	}
	return listSQL, listArgs, countSQL, countArgs, nil
}

// GetByID retrieves a book by ID
func (r *bookRepository) GetByID(ctx context.Context, id int64) (domain.Book, error) {
	query, args, err := selectBooks().Where(sq.Eq{"b.id": id}).ToSql()
	if err != nil {
		return domain.Book{}, fmt.Errorf("error building book query: %w", err)
	}
	book, err := scanBook(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Book{}, fmt.Errorf("book %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Book{}, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// List retrieves a page of books along with the total number of matches
func (r *bookRepository) List(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error) {
	listSQL, listArgs, countSQL, countArgs, err := buildBookListQuery(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	rows, err := r.db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	books, err := collectBooks(rows)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// UpdateStock persists price, quantity and the editor stamp of a book
func (r *bookRepository) UpdateStock(ctx context.Context, book domain.Book) (domain.Book, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE books SET price = $2, quantity = $3, updated_by = $4, updated_on = $5 WHERE id = $1`,
		book.ID, book.Price, book.Quantity, book.UpdatedBy, book.UpdatedOn,
	)
	if err != nil {
		return domain.Book{}, fmt.Errorf("failed to update book stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Book{}, fmt.Errorf("book %d: %w", book.ID, domain.ErrNotFound)
	}
	return r.GetByID(ctx, book.ID)
}
