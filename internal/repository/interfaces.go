package repository

import (
	"context"

	"github.com/rpattn/bookstore/internal/domain"
)

// BookTypeRepository defines the interface for book type operations
type BookTypeRepository interface {
	Create(ctx context.Context, bookType domain.BookType) (domain.BookType, error)
	GetByID(ctx context.Context, id int64) (domain.BookType, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.BookType, error)
	List(ctx context.Context) ([]domain.BookType, error)
	Update(ctx context.Context, bookType domain.BookType) (domain.BookType, error)
	Delete(ctx context.Context, id int64) error
}

// BookRepository defines the interface for inventory operations
type BookRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Book, error)
	List(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error)
	UpdateStock(ctx context.Context, book domain.Book) (domain.Book, error)
}

// OrderRepository defines the interface for order operations
type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context, limit int, offset int) ([]domain.Order, error)
	ListStatuses(ctx context.Context) ([]domain.OrderStatus, error)
	UpdateStatus(ctx context.Context, orderID int64, statusID int64, username string) (domain.OrderStatusChange, error)
}

// DashboardRepository supplies the record sets shown on the welcome dashboard.
// A nil slice with a nil error means the set is unavailable.
type DashboardRepository interface {
	// UserUpdatedBooks returns books last updated by username, newest first.
	UserUpdatedBooks(ctx context.Context, username string) ([]domain.Book, error)
	// OtherUpdatedBooks returns books last updated by anyone but username, newest first.
	OtherUpdatedBooks(ctx context.Context, username string) ([]domain.Book, error)
	// ImportantOrders returns open order lines due between minRange and maxRange days from today.
	ImportantOrders(ctx context.Context, maxRange int, minRange int) ([]domain.PriorityOrder, error)
}
