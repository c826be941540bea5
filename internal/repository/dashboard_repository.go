package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/bookstore/internal/db"
	"github.com/rpattn/bookstore/internal/domain"
)

const defaultRecentBooks = 10

// dashboardRepository implements DashboardRepository interface
type dashboardRepository struct {
	db          db.DBTX
	recentBooks int
}

// NewDashboardRepository creates a new dashboard repository. recentBooks caps
// each of the recently updated book lists.
func NewDashboardRepository(conn db.DBTX, recentBooks int) DashboardRepository {
	if recentBooks <= 0 {
		recentBooks = defaultRecentBooks
	}
	return &dashboardRepository{db: conn, recentBooks: recentBooks}
}

// UserUpdatedBooks returns the books most recently updated by username
func (r *dashboardRepository) UserUpdatedBooks(ctx context.Context, username string) ([]domain.Book, error) {
	query, args, err := selectBooks().
		Where("b.updated_by = ?", username).
		OrderBy("b.updated_on DESC", "b.id DESC").
		Limit(uint64(r.recentBooks)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building user books query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get books updated by user: %w", err)
	}
	return collectBooks(rows)
}

// OtherUpdatedBooks returns the books most recently updated by other admins
func (r *dashboardRepository) OtherUpdatedBooks(ctx context.Context, username string) ([]domain.Book, error) {
	query, args, err := selectBooks().
		Where("b.updated_by <> ?", username).
		Where("b.updated_by <> ''").
		OrderBy("b.updated_on DESC", "b.id DESC").
		Limit(uint64(r.recentBooks)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building other books query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get books updated by others: %w", err)
	}
	return collectBooks(rows)
}

const importantOrdersQuery = `
SELECT d.id, d.order_id, d.book_id, b.name, d.price, d.quantity,
       o.delivery_date, s.id, s.name, s.position, s.final
FROM order_details d
JOIN orders o ON o.id = d.order_id
JOIN books b ON b.id = d.book_id
JOIN order_statuses s ON s.id = o.status_id
WHERE NOT s.final
  AND o.delivery_date BETWEEN current_date + $1::int AND current_date + $2::int
ORDER BY o.delivery_date, d.id`

// ImportantOrders returns open order lines due within the day window
func (r *dashboardRepository) ImportantOrders(ctx context.Context, maxRange int, minRange int) ([]domain.PriorityOrder, error) {
	if minRange > maxRange {
		minRange, maxRange = maxRange, minRange
	}
	rows, err := r.db.Query(ctx, importantOrdersQuery, minRange, maxRange)
	if err != nil {
		return nil, fmt.Errorf("failed to get important orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PriorityOrder, error) {
		var p domain.PriorityOrder
		err := row.Scan(
			&p.Detail.ID, &p.Detail.OrderID, &p.Detail.BookID, &p.Detail.BookName,
			&p.Detail.Price, &p.Detail.Quantity,
			&p.DeliveryDate, &p.Status.ID, &p.Status.Name, &p.Status.Position, &p.Status.Final,
		)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan important orders: %w", err)
	}
	return orders, nil
}
