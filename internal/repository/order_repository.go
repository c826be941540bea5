package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/bookstore/internal/db"
	"github.com/rpattn/bookstore/internal/domain"
)

const defaultOrderPageSize = 50

const orderSelect = `
SELECT o.id, o.customer_email, o.order_date, o.delivery_date, o.updated_by,
       s.id, s.name, s.position, s.final
FROM orders o
JOIN order_statuses s ON s.id = o.status_id`

// orderRepository implements OrderRepository interface
type orderRepository struct {
	db  db.TxBeginner
	now func() time.Time
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(conn db.TxBeginner) OrderRepository {
	return &orderRepository{db: conn, now: time.Now}
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.CustomerEmail, &o.OrderDate, &o.DeliveryDate, &o.UpdatedBy,
		&o.Status.ID, &o.Status.Name, &o.Status.Position, &o.Status.Final,
	)
	return o, err
}

// GetByID retrieves an order with its lines
func (r *orderRepository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, orderSelect+" WHERE o.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT d.id, d.order_id, d.book_id, b.name, d.price, d.quantity
		 FROM order_details d JOIN books b ON b.id = d.book_id
		 WHERE d.order_id = $1 ORDER BY d.id`, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to get order details: %w", err)
	}
	details, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderDetail, error) {
		var d domain.OrderDetail
		err := row.Scan(&d.ID, &d.OrderID, &d.BookID, &d.BookName, &d.Price, &d.Quantity)
		return d, err
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to scan order details: %w", err)
	}
	order.Details = details
	return order, nil
}

// List retrieves a page of orders, newest first
func (r *orderRepository) List(ctx context.Context, limit int, offset int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = defaultOrderPageSize
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, orderSelect+" ORDER BY o.order_date DESC, o.id DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}
	return orders, nil
}

// ListStatuses retrieves the order lifecycle statuses in lifecycle order
func (r *orderRepository) ListStatuses(ctx context.Context) ([]domain.OrderStatus, error) {
	rows, err := r.db.Query(ctx, "SELECT id, name, position, final FROM order_statuses ORDER BY position, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list order statuses: %w", err)
	}
	statuses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderStatus, error) {
		var s domain.OrderStatus
		err := row.Scan(&s.ID, &s.Name, &s.Position, &s.Final)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan order statuses: %w", err)
	}
	return statuses, nil
}

// UpdateStatus moves an order to another status and reports the transition
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, statusID int64, username string) (domain.OrderStatusChange, error) {
	change := domain.OrderStatusChange{OrderID: orderID, ChangedBy: username, ChangedAt: r.now().UTC()}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT s.id, s.name, s.position, s.final
			 FROM orders o JOIN order_statuses s ON s.id = o.status_id
			 WHERE o.id = $1 FOR UPDATE OF o`, orderID,
		).Scan(&change.From.ID, &change.From.Name, &change.From.Position, &change.From.Final)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}

		err = tx.QueryRow(ctx,
			"SELECT id, name, position, final FROM order_statuses WHERE id = $1", statusID,
		).Scan(&change.To.ID, &change.To.Name, &change.To.Position, &change.To.Final)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order status %d: %w", statusID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get order status: %w", err)
		}

		if _, err := tx.Exec(ctx,
			"UPDATE orders SET status_id = $2, updated_by = $3, updated_on = $4 WHERE id = $1",
			orderID, statusID, username, change.ChangedAt,
		); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.OrderStatusChange{}, err
	}
	return change, nil
}
