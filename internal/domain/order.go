package domain

import "time"

// OrderStatus is a step in the order lifecycle. Position orders statuses along
// the lifecycle; Final statuses no longer need attention.
type OrderStatus struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Final    bool   `json:"final"`
}

// Order represents a customer order
type Order struct {
	ID            int64         `json:"id"`
	CustomerEmail string        `json:"customer_email"`
	OrderDate     time.Time     `json:"order_date"`
	DeliveryDate  time.Time     `json:"delivery_date"`
	Status        OrderStatus   `json:"status"`
	UpdatedBy     string        `json:"updated_by,omitempty"`
	Details       []OrderDetail `json:"details,omitempty"`
}

// Total sums the line totals of the order.
func (o Order) Total() float64 {
	var total float64
	for _, d := range o.Details {
		total += d.LineTotal()
	}
	return total
}

// OrderDetail is a single line of an order
type OrderDetail struct {
	ID       int64   `json:"id"`
	OrderID  int64   `json:"order_id"`
	BookID   int64   `json:"book_id"`
	BookName string  `json:"book_name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// LineTotal returns price times quantity.
func (d OrderDetail) LineTotal() float64 {
	return d.Price * float64(d.Quantity)
}

// PriorityOrder is an order line due for delivery soon. It is the record type
// of the dashboard's sortable table.
type PriorityOrder struct {
	Detail       OrderDetail `json:"detail"`
	DeliveryDate time.Time   `json:"delivery_date"`
	Status       OrderStatus `json:"status"`
}

// OrderStatusChange describes a status transition of an order.
type OrderStatusChange struct {
	OrderID   int64       `json:"order_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"changed_at"`
}
