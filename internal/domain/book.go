package domain

import (
	"strings"
	"time"
)

// Book represents a title held in the store inventory
type Book struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ISBN      string    `json:"isbn"`
	Author    string    `json:"author"`
	Publisher string    `json:"publisher"`
	TypeID    int64     `json:"type_id"`
	TypeName  string    `json:"type_name,omitempty"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedOn time.Time `json:"updated_on"`
}

// WithStock returns a new book with the stock change applied and stamped with the editor.
func (b Book) WithStock(update StockUpdate, username string, now time.Time) Book {
	next := b
	if update.Price != nil {
		next.Price = *update.Price
	}
	if update.Quantity != nil {
		next.Quantity = *update.Quantity
	}
	next.UpdatedBy = strings.TrimSpace(username)
	next.UpdatedOn = now
	return next
}

// StockUpdate carries an inventory change for a single book. Nil fields are left untouched.
type StockUpdate struct {
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Quantity *int     `json:"quantity,omitempty" validate:"omitempty,gte=0"`
}

// Empty reports whether the update changes nothing.
func (u StockUpdate) Empty() bool {
	return u.Price == nil && u.Quantity == nil
}

// BookFilter represents filtering options for inventory listings.
type BookFilter struct {
	Search string
	TypeID *int64
	Sort   BookSort
	Limit  int
	Offset int
}
