package sorting

import (
	"cmp"
	"slices"

	"github.com/rpattn/bookstore/internal/domain"
)

type compareFunc func(a, b domain.PriorityOrder) int

var comparators = map[Column]compareFunc{
	ColumnPrice: func(a, b domain.PriorityOrder) int {
		return cmp.Compare(a.Detail.Price, b.Detail.Price)
	},
	ColumnDate: func(a, b domain.PriorityOrder) int {
		return a.DeliveryDate.Compare(b.DeliveryDate)
	},
	ColumnStatus: func(a, b domain.PriorityOrder) int {
		return cmp.Compare(a.Status.Position, b.Status.Position)
	},
}

// SortOrders returns a copy of items ordered by the directive. Items comparing
// equal keep their input order. An unsorted directive returns the input order.
func SortOrders(items []domain.PriorityOrder, d Directive) []domain.PriorityOrder {
	out := slices.Clone(items)
	if !d.Sorted() || len(out) < 2 {
		return out
	}

	compare := comparators[d.Key.Column()]
	if d.Key.Direction() == domain.SortDirectionDesc {
		asc := compare
		compare = func(a, b domain.PriorityOrder) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, compare)
	return out
}
