package domain

// SortDirection represents ordering direction for sortable fields.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// Opposite returns the reverse direction.
func (d SortDirection) Opposite() SortDirection {
	if d == SortDirectionDesc {
		return SortDirectionAsc
	}
	return SortDirectionDesc
}

// BookSortField enumerates fields that can be sorted when listing books.
type BookSortField string

const (
	BookSortFieldName      BookSortField = "name"
	BookSortFieldPrice     BookSortField = "price"
	BookSortFieldQuantity  BookSortField = "quantity"
	BookSortFieldUpdatedOn BookSortField = "updated_on"
)

// Valid reports whether the field is one of the known sort fields.
func (f BookSortField) Valid() bool {
	switch f {
	case BookSortFieldName, BookSortFieldPrice, BookSortFieldQuantity, BookSortFieldUpdatedOn:
		return true
	}
	return false
}

// BookSort captures ordering preferences for book listings.
type BookSort struct {
	Field     BookSortField
	Direction SortDirection
}
