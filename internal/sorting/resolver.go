package sorting

import "github.com/rpattn/bookstore/internal/domain"

// Directive is the resolved form of a requested sort token together with the
// header toggle state of every sortable column.
type Directive struct {
	// Key is empty when the requested token was not recognized.
	Key     Key
	Columns map[Column]domain.ColumnSortState
}

// DefaultState returns the toggle state of a column nobody sorted by:
// offer ascending, show an up marker.
func DefaultState(column Column) domain.ColumnSortState {
	return domain.ColumnSortState{
		Next:      KeyFor(column, domain.SortDirectionAsc).String(),
		Indicator: domain.GlyphUp,
	}
}

// Resolve maps a requested token to a Directive. Unknown or empty tokens
// resolve to the default state with no sort applied.
func Resolve(token string) Directive {
	columns := make(map[Column]domain.ColumnSortState, len(Columns))
	for _, c := range Columns {
		columns[c] = DefaultState(c)
	}

	key, ok := ParseKey(token)
	if !ok {
		return Directive{Columns: columns}
	}

	indicator := domain.GlyphUp
	if key.Direction() == domain.SortDirectionDesc {
		indicator = domain.GlyphDown
	}
	columns[key.Column()] = domain.ColumnSortState{
		Next:      key.Opposite().String(),
		Indicator: indicator,
	}
	return Directive{Key: key, Columns: columns}
}

// Sorted reports whether a recognized sort was requested.
func (d Directive) Sorted() bool {
	return d.Key != ""
}

// Next returns the token offered for the sorted column, i.e. the requested
// token with its direction flipped. It is empty when nothing is sorted.
func (d Directive) Next() Key {
	if !d.Sorted() {
		return ""
	}
	return d.Key.Opposite()
}

// States flattens the column states for the view model.
func (d Directive) States() map[string]domain.ColumnSortState {
	out := make(map[string]domain.ColumnSortState, len(d.Columns))
	for c, s := range d.Columns {
		out[string(c)] = s
	}
	return out
}
