package sorting

import "github.com/rpattn/bookstore/internal/domain"

// Column names a sortable column of the priority orders table.
type Column string

const (
	ColumnPrice  Column = "price"
	ColumnDate   Column = "date"
	ColumnStatus Column = "status"
)

// Columns lists the sortable columns in display order.
var Columns = []Column{ColumnPrice, ColumnDate, ColumnStatus}

// Key is a sort token as it travels in the sortByValue query parameter.
// The literal values are shared with existing links and bookmarks.
type Key string

const (
	KeyPriceAsc   Key = "OrderDetailPrice"
	KeyPriceDesc  Key = "price_desc"
	KeyDateAsc    Key = "date"
	KeyDateDesc   Key = "date_desc"
	KeyStatusAsc  Key = "status"
	KeyStatusDesc Key = "status_desc"
)

type keyInfo struct {
	column    Column
	direction domain.SortDirection
}

var knownKeys = map[Key]keyInfo{
	KeyPriceAsc:   {ColumnPrice, domain.SortDirectionAsc},
	KeyPriceDesc:  {ColumnPrice, domain.SortDirectionDesc},
	KeyDateAsc:    {ColumnDate, domain.SortDirectionAsc},
	KeyDateDesc:   {ColumnDate, domain.SortDirectionDesc},
	KeyStatusAsc:  {ColumnStatus, domain.SortDirectionAsc},
	KeyStatusDesc: {ColumnStatus, domain.SortDirectionDesc},
}

var columnKeys = map[Column]map[domain.SortDirection]Key{
	ColumnPrice:  {domain.SortDirectionAsc: KeyPriceAsc, domain.SortDirectionDesc: KeyPriceDesc},
	ColumnDate:   {domain.SortDirectionAsc: KeyDateAsc, domain.SortDirectionDesc: KeyDateDesc},
	ColumnStatus: {domain.SortDirectionAsc: KeyStatusAsc, domain.SortDirectionDesc: KeyStatusDesc},
}

// ParseKey matches token against the known sort tokens. Matching is exact.
func ParseKey(token string) (Key, bool) {
	k := Key(token)
	_, ok := knownKeys[k]
	return k, ok
}

// KeyFor returns the token sorting column in direction.
func KeyFor(column Column, direction domain.SortDirection) Key {
	return columnKeys[column][direction]
}

// Column returns the column the key sorts by.
func (k Key) Column() Column {
	return knownKeys[k].column
}

// Direction returns the direction the key sorts in.
func (k Key) Direction() domain.SortDirection {
	return knownKeys[k].direction
}

// Opposite returns the key sorting the same column in the other direction.
func (k Key) Opposite() Key {
	info, ok := knownKeys[k]
	if !ok {
		return ""
	}
	return KeyFor(info.column, info.direction.Opposite())
}

func (k Key) String() string {
	return string(k)
}
