package domain

// Glyph is the directional marker shown next to a sortable column header.
type Glyph string

const (
	GlyphUp   Glyph = "▲"
	GlyphDown Glyph = "▼"
)

// ColumnSortState is the toggle state of one sortable column: the token the
// header link should request next and the marker to show now.
type ColumnSortState struct {
	Next      string `json:"next"`
	Indicator Glyph  `json:"indicator"`
}

// LatestUpdates is the welcome dashboard view model. It is built per request.
type LatestUpdates struct {
	UserBooks      []Book                     `json:"user_books"`
	OtherBooks     []Book                     `json:"other_books"`
	PriorityOrders []PriorityOrder            `json:"priority_orders"`
	Columns        map[string]ColumnSortState `json:"columns"`
	Sort           string                     `json:"sort,omitempty"`
}
