package domain

import "strings"

// BookType is the lookup entity classifying books (hardcover, paperback, ebook...).
// RowVersion is bumped on every write and guards concurrent edits.
type BookType struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	RowVersion int64  `json:"row_version"`
}

// NewBookType creates a book type that has not been persisted yet
func NewBookType(name string) BookType {
	return BookType{Name: strings.TrimSpace(name)}
}

// WithName returns a new book type with an updated name
func (t BookType) WithName(name string) BookType {
	return BookType{
		ID:         t.ID,
		Name:       strings.TrimSpace(name),
		RowVersion: t.RowVersion,
	}
}
