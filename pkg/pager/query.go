// Package pager implements the server-side pagination protocol for the
// address transaction table: query validation, the DataTables wire
// envelope, and per-table request generations.
package pager

import (
	"errors"
	"fmt"
)

// Column indices of the paged-transactions row payload.
const (
	ColHash = iota
	ColBlock
	ColFrom
	ColTo
	ColValue
	ColKey
	ColTimestamp

	NumColumns
)

const (
	DefaultPageSize   = 20
	DefaultSortColumn = ColTimestamp
)

// PageSizes are the page lengths a table may request.
var PageSizes = []int{10, 20, 50, 100, 250}

// SortDir is "asc" or "desc".
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

var (
	ErrInvalidPageSize    = errors.New("page size not allowed")
	ErrColumnNotOrderable = errors.New("column is not orderable")
	ErrInvalidSortDir     = errors.New("sort direction must be asc or desc")
	ErrMissingSubject     = errors.New("subject address is required")
)

// Column describes one column of the transaction table.
type Column struct {
	Name       string
	Visible    bool
	Searchable bool
	Orderable  bool
	Date       bool
}

// Columns is the column contract of the paged-transactions response.
var Columns = [NumColumns]Column{
	ColHash:      {Name: "hash", Visible: true, Searchable: true},
	ColBlock:     {Name: "block", Visible: true, Searchable: true, Orderable: true},
	ColFrom:      {Name: "from", Visible: true, Searchable: true},
	ColTo:        {Name: "to", Visible: true, Searchable: true},
	ColValue:     {Name: "value", Visible: true, Searchable: true, Orderable: true},
	ColKey:       {Name: "key", Orderable: true},
	ColTimestamp: {Name: "age", Visible: true, Searchable: true, Orderable: true, Date: true},
}

// IsAllowedPageSize reports whether n is one of PageSizes.
func IsAllowedPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// IsOrderable reports whether col may be used as a sort key.
func IsOrderable(col int) bool {
	return col >= 0 && col < NumColumns && Columns[col].Orderable
}

// Query is the client-side view of one page request.
type Query struct {
	PageIndex  int
	PageSize   int
	SortColumn int
	SortDir    SortDir
	Search     string
	Subject    string
}

// DefaultQuery is the initial query for a table: first page, default
// length, newest transactions first.
func DefaultQuery(subject string) Query {
	return Query{
		PageSize:   DefaultPageSize,
		SortColumn: DefaultSortColumn,
		SortDir:    Desc,
		Subject:    subject,
	}
}

// Validate rejects queries that must never be dispatched.
func (q Query) Validate() error {
	if q.Subject == "" {
		return ErrMissingSubject
	}
	if !IsAllowedPageSize(q.PageSize) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, q.PageSize)
	}
	if !IsOrderable(q.SortColumn) {
		return fmt.Errorf("%w: %d", ErrColumnNotOrderable, q.SortColumn)
	}
	if q.SortDir != Asc && q.SortDir != Desc {
		return fmt.Errorf("%w: %q", ErrInvalidSortDir, q.SortDir)
	}
	if q.PageIndex < 0 {
		return fmt.Errorf("page index must not be negative: %d", q.PageIndex)
	}
	return nil
}

// Offset is the first row of the page in the server's ordering.
func (q Query) Offset() int {
	return q.PageIndex * q.PageSize
}

// WithPageSize keeps the first row of the current page visible.
func (q Query) WithPageSize(size int) Query {
	if q.PageSize > 0 && size > 0 {
		q.PageIndex = q.Offset() / size
	}
	q.PageSize = size
	return q
}

// WithSort orders by col and returns to the first page.
func (q Query) WithSort(col int, dir SortDir) Query {
	q.SortColumn = col
	q.SortDir = dir
	q.PageIndex = 0
	return q
}

// WithSearch filters by term and returns to the first page.
func (q Query) WithSearch(term string) Query {
	q.Search = term
	q.PageIndex = 0
	return q
}

// WithPage moves to page index.
func (q Query) WithPage(index int) Query {
	q.PageIndex = index
	return q
}

// Toggle flips the direction.
func (d SortDir) Toggle() SortDir {
	if d == Asc {
		return Desc
	}
	return Asc
}
