package pager

import (
	"context"
	"fmt"
	"time"

	"addrview/pkg/models"
)

const (
	MsgNoTransactions = "No transactions found"
	MsgNoResults      = "No results"
)

// Fetcher executes one page request against the table-data endpoint.
type Fetcher interface {
	FetchPage(ctx context.Context, req Request) (Result, error)
}

// Table owns the single outstanding request of one transaction table and
// the page currently on display. Only the response to the latest request is
// ever applied.
type Table struct {
	query      Query // latest requested
	shown      Query // parameters of the rows on display
	count      uint64
	generation uint64
	pending    bool
	loaded     bool
	result     Result
	fetchedAt  time.Time
	err        error
}

// NewTable starts a table at q. Nothing is requested until Request is called.
func NewTable(q Query) Table {
	return Table{query: q, shown: q}
}

// SetCount records the known or estimated total row count sent with every
// request.
func (t *Table) SetCount(n uint64) {
	t.count = n
}

// Request validates q and makes it the latest request, superseding any
// request still in flight. Invalid queries are rejected before dispatch and
// leave the table untouched.
func (t *Table) Request(q Query) (Request, error) {
	if err := q.Validate(); err != nil {
		return Request{}, err
	}
	t.generation++
	t.query = q
	t.pending = true
	return Request{Generation: t.generation, Query: q, Count: t.count}, nil
}

// Retry re-issues the latest query.
func (t *Table) Retry() (Request, error) {
	return t.Request(t.query)
}

// Apply stores the outcome of the request tagged gen. Stale generations are
// dropped and Apply reports false. Errors keep the rows already on display.
func (t *Table) Apply(gen uint64, res Result, err error, at time.Time) bool {
	if gen != t.generation {
		return false
	}
	t.pending = false
	if err != nil {
		t.err = err
		return true
	}
	t.err = nil
	t.result = res
	t.shown = t.query
	t.loaded = true
	t.fetchedAt = at
	return true
}

func (t Table) Query() Query { return t.query }
func (t Table) Shown() Query { return t.shown }
func (t Table) Generation() uint64 { return t.generation }
func (t Table) Pending() bool { return t.pending }
func (t Table) Loaded() bool { return t.loaded }
func (t Table) Err() error { return t.err }
func (t Table) FetchedAt() time.Time { return t.fetchedAt }
func (t Table) Count() uint64 { return t.count }

func (t Table) Rows() []models.TransactionRow {
	return t.result.Rows
}

func (t Table) Result() Result {
	return t.result
}

// PageCount is the number of pages on display under the current filter.
func (t Table) PageCount() int {
	return t.pagesOf(t.shown.PageSize)
}

func (t Table) pagesOf(size int) int {
	if size <= 0 || t.result.TotalFiltered == 0 {
		return 0
	}
	return int((t.result.TotalFiltered + uint64(size) - 1) / uint64(size))
}

// NextPage is the latest query moved one page forward, or false when that
// query already reaches the last filtered row. The latest query's page size
// counts, even while it is still in flight.
func (t Table) NextPage() (Query, bool) {
	if !t.loaded || t.query.PageIndex+1 >= t.pagesOf(t.query.PageSize) {
		return t.query, false
	}
	return t.query.WithPage(t.query.PageIndex + 1), true
}

// PrevPage is the latest query moved one page back.
func (t Table) PrevPage() (Query, bool) {
	if t.query.PageIndex == 0 {
		return t.query, false
	}
	return t.query.WithPage(t.query.PageIndex - 1), true
}

// EmptyMessage distinguishes an address without transactions from a filter
// without matches. It is empty while rows are on display or nothing has
// loaded yet.
func (t Table) EmptyMessage() string {
	if !t.loaded || len(t.result.Rows) > 0 {
		return ""
	}
	if t.result.TotalRecords == 0 {
		return MsgNoTransactions
	}
	if t.result.TotalFiltered == 0 {
		return MsgNoResults
	}
	return ""
}

// Caption describes the displayed window, citing the unfiltered total when a
// filter narrows the result.
func (t Table) Caption() string {
	if !t.loaded || t.result.TotalRecords == 0 {
		return ""
	}
	var first, last int
	if n := len(t.result.Rows); n > 0 {
		first = t.shown.Offset() + 1
		last = t.shown.Offset() + n
	}
	caption := fmt.Sprintf("Showing %d to %d of %d transactions", first, last, t.result.TotalFiltered)
	if t.result.TotalFiltered < t.result.TotalRecords {
		caption += fmt.Sprintf(" (filtered from %d total txs)", t.result.TotalRecords)
	}
	return caption
}
