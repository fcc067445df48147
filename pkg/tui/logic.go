package tui

import (
	"strconv"
	"strings"

	"addrview/pkg/pager"
)

// stepPageSize moves to the neighbouring allowed page size, clamping at the
// ends of the list.
func stepPageSize(cur, step int) int {
	idx := -1
	for i, s := range pager.PageSizes {
		if s == cur {
			idx = i
			break
		}
	}
	if idx < 0 {
		return pager.DefaultPageSize
	}
	idx += step
	if idx < 0 {
		idx = 0
	}
	if idx >= len(pager.PageSizes) {
		idx = len(pager.PageSizes) - 1
	}
	return pager.PageSizes[idx]
}

// nextSortColumn cycles through the visible orderable columns.
func nextSortColumn(cur int) int {
	var cols []int
	for i, c := range pager.Columns {
		if c.Visible && c.Orderable {
			cols = append(cols, i)
		}
	}
	for i, c := range cols {
		if c == cur {
			return cols[(i+1)%len(cols)]
		}
	}
	return pager.DefaultSortColumn
}

func (m model) rowCount() int {
	switch m.view.loc.tab {
	case tabTransactions:
		return len(m.view.table.Rows())
	case tabInternal:
		return len(m.view.traces)
	}
	return 0
}

// selectedCounterparty is the other party of the selected row, or "" when
// the row only involves the subject.
func (m model) selectedCounterparty() string {
	v := m.view
	var from, to string
	switch v.loc.tab {
	case tabTransactions:
		rows := v.table.Rows()
		if v.cursor >= len(rows) {
			return ""
		}
		from, to = rows[v.cursor].From, rows[v.cursor].To
	case tabInternal:
		if v.cursor >= len(v.traces) {
			return ""
		}
		from, to = v.traces[v.cursor].From, v.traces[v.cursor].To
	default:
		return ""
	}
	for _, addr := range []string{to, from} {
		if addr != "" && !strings.EqualFold(addr, v.loc.addr) {
			return addr
		}
	}
	return ""
}

// selectedPath is the explorer path for the selection: the transaction of
// the selected row, else the subject address.
func (m model) selectedPath() string {
	v := m.view
	switch v.loc.tab {
	case tabTransactions:
		if rows := v.table.Rows(); v.cursor < len(rows) && rows[v.cursor].Hash != "" {
			return "/tx/" + rows[v.cursor].Hash
		}
	case tabInternal:
		if v.cursor < len(v.traces) && v.traces[v.cursor].TransactionHash != "" {
			return "/tx/" + v.traces[v.cursor].TransactionHash
		}
	}
	return "/addr/" + v.loc.addr
}

// pageValues returns the numeric values of the rows on display, bottom row
// first, so the default newest-first page plots in time order.
func (m model) pageValues() []float64 {
	rows := m.view.table.Rows()
	var out []float64
	for i := len(rows) - 1; i >= 0; i-- {
		f, err := strconv.ParseFloat(strings.ReplaceAll(rows[i].Value, ",", ""), 64)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}
