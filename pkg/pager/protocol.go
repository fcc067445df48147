package pager

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"addrview/pkg/models"
)

var ErrDrawMismatch = errors.New("response draw does not match request")

// Request is one dispatched page query. Generation doubles as the
// DataTables draw counter.
type Request struct {
	Generation uint64
	Query      Query
	Count      uint64
}

// Form encodes r in the DataTables server-side processing format plus the
// address view's own addr/count fields.
func (r Request) Form() url.Values {
	v := url.Values{}
	v.Set("addr", r.Query.Subject)
	v.Set("count", strconv.FormatUint(r.Count, 10))
	v.Set("draw", strconv.FormatUint(r.Generation, 10))
	v.Set("start", strconv.Itoa(r.Query.Offset()))
	v.Set("length", strconv.Itoa(r.Query.PageSize))
	v.Set("search[value]", r.Query.Search)
	v.Set("search[regex]", "false")
	v.Set("order[0][column]", strconv.Itoa(r.Query.SortColumn))
	v.Set("order[0][dir]", string(r.Query.SortDir))
	for i, c := range Columns {
		prefix := fmt.Sprintf("columns[%d]", i)
		v.Set(prefix+"[data]", strconv.Itoa(i))
		v.Set(prefix+"[name]", c.Name)
		v.Set(prefix+"[searchable]", strconv.FormatBool(c.Searchable))
		v.Set(prefix+"[orderable]", strconv.FormatBool(c.Orderable))
		v.Set(prefix+"[search][value]", "")
		v.Set(prefix+"[search][regex]", "false")
	}
	return v
}

// Result is one page of rows. A zero-row result is not an error.
type Result struct {
	Rows          []models.TransactionRow
	TotalRecords  uint64
	TotalFiltered uint64
}

// Response is a decoded table-data response. Error carries the server's
// own error message, if any.
type Response struct {
	Draw   uint64
	Result Result
	Error  string
}

type wireResponse struct {
	Draw            json.Number         `json:"draw"`
	RecordsTotal    json.Number         `json:"recordsTotal"`
	RecordsFiltered json.Number         `json:"recordsFiltered"`
	Data            [][]json.RawMessage `json:"data"`
	Error           string              `json:"error,omitempty"`
}

// DecodeResponse reads and validates a table-data response body.
func DecodeResponse(r io.Reader) (Response, error) {
	var w wireResponse
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return Response{}, fmt.Errorf("decode table response: %w", err)
	}
	if w.Error != "" {
		return Response{Error: w.Error}, nil
	}

	draw, err := parseCount(w.Draw)
	if err != nil {
		return Response{}, fmt.Errorf("draw: %w", err)
	}
	total, err := parseCount(w.RecordsTotal)
	if err != nil {
		return Response{}, fmt.Errorf("recordsTotal: %w", err)
	}
	filtered, err := parseCount(w.RecordsFiltered)
	if err != nil {
		return Response{}, fmt.Errorf("recordsFiltered: %w", err)
	}
	if filtered > total {
		return Response{}, fmt.Errorf("recordsFiltered %d exceeds recordsTotal %d", filtered, total)
	}

	rows := make([]models.TransactionRow, 0, len(w.Data))
	for i, raw := range w.Data {
		row, err := parseRow(raw)
		if err != nil {
			return Response{}, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	return Response{
		Draw: draw,
		Result: Result{
			Rows:          rows,
			TotalRecords:  total,
			TotalFiltered: filtered,
		},
	}, nil
}

func parseCount(n json.Number) (uint64, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.ParseUint(n.String(), 10, 64)
}

func parseRow(raw []json.RawMessage) (models.TransactionRow, error) {
	if len(raw) < NumColumns {
		return models.TransactionRow{}, fmt.Errorf("expected %d cells, got %d", NumColumns, len(raw))
	}
	cells := make([]string, len(raw))
	for i, c := range raw {
		s, err := cellText(c)
		if err != nil {
			return models.TransactionRow{}, fmt.Errorf("cell %d: %w", i, err)
		}
		cells[i] = s
	}

	row := models.TransactionRow{
		Hash:      cells[ColHash],
		From:      cells[ColFrom],
		To:        cells[ColTo],
		Value:     cells[ColValue],
		Key:       cells[ColKey],
		Timestamp: ParseTimestamp(cells[ColTimestamp]),
		Cells:     cells,
	}
	if cells[ColBlock] != "" {
		n, err := strconv.ParseUint(cells[ColBlock], 0, 64)
		if err != nil {
			return models.TransactionRow{}, fmt.Errorf("block number %q: %w", cells[ColBlock], err)
		}
		row.BlockNumber = n
	}
	return row, nil
}

func cellText(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "" || trimmed == "null":
		return "", nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		return trimmed, nil
	}
}

// ParseTimestamp accepts unix seconds or RFC 3339. Unparseable values give
// the zero time.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
