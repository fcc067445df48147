// Package render turns raw transaction-table cells into display cells.
// Rendering is pure: the same raw value, subject and reference time always
// give the same Cell, and the row data is never modified.
package render

import (
	"strings"
	"time"

	"addrview/pkg/pager"
	"addrview/pkg/utils"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// Cell is a rendered table cell. Link is an explorer path such as
// /addr/0x... and is empty for plain text.
type Cell struct {
	Text string
	Link string
}

// Hyperlink wraps the cell text in an OSC 8 terminal hyperlink rooted at
// base. Plain cells and an empty base return the text unchanged.
func (c Cell) Hyperlink(base, text string) string {
	if c.Link == "" || base == "" {
		return text
	}
	return ansi.SetHyperlink(base+c.Link) + text + ansi.ResetHyperlink()
}

// Rule renders one raw cell value.
type Rule func(raw string) Cell

// Pipeline holds the per-column rules for one subject address.
type Pipeline struct {
	subject string
	ref     time.Time
	rules   map[int]Rule
}

// New builds the pipeline for subject. Timestamps are rendered relative to
// ref, which callers fix per page so repeated renders agree.
func New(subject string, ref time.Time) Pipeline {
	p := Pipeline{subject: subject, ref: ref}
	p.rules = map[int]Rule{
		pager.ColHash:      linkTo("/tx/"),
		pager.ColBlock:     linkTo("/block/"),
		pager.ColFrom:      p.addressRule,
		pager.ColTo:        p.addressRule,
		pager.ColValue:     valueRule,
		pager.ColTimestamp: p.timestampRule,
	}
	return p
}

// Render applies the rule for col. Columns without a rule render as plain
// text.
func (p Pipeline) Render(col int, raw string) Cell {
	if rule, ok := p.rules[col]; ok {
		return rule(raw)
	}
	return Cell{Text: raw}
}

// Row renders the visible columns of cells in column order.
func (p Pipeline) Row(cells []string) []Cell {
	out := make([]Cell, 0, len(cells))
	for i, raw := range cells {
		if i >= pager.NumColumns || !pager.Columns[i].Visible {
			continue
		}
		out = append(out, p.Render(i, raw))
	}
	return out
}

// IsSubject reports whether addr is the viewed address.
func (p Pipeline) IsSubject(addr string) bool {
	return addr != "" && strings.EqualFold(addr, p.subject)
}

func (p Pipeline) addressRule(raw string) Cell {
	if raw == "" || p.IsSubject(raw) {
		return Cell{Text: raw}
	}
	return Cell{Text: raw, Link: "/addr/" + raw}
}

func (p Pipeline) timestampRule(raw string) Cell {
	ts := pager.ParseTimestamp(raw)
	if ts.IsZero() {
		return Cell{Text: raw}
	}
	return Cell{Text: Age(ts, p.ref)}
}

func linkTo(prefix string) Rule {
	return func(raw string) Cell {
		if raw == "" {
			return Cell{}
		}
		return Cell{Text: raw, Link: prefix + raw}
	}
}

func valueRule(raw string) Cell {
	if text, ok := utils.FormatNumber(raw); ok {
		return Cell{Text: text}
	}
	return Cell{Text: raw}
}

// Age formats ts as a "time ago" string relative to ref.
func Age(ts, ref time.Time) string {
	return humanize.RelTime(ts, ref, "ago", "from now")
}
