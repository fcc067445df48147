package tui

import (
	"fmt"
	"strings"

	"addrview/pkg/models"
	"addrview/pkg/pager"
	"addrview/pkg/render"
	"addrview/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var columnWidths = [pager.NumColumns]int{
	pager.ColHash:      14,
	pager.ColBlock:     10,
	pager.ColFrom:      14,
	pager.ColTo:        14,
	pager.ColValue:     18,
	pager.ColKey:       0,
	pager.ColTimestamp: 16,
}

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}
	if m.showGraph {
		return m.viewGraph()
	}

	v := m.view
	var b strings.Builder

	header := titleStyle.Render(v.title) + " " + v.subtitle
	if v.loading() {
		header += " " + m.spinner.View()
	}
	b.WriteString(header + "\n\n")
	b.WriteString(m.viewSummary() + "\n\n")
	b.WriteString(m.viewTabs() + "\n\n")

	switch v.loc.tab {
	case tabTransactions:
		b.WriteString(m.viewTransactions())
	case tabInternal:
		b.WriteString(m.viewTraces())
	case tabContract:
		b.WriteString(v.contract.view())
	}
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString("Search: " + m.searchInput.View() + "\n")
	}
	if m.statusMessage != "" {
		b.WriteString(infoStyle.Render(m.statusMessage) + "\n")
	}
	b.WriteString(subtleStyle.Render("1/2/3: tabs • r: refresh • enter: open address • esc: back • ?: help • q: quit"))
	return b.String()
}

func (m model) viewSummary() string {
	v := m.view
	s := v.summary
	line := fmt.Sprintf("Balance: %s ETH   Transactions: %s   Signed blocks: %s",
		m.displayBalance(s),
		utils.AddCommas(fmt.Sprint(s.TransactionCount)),
		utils.AddCommas(fmt.Sprint(s.SignedBlockCount)),
	)
	var notes []string
	if v.summaryErr != nil {
		notes = append(notes, warnStyle.Render("Summary unavailable, showing defaults (r to retry)"))
	}
	if v.signedErr != nil {
		notes = append(notes, warnStyle.Render("Signed block count unavailable"))
	}
	if len(notes) == 0 {
		return line
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{line}, notes...)...)
}

func (m model) viewTabs() string {
	labels := []string{"1 Transactions", "2 Internal", "3 Contract"}
	tabs := make([]string, len(labels))
	for i, l := range labels {
		if tab(i) == m.view.loc.tab {
			tabs[i] = activeTabStyle.Render(l)
		} else {
			tabs[i] = inactiveTabStyle.Render(l)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m model) viewTransactions() string {
	v := m.view
	t := v.table
	if !t.Loaded() {
		if t.Err() != nil {
			return errStyle.Render(fmt.Sprintf("Failed to load transactions: %v (r to retry)", t.Err()))
		}
		return subtleStyle.Render("Loading transactions...")
	}

	var lines []string
	lines = append(lines, m.tableHeader())

	if msg := t.EmptyMessage(); msg != "" {
		lines = append(lines, subtleStyle.Render(msg))
	}

	pipeline := render.New(v.loc.addr, t.FetchedAt())
	for i, row := range t.Rows() {
		line := m.renderRow(pipeline, row)
		if i == v.cursor {
			line = selectedRowStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	if caption := t.Caption(); caption != "" {
		lines = append(lines, subtleStyle.Render(caption))
	}
	q := t.Shown()
	lines = append(lines, subtleStyle.Render(fmt.Sprintf("Page %d/%d • %d per page • sorted by %s %s • [/]: page • +/-: size • s/S: sort • /: search",
		q.PageIndex+1, max(t.PageCount(), 1), q.PageSize, pager.Columns[q.SortColumn].Name, q.SortDir)))
	if q.Search != "" {
		lines = append(lines, subtleStyle.Render(fmt.Sprintf("Filter: %q", q.Search)))
	}
	if t.Err() != nil {
		lines = append(lines, errStyle.Render(fmt.Sprintf("Failed to load page: %v (r to retry)", t.Err())))
	}
	return strings.Join(lines, "\n")
}

func (m model) tableHeader() string {
	q := m.view.table.Shown()
	var cols []string
	for i, c := range pager.Columns {
		if !c.Visible {
			continue
		}
		name := c.Name
		if i == q.SortColumn {
			if q.SortDir == pager.Asc {
				name += " ▲"
			} else {
				name += " ▼"
			}
		}
		cols = append(cols, pad(name, columnWidths[i]))
	}
	return "  " + tableHeaderStyle.Render(strings.Join(cols, " "))
}

func (m model) renderRow(p render.Pipeline, row models.TransactionRow) string {
	var cols []string
	for i, raw := range row.Cells {
		if i >= pager.NumColumns || !pager.Columns[i].Visible {
			continue
		}
		cell := p.Render(i, raw)
		text := cell.Text
		switch i {
		case pager.ColHash, pager.ColFrom, pager.ColTo:
			text = utils.ShortAddress(text)
		default:
			text = utils.TruncateString(text, columnWidths[i])
		}
		padding := strings.Repeat(" ", max(columnWidths[i]-lipgloss.Width(text), 0))
		cols = append(cols, cell.Hyperlink(m.cfg.ExplorerURL, text)+padding)
	}
	return strings.Join(cols, " ")
}

func (m model) viewTraces() string {
	v := m.view
	switch {
	case !v.summary.IsContract && !v.tracesLoaded && !v.tracesLoading:
		return subtleStyle.Render("Internal transactions are traced for contract addresses only.")
	case v.tracesLoading && !v.tracesLoaded:
		return subtleStyle.Render("Loading internal transactions...")
	case v.tracesErr != nil:
		return errStyle.Render(fmt.Sprintf("Failed to load internal transactions: %v (r to retry)", v.tracesErr))
	case len(v.traces) == 0:
		return subtleStyle.Render("No internal transactions found")
	}

	header := fmt.Sprintf("%-10s %-14s %-12s %-14s %-14s %18s %10s", "Block", "Tx", "Type", "From", "To", "Value", "Gas Used")
	lines := []string{"  " + tableHeaderStyle.Render(header)}
	for i, tr := range v.traces {
		kind := tr.Type
		if tr.CallType != "" {
			kind = tr.CallType
		}
		line := fmt.Sprintf("%-10d %-14s %-12s %-14s %-14s %18s %10s",
			tr.BlockNumber,
			utils.ShortAddress(tr.TransactionHash),
			kind,
			utils.ShortAddress(tr.From),
			utils.ShortAddress(tr.To),
			utils.FormatWei(tr.Value, m.cfg.BalanceDecimals),
			utils.AddCommas(fmt.Sprint(tr.GasUsed)),
		)
		if tr.Error != "" {
			line += " " + errStyle.Render(tr.Error)
		}
		if i == v.cursor {
			line = selectedRowStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m model) viewGraph() string {
	values := m.pageValues()
	var graph string
	if len(values) > 1 {
		width := max(m.width-20, 10)
		height := max(m.height-10, 5)
		graph = asciigraph.Plot(values,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption("Transaction values on this page"),
		)
	} else {
		graph = "Not enough data to draw graph."
	}
	header := titleStyle.Render("Value Chart") + " " + m.view.subtitle
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", graph))
	footer := subtleStyle.Render("g/esc: back")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

func (m model) viewHelp() string {
	shortcuts := []string{
		"1/2/3: Transactions / Internal / Contract tab",
		"↑/k ↓/j: Select row",
		"enter: Open counterparty address",
		"esc: Back",
		"tab/shift+tab: Next/previous bookmark",
		"]/[: Next/previous page",
		"+/-: Page size",
		"s: Sort column • S: Sort direction",
		"/: Search",
		"r: Refresh / retry",
		"o: Open in browser",
		"c: Copy address",
		"b: Bookmark address",
		"g: Value chart",
		"q: Quit",
	}
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		"",
		strings.Join(shortcuts, "\n"),
		"",
		subtleStyle.Render(fmt.Sprintf("addrview %s • ?/esc: close", Version)),
	))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
