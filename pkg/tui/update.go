package tui

import (
	"fmt"
	"strings"

	"addrview/pkg/config"
	"addrview/pkg/pager"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	if title := m.view.windowTitle(); title != m.windowTitle {
		m.windowTitle = title
		cmd = tea.Batch(cmd, tea.SetWindowTitle(title))
	}
	return m, cmd
}

func (m model) update(msg tea.Msg) (model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case startMsg:
		var cmd tea.Cmd
		m.view, cmd = m.view.activate()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.contract = m.view.contract.setSize(max(msg.Width-4, 0), max(msg.Height-12, 0))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clearStatusMsg:
		m.statusMessage = ""

	case tea.KeyMsg:
		return m.handleKey(msg)

	default:
		var cmd tea.Cmd
		m.view, cmd = m.view.update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	key := msg.String()
	if key == "?" {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		if key == "q" || key == "esc" {
			m.showHelp = false
		}
		return m, nil
	}
	if m.showGraph && (key == "esc" || key == "g") {
		m.showGraph = false
		return m, nil
	}

	v := m.view
	switch key {
	case "q", "ctrl+c":
		m.view = m.view.teardown()
		return m, tea.Quit

	case "1", "2", "3":
		var cmd tea.Cmd
		m.view, cmd = v.setTab(tab(key[0] - '1'))
		return m, cmd

	case "r":
		var cmd, status tea.Cmd
		m.view, cmd = v.refresh()
		m, status = m.withStatus("Refreshing...")
		return m, tea.Batch(cmd, status)

	case "tab":
		return m.cycleBookmark(1)
	case "shift+tab":
		return m.cycleBookmark(-1)

	case "esc", "backspace":
		if len(m.history) == 0 {
			return m, nil
		}
		prev := m.history[len(m.history)-1]
		m.history = m.history[:len(m.history)-1]
		return m.navigate(prev, false)

	case "enter":
		addr := m.selectedCounterparty()
		if addr == "" {
			return m, nil
		}
		loc, err := parseLocation(addr)
		if err != nil {
			return m, nil
		}
		return m.navigate(loc, true)
	}

	if v.loc.tab == tabContract {
		var cmd tea.Cmd
		m.view.contract, cmd = v.contract.update(msg)
		return m, cmd
	}

	switch key {
	case "up", "k":
		if m.view.cursor > 0 {
			m.view.cursor--
		}
	case "down", "j":
		if m.view.cursor < m.rowCount()-1 {
			m.view.cursor++
		}

	case "]", "right", "l":
		if q, ok := v.table.NextPage(); ok {
			return m.requestPage(q)
		}
	case "[", "left", "h":
		if q, ok := v.table.PrevPage(); ok {
			return m.requestPage(q)
		}
	case "+", "=":
		return m.requestPage(v.table.Query().WithPageSize(stepPageSize(v.table.Query().PageSize, 1)))
	case "-":
		return m.requestPage(v.table.Query().WithPageSize(stepPageSize(v.table.Query().PageSize, -1)))
	case "s":
		q := v.table.Query()
		return m.requestPage(q.WithSort(nextSortColumn(q.SortColumn), q.SortDir))
	case "S":
		q := v.table.Query()
		return m.requestPage(q.WithSort(q.SortColumn, q.SortDir.Toggle()))
	case "/":
		m.searching = true
		m.searchInput.SetValue(v.table.Query().Search)
		m.searchInput.Focus()
		return m, nil

	case "o":
		return m.openInBrowser()
	case "c":
		addr := v.summary.DisplayAddress()
		if err := clipboard.WriteAll(addr); err != nil {
			return m.withStatus("Failed to copy to clipboard")
		}
		return m.withStatus("Address copied to clipboard!")
	case "b":
		return m.bookmark()
	case "g":
		m.showGraph = true
	}
	return m, nil
}

func (m model) handleSearchKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		term := strings.TrimSpace(m.searchInput.Value())
		return m.requestPage(m.view.table.Query().WithSearch(term))
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m model) requestPage(q pager.Query) (model, tea.Cmd) {
	var cmd tea.Cmd
	m.view, cmd = m.view.requestPage(q)
	if m.view.queryErr != nil {
		return m.withStatus(m.view.queryErr.Error())
	}
	return m, cmd
}

// navigate tears the current view down and activates one for loc.
func (m model) navigate(loc location, push bool) (model, tea.Cmd) {
	if push {
		m.history = append(m.history, m.view.loc)
	}
	m.view = m.view.teardown()
	m.view = m.newView(loc)
	m.view.contract = m.view.contract.setSize(max(m.width-4, 0), max(m.height-12, 0))
	m.showGraph = false
	m.logger.Info().Str("location", loc.String()).Msg("navigate")

	var cmd tea.Cmd
	m.view, cmd = m.view.activate()
	return m, cmd
}

func (m model) cycleBookmark(step int) (model, tea.Cmd) {
	n := len(m.cfg.Addresses)
	if n == 0 {
		return m.withStatus("No bookmarks saved (press b to add one)")
	}
	idx := m.bookmarkIdx + step
	if m.bookmarkIdx < 0 && step < 0 {
		idx = n - 1
	}
	idx = (idx%n + n) % n
	loc, err := parseLocation(m.cfg.Addresses[idx].Address)
	if err != nil {
		return m.withStatus(fmt.Sprintf("Invalid bookmark: %v", err))
	}
	m.bookmarkIdx = idx
	return m.navigate(loc, true)
}

func (m model) bookmark() (model, tea.Cmd) {
	addr := m.view.summary.DisplayAddress()
	if !m.cfg.AddAddress(addr, "") {
		return m.withStatus("Already bookmarked")
	}
	if m.configPath != "" {
		if err := config.SaveConfig(m.cfg, m.configPath); err != nil {
			m.logger.Error().Err(err).Msg("saving config")
			return m.withStatus(fmt.Sprintf("Failed to save config: %v", err))
		}
	}
	m.bookmarkIdx = len(m.cfg.Addresses) - 1
	return m.withStatus("Bookmarked " + addr)
}

func (m model) openInBrowser() (model, tea.Cmd) {
	if m.cfg.ExplorerURL == "" {
		return m.withStatus("Explorer URL not configured")
	}
	url := strings.TrimRight(m.cfg.ExplorerURL, "/") + m.selectedPath()
	if err := openBrowser(url); err != nil {
		return m.withStatus(fmt.Sprintf("Failed to open browser: %v", err))
	}
	return m.withStatus("Opened in browser")
}

func (m model) withStatus(s string) (model, tea.Cmd) {
	m.statusMessage = s
	return m, clearStatusAfter(statusTimeout)
}
