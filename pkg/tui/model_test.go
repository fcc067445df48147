package tui

import (
	"context"
	"path/filepath"
	"testing"

	"addrview/pkg/config"
	"addrview/pkg/pager"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input   string
		addr    string
		tab     tab
		wantErr bool
	}{
		{testAddr, testAddr, tabTransactions, false},
		{testAddr + "#contract", testAddr, tabContract, false},
		{testAddr + "#Internal", testAddr, tabInternal, false},
		{testAddr + "#bogus", testAddr, tabTransactions, false},
		{"/addr/" + testAddr + "#contract", testAddr, tabContract, false},
		{"https://explorer.example/addr/" + testAddr + "/", testAddr, tabTransactions, false},
		{"  " + testChecksummed + "  ", testChecksummed, tabTransactions, false},
		{"0x1234", "", 0, true},
		{"", "", 0, true},
		{"/addr/#contract", "", 0, true},
	}

	for _, tt := range tests {
		loc, err := parseLocation(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.addr, loc.addr, tt.input)
		assert.Equal(t, tt.tab, loc.tab, tt.input)
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, testAddr, location{addr: testAddr}.String())
	assert.Equal(t, testAddr+"#internal", location{addr: testAddr, tab: tabInternal}.String())
	assert.Equal(t, "transactions", tab(7).String())
}

func TestStepPageSize(t *testing.T) {
	assert.Equal(t, 50, stepPageSize(20, 1))
	assert.Equal(t, 10, stepPageSize(20, -1))
	assert.Equal(t, 10, stepPageSize(10, -1), "clamped at the smallest size")
	last := pager.PageSizes[len(pager.PageSizes)-1]
	assert.Equal(t, last, stepPageSize(last, 1), "clamped at the largest size")
	assert.Equal(t, pager.DefaultPageSize, stepPageSize(33, 1))
}

func TestNextSortColumn(t *testing.T) {
	assert.Equal(t, pager.ColValue, nextSortColumn(pager.ColBlock))
	assert.Equal(t, pager.ColTimestamp, nextSortColumn(pager.ColValue))
	assert.Equal(t, pager.ColBlock, nextSortColumn(pager.ColTimestamp))
	assert.Equal(t, pager.DefaultSortColumn, nextSortColumn(pager.ColHash))
}

func newTestModel(t *testing.T, ds DataSource, cfg config.Config, target string) model {
	t.Helper()
	loc, err := parseLocation(target)
	require.NoError(t, err)
	return initialModel(context.Background(), ds, cfg, "", loc, zerolog.Nop())
}

// settleModel feeds the messages produced by cmd through the root model.
// Status timers are left unexecuted.
func settleModel(m model, cmd tea.Cmd) model {
	queue := collect(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		var next tea.Cmd
		m, next = m.update(msg)
		queue = append(queue, collect(next)...)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func okSource() *MockDataSource {
	ds := new(MockDataSource)
	ds.On("FetchSummary", mock.Anything, mock.Anything).Return(summaryFor(testAddr, 1, false), nil)
	ds.On("FetchSignedCount", mock.Anything, mock.Anything).Return(uint64(0), nil)
	ds.On("FetchPage", mock.Anything, mock.Anything).Return(pageOf("0x01"), nil)
	return ds
}

func TestModel_StartActivatesView(t *testing.T) {
	ds := okSource()
	m := newTestModel(t, ds, config.Default(), testAddr)

	m, cmd := m.update(startMsg{})
	require.NotNil(t, cmd)
	m = settleModel(m, cmd)

	assert.Len(t, m.view.table.Rows(), 1)
	ds.AssertNumberOfCalls(t, "FetchSummary", 1)
}

func TestModel_WindowTitleFollowsView(t *testing.T) {
	ds := okSource()
	m := newTestModel(t, ds, config.Default(), testAddr)
	m = settleModel(m, func() tea.Msg { return startMsg{} })

	next, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	require.NotNil(t, cmd)
	assert.Equal(t, "Address "+testChecksummed, next.(model).windowTitle)

	_, cmd = next.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Nil(t, cmd, "title is only sent when it changes")
}

func TestModel_NavigateAndBack(t *testing.T) {
	ds := okSource()
	m := newTestModel(t, ds, config.Default(), testAddr)
	m = settleModel(m, func() tea.Msg { return startMsg{} })

	m, cmd := m.handleKey(key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, otherAddr, m.view.loc.addr)
	assert.Equal(t, []location{{addr: testAddr}}, m.history)
	m = settleModel(m, cmd)
	ds.AssertCalled(t, "FetchSummary", mock.Anything, otherAddr)

	m, cmd = m.handleKey(key("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, testAddr, m.view.loc.addr)
	assert.Empty(t, m.history)

	m, cmd = m.handleKey(key("esc"))
	assert.Nil(t, cmd, "nothing left to go back to")
	assert.Equal(t, testAddr, m.view.loc.addr)
}

func TestModel_OldSessionMessagesAreDropped(t *testing.T) {
	ds := okSource()
	m := newTestModel(t, ds, config.Default(), testAddr)
	m = settleModel(m, func() tea.Msg { return startMsg{} })
	old := m.view.life.token

	m, _ = m.navigate(location{addr: otherAddr}, true)
	m, cmd := m.update(pageMsg{session: old, gen: 1, result: pageOf("0xaa", "0xbb")})
	assert.Nil(t, cmd)
	assert.False(t, m.view.table.Loaded())
}

func TestModel_TabSwitchMountsContract(t *testing.T) {
	ds := okSource()
	ds.On("FetchContract", mock.Anything, testAddr).Return(contractFixture(), nil).Once()
	m := newTestModel(t, ds, config.Default(), testAddr)
	m = settleModel(m, func() tea.Msg { return startMsg{} })

	m, cmd := m.handleKey(key("3"))
	m = settleModel(m, cmd)
	assert.Equal(t, tabContract, m.view.loc.tab)
	assert.True(t, m.view.contract.loaded)

	m, _ = m.handleKey(key("1"))
	m, cmd = m.handleKey(key("3"))
	assert.Nil(t, cmd)
	ds.AssertNumberOfCalls(t, "FetchContract", 1)
}

func TestModel_PagingKeys(t *testing.T) {
	ds := new(MockDataSource)
	ds.On("FetchSummary", mock.Anything, mock.Anything).Return(summaryFor(testAddr, 100, false), nil)
	ds.On("FetchSignedCount", mock.Anything, mock.Anything).Return(uint64(0), nil)
	page := pageOf("0x01")
	page.TotalRecords, page.TotalFiltered = 100, 100
	ds.On("FetchPage", mock.Anything, mock.Anything).Return(page, nil)
	m := newTestModel(t, ds, config.Default(), testAddr)
	m = settleModel(m, func() tea.Msg { return startMsg{} })

	m, cmd := m.handleKey(key("]"))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.view.table.Query().PageIndex)

	m, _ = m.handleKey(key("+"))
	assert.Equal(t, 50, m.view.table.Query().PageSize)
	assert.Equal(t, 0, m.view.table.Query().PageIndex, "resizing returns to the first page")

	m, _ = m.handleKey(key("S"))
	assert.Equal(t, pager.Asc, m.view.table.Query().SortDir)
}

func TestModel_Bookmark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	ds := okSource()
	loc, err := parseLocation(testAddr)
	require.NoError(t, err)
	m := initialModel(context.Background(), ds, config.Default(), path, loc, zerolog.Nop())
	m = settleModel(m, func() tea.Msg { return startMsg{} })

	m, _ = m.handleKey(key("b"))
	assert.Equal(t, "Bookmarked "+testChecksummed, m.statusMessage)
	assert.Equal(t, 0, m.bookmarkIdx)

	saved, err := config.LoadConfigFromFile(path)
	require.NoError(t, err)
	require.Len(t, saved.Addresses, 1)
	assert.Equal(t, testChecksummed, saved.Addresses[0].Address)

	m, _ = m.handleKey(key("b"))
	assert.Equal(t, "Already bookmarked", m.statusMessage)
}

func TestModel_CycleBookmarks(t *testing.T) {
	ds := okSource()
	m := newTestModel(t, ds, config.Default(), testAddr)
	m, _ = m.handleKey(key("tab"))
	assert.Equal(t, "No bookmarks saved (press b to add one)", m.statusMessage)

	cfg := config.Default()
	cfg.AddAddress(testAddr, "mine")
	cfg.AddAddress(otherAddr, "theirs")
	m = newTestModel(t, ds, cfg, testAddr)
	assert.Equal(t, 0, m.bookmarkIdx)

	m, cmd := m.handleKey(key("tab"))
	require.NotNil(t, cmd)
	assert.Equal(t, otherAddr, m.view.loc.addr)
	assert.Equal(t, 1, m.bookmarkIdx)

	m, _ = m.handleKey(key("tab"))
	assert.Equal(t, testAddr, m.view.loc.addr)
	assert.Equal(t, 0, m.bookmarkIdx)
}

func TestModel_QuitTearsDown(t *testing.T) {
	ds := okSource()
	m := newTestModel(t, ds, config.Default(), testAddr)
	m, _ = m.update(startMsg{})
	ctx := m.view.life.context()

	m, cmd := m.handleKey(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, ctx.Err())
	assert.False(t, m.view.life.active)
}
