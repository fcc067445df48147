package tui

import (
	"addrview/pkg/models"
	"addrview/pkg/pager"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

const (
	titleAddress  = "Address"
	titleContract = "Contract Address"
)

type viewOptions struct {
	pageLength int
	logger     zerolog.Logger
}

// addressView is the state of one address page. Each fetch owns a disjoint
// slice of it: the summary, the signed count, the table, the traces and the
// contract panel are updated independently and in any order.
type addressView struct {
	ds     DataSource
	logger zerolog.Logger
	life   lifecycle

	loc      location
	title    string
	subtitle string

	summary        models.AddressSummary
	summaryGen     uint64
	summaryLoading bool
	summaryErr     error
	signedGen      uint64
	signedLoading  bool
	signedErr      error

	table    pager.Table
	queryErr error
	cursor   int

	tracesGen     uint64
	tracesLoading bool
	tracesLoaded  bool
	traces        []models.InternalTrace
	tracesErr     error

	contract contractPanel
}

func newAddressView(ds DataSource, life lifecycle, loc location, opts viewOptions) addressView {
	q := pager.DefaultQuery(loc.addr)
	if pager.IsAllowedPageSize(opts.pageLength) {
		q.PageSize = opts.pageLength
	}
	return addressView{
		ds:       ds,
		logger:   opts.logger.With().Str("addr", loc.addr).Logger(),
		life:     life,
		loc:      loc,
		title:    titleAddress,
		subtitle: loc.addr,
		summary:  models.EmptySummary(loc.addr),
		table:    pager.NewTable(q),
		contract: newContractPanel(loc.addr),
	}
}

// activate starts the session and issues the summary and signed-count
// fetches concurrently. Repeated calls are no-ops.
func (v addressView) activate() (addressView, tea.Cmd) {
	if !v.life.activate() {
		return v, nil
	}
	v.logger.Debug().Str("tab", v.loc.tab.String()).Msg("view activated")
	cmds := []tea.Cmd{v.issueSummary(), v.issueSigned()}
	if v.loc.tab == tabContract {
		var cmd tea.Cmd
		v.contract, cmd = v.contract.mount(&v)
		cmds = append(cmds, cmd)
	}
	return v, tea.Batch(cmds...)
}

// teardown releases the session; nothing issued before it can change the
// view afterwards.
func (v addressView) teardown() addressView {
	v.life.teardown()
	v.logger.Debug().Msg("view torn down")
	return v
}

func (v *addressView) issueSummary() tea.Cmd {
	v.summaryGen++
	v.summaryLoading = true
	return fetchSummaryCmd(v.life.context(), v.ds, v.life.token, v.summaryGen, v.loc.addr)
}

func (v *addressView) issueSigned() tea.Cmd {
	v.signedGen++
	v.signedLoading = true
	return fetchSignedCmd(v.life.context(), v.ds, v.life.token, v.signedGen, v.loc.addr)
}

func (v *addressView) issueTraces() tea.Cmd {
	v.tracesGen++
	v.tracesLoading = true
	return fetchTracesCmd(v.life.context(), v.ds, v.life.token, v.tracesGen, v.loc.addr)
}

// requestPage supersedes any page request in flight. Invalid queries are
// refused without a fetch.
func (v addressView) requestPage(q pager.Query) (addressView, tea.Cmd) {
	req, err := v.table.Request(q)
	if err != nil {
		v.queryErr = err
		return v, nil
	}
	v.queryErr = nil
	return v, fetchPageCmd(v.life.context(), v.ds, v.life.token, req)
}

// refresh re-issues the summary and signed count. The summary outcome
// requests the latest page again, which also retries a failed one. Earlier
// responses are discarded by generation.
func (v addressView) refresh() (addressView, tea.Cmd) {
	if !v.life.active {
		return v, nil
	}
	return v, tea.Batch(v.issueSummary(), v.issueSigned())
}

// setTab switches tabs, mounting the contract panel on its first visit.
func (v addressView) setTab(t tab) (addressView, tea.Cmd) {
	v.loc.tab = t
	v.cursor = 0
	if t == tabContract && v.life.active {
		var cmd tea.Cmd
		v.contract, cmd = v.contract.mount(&v)
		return v, cmd
	}
	return v, nil
}

func (v addressView) update(msg tea.Msg) (addressView, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryMsg:
		if !v.life.accepts(msg.session) || msg.gen != v.summaryGen {
			return v, nil
		}
		return v.applySummary(msg)

	case signedMsg:
		if !v.life.accepts(msg.session) || msg.gen != v.signedGen {
			return v, nil
		}
		v.signedLoading = false
		if msg.err != nil {
			v.logger.Warn().Err(msg.err).Msg("signed count fetch failed")
			v.signedErr = msg.err
			return v, nil
		}
		v.signedErr = nil
		v.summary = v.summary.WithSigned(msg.signed)

	case pageMsg:
		if !v.life.accepts(msg.session) {
			return v, nil
		}
		if !v.table.Apply(msg.gen, msg.result, msg.err, msg.at) {
			v.logger.Debug().Uint64("gen", msg.gen).Msg("discarded stale page")
			return v, nil
		}
		if msg.err != nil {
			v.logger.Warn().Err(msg.err).Msg("page fetch failed")
		}
		if n := len(v.table.Rows()); v.cursor >= n {
			v.cursor = max(n-1, 0)
		}

	case tracesMsg:
		if !v.life.accepts(msg.session) || msg.gen != v.tracesGen {
			return v, nil
		}
		v.tracesLoading = false
		v.tracesLoaded = true
		if msg.err != nil {
			v.logger.Warn().Err(msg.err).Msg("internal trace fetch failed")
			v.tracesErr = msg.err
			return v, nil
		}
		v.tracesErr = nil
		v.traces = msg.traces

	case contractMsg:
		if !v.life.accepts(msg.session) {
			return v, nil
		}
		v.contract = v.contract.apply(msg, v.logger)
	}
	return v, nil
}

// applySummary stores a summary outcome and requests the transaction table
// either way. A failed summary leaves the pre-fetch defaults in place and
// the table is requested with whatever count is known.
func (v addressView) applySummary(msg summaryMsg) (addressView, tea.Cmd) {
	v.summaryLoading = false
	var cmds []tea.Cmd

	if msg.err != nil {
		v.logger.Warn().Err(msg.err).Msg("summary fetch failed")
		v.summaryErr = msg.err
	} else {
		v.summaryErr = nil
		v.summary = msg.summary.WithSigned(v.summary.SignedBlockCount)
		if v.summary.Balance == nil {
			v.summary.Balance = models.EmptySummary(v.loc.addr).Balance
		}
		v.subtitle = v.summary.DisplayAddress()
		if v.summary.IsContract {
			v.title = titleContract
			cmds = append(cmds, v.issueTraces())
		}
	}

	v.table.SetCount(v.summary.TransactionCount)
	if req, err := v.table.Retry(); err == nil {
		cmds = append(cmds, fetchPageCmd(v.life.context(), v.ds, v.life.token, req))
	} else {
		v.queryErr = err
	}
	return v, tea.Batch(cmds...)
}

// loading reports whether any fetch of this view is outstanding.
func (v addressView) loading() bool {
	return v.summaryLoading || v.signedLoading || v.table.Pending() || v.tracesLoading || v.contract.loading
}

// windowTitle mirrors the page title and subtitle.
func (v addressView) windowTitle() string {
	return v.title + " " + v.subtitle
}
