package tui

import (
	"context"
	"time"

	"addrview/pkg/models"
	"addrview/pkg/pager"

	tea "github.com/charmbracelet/bubbletea"
)

// DataSource defines the backend calls an address view makes.
type DataSource interface {
	FetchSummary(ctx context.Context, addr string) (models.AddressSummary, error)
	FetchSignedCount(ctx context.Context, addr string) (uint64, error)
	FetchInternalTraces(ctx context.Context, addr string) ([]models.InternalTrace, error)
	FetchContract(ctx context.Context, addr string) (models.ContractArtifact, error)
	pager.Fetcher
}

// --- Messages ---

// Each fetch result carries the session that issued it and a per-fetch
// generation, so a view can drop results that are no longer its own.

type summaryMsg struct {
	session uint64
	gen     uint64
	summary models.AddressSummary
	err     error
}

type signedMsg struct {
	session uint64
	gen     uint64
	signed  uint64
	err     error
}

type pageMsg struct {
	session uint64
	gen     uint64
	result  pager.Result
	at      time.Time
	err     error
}

type tracesMsg struct {
	session uint64
	gen     uint64
	traces  []models.InternalTrace
	err     error
}

type contractMsg struct {
	session  uint64
	artifact models.ContractArtifact
	err      error
}

type clearStatusMsg struct{}

// --- Commands ---

func fetchSummaryCmd(ctx context.Context, ds DataSource, session, gen uint64, addr string) tea.Cmd {
	return func() tea.Msg {
		s, err := ds.FetchSummary(ctx, addr)
		return summaryMsg{session: session, gen: gen, summary: s, err: err}
	}
}

func fetchSignedCmd(ctx context.Context, ds DataSource, session, gen uint64, addr string) tea.Cmd {
	return func() tea.Msg {
		n, err := ds.FetchSignedCount(ctx, addr)
		return signedMsg{session: session, gen: gen, signed: n, err: err}
	}
}

func fetchPageCmd(ctx context.Context, ds DataSource, session uint64, req pager.Request) tea.Cmd {
	return func() tea.Msg {
		res, err := ds.FetchPage(ctx, req)
		return pageMsg{session: session, gen: req.Generation, result: res, at: time.Now(), err: err}
	}
}

func fetchTracesCmd(ctx context.Context, ds DataSource, session, gen uint64, addr string) tea.Cmd {
	return func() tea.Msg {
		traces, err := ds.FetchInternalTraces(ctx, addr)
		return tracesMsg{session: session, gen: gen, traces: traces, err: err}
	}
}

func fetchContractCmd(ctx context.Context, ds DataSource, session uint64, addr string) tea.Cmd {
	return func() tea.Msg {
		a, err := ds.FetchContract(ctx, addr)
		return contractMsg{session: session, artifact: a, err: err}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
