package tui

import (
	"context"

	"addrview/pkg/models"
	"addrview/pkg/pager"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

const (
	testAddr        = "0xab5801a7d398351b8be11c439e05c5b3259aec9b"
	testChecksummed = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	otherAddr       = "0x52bc44d5378309ee2abf1539bf71de1b7d7be3b5"
)

type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) FetchSummary(ctx context.Context, addr string) (models.AddressSummary, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(models.AddressSummary), args.Error(1)
}

func (m *MockDataSource) FetchSignedCount(ctx context.Context, addr string) (uint64, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockDataSource) FetchPage(ctx context.Context, req pager.Request) (pager.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(pager.Result), args.Error(1)
}

func (m *MockDataSource) FetchInternalTraces(ctx context.Context, addr string) ([]models.InternalTrace, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).([]models.InternalTrace), args.Error(1)
}

func (m *MockDataSource) FetchContract(ctx context.Context, addr string) (models.ContractArtifact, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(models.ContractArtifact), args.Error(1)
}

func summaryFor(addr string, count uint64, contract bool) models.AddressSummary {
	s := models.EmptySummary(addr)
	s.ChecksummedAddress = testChecksummed
	s.TransactionCount = count
	s.IsContract = contract
	s.Balance.SetUint64(2_000_000_000_000_000_000)
	return s
}

func pageOf(hashes ...string) pager.Result {
	rows := make([]models.TransactionRow, len(hashes))
	for i, h := range hashes {
		rows[i] = models.TransactionRow{
			Hash:  h,
			From:  testAddr,
			To:    otherAddr,
			Value: "1.5",
			Cells: []string{h, "100", testAddr, otherAddr, "1.5", "k", "1600000000"},
		}
	}
	return pager.Result{Rows: rows, TotalRecords: uint64(len(rows)), TotalFiltered: uint64(len(rows))}
}

func contractFixture() models.ContractArtifact {
	return models.ContractArtifact{
		Address:      testAddr,
		Found:        true,
		ContractName: "Token",
		SourceCode:   "contract Token {}",
		ABI:          `[{"type":"function","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}]`,
	}
}

func newTestView(ds DataSource, loc location) addressView {
	return newAddressView(ds, newLifecycle(context.Background()), loc, viewOptions{
		pageLength: pager.DefaultPageSize,
		logger:     zerolog.Nop(),
	})
}

// collect runs cmd and returns the messages it produces, flattening
// batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settle feeds every message produced by cmd back into v until no fetch is
// left.
func settle(v addressView, cmd tea.Cmd) addressView {
	queue := collect(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		var next tea.Cmd
		v, next = v.update(msg)
		queue = append(queue, collect(next)...)
	}
	return v
}

func msgsOfType[T tea.Msg](msgs []tea.Msg) []T {
	var out []T
	for _, m := range msgs {
		if t, ok := m.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
