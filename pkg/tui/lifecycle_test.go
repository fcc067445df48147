package tui

import (
	"context"
	"testing"
	"time"

	"addrview/pkg/models"
	"addrview/pkg/pager"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// hangingSource never answers until its context is cancelled.
type hangingSource struct {
	started chan struct{}
}

func (s hangingSource) wait(ctx context.Context) error {
	s.started <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func (s hangingSource) FetchSummary(ctx context.Context, addr string) (models.AddressSummary, error) {
	return models.AddressSummary{}, s.wait(ctx)
}

func (s hangingSource) FetchSignedCount(ctx context.Context, addr string) (uint64, error) {
	return 0, s.wait(ctx)
}

func (s hangingSource) FetchPage(ctx context.Context, req pager.Request) (pager.Result, error) {
	return pager.Result{}, s.wait(ctx)
}

func (s hangingSource) FetchInternalTraces(ctx context.Context, addr string) ([]models.InternalTrace, error) {
	return nil, s.wait(ctx)
}

func (s hangingSource) FetchContract(ctx context.Context, addr string) (models.ContractArtifact, error) {
	return models.ContractArtifact{}, s.wait(ctx)
}

func TestLifecycle(t *testing.T) {
	l := newLifecycle(context.Background())
	assert.False(t, l.accepts(0))

	require.True(t, l.activate())
	token := l.token
	assert.False(t, l.activate(), "second activation is a no-op")
	assert.Equal(t, token, l.token)
	assert.True(t, l.accepts(token))
	assert.False(t, l.accepts(token+1))

	ctx := l.context()
	l.teardown()
	assert.False(t, l.accepts(token))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, l.activate())

	other := newLifecycle(context.Background())
	other.activate()
	assert.NotEqual(t, token, other.token, "sessions never share a token")
}

func TestTeardownReleasesHungFetches(t *testing.T) {
	defer goleak.VerifyNone(t)

	ds := hangingSource{started: make(chan struct{}, 8)}
	v := newAddressView(ds, newLifecycle(context.Background()), location{addr: testAddr, tab: tabContract}, viewOptions{logger: zerolog.Nop()})
	v, cmd := v.activate()

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	results := make(chan tea.Msg, len(batch))
	for _, c := range batch {
		go func(c tea.Cmd) { results <- c() }(c)
	}
	for range batch {
		<-ds.started
	}
	assert.True(t, v.loading())

	v = v.teardown()

	for range batch {
		select {
		case msg := <-results:
			var next tea.Cmd
			v, next = v.update(msg)
			assert.Nil(t, next)
		case <-time.After(5 * time.Second):
			t.Fatal("fetch was not released by teardown")
		}
	}
	assert.NoError(t, v.summaryErr, "results for a closed session are dropped")
	assert.NoError(t, v.contract.err)
}
