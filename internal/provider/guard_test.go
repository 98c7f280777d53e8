package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfontaine/splitflow/internal/common"
	"github.com/mfontaine/splitflow/internal/health"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/testutil"
)

// scriptedFetcher fails a fixed number of times, then succeeds.
type scriptedFetcher struct {
	failuresLeft int
	calls        int
}

var errUpstream = errors.New("upstream unavailable")

func (f *scriptedFetcher) GetTransactions(_ context.Context, _, _ time.Time) ([]model.Transaction, error) {
	f.calls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, errUpstream
	}
	return []model.Transaction{{ID: "t1", Name: "ok", Amount: -1}}, nil
}

func newGuardedFetcher(t *testing.T, fetcher *scriptedFetcher, clk *testutil.FakeClock) *GuardedFetcher {
	t.Helper()

	tracker, err := health.NewTracker(health.Config{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
		MonitoringWindow: 5 * time.Minute,
	}, clk)
	require.NoError(t, err)

	return NewGuardedFetcher(fetcher, tracker, health.Key{Provider: "plaid", Region: "us"})
}

func TestGuardedFetcher_OpensAfterRepeatedFailures(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	fetcher := &scriptedFetcher{failuresLeft: 10}
	guarded := newGuardedFetcher(t, fetcher, clk)
	ctx := context.Background()
	start, end := clk.Now().AddDate(0, 0, -30), clk.Now()

	for i := 0; i < 3; i++ {
		_, err := guarded.GetTransactions(ctx, start, end)
		assert.ErrorIs(t, err, errUpstream)
	}
	assert.Equal(t, health.StateOpen, guarded.State())

	// The circuit now fails fast without touching the provider.
	callsBefore := fetcher.calls
	_, err := guarded.GetTransactions(ctx, start, end)
	assert.ErrorIs(t, err, common.ErrCircuitOpen)
	assert.Equal(t, callsBefore, fetcher.calls)
}

func TestGuardedFetcher_ProbesAfterTimeout(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	fetcher := &scriptedFetcher{failuresLeft: 3}
	guarded := newGuardedFetcher(t, fetcher, clk)
	ctx := context.Background()
	start, end := clk.Now().AddDate(0, 0, -30), clk.Now()

	for i := 0; i < 3; i++ {
		_, _ = guarded.GetTransactions(ctx, start, end)
	}
	require.Equal(t, health.StateOpen, guarded.State())

	// After the timeout one probe call is allowed through; the scripted
	// fetcher has recovered, so the probe succeeds and the circuit closes.
	clk.Advance(time.Minute)
	require.Equal(t, health.StateHalfOpen, guarded.State())

	got, err := guarded.GetTransactions(ctx, start, end)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, health.StateClosed, guarded.State())
}

func TestGuardedFetcher_FailedProbeReopens(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	fetcher := &scriptedFetcher{failuresLeft: 10}
	guarded := newGuardedFetcher(t, fetcher, clk)
	ctx := context.Background()
	start, end := clk.Now().AddDate(0, 0, -30), clk.Now()

	for i := 0; i < 3; i++ {
		_, _ = guarded.GetTransactions(ctx, start, end)
	}
	require.Equal(t, health.StateOpen, guarded.State())

	clk.Advance(time.Minute)
	_, err := guarded.GetTransactions(ctx, start, end)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, health.StateOpen, guarded.State())
}

func TestGuardedFetcher_SuccessKeepsCircuitClosed(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	fetcher := &scriptedFetcher{}
	guarded := newGuardedFetcher(t, fetcher, clk)
	ctx := context.Background()
	start, end := clk.Now().AddDate(0, 0, -30), clk.Now()

	for i := 0; i < 5; i++ {
		_, err := guarded.GetTransactions(ctx, start, end)
		require.NoError(t, err)
	}
	assert.Equal(t, health.StateClosed, guarded.State())
	assert.Equal(t, 5, fetcher.calls)
}
