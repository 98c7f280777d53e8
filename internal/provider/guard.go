package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfontaine/splitflow/internal/common"
	"github.com/mfontaine/splitflow/internal/health"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/service"
)

// GuardedFetcher wraps a TransactionFetcher with circuit breaking. It
// consults the health tracker before each upstream call and records the
// outcome afterwards, so a failing provider fast-fails instead of being
// hammered.
type GuardedFetcher struct {
	fetcher service.TransactionFetcher
	tracker *health.Tracker
	logger  *slog.Logger
	key     health.Key
}

// NewGuardedFetcher wraps fetcher with the given tracker and provider key.
func NewGuardedFetcher(fetcher service.TransactionFetcher, tracker *health.Tracker, key health.Key) *GuardedFetcher {
	return &GuardedFetcher{
		fetcher: fetcher,
		tracker: tracker,
		key:     key,
		logger:  slog.Default().With("component", "guarded_fetcher", "provider", key.String()),
	}
}

// GetTransactions fetches transactions unless the circuit is open, in
// which case it fails fast with ErrCircuitOpen without touching the
// provider.
func (g *GuardedFetcher) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	if g.tracker.IsCircuitOpen(g.key) {
		g.logger.Debug("skipping provider call, circuit open")
		return nil, fmt.Errorf("provider %s: %w", g.key.String(), common.ErrCircuitOpen)
	}

	transactions, err := g.fetcher.GetTransactions(ctx, startDate, endDate)
	if err != nil {
		g.tracker.RecordFailure(g.key)
		return nil, err
	}

	g.tracker.RecordSuccess(g.key)
	return transactions, nil
}

// State exposes the current circuit state for the guarded provider.
func (g *GuardedFetcher) State() health.State {
	return g.tracker.GetState(g.key)
}

var _ service.TransactionFetcher = (*GuardedFetcher)(nil)
