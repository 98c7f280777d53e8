// Package accuracy computes retrospective prediction accuracy against
// user-confirmed ground truth.
package accuracy

import (
	"context"
	"fmt"
	"time"

	"github.com/mfontaine/splitflow/internal/clock"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/service"
)

// DefaultWindow is the lookback period used when a filter leaves the
// period unspecified.
const DefaultWindow = 90 * 24 * time.Hour

// Tracker computes accuracy metrics on demand from the prediction log.
type Tracker struct {
	logs   service.PredictionLogStore
	clock  clock.Clock
	window time.Duration
}

// NewTracker creates an accuracy tracker. A zero window falls back to
// DefaultWindow, a nil clock to system time.
func NewTracker(logs service.PredictionLogStore, clk clock.Clock, window time.Duration) *Tracker {
	if clk == nil {
		clk = clock.New()
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{logs: logs, clock: clk, window: window}
}

// compute scores confirmed predictions only. Zero confirmed predictions
// yield a zero rate, never a division error.
func compute(logs []model.PredictionLog, start, end time.Time) model.AccuracyMetrics {
	metrics := model.AccuracyMetrics{PeriodStart: start, PeriodEnd: end}
	for i := range logs {
		if !logs[i].Confirmed() {
			continue
		}
		metrics.TotalPredictions++
		if logs[i].Correct() {
			metrics.CorrectPredictions++
		}
	}
	if metrics.TotalPredictions > 0 {
		metrics.AccuracyRate = float64(metrics.CorrectPredictions) / float64(metrics.TotalPredictions)
	}
	return metrics
}

// periodFor fills in unset filter bounds from the configured window.
func (t *Tracker) periodFor(filter *service.PredictionLogFilter) (time.Time, time.Time) {
	if filter.End.IsZero() {
		filter.End = t.clock.Now()
	}
	if filter.Start.IsZero() {
		filter.Start = filter.End.Add(-t.window)
	}
	return filter.Start, filter.End
}

// GetAccuracy returns accuracy metrics for predictions matching the filter
// within its time window.
func (t *Tracker) GetAccuracy(ctx context.Context, filter service.PredictionLogFilter) (*model.AccuracyMetrics, error) {
	start, end := t.periodFor(&filter)

	logs, err := t.logs.GetPredictionLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction logs: %w", err)
	}

	metrics := compute(logs, start, end)
	return &metrics, nil
}

// ByStrategy groups categorization accuracy by strategy name, to diagnose
// which strategy underperforms.
func (t *Tracker) ByStrategy(ctx context.Context, kind model.PredictionKind) (map[string]model.AccuracyMetrics, error) {
	filter := service.PredictionLogFilter{Kind: kind}
	start, end := t.periodFor(&filter)

	logs, err := t.logs.GetPredictionLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction logs: %w", err)
	}

	grouped := make(map[string][]model.PredictionLog)
	for _, log := range logs {
		grouped[log.StrategyName] = append(grouped[log.StrategyName], log)
	}

	result := make(map[string]model.AccuracyMetrics, len(grouped))
	for name, group := range grouped {
		result[name] = compute(group, start, end)
	}
	return result, nil
}

// ByUser groups split-prediction accuracy by household member.
func (t *Tracker) ByUser(ctx context.Context) (map[string]model.AccuracyMetrics, error) {
	filter := service.PredictionLogFilter{Kind: model.PredictionKindSplit}
	start, end := t.periodFor(&filter)

	logs, err := t.logs.GetPredictionLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction logs: %w", err)
	}

	grouped := make(map[string][]model.PredictionLog)
	for _, log := range logs {
		if log.UserID == "" {
			continue
		}
		grouped[log.UserID] = append(grouped[log.UserID], log)
	}

	result := make(map[string]model.AccuracyMetrics, len(grouped))
	for user, group := range grouped {
		result[user] = compute(group, start, end)
	}
	return result, nil
}
