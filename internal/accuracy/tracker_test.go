package accuracy

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/service"
	"github.com/mfontaine/splitflow/internal/testutil"
)

var accuracyNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

// seedPrediction saves a prediction and optionally confirms it with the
// given ground truth.
func seedPrediction(t *testing.T, store service.PredictionLogStore, log model.PredictionLog, confirmedValue string, confirm bool) {
	t.Helper()

	id, err := store.SavePredictionLog(context.Background(), &log)
	require.NoError(t, err)

	if confirm {
		err = store.ConfirmPrediction(context.Background(), id, confirmedValue, log.PredictedAt.Add(time.Hour))
		require.NoError(t, err)
	}
}

func categoryLog(txnID, strategyName, predicted string, daysAgo int) model.PredictionLog {
	return model.PredictionLog{
		Kind:           model.PredictionKindCategory,
		TransactionID:  txnID,
		StrategyName:   strategyName,
		PredictedValue: predicted,
		Confidence:     0.8,
		PredictedAt:    accuracyNow.AddDate(0, 0, -daysAgo),
	}
}

func splitLog(txnID, userID, predicted string, daysAgo int) model.PredictionLog {
	return model.PredictionLog{
		Kind:           model.PredictionKindSplit,
		TransactionID:  txnID,
		UserID:         userID,
		StrategyName:   "equal_split",
		PredictedValue: predicted,
		Confidence:     0.5,
		PredictedAt:    accuracyNow.AddDate(0, 0, -daysAgo),
	}
}

func TestGetAccuracy_NoPredictions(t *testing.T) {
	store := testutil.SetupTestDB(t)
	tracker := NewTracker(store, testutil.NewFakeClock(accuracyNow), 0)

	metrics, err := tracker.GetAccuracy(context.Background(), service.PredictionLogFilter{})
	require.NoError(t, err)

	assert.Equal(t, 0, metrics.TotalPredictions)
	assert.Equal(t, 0, metrics.CorrectPredictions)
	assert.Zero(t, metrics.AccuracyRate)
	assert.Equal(t, accuracyNow, metrics.PeriodEnd)
	assert.Equal(t, accuracyNow.Add(-DefaultWindow), metrics.PeriodStart)
}

func TestGetAccuracy_CountsConfirmedOnly(t *testing.T) {
	store := testutil.SetupTestDB(t)
	tracker := NewTracker(store, testutil.NewFakeClock(accuracyNow), 0)

	seedPrediction(t, store, categoryLog("t1", "exact_merchant", "Coffee", 1), "Coffee", true)
	seedPrediction(t, store, categoryLog("t2", "exact_merchant", "Coffee", 2), "Dining", true)
	// Unconfirmed predictions carry no ground truth and must not count.
	seedPrediction(t, store, categoryLog("t3", "exact_merchant", "Coffee", 3), "", false)

	metrics, err := tracker.GetAccuracy(context.Background(), service.PredictionLogFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.TotalPredictions)
	assert.Equal(t, 1, metrics.CorrectPredictions)
	assert.InDelta(t, 0.5, metrics.AccuracyRate, 1e-9)
}

func TestGetAccuracy_WindowExcludesOldPredictions(t *testing.T) {
	store := testutil.SetupTestDB(t)
	tracker := NewTracker(store, testutil.NewFakeClock(accuracyNow), 0)

	seedPrediction(t, store, categoryLog("recent", "exact_merchant", "Coffee", 10), "Coffee", true)
	// Predicted 120 days ago, outside the 90-day default window.
	seedPrediction(t, store, categoryLog("stale", "exact_merchant", "Coffee", 120), "Dining", true)

	metrics, err := tracker.GetAccuracy(context.Background(), service.PredictionLogFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.TotalPredictions)
	assert.Equal(t, 1, metrics.CorrectPredictions)
	assert.InDelta(t, 1.0, metrics.AccuracyRate, 1e-9)
}

func TestGetAccuracy_ExplicitPeriodRespected(t *testing.T) {
	store := testutil.SetupTestDB(t)
	tracker := NewTracker(store, testutil.NewFakeClock(accuracyNow), 0)

	seedPrediction(t, store, categoryLog("recent", "exact_merchant", "Coffee", 5), "Coffee", true)
	seedPrediction(t, store, categoryLog("older", "exact_merchant", "Coffee", 40), "Coffee", true)

	filter := service.PredictionLogFilter{
		Start: accuracyNow.AddDate(0, 0, -10),
		End:   accuracyNow,
	}
	metrics, err := tracker.GetAccuracy(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.TotalPredictions)
	assert.Equal(t, filter.Start, metrics.PeriodStart)
	assert.Equal(t, filter.End, metrics.PeriodEnd)
}

func TestByStrategy_GroupsByStrategyName(t *testing.T) {
	store := testutil.SetupTestDB(t)
	tracker := NewTracker(store, testutil.NewFakeClock(accuracyNow), 0)

	for i := 0; i < 4; i++ {
		seedPrediction(t, store,
			categoryLog(fmt.Sprintf("em-%d", i), "exact_merchant", "Coffee", i+1), "Coffee", true)
	}
	seedPrediction(t, store, categoryLog("kw-1", "keyword_match", "Housing", 1), "Housing", true)
	seedPrediction(t, store, categoryLog("kw-2", "keyword_match", "Housing", 2), "Utilities", true)
	// Split predictions must not leak into category grouping.
	seedPrediction(t, store, splitLog("sp-1", "alice", "25.00", 1), "25.00", true)

	grouped, err := tracker.ByStrategy(context.Background(), model.PredictionKindCategory)
	require.NoError(t, err)
	require.Len(t, grouped, 2)

	exact := grouped["exact_merchant"]
	assert.Equal(t, 4, exact.TotalPredictions)
	assert.InDelta(t, 1.0, exact.AccuracyRate, 1e-9)

	keyword := grouped["keyword_match"]
	assert.Equal(t, 2, keyword.TotalPredictions)
	assert.InDelta(t, 0.5, keyword.AccuracyRate, 1e-9)
}

func TestByUser_GroupsSplitPredictionsByMember(t *testing.T) {
	store := testutil.SetupTestDB(t)
	tracker := NewTracker(store, testutil.NewFakeClock(accuracyNow), 0)

	seedPrediction(t, store, splitLog("d1", "alice", "25.00", 1), "25.00", true)
	seedPrediction(t, store, splitLog("d1", "bob", "25.00", 1), "30.00", true)
	seedPrediction(t, store, splitLog("d2", "alice", "40.00", 2), "40.00", true)
	// Category predictions have no user and are excluded entirely.
	seedPrediction(t, store, categoryLog("c1", "exact_merchant", "Coffee", 1), "Coffee", true)

	grouped, err := tracker.ByUser(context.Background())
	require.NoError(t, err)
	require.Len(t, grouped, 2)

	alice := grouped["alice"]
	assert.Equal(t, 2, alice.TotalPredictions)
	assert.InDelta(t, 1.0, alice.AccuracyRate, 1e-9)

	bob := grouped["bob"]
	assert.Equal(t, 1, bob.TotalPredictions)
	assert.Zero(t, bob.AccuracyRate)
}
