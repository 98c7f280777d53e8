package categorize

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/testutil"
)

var testDay = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

// histTxn builds a classified historical transaction.
func histTxn(id, merchant, name, category string, amount float64, daysAgo int) model.Transaction {
	return model.Transaction{
		ID:           id,
		Date:         testDay.AddDate(0, 0, -daysAgo),
		Name:         name,
		MerchantName: merchant,
		Category:     category,
		Amount:       amount,
	}
}

// merchantHistory builds n occurrences of one merchant under one category.
func merchantHistory(merchant, category string, amount float64, n int) []model.Transaction {
	history := make([]model.Transaction, 0, n)
	for i := 0; i < n; i++ {
		history = append(history,
			histTxn(fmt.Sprintf("%s-%d", merchant, i), merchant, merchant, category, amount, i+1))
	}
	return history
}

func TestEngine_ExactMerchantConfidenceCurve(t *testing.T) {
	tests := []struct {
		occurrences    int
		wantConfidence float64
	}{
		{occurrences: 3, wantConfidence: 0.70},
		{occurrences: 5, wantConfidence: 0.80},
		{occurrences: 10, wantConfidence: 0.95}, // capped
	}

	engine := NewEngine(nil)
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d occurrences", tt.occurrences), func(t *testing.T) {
			history := merchantHistory("Blue Bottle", "Coffee", -5.50, tt.occurrences)
			txn := model.Transaction{ID: "new", Name: "Blue Bottle", MerchantName: "Blue Bottle", Amount: -4.25, Date: testDay}

			result, err := engine.Predict(context.Background(), txn, history)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, "Coffee", result.Category)
			assert.Equal(t, "exact_merchant", result.StrategyName)
			assert.InDelta(t, tt.wantConfidence, result.Confidence, 1e-9)
		})
	}
}

func TestEngine_ExactMerchantNeedsThreeOccurrences(t *testing.T) {
	engine := NewEngine(nil)
	history := merchantHistory("Blue Bottle", "Coffee", -5.50, 2)
	txn := model.Transaction{ID: "new", Name: "Blue Bottle", MerchantName: "Blue Bottle", Amount: -4.25, Date: testDay}

	result, err := engine.Predict(context.Background(), txn, history)
	require.NoError(t, err)

	// Two exact occurrences are below the gate; the fuzzy strategy still
	// matches the merchant by containment.
	require.NotNil(t, result)
	assert.Equal(t, "fuzzy_merchant", result.StrategyName)
	assert.InDelta(t, 0.70, result.Confidence, 1e-9)
}

func TestEngine_ExactMerchantTieBrokenByRecency(t *testing.T) {
	engine := NewEngine(nil)

	// Two categories with equal counts; Dining has the more recent occurrence.
	history := []model.Transaction{
		histTxn("1", "Corner Store", "Corner Store", "Groceries", -20, 30),
		histTxn("2", "Corner Store", "Corner Store", "Groceries", -20, 20),
		histTxn("3", "Corner Store", "Corner Store", "Dining", -20, 10),
		histTxn("4", "Corner Store", "Corner Store", "Dining", -20, 1),
	}
	txn := model.Transaction{ID: "new", Name: "Corner Store", MerchantName: "Corner Store", Amount: -15, Date: testDay}

	result, err := engine.Predict(context.Background(), txn, history)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Dining", result.Category)
}

func TestEngine_DirectionIsAFeature(t *testing.T) {
	engine := NewEngine(nil)

	// Plenty of expense history for the merchant, but the new transaction
	// is income: the expense pool must not be reused.
	history := merchantHistory("AB Co", "Office Supplies", -100, 5)
	txn := model.Transaction{ID: "new", Name: "AB Co", MerchantName: "AB Co", Amount: 2500, Date: testDay}

	result, err := engine.Predict(context.Background(), txn, history)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestEngine_FuzzyMerchantMatch(t *testing.T) {
	engine := NewEngine(nil)

	history := []model.Transaction{
		histTxn("1", "Starbucks Coffee", "Starbucks Coffee", "Coffee", -6, 5),
		histTxn("2", "Starbucks Coffee", "Starbucks Coffee", "Coffee", -7, 3),
	}
	// "starbucks" is contained in the known "starbucks coffee".
	txn := model.Transaction{ID: "new", Name: "Starbucks", MerchantName: "Starbucks", Amount: -5, Date: testDay}

	result, err := engine.Predict(context.Background(), txn, history)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Coffee", result.Category)
	assert.Equal(t, "fuzzy_merchant", result.StrategyName)
	assert.InDelta(t, 0.70, result.Confidence, 1e-9)
}

func TestEngine_KeywordMatch(t *testing.T) {
	engine := NewEngine(nil)

	history := []model.Transaction{
		histTxn("1", "Property Mgmt", "Monthly rent payment apartment", "Housing", -1800, 30),
	}
	txn := model.Transaction{ID: "new", Name: "Paid the rent for the apartment", MerchantName: "Landlord LLC", Amount: -1800, Date: testDay}

	result, err := engine.Predict(context.Background(), txn, history)
	require.NoError(t, err)
	require.NotNil(t, result)

	// {paid, rent, apartment} vs {monthly, rent, payment, apartment}:
	// 2 of 3 current keywords match, above the 30% gate.
	assert.Equal(t, "Housing", result.Category)
	assert.Equal(t, "keyword_match", result.StrategyName)
	assert.InDelta(t, 0.70, result.Confidence, 1e-9)
}

func TestEngine_KeywordBelowOverlapThresholdAbstains(t *testing.T) {
	engine := NewEngine(nil)

	history := []model.Transaction{
		histTxn("1", "Somewhere", "utility electric bill november", "Utilities", -90, 10),
	}
	// Only 1 of 4 current keywords overlaps: 25%, below the gate.
	txn := model.Transaction{ID: "new", Name: "november flowers chocolate gift", MerchantName: "Florist", Amount: -40, Date: testDay}

	result, err := engine.Predict(context.Background(), txn, history)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestEngine_AmountPattern(t *testing.T) {
	engine := NewEngine(nil)

	amounts := []float64{-50, -52, -48, -51, -49}
	history := make([]model.Transaction, 0, len(amounts))
	names := []string{"alpha", "bravo", "delta", "golf", "kilo"}
	for i, amt := range amounts {
		history = append(history, histTxn(fmt.Sprintf("g%d", i), names[i], names[i], "Groceries", amt, i+1))
	}
	txn := model.Transaction{ID: "new", Name: "omega", MerchantName: "omega", Amount: -50, Date: testDay}

	result, err := engine.Predict(context.Background(), txn, history)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Groceries", result.Category)
	assert.Equal(t, "amount_pattern", result.StrategyName)
	assert.InDelta(t, 0.50, result.Confidence, 1e-9)
}

func TestEngine_AmountPatternZeroVarianceAbstains(t *testing.T) {
	engine := NewEngine(nil)

	history := make([]model.Transaction, 0, 5)
	names := []string{"alpha", "bravo", "delta", "golf", "kilo"}
	for i, name := range names {
		history = append(history, histTxn(fmt.Sprintf("g%d", i), name, name, "Subscriptions", -9.99, i+1))
	}
	// Same amount as every history row, but zero variance must
	// short-circuit to abstain instead of dividing by zero.
	txn := model.Transaction{ID: "new", Name: "omega", MerchantName: "omega", Amount: -9.99, Date: testDay}

	result, err := engine.Predict(context.Background(), txn, history)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestEngine_NoHistoryNoPrediction(t *testing.T) {
	engine := NewEngine(nil)
	txn := model.Transaction{ID: "new", Name: "Anything", MerchantName: "Anything", Amount: -10, Date: testDay}

	result, err := engine.Predict(context.Background(), txn, nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

// classificationRecorder records SaveClassification calls.
type classificationRecorder struct {
	saved []*model.Classification
}

func (r *classificationRecorder) SaveClassification(_ context.Context, c *model.Classification) error {
	r.saved = append(r.saved, c)
	return nil
}

func TestEngine_AutoCategorizeAppliesAboveThreshold(t *testing.T) {
	clk := testutil.NewFakeClock(testDay)
	engine := NewEngine(clk)
	recorder := &classificationRecorder{}

	// Nine occurrences put exact-merchant confidence at the 0.95 cap,
	// above the auto-apply threshold.
	history := merchantHistory("Blue Bottle", "Coffee", -5.50, 9)
	txn := model.Transaction{ID: "new", Name: "Blue Bottle", MerchantName: "Blue Bottle", Amount: -4.25, Date: testDay}

	result, err := engine.AutoCategorize(context.Background(), txn, history, recorder)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.AutoApply)
	require.Len(t, recorder.saved, 1)
	assert.Equal(t, "Coffee", recorder.saved[0].Category)
	assert.Equal(t, model.StatusAutoApplied, recorder.saved[0].Status)
	assert.Equal(t, "exact_merchant", recorder.saved[0].StrategyName)
	assert.Equal(t, testDay, recorder.saved[0].ClassifiedAt)
}

func TestEngine_AutoCategorizeDoesNotApplyBelowThreshold(t *testing.T) {
	engine := NewEngine(nil)
	recorder := &classificationRecorder{}

	history := merchantHistory("Blue Bottle", "Coffee", -5.50, 3)
	txn := model.Transaction{ID: "new", Name: "Blue Bottle", MerchantName: "Blue Bottle", Amount: -4.25, Date: testDay}

	result, err := engine.AutoCategorize(context.Background(), txn, history, recorder)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.AutoApply)
	assert.Empty(t, recorder.saved)
}
