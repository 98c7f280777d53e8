// Package categorize predicts transaction categories from noisy historical
// data using ordered, confidence-scored heuristic strategies.
package categorize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfontaine/splitflow/internal/clock"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/service"
	"github.com/mfontaine/splitflow/internal/strategy"
)

// AutoApplyThreshold is the minimum confidence for applying a predicted
// category without user confirmation.
const AutoApplyThreshold = 0.90

// Result is a category prediction surfaced to the caller. AutoApply is set
// when the confidence clears AutoApplyThreshold.
type Result struct {
	Category     string
	StrategyName string
	Reasoning    string
	Confidence   float64
	AutoApply    bool
}

// Engine predicts transaction categories. Stateless and reentrant: each
// call receives its own history snapshot and mutates nothing shared.
type Engine struct {
	pipeline *strategy.Pipeline[Input, string]
	clock    clock.Clock
	logger   *slog.Logger
}

// NewEngine creates a categorization engine with the standard strategy
// order: exact merchant, fuzzy merchant, keyword, amount pattern. A nil
// clock falls back to system time.
func NewEngine(clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.New()
	}

	strategies := []strategy.Strategy[Input, string]{
		exactMerchantStrategy{},
		fuzzyMerchantStrategy{},
		keywordStrategy{},
		amountPatternStrategy{},
	}

	return &Engine{
		pipeline: strategy.NewPipeline(strategies),
		clock:    clk,
		logger:   slog.Default().With("component", "categorize_engine"),
	}
}

// Predict evaluates the strategies against the transaction and its
// historical context. Returns (nil, nil) when no strategy has enough
// evidence; insufficient history is an ordinary outcome, not an error.
func (e *Engine) Predict(ctx context.Context, txn model.Transaction, history []model.Transaction) (*Result, error) {
	candidate, err := e.pipeline.Evaluate(ctx, Input{Transaction: txn, History: history})
	if err != nil {
		return nil, fmt.Errorf("categorization pipeline: %w", err)
	}
	if candidate == nil {
		e.logger.Debug("no confident prediction", "transaction_id", txn.ID)
		return nil, nil
	}

	return &Result{
		Category:     candidate.Payload,
		Confidence:   candidate.Confidence,
		StrategyName: candidate.StrategyName,
		Reasoning:    candidate.Reasoning,
		AutoApply:    candidate.Confidence >= AutoApplyThreshold,
	}, nil
}

// AutoCategorize predicts and, when the prediction clears the auto-apply
// threshold, persists the category via the supplied writer. The returned
// Result reports what happened either way.
func (e *Engine) AutoCategorize(ctx context.Context, txn model.Transaction, history []model.Transaction, writer service.ClassificationWriter) (*Result, error) {
	result, err := e.Predict(ctx, txn, history)
	if err != nil || result == nil {
		return result, err
	}

	if !result.AutoApply {
		return result, nil
	}

	classification := &model.Classification{
		Transaction:  txn,
		Category:     result.Category,
		Status:       model.StatusAutoApplied,
		StrategyName: result.StrategyName,
		Confidence:   result.Confidence,
		ClassifiedAt: e.clock.Now(),
	}
	if err := writer.SaveClassification(ctx, classification); err != nil {
		return nil, fmt.Errorf("failed to save auto-applied classification: %w", err)
	}

	e.logger.Info("category auto-applied",
		"transaction_id", txn.ID,
		"category", result.Category,
		"strategy", result.StrategyName,
		"confidence", result.Confidence)

	return result, nil
}
