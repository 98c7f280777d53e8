// Package split predicts how a shared expense should be divided among
// household members, using pattern-based heuristics with an equal-split
// fallback.
package split

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/strategy"
)

// Engine predicts expense splits. Stateless and reentrant.
type Engine struct {
	pipeline *strategy.Pipeline[Input, ratios]
	logger   *slog.Logger
}

// NewEngine creates a split prediction engine with the standard strategy
// order: merchant pattern, category pattern, household pattern, with an
// equal-split fallback that always produces a result.
func NewEngine() *Engine {
	strategies := []strategy.Strategy[Input, ratios]{
		merchantPatternStrategy{},
		categoryPatternStrategy{},
		householdPatternStrategy{},
	}

	return &Engine{
		pipeline: strategy.NewPipeline(strategies,
			strategy.WithFallback[Input, ratios](equalSplitStrategy{})),
		logger: slog.Default().With("component", "split_engine"),
	}
}

// PredictSplit suggests per-member amounts for the transaction. Suggested
// amounts always reconcile exactly to the total absolute amount; the
// largest share absorbs any rounding remainder. Inactive members are
// ignored. A household of zero or one active members yields an empty
// suggestion list.
func (e *Engine) PredictSplit(ctx context.Context, txn model.Transaction, members []model.HouseholdMember, history []model.SplitRecord) ([]model.SplitSuggestion, error) {
	active := make([]model.HouseholdMember, 0, len(members))
	for _, m := range members {
		if m.IsActive {
			active = append(active, m)
		}
	}

	candidate, err := e.pipeline.Evaluate(ctx, Input{
		Transaction: txn,
		Members:     active,
		History:     history,
	})
	if err != nil {
		return nil, fmt.Errorf("split pipeline: %w", err)
	}
	// The equal-split fallback guarantees a candidate.
	if candidate == nil || len(candidate.Payload) == 0 {
		return []model.SplitSuggestion{}, nil
	}

	suggestions := buildSuggestions(txn.AbsAmount(), active, candidate)
	e.logger.Debug("split predicted",
		"transaction_id", txn.ID,
		"strategy", candidate.StrategyName,
		"members", len(suggestions))
	return suggestions, nil
}

// roundCents rounds to 2 decimal places.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// buildSuggestions renormalizes the candidate ratios, converts them to
// currency amounts, and applies the rounding correction so the amounts sum
// exactly to the total. Member list order breaks ties deterministically.
func buildSuggestions(total float64, members []model.HouseholdMember, candidate *strategy.Candidate[ratios]) []model.SplitSuggestion {
	ratioSum := 0.0
	for _, m := range members {
		ratioSum += candidate.Payload[m.ID]
	}
	if ratioSum <= 0 {
		return []model.SplitSuggestion{}
	}

	suggestions := make([]model.SplitSuggestion, 0, len(members))
	totalCents := int64(math.Round(total * 100))
	sumCents := int64(0)
	largest := -1
	for _, m := range members {
		ratio := candidate.Payload[m.ID] / ratioSum
		cents := int64(math.Round(ratio * total * 100))
		sumCents += cents

		suggestions = append(suggestions, model.SplitSuggestion{
			UserID:              m.ID,
			StrategyName:        candidate.StrategyName,
			SuggestedAmount:     float64(cents) / 100,
			SuggestedPercentage: math.Round(ratio*1000) / 10,
			Confidence:          candidate.Confidence,
			Reasoning:           candidate.Reasoning,
		})

		if largest < 0 || suggestions[len(suggestions)-1].SuggestedAmount > suggestions[largest].SuggestedAmount {
			largest = len(suggestions) - 1
		}
	}

	// Rounding correction: the largest share absorbs the remainder.
	if diff := totalCents - sumCents; diff != 0 && largest >= 0 {
		suggestions[largest].SuggestedAmount = roundCents(
			suggestions[largest].SuggestedAmount + float64(diff)/100)
	}

	return suggestions
}
