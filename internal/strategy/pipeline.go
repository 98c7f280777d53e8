// Package strategy provides the ordered-evaluation engine shared by the
// categorization and split-prediction engines. Strategies are tried in
// priority order; the first one that produces a candidate wins. A strategy
// signals "not enough evidence" by returning a nil candidate, never by
// returning an error or a sentinel confidence.
package strategy

import (
	"context"
	"fmt"
	"log/slog"
)

// Candidate is a single strategy's prediction: a payload with a confidence
// score in [0,1] and a human-readable explanation.
type Candidate[Out any] struct {
	StrategyName string
	Reasoning    string
	Payload      Out
	Confidence   float64
}

// Strategy evaluates one heuristic against an input snapshot. Returning
// (nil, nil) means the strategy abstains.
type Strategy[In, Out any] interface {
	Name() string
	Evaluate(ctx context.Context, in In) (*Candidate[Out], error)
}

// Pipeline evaluates an ordered list of strategies. Priority is list order:
// earlier strategies are consulted first and there is no confidence-based
// override across strategies.
type Pipeline[In, Out any] struct {
	logger     *slog.Logger
	fallback   Strategy[In, Out]
	strategies []Strategy[In, Out]
}

// Option configures a Pipeline.
type Option[In, Out any] func(*Pipeline[In, Out])

// WithFallback installs a guaranteed fallback strategy, consulted only when
// every ordered strategy abstains.
func WithFallback[In, Out any](fallback Strategy[In, Out]) Option[In, Out] {
	return func(p *Pipeline[In, Out]) {
		p.fallback = fallback
	}
}

// NewPipeline creates a pipeline over the given strategies, highest
// priority first.
func NewPipeline[In, Out any](strategies []Strategy[In, Out], opts ...Option[In, Out]) *Pipeline[In, Out] {
	p := &Pipeline[In, Out]{
		strategies: strategies,
		logger:     slog.Default().With("component", "strategy_pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate runs strategies in order and returns the first non-abstaining
// candidate. A nil candidate with a nil error means no strategy (and no
// fallback) produced a prediction.
func (p *Pipeline[In, Out]) Evaluate(ctx context.Context, in In) (*Candidate[Out], error) {
	for _, s := range p.strategies {
		candidate, err := s.Evaluate(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", s.Name(), err)
		}
		if candidate != nil {
			p.logger.Debug("strategy produced candidate",
				"strategy", s.Name(),
				"confidence", candidate.Confidence)
			candidate.StrategyName = s.Name()
			return candidate, nil
		}
	}

	if p.fallback != nil {
		candidate, err := p.fallback.Evaluate(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("fallback strategy %s: %w", p.fallback.Name(), err)
		}
		if candidate != nil {
			candidate.StrategyName = p.fallback.Name()
		}
		return candidate, nil
	}

	return nil, nil
}
