package model

import "time"

// PredictionKind distinguishes the two engines writing to the prediction log.
type PredictionKind string

const (
	// PredictionKindCategory marks a categorization-engine prediction.
	PredictionKindCategory PredictionKind = "CATEGORY"
	// PredictionKindSplit marks a split-prediction-engine prediction.
	PredictionKindSplit PredictionKind = "SPLIT"
)

// PredictionLog records one prediction and, once the user has weighed in,
// the confirmed ground-truth value it is scored against.
type PredictionLog struct {
	PredictedAt    time.Time
	ConfirmedAt    *time.Time
	ID             int64
	Kind           PredictionKind
	TransactionID  string
	UserID         string // Set for split predictions, empty for categorization
	StrategyName   string
	PredictedValue string
	ConfirmedValue string // Empty until the user confirms or corrects
	Confidence     float64
}

// Confirmed reports whether the prediction has ground truth to score against.
func (p *PredictionLog) Confirmed() bool {
	return p.ConfirmedAt != nil
}

// Correct reports whether the confirmed value matched the prediction.
// Unconfirmed predictions are never correct.
func (p *PredictionLog) Correct() bool {
	return p.Confirmed() && p.PredictedValue == p.ConfirmedValue
}

// AccuracyMetrics summarizes retrospective prediction accuracy over a period.
// Computed on demand, never persisted.
type AccuracyMetrics struct {
	PeriodStart        time.Time
	PeriodEnd          time.Time
	TotalPredictions   int
	CorrectPredictions int
	AccuracyRate       float64
}
