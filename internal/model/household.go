package model

import "time"

// HouseholdMember represents a person who can share expenses.
type HouseholdMember struct {
	JoinedAt time.Time
	ID       string
	Name     string
	IsActive bool
}

// SplitShare is one member's portion of a historical expense split.
// Ratio is the fraction of the total assigned to the member; recorded
// ratios are not guaranteed to sum to exactly 1.
type SplitShare struct {
	UserID string
	Ratio  float64
}

// SplitRecord represents a user-confirmed division of a past shared expense.
type SplitRecord struct {
	Date         time.Time
	ID           string
	MerchantName string
	Category     string
	TotalAmount  float64
	Shares       []SplitShare
}

// SplitSuggestion is a predicted share of a transaction for one member.
// SuggestedAmount is rounded to cents; SuggestedPercentage is rounded to
// one decimal place for display and may not sum to exactly 100 across a
// suggestion set.
type SplitSuggestion struct {
	UserID              string
	StrategyName        string
	Reasoning           string
	SuggestedAmount     float64
	SuggestedPercentage float64
	Confidence          float64
}
