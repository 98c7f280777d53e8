// Package model defines the core domain models used throughout the application.
package model

import "time"

// ClassificationStatus indicates how a transaction was categorized.
type ClassificationStatus string

// Classification status constants.
const (
	StatusUnclassified       ClassificationStatus = "UNCLASSIFIED"
	StatusClassifiedByEngine ClassificationStatus = "CLASSIFIED_BY_ENGINE"
	StatusAutoApplied        ClassificationStatus = "AUTO_APPLIED"
	StatusUserConfirmed      ClassificationStatus = "USER_CONFIRMED"
)

// Classification represents a transaction after category prediction.
type Classification struct {
	ClassifiedAt time.Time
	Category     string
	Status       ClassificationStatus
	StrategyName string
	Notes        string
	Transaction  Transaction
	Confidence   float64
}
