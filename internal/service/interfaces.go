// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mfontaine/splitflow/internal/model"
)

// RetryOptions configures retry behavior for operations that may fail transiently.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
	Limit     int
}

// PredictionLogFilter defines filtering options for prediction log queries.
// Zero values mean "no constraint".
type PredictionLogFilter struct {
	Start        time.Time
	End          time.Time
	Kind         model.PredictionKind
	StrategyName string
	UserID       string
}

// TransactionHistory is the read interface the categorization engine's
// callers use to assemble a historical context snapshot.
type TransactionHistory interface {
	GetTransactionsByMerchant(ctx context.Context, merchant string, since time.Time) ([]model.Transaction, error)
	GetClassifiedTransactions(ctx context.Context, since time.Time) ([]model.Transaction, error)
}

// SplitHistory is the read interface supplying historical split records.
type SplitHistory interface {
	GetSplitRecords(ctx context.Context, since time.Time) ([]model.SplitRecord, error)
	GetHouseholdMembers(ctx context.Context) ([]model.HouseholdMember, error)
}

// ClassificationWriter persists engine-applied categories.
type ClassificationWriter interface {
	SaveClassification(ctx context.Context, classification *model.Classification) error
}

// PredictionLogStore records predictions and their eventual confirmations.
type PredictionLogStore interface {
	SavePredictionLog(ctx context.Context, log *model.PredictionLog) (int64, error)
	ConfirmPrediction(ctx context.Context, id int64, confirmedValue string, confirmedAt time.Time) error
	GetPredictionLogs(ctx context.Context, filter PredictionLogFilter) ([]model.PredictionLog, error)
}

// TransactionFetcher retrieves transactions from an upstream provider.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	TransactionHistory
	SplitHistory
	ClassificationWriter
	PredictionLogStore

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)

	// Split operations
	SaveSplitRecord(ctx context.Context, record *model.SplitRecord) error
	SaveHouseholdMember(ctx context.Context, member *model.HouseholdMember) error

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name, description string, categoryType model.CategoryType) (*model.Category, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
