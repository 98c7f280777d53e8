package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionDirection indicates whether money entered or left an account.
type TransactionDirection string

const (
	// DirectionIncome represents money entering an account.
	DirectionIncome TransactionDirection = "INCOME"
	// DirectionExpense represents money leaving an account.
	DirectionExpense TransactionDirection = "EXPENSE"
)

// Transaction represents a single financial transaction from any source.
type Transaction struct {
	Date         time.Time
	ID           string
	Name         string // Raw transaction description
	MerchantName string // Cleaned merchant name
	AccountID    string
	Hash         string
	Category     string // Confirmed category, empty until classified
	Amount       float64
}

// Direction derives the flow direction from the amount sign.
// Positive amounts are income, negative amounts are expenses.
func (t *Transaction) Direction() TransactionDirection {
	if t.Amount > 0 {
		return DirectionIncome
	}
	return DirectionExpense
}

// AbsAmount returns the magnitude of the transaction amount.
func (t *Transaction) AbsAmount() float64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.MerchantName,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
