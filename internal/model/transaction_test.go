package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionDirection(t *testing.T) {
	expense := Transaction{Amount: -42.50}
	assert.Equal(t, DirectionExpense, expense.Direction())

	income := Transaction{Amount: 2500}
	assert.Equal(t, DirectionIncome, income.Direction())

	// Zero-amount rows land on the expense side.
	zero := Transaction{Amount: 0}
	assert.Equal(t, DirectionExpense, zero.Direction())
}

func TestTransactionAbsAmount(t *testing.T) {
	assert.InDelta(t, 42.50, (&Transaction{Amount: -42.50}).AbsAmount(), 1e-9)
	assert.InDelta(t, 42.50, (&Transaction{Amount: 42.50}).AbsAmount(), 1e-9)
}

func TestGenerateHash_Deterministic(t *testing.T) {
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	a := Transaction{Date: date, Amount: -10.50, MerchantName: "Blue Bottle", AccountID: "acct-1"}
	b := Transaction{Date: date, Amount: -10.50, MerchantName: "Blue Bottle", AccountID: "acct-1", ID: "different-provider-id"}

	// Provider IDs differ across imports; the hash must not.
	assert.Equal(t, a.GenerateHash(), b.GenerateHash())
	assert.Len(t, a.GenerateHash(), 64)
}

func TestGenerateHash_SensitiveToAmount(t *testing.T) {
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	a := Transaction{Date: date, Amount: -10.50, MerchantName: "Blue Bottle", AccountID: "acct-1"}
	b := a
	b.Amount = -10.51

	assert.NotEqual(t, a.GenerateHash(), b.GenerateHash())
}
