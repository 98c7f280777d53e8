package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mfontaine/splitflow/internal/common"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/service"
)

// SaveTransactions persists transactions, skipping duplicates by hash.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions
			(id, hash, date, name, merchant_name, amount, category, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		t := &transactions[i]
		hash := t.Hash
		if hash == "" {
			hash = t.GenerateHash()
		}
		if _, err := stmt.ExecContext(ctx,
			t.ID, hash, t.Date, t.Name, t.MerchantName, t.Amount, t.Category, t.AccountID); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, hash, date, name, COALESCE(merchant_name, ''), amount,
			COALESCE(category, ''), COALESCE(account_id, '')
		FROM transactions WHERE id = ?`, id)

	var t model.Transaction
	err := row.Scan(&t.ID, &t.Hash, &t.Date, &t.Name, &t.MerchantName,
		&t.Amount, &t.Category, &t.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &t, nil
}

// scanTransactions reads transaction rows produced by the standard column list.
func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.Hash, &t.Date, &t.Name, &t.MerchantName,
			&t.Amount, &t.Category, &t.AccountID); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

const transactionColumns = `id, hash, date, name, COALESCE(merchant_name, ''), amount,
	COALESCE(category, ''), COALESCE(account_id, '')`

// GetTransactions retrieves transactions matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	var args []any

	if filter.StartDate != nil {
		query += ` AND date >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += ` AND date <= ?`
		args = append(args, *filter.EndDate)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY date DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetTransactionsByMerchant retrieves transactions for a merchant within
// the lookback window, matched case-insensitively.
func (s *SQLiteStorage) GetTransactionsByMerchant(ctx context.Context, merchant string, since time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE LOWER(merchant_name) = LOWER(?) AND date >= ?
		ORDER BY date DESC`, merchant, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by merchant: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetClassifiedTransactions retrieves transactions that have a confirmed
// category, within the lookback window.
func (s *SQLiteStorage) GetClassifiedTransactions(ctx context.Context, since time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE category IS NOT NULL AND category != '' AND date >= ?
		ORDER BY date DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query classified transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// SaveClassification persists a classification and reflects the category
// onto the transaction row so history queries see it.
func (s *SQLiteStorage) SaveClassification(ctx context.Context, classification *model.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if classification == nil {
		return fmt.Errorf("classification cannot be nil")
	}
	if err := validateString(classification.Transaction.ID, "transaction ID"); err != nil {
		return err
	}
	if err := validateString(classification.Category, "category"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO classifications
			(transaction_id, category, status, strategy_name, confidence, classified_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			category = excluded.category,
			status = excluded.status,
			strategy_name = excluded.strategy_name,
			confidence = excluded.confidence,
			classified_at = excluded.classified_at,
			notes = excluded.notes`,
		classification.Transaction.ID,
		classification.Category,
		classification.Status,
		classification.StrategyName,
		classification.Confidence,
		classification.ClassifiedAt,
		classification.Notes); err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET category = ? WHERE id = ?`,
		classification.Category, classification.Transaction.ID); err != nil {
		return fmt.Errorf("failed to update transaction category: %w", err)
	}

	return tx.Commit()
}
