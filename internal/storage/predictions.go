package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mfontaine/splitflow/internal/common"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/service"
)

// SavePredictionLog records a prediction and returns its assigned ID.
func (s *SQLiteStorage) SavePredictionLog(ctx context.Context, log *model.PredictionLog) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if log == nil {
		return 0, fmt.Errorf("prediction log cannot be nil")
	}
	if err := validateString(string(log.Kind), "kind"); err != nil {
		return 0, err
	}
	if err := validateString(log.StrategyName, "strategy name"); err != nil {
		return 0, err
	}

	predictedAt := log.PredictedAt
	if predictedAt.IsZero() {
		predictedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO prediction_logs
			(kind, transaction_id, user_id, strategy_name, predicted_value,
			 confirmed_value, confidence, predicted_at, confirmed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.Kind, log.TransactionID, log.UserID, log.StrategyName,
		log.PredictedValue, log.ConfirmedValue, log.Confidence,
		predictedAt, log.ConfirmedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to save prediction log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get prediction log ID: %w", err)
	}
	return id, nil
}

// ConfirmPrediction records the user-confirmed ground truth for a prediction.
func (s *SQLiteStorage) ConfirmPrediction(ctx context.Context, id int64, confirmedValue string, confirmedAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE prediction_logs
		SET confirmed_value = ?, confirmed_at = ?
		WHERE id = ?`, confirmedValue, confirmedAt, id)
	if err != nil {
		return fmt.Errorf("failed to confirm prediction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check confirmation result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("prediction log %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// GetPredictionLogs retrieves prediction logs matching the filter, oldest first.
func (s *SQLiteStorage) GetPredictionLogs(ctx context.Context, filter service.PredictionLogFilter) ([]model.PredictionLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, kind, transaction_id, COALESCE(user_id, ''), strategy_name,
			predicted_value, COALESCE(confirmed_value, ''), confidence,
			predicted_at, confirmed_at
		FROM prediction_logs WHERE 1=1`
	var args []any

	if !filter.Start.IsZero() {
		query += ` AND predicted_at >= ?`
		args = append(args, filter.Start)
	}
	if !filter.End.IsZero() {
		query += ` AND predicted_at <= ?`
		args = append(args, filter.End)
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	if filter.StrategyName != "" {
		query += ` AND strategy_name = ?`
		args = append(args, filter.StrategyName)
	}
	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY predicted_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []model.PredictionLog
	for rows.Next() {
		var log model.PredictionLog
		var confirmedAt sql.NullTime
		if err := rows.Scan(&log.ID, &log.Kind, &log.TransactionID, &log.UserID,
			&log.StrategyName, &log.PredictedValue, &log.ConfirmedValue,
			&log.Confidence, &log.PredictedAt, &confirmedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction log: %w", err)
		}
		if confirmedAt.Valid {
			t := confirmedAt.Time
			log.ConfirmedAt = &t
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
