package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/mfontaine/splitflow/internal/model"
)

// SaveHouseholdMember inserts or updates a household member.
func (s *SQLiteStorage) SaveHouseholdMember(ctx context.Context, member *model.HouseholdMember) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("member cannot be nil")
	}
	if err := validateString(member.ID, "member ID"); err != nil {
		return err
	}
	if err := validateString(member.Name, "member name"); err != nil {
		return err
	}

	joined := member.JoinedAt
	if joined.IsZero() {
		joined = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO household_members (id, name, is_active, joined_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_active = excluded.is_active`,
		member.ID, member.Name, member.IsActive, joined)
	if err != nil {
		return fmt.Errorf("failed to save household member: %w", err)
	}

	return nil
}

// GetHouseholdMembers retrieves all household members, active and inactive.
func (s *SQLiteStorage) GetHouseholdMembers(ctx context.Context) ([]model.HouseholdMember, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, is_active, joined_at
		FROM household_members
		ORDER BY joined_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query household members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []model.HouseholdMember
	for rows.Next() {
		var m model.HouseholdMember
		if err := rows.Scan(&m.ID, &m.Name, &m.IsActive, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan household member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// SaveSplitRecord persists a confirmed expense split with its per-member shares.
func (s *SQLiteStorage) SaveSplitRecord(ctx context.Context, record *model.SplitRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := validateString(record.ID, "record ID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO split_records (id, date, merchant_name, category, total_amount)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			merchant_name = excluded.merchant_name,
			category = excluded.category,
			total_amount = excluded.total_amount`,
		record.ID, record.Date, record.MerchantName, record.Category, record.TotalAmount); err != nil {
		return fmt.Errorf("failed to save split record: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM split_shares WHERE split_id = ?`, record.ID); err != nil {
		return fmt.Errorf("failed to clear split shares: %w", err)
	}

	for _, share := range record.Shares {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO split_shares (split_id, user_id, ratio) VALUES (?, ?, ?)`,
			record.ID, share.UserID, share.Ratio); err != nil {
			return fmt.Errorf("failed to save split share: %w", err)
		}
	}

	return tx.Commit()
}

// GetSplitRecords retrieves split records within the lookback window,
// newest first, with their shares attached.
func (s *SQLiteStorage) GetSplitRecords(ctx context.Context, since time.Time) ([]model.SplitRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, COALESCE(merchant_name, ''), COALESCE(category, ''), total_amount
		FROM split_records
		WHERE date >= ?
		ORDER BY date DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query split records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.SplitRecord
	index := make(map[string]int)
	for rows.Next() {
		var r model.SplitRecord
		if err := rows.Scan(&r.ID, &r.Date, &r.MerchantName, &r.Category, &r.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan split record: %w", err)
		}
		index[r.ID] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	shareRows, err := s.db.QueryContext(ctx, `
		SELECT ss.split_id, ss.user_id, ss.ratio
		FROM split_shares ss
		JOIN split_records sr ON sr.id = ss.split_id
		WHERE sr.date >= ?
		ORDER BY ss.split_id, ss.user_id`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query split shares: %w", err)
	}
	defer func() { _ = shareRows.Close() }()

	for shareRows.Next() {
		var splitID string
		var share model.SplitShare
		if err := shareRows.Scan(&splitID, &share.UserID, &share.Ratio); err != nil {
			return nil, fmt.Errorf("failed to scan split share: %w", err)
		}
		if i, ok := index[splitID]; ok {
			records[i].Shares = append(records[i].Shares, share)
		}
	}

	return records, shareRows.Err()
}
