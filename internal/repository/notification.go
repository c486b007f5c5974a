package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/falconhq/falcon/internal/model"
)

// InsertNotification persists the record of a proactive send.
func (r *Repository) InsertNotification(ctx context.Context, record *model.NotificationRecord) error {
	query := `
		INSERT INTO notification_log (id, account_id, run_id, checks, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.AccountID,
		record.RunID,
		pq.Array(record.Checks),
		record.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification record: %w", err)
	}

	return nil
}

// ListNotificationsByAccount returns the account's notification history,
// most recent first.
func (r *Repository) ListNotificationsByAccount(ctx context.Context, accountID string, limit int) ([]model.NotificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, account_id, run_id, checks, sent_at
		FROM notification_log
		WHERE account_id = $1
		ORDER BY sent_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var records []model.NotificationRecord
	for rows.Next() {
		var record model.NotificationRecord
		var checks []string
		if err := rows.Scan(
			&record.ID,
			&record.AccountID,
			&record.RunID,
			pq.Array(&checks),
			&record.SentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification record: %w", err)
		}
		record.Checks = checks
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notification records: %w", err)
	}

	return records, nil
}
