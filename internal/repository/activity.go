package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/falconhq/falcon/internal/model"
)

// LastActivity returns the most recent recorded action timestamp for the
// account. A zero time with a nil error means no activity was ever recorded.
func (r *Repository) LastActivity(ctx context.Context, accountID string) (time.Time, error) {
	query := `
		SELECT COALESCE(MAX(occurred_at), 'epoch'::timestamptz)
		FROM activity_events
		WHERE account_id = $1
	`

	var last time.Time
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("failed to get last activity: %w", err)
	}

	// COALESCE yields the epoch sentinel when the account has no rows.
	if last.Unix() <= 0 {
		return time.Time{}, nil
	}

	return last, nil
}

// RecordActivity inserts an activity event. The assistant writes through the
// same table the interactive UI reads, so activity-derived state has a single
// source of truth.
func (r *Repository) RecordActivity(ctx context.Context, event *model.ActivityEvent) error {
	query := `
		INSERT INTO activity_events (id, account_id, kind, occurred_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.AccountID,
		event.Kind,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	return nil
}
