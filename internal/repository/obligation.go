package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/falconhq/falcon/internal/model"
)

// ListDueTasks returns the account's incomplete tasks with a due time at or
// before the cutoff. The caller chooses the cutoff (typically end of today),
// so overdue tasks are included by construction.
func (r *Repository) ListDueTasks(ctx context.Context, accountID string, cutoff time.Time) ([]model.Obligation, error) {
	query := `
		SELECT id, account_id, kind, title, amount, due_at, completed, created_at
		FROM obligations
		WHERE account_id = $1
		  AND kind = 'task'
		  AND completed = false
		  AND due_at <= $2
		ORDER BY due_at
	`

	return r.listObligations(ctx, query, accountID, cutoff)
}

// ListPendingBills returns the account's unpaid bills due at or before the
// horizon, overdue ones included.
func (r *Repository) ListPendingBills(ctx context.Context, accountID string, horizon time.Time) ([]model.Obligation, error) {
	query := `
		SELECT id, account_id, kind, title, amount, due_at, completed, created_at
		FROM obligations
		WHERE account_id = $1
		  AND kind = 'bill'
		  AND completed = false
		  AND due_at <= $2
		ORDER BY due_at
	`

	return r.listObligations(ctx, query, accountID, horizon)
}

func (r *Repository) listObligations(ctx context.Context, query string, args ...any) ([]model.Obligation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	defer rows.Close()

	var obligations []model.Obligation
	for rows.Next() {
		var o model.Obligation
		if err := rows.Scan(
			&o.ID,
			&o.AccountID,
			&o.Kind,
			&o.Title,
			&o.Amount,
			&o.DueAt,
			&o.Completed,
			&o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		obligations = append(obligations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read obligations: %w", err)
	}

	return obligations, nil
}
