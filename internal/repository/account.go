package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/falconhq/falcon/internal/model"
)

// Common errors for account repository operations.
var (
	// ErrAccountNotFound is returned when no account matches, and also when
	// more than one account matches a phone lookup. An ambiguous phone must
	// never resolve to a guessed account.
	ErrAccountNotFound = errors.New("account not found")
)

// GetAccountByID retrieves an account by its ID.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	query := `
		SELECT id, name, email, phone, falcon_enabled, created_at
		FROM accounts
		WHERE id = $1
	`

	var account model.Account
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.Phone,
		&account.FalconEnabled,
		&account.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}

	return &account, nil
}

// GetAccountByPhone retrieves an account whose stored phone exactly equals
// the given digits. Equality match only; a lookup matching more than one row
// is reported as not found rather than picking one.
func (r *Repository) GetAccountByPhone(ctx context.Context, phone string) (*model.Account, error) {
	query := `
		SELECT id, name, email, phone, falcon_enabled, created_at
		FROM accounts
		WHERE phone = $1
		LIMIT 2
	`

	rows, err := r.pool.Query(ctx, query, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by phone: %w", err)
	}
	defer rows.Close()

	var matches []model.Account
	for rows.Next() {
		var account model.Account
		if err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Email,
			&account.Phone,
			&account.FalconEnabled,
			&account.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		matches = append(matches, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}

	if len(matches) != 1 {
		return nil, ErrAccountNotFound
	}

	return &matches[0], nil
}

// ListFalconAccounts returns all accounts that opted into the assistant.
func (r *Repository) ListFalconAccounts(ctx context.Context) ([]model.Account, error) {
	query := `
		SELECT id, name, email, phone, falcon_enabled, created_at
		FROM accounts
		WHERE falcon_enabled = true
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list falcon accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var account model.Account
		if err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Email,
			&account.Phone,
			&account.FalconEnabled,
			&account.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}

	return accounts, nil
}
