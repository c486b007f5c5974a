package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/falconhq/falcon/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 515151

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetFalconSchema drops and recreates the core schema for tests.
func ResetFalconSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", "000001_falcon.down.sql")
	upPath := filepath.Join(root, "migrations", "000001_falcon.up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestAccount creates an enabled account with sensible defaults.
func NewTestAccount(t testing.TB, phone string) *model.Account {
	t.Helper()
	now := time.Now().UTC()
	return &model.Account{
		ID:            UniqueID("acct"),
		Name:          "Ana",
		Email:         fmt.Sprintf("ana-%d@example.com", now.UnixNano()),
		Phone:         phone,
		FalconEnabled: true,
		CreatedAt:     now,
	}
}

// NewTestTask creates an incomplete task due at the given time.
func NewTestTask(t testing.TB, accountID string, dueAt time.Time) *model.Obligation {
	t.Helper()
	return &model.Obligation{
		ID:        UniqueID("task"),
		AccountID: accountID,
		Kind:      model.KindTask,
		Title:     "Enviar relatório",
		DueAt:     dueAt,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestBill creates an unpaid bill with an amount.
func NewTestBill(t testing.TB, accountID string, amount string, dueAt time.Time) *model.Obligation {
	t.Helper()
	value, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("invalid amount %q: %v", amount, err)
	}
	return &model.Obligation{
		ID:        UniqueID("bill"),
		AccountID: accountID,
		Kind:      model.KindBill,
		Title:     "Conta de luz",
		Amount:    value,
		DueAt:     dueAt,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestActivity creates an assistant message activity event.
func NewTestActivity(t testing.TB, accountID string, occurredAt time.Time) *model.ActivityEvent {
	t.Helper()
	return &model.ActivityEvent{
		ID:         UniqueID("event"),
		AccountID:  accountID,
		Kind:       model.ActivityAssistantMessage,
		OccurredAt: occurredAt,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
