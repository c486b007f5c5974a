package cache

import (
	"context"
	"fmt"
	"time"
)

// Dedup key layout and retention for proactive notifications.
// One notification per account per check per calendar day (UTC).
const (
	dedupKeyPrefix = "falcon:notify:"

	// DedupTTL is the retention window for dedup keys. Slightly over a day
	// so a sweep running right after midnight still sees yesterday's key
	// expire on its own rather than racing the boundary.
	DedupTTL = 25 * time.Hour
)

// DedupKey builds the dedup key for an account/check pair on a given day.
func DedupKey(accountID, check string, day time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", dedupKeyPrefix, accountID, check, day.UTC().Format("2006-01-02"))
}

// MarkNotified records that a notification went out for the account/check
// pair today. Returns true if this is the first send of the day, false if a
// prior sweep already claimed it.
func (c *Cache) MarkNotified(ctx context.Context, accountID, check string, now time.Time) (bool, error) {
	key := DedupKey(accountID, check, now)

	first, err := c.client.SetNX(ctx, key, "1", DedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}

	return first, nil
}
