package cache

import (
	"testing"
	"time"
)

func TestDedupKey_Layout(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	key := DedupKey("acc-1", "upcoming_bills", day)
	want := "falcon:notify:acc-1:upcoming_bills:2025-06-15"
	if key != want {
		t.Errorf("DedupKey = %q, want %q", key, want)
	}
}

func TestDedupKey_SameDaySameKey(t *testing.T) {
	t.Parallel()

	morning := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)
	evening := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)

	if DedupKey("acc-1", "pending_tasks", morning) != DedupKey("acc-1", "pending_tasks", evening) {
		t.Error("same UTC day should produce the same dedup key")
	}
}

func TestDedupKey_UsesUTCDay(t *testing.T) {
	t.Parallel()

	// 23:00 in UTC-3 is already the next day in UTC.
	loc := time.FixedZone("UTC-3", -3*60*60)
	local := time.Date(2025, 6, 15, 23, 0, 0, 0, loc)

	key := DedupKey("acc-1", "inactivity", local)
	want := "falcon:notify:acc-1:inactivity:2025-06-16"
	if key != want {
		t.Errorf("DedupKey = %q, want %q", key, want)
	}
}

func TestDedupKey_DifferentChecksDifferentKeys(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if DedupKey("acc-1", "pending_tasks", day) == DedupKey("acc-1", "upcoming_bills", day) {
		t.Error("different checks should produce different dedup keys")
	}
	if DedupKey("acc-1", "pending_tasks", day) == DedupKey("acc-2", "pending_tasks", day) {
		t.Error("different accounts should produce different dedup keys")
	}
}
