package model

import "time"

// NotificationRecord is the persisted trace of a proactive send. Nothing is
// considered "notified" without one of these rows; the sweep's dedup and any
// future reconciliation read from here.
type NotificationRecord struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	RunID     string    `json:"run_id"`
	Checks    []string  `json:"checks"`
	SentAt    time.Time `json:"sent_at"`
}
