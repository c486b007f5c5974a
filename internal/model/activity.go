package model

import "time"

// Activity event kinds recorded by this core. The UI records its own kinds
// into the same table; the assistant never needs to enumerate them.
const (
	ActivityAssistantMessage = "assistant_message"
)

// ActivityEvent is a single recorded user action. The most recent event per
// account is the "last activity" signal used for inactivity detection.
type ActivityEvent struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}
