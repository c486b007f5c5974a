// Package model defines domain entities for the application.
package model

import "time"

// Account represents a registered user reachable over the messaging channel.
// Phone holds the digits exactly as stored at signup, which may or may not
// include the country code prefix.
type Account struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	FalconEnabled bool      `json:"falcon_enabled"`
	CreatedAt     time.Time `json:"created_at"`
}
