// Package events defines the roster event payloads published by the service.
package events

import "time"

// Event types carried in RosterChanged.EventType and the event_type message header.
const (
	RosterEnrolled  = "roster.enrolled"
	RosterWithdrawn = "roster.withdrawn"
)

// RosterChanged is emitted after an email is added to or removed from a roster.
type RosterChanged struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	ActivityName string    `json:"activity_name"`
	Email        string    `json:"email"`
	RosterSize   int       `json:"roster_size"`
	OccurredAt   time.Time `json:"occurred_at"`
}
