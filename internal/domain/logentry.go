package domain

import "time"

// LogEntry is one append-only audit record. UserID is nil for system-triggered
// events that have no actor. Entries are never updated; only inserted, or
// deleted by the retention purge.
type LogEntry struct {
	ID        int64
	UserID    *int64
	Role      string
	Action    Action
	Details   *string
	Timestamp time.Time
}
