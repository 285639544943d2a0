package models

import "time"

// Module is a scheduled session/activity within an Event, authored by
// a writer. Properties maps game property keys to their values; keys
// are a subset of the owning game's schema.
type Module struct {
	ID            int64
	EventID       int64
	AuthorID      UserID
	Name          string
	Summary       string
	StartTime     time.Time
	DurationHours float64
	Properties    map[string]string
	CreatedAt     time.Time

	// AuthorName is filled in by list queries for display, not stored.
	AuthorName string
}
