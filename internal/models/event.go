package models

import "time"

// Event is a time-bounded occurrence within a Game, containing
// Modules. StartTime/EndTime may be zero when the organizer has not
// scheduled it yet; the schedule view must cope with that.
type Event struct {
	ID          int64
	GameID      int64
	Name        string
	StartTime   time.Time
	EndTime     time.Time
	Description string
	CreatedBy   UserID
	CreatedAt   time.Time
}
