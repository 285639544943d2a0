package database

import (
	"database/sql"

	"github.com/larp-nexus/app/internal/models"
)

// CreateEvent inserts a new event into the events table.
func CreateEvent(db *sql.DB, event *models.Event) (*models.Event, error) {
	stmt, err := db.Prepare("INSERT INTO events(game_id, name, start_time, end_time, description, created_by) VALUES(?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	res, err := stmt.Exec(event.GameID, event.Name,
		nullableTime(event.StartTime), nullableTime(event.EndTime),
		event.Description, nullableUserID(event.CreatedBy))
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetEventByID(db, id)
}

// nullableUserID maps the zero UserID to NULL so an absent creator
// does not trip the foreign key on users(id).
func nullableUserID(id models.UserID) interface{} {
	if id == 0 {
		return nil
	}
	return int64(id)
}

// GetEventByID retrieves an event by its ID.
func GetEventByID(db *sql.DB, id int64) (*models.Event, error) {
	event := &models.Event{}
	var start, end sql.NullTime
	var createdBy sql.NullInt64
	row := db.QueryRow("SELECT id, game_id, name, start_time, end_time, description, created_by, created_at FROM events WHERE id = ?", id)
	err := row.Scan(&event.ID, &event.GameID, &event.Name, &start, &end, &event.Description, &createdBy, &event.CreatedAt)
	if err != nil {
		return nil, err // includes sql.ErrNoRows if not found
	}
	if start.Valid {
		event.StartTime = start.Time
	}
	if end.Valid {
		event.EndTime = end.Time
	}
	if createdBy.Valid {
		event.CreatedBy = models.UserID(createdBy.Int64)
	}
	return event, nil
}

// GetEventsByGameID retrieves a game's events ordered by start time.
func GetEventsByGameID(db *sql.DB, gameID int64) ([]*models.Event, error) {
	rows, err := db.Query("SELECT id, game_id, name, start_time, end_time, description, created_by, created_at FROM events WHERE game_id = ? ORDER BY start_time", gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		var start, end sql.NullTime
		var createdBy sql.NullInt64
		if err := rows.Scan(&event.ID, &event.GameID, &event.Name, &start, &end, &event.Description, &createdBy, &event.CreatedAt); err != nil {
			return nil, err
		}
		if start.Valid {
			event.StartTime = start.Time
		}
		if end.Valid {
			event.EndTime = end.Time
		}
		if createdBy.Valid {
			event.CreatedBy = models.UserID(createdBy.Int64)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// UpdateEvent updates an event's name, window and description.
func UpdateEvent(db *sql.DB, event *models.Event) error {
	res, err := db.Exec("UPDATE events SET name = ?, start_time = ?, end_time = ?, description = ? WHERE id = ?",
		event.Name, nullableTime(event.StartTime), nullableTime(event.EndTime), event.Description, event.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteEvent removes an event; its modules cascade.
func DeleteEvent(db *sql.DB, id int64) error {
	res, err := db.Exec("DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountModulesByEventID returns the number of modules in an event.
func CountModulesByEventID(db *sql.DB, eventID int64) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM modules WHERE event_id = ?", eventID).Scan(&count)
	return count, err
}
