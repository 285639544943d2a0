package database

import (
	"database/sql"
	"time"

	"github.com/larp-nexus/app/internal/models"
)

// CreateModule inserts a new module with its property values.
func CreateModule(db *sql.DB, module *models.Module) (*models.Module, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO modules(event_id, author_id, name, summary, start_time, duration_hours) VALUES(?, ?, ?, ?, ?, ?)",
		module.EventID, int64(module.AuthorID), module.Name, module.Summary,
		nullableTime(module.StartTime), module.DurationHours)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := writeModuleProperties(tx, id, module.Properties); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetModuleByID(db, id)
}

// GetModuleByID retrieves a module with its property values loaded.
func GetModuleByID(db *sql.DB, id int64) (*models.Module, error) {
	module := &models.Module{}
	var start sql.NullTime
	row := db.QueryRow("SELECT id, event_id, author_id, name, summary, start_time, duration_hours, created_at FROM modules WHERE id = ?", id)
	err := row.Scan(&module.ID, &module.EventID, &module.AuthorID, &module.Name, &module.Summary, &start, &module.DurationHours, &module.CreatedAt)
	if err != nil {
		return nil, err // includes sql.ErrNoRows if not found
	}
	if start.Valid {
		module.StartTime = start.Time
	}

	module.Properties, err = loadModuleProperties(db, id)
	if err != nil {
		return nil, err
	}
	return module, nil
}

// GetModulesByEventID retrieves an event's modules ordered by start
// time, with properties and author display names loaded.
func GetModulesByEventID(db *sql.DB, eventID int64) ([]*models.Module, error) {
	rows, err := db.Query(`
		SELECT m.id, m.event_id, m.author_id, m.name, m.summary, m.start_time, m.duration_hours, m.created_at,
		       COALESCE(u.display_name, 'Unknown User')
		FROM modules m
		LEFT JOIN users u ON u.id = m.author_id
		WHERE m.event_id = ?
		ORDER BY m.start_time, m.id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []*models.Module
	for rows.Next() {
		module := &models.Module{}
		var start sql.NullTime
		if err := rows.Scan(&module.ID, &module.EventID, &module.AuthorID, &module.Name, &module.Summary,
			&start, &module.DurationHours, &module.CreatedAt, &module.AuthorName); err != nil {
			return nil, err
		}
		if start.Valid {
			module.StartTime = start.Time
		}
		modules = append(modules, module)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, module := range modules {
		if module.Properties, err = loadModuleProperties(db, module.ID); err != nil {
			return nil, err
		}
	}
	return modules, nil
}

// UpdateModule updates a module's fields and replaces its property
// values.
func UpdateModule(db *sql.DB, module *models.Module) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE modules SET name = ?, summary = ?, start_time = ?, duration_hours = ? WHERE id = ?",
		module.Name, module.Summary, nullableTime(module.StartTime), module.DurationHours, module.ID)
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

	if _, err := tx.Exec("DELETE FROM module_properties WHERE module_id = ?", module.ID); err != nil {
		return err
	}
	if err := writeModuleProperties(tx, module.ID, module.Properties); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteModule removes a module and its property values.
func DeleteModule(db *sql.DB, id int64) error {
	res, err := db.Exec("DELETE FROM modules WHERE id = ?", id)
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

func writeModuleProperties(tx *sql.Tx, moduleID int64, props map[string]string) error {
	for key, value := range props {
		if _, err := tx.Exec("INSERT INTO module_properties(module_id, key, value) VALUES(?, ?, ?)",
			moduleID, key, value); err != nil {
			return err
		}
	}
	return nil
}

func loadModuleProperties(db *sql.DB, moduleID int64) (map[string]string, error) {
	rows, err := db.Query("SELECT key, value FROM module_properties WHERE module_id = ?", moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	props := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		props[key] = value
	}
	return props, rows.Err()
}

// nullableTime maps the zero time to NULL so unscheduled events and
// modules round-trip as "no time set" rather than year 1.
func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
