package database

import (
	"database/sql"
	"fmt"

	"github.com/larp-nexus/app/internal/models"
)

// CreateGame inserts a new game along with its administrator and
// writer memberships and property schema.
func CreateGame(db *sql.DB, game *models.Game) (*models.Game, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO games(name, system) VALUES(?, ?)", game.Name, game.System)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := replaceMembers(tx, "game_administrators", id, game.Administrators); err != nil {
		return nil, err
	}
	if err := replaceMembers(tx, "game_writers", id, game.Writers); err != nil {
		return nil, err
	}
	if err := replaceProperties(tx, id, game.Properties); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetGameByID(db, id)
}

// GetGameByID retrieves a game with its memberships and property
// schema fully loaded.
func GetGameByID(db *sql.DB, id int64) (*models.Game, error) {
	game := &models.Game{}
	row := db.QueryRow("SELECT id, name, system, created_at FROM games WHERE id = ?", id)
	if err := row.Scan(&game.ID, &game.Name, &game.System, &game.CreatedAt); err != nil {
		return nil, err // includes sql.ErrNoRows if not found
	}

	var err error
	if game.Administrators, err = loadMembers(db, "game_administrators", id); err != nil {
		return nil, err
	}
	if game.Writers, err = loadMembers(db, "game_writers", id); err != nil {
		return nil, err
	}
	if game.Properties, err = loadProperties(db, id); err != nil {
		return nil, err
	}
	return game, nil
}

// GetAllGames retrieves all games ordered by name, fully loaded.
func GetAllGames(db *sql.DB) ([]*models.Game, error) {
	rows, err := db.Query("SELECT id FROM games ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var games []*models.Game
	for _, id := range ids {
		game, err := GetGameByID(db, id)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, nil
}

// UpdateGame updates a game's name, system and memberships. The
// property schema is managed separately by SetGameProperties.
func UpdateGame(db *sql.DB, game *models.Game) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE games SET name = ?, system = ? WHERE id = ?", game.Name, game.System, game.ID)
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

	if err := replaceMembers(tx, "game_administrators", game.ID, game.Administrators); err != nil {
		return err
	}
	if err := replaceMembers(tx, "game_writers", game.ID, game.Writers); err != nil {
		return err
	}
	return tx.Commit()
}

// SetGameProperties replaces a game's property schema with defs,
// preserving their order.
func SetGameProperties(db *sql.DB, gameID int64, defs []models.PropertyDefinition) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replaceProperties(tx, gameID, defs); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceMembers(tx *sql.Tx, table string, gameID int64, members []models.UserID) error {
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE game_id = ?", table), gameID); err != nil {
		return err
	}
	for _, userID := range members {
		if _, err := tx.Exec(
			fmt.Sprintf("INSERT OR IGNORE INTO %s(game_id, user_id) VALUES(?, ?)", table),
			gameID, int64(userID)); err != nil {
			return err
		}
	}
	return nil
}

func loadMembers(db *sql.DB, table string, gameID int64) ([]models.UserID, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT user_id FROM %s WHERE game_id = ? ORDER BY user_id", table), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.UserID
	for rows.Next() {
		var id models.UserID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func replaceProperties(tx *sql.Tx, gameID int64, defs []models.PropertyDefinition) error {
	if _, err := tx.Exec("DELETE FROM game_properties WHERE game_id = ?", gameID); err != nil {
		return err
	}
	for i, def := range defs {
		if _, err := tx.Exec(
			"INSERT INTO game_properties(game_id, key, label, type, position) VALUES(?, ?, ?, ?, ?)",
			gameID, def.Key, def.Label, def.Type, i); err != nil {
			return err
		}
	}
	return nil
}

func loadProperties(db *sql.DB, gameID int64) ([]models.PropertyDefinition, error) {
	rows, err := db.Query("SELECT key, label, type FROM game_properties WHERE game_id = ? ORDER BY position", gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []models.PropertyDefinition
	for rows.Next() {
		var def models.PropertyDefinition
		if err := rows.Scan(&def.Key, &def.Label, &def.Type); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}
