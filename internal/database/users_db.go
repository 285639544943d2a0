package database

import (
	"database/sql"

	"github.com/larp-nexus/app/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser hashes the password and inserts a new user.
func CreateUser(db *sql.DB, username, displayName, password, role string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("INSERT INTO users(username, display_name, password_hash, role) VALUES(?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	res, err := stmt.Exec(username, displayName, hashedPassword, models.NormalizeRole(role))
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	// Retrieve the user so DB defaults like created_at are populated.
	return GetUserByID(db, models.UserID(id))
}

// GetUserByID retrieves a user by their ID.
func GetUserByID(db *sql.DB, id models.UserID) (*models.User, error) {
	user := &models.User{}
	row := db.QueryRow("SELECT id, username, display_name, password_hash, role, created_at FROM users WHERE id = ?", int64(id))
	err := row.Scan(&user.ID, &user.Username, &user.DisplayName, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err // includes sql.ErrNoRows if not found
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username.
func GetUserByUsername(db *sql.DB, username string) (*models.User, error) {
	user := &models.User{}
	row := db.QueryRow("SELECT id, username, display_name, password_hash, role, created_at FROM users WHERE username = ?", username)
	err := row.Scan(&user.ID, &user.Username, &user.DisplayName, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetAllUsers retrieves all users ordered by username.
func GetAllUsers(db *sql.DB) ([]*models.User, error) {
	rows, err := db.Query("SELECT id, username, display_name, password_hash, role, created_at FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.DisplayName, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's username, display name and role.
func UpdateUser(db *sql.DB, id models.UserID, username, displayName, role string) error {
	res, err := db.Exec("UPDATE users SET username = ?, display_name = ?, role = ? WHERE id = ?",
		username, displayName, models.NormalizeRole(role), int64(id))
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

// DeleteUser removes a user.
func DeleteUser(db *sql.DB, id models.UserID) error {
	res, err := db.Exec("DELETE FROM users WHERE id = ?", int64(id))
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

// GetUserRole returns the stored role for id, defaulting to the
// non-admin role when the user cannot be resolved. Authorization
// must fail closed rather than error out on a dangling identity.
func GetUserRole(db *sql.DB, id models.UserID) string {
	var role string
	err := db.QueryRow("SELECT role FROM users WHERE id = ?", int64(id)).Scan(&role)
	if err != nil {
		return models.RoleUser
	}
	return models.NormalizeRole(role)
}

// VerifyPassword compares a stored hashed password with a plaintext password.
func VerifyPassword(hashedPassword string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
