package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/larp-nexus/app/internal/database"
	"github.com/larp-nexus/app/internal/models"
	"github.com/larp-nexus/app/internal/session"
)

// The user management handlers assume the admin gate already ran;
// they are only reachable behind RequireAdmin.

// UsersListPage lists every account for the admin console.
func UsersListPage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		users, err := database.GetAllUsers(db)
		if err != nil {
			slog.Error("can't list users", "error", err)
			http.Error(w, "Failed to retrieve users", http.StatusInternalServerError)
			return
		}
		RenderTemplate(w, "users/users_list.html", map[string]interface{}{
			"Title": "Manage Users",
			"User":  currentUser,
			"Users": users,
		})
	}
}

// CreateUserPage renders the new-account form.
func CreateUserPage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		RenderTemplate(w, "users/user_form.html", map[string]interface{}{
			"Title": "Add New User",
			"User":  currentUser,
		})
	}
}

// CreateUser handles the new-account form submission.
func CreateUser(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		if username == "" || password == "" {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Username and password are required.")
			return
		}
		displayName := strings.TrimSpace(r.FormValue("display_name"))
		if displayName == "" {
			displayName = username
		}

		created, err := database.CreateUser(db, username, displayName, password, r.FormValue("role"))
		if err != nil {
			slog.Error("can't create user", "username", username, "error", err)
			RenderErrorPage(w, http.StatusConflict, "Conflict", "Could not create the user. The username may already be taken.")
			return
		}
		slog.Info("user created", "user_id", created.ID, "by", currentUser.ID)
		http.Redirect(w, r, "/users", http.StatusSeeOther)
	}
}

// EditUserPage renders the account edit form.
func EditUserPage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		subject, ok := resolveUser(w, r, db)
		if !ok {
			return
		}
		RenderTemplate(w, "users/user_form.html", map[string]interface{}{
			"Title":   "Edit User",
			"User":    currentUser,
			"Subject": subject,
		})
	}
}

// UpdateUser handles the account edit form submission. Passwords are
// not changed here.
func UpdateUser(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		subject, ok := resolveUser(w, r, db)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		if username == "" {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Username is required.")
			return
		}
		displayName := strings.TrimSpace(r.FormValue("display_name"))
		if displayName == "" {
			displayName = username
		}

		if err := database.UpdateUser(db, subject.ID, username, displayName, r.FormValue("role")); err != nil {
			slog.Error("can't update user", "user_id", subject.ID, "error", err)
			http.Error(w, "Could not update user", http.StatusInternalServerError)
			return
		}
		slog.Info("user updated", "user_id", subject.ID, "by", currentUser.ID)
		http.Redirect(w, r, "/users", http.StatusSeeOther)
	}
}

// DeleteUser removes an account. Admins cannot delete themselves, so
// the instance always keeps at least one admin session working.
func DeleteUser(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		subject, ok := resolveUser(w, r, db)
		if !ok {
			return
		}
		if subject.ID == currentUser.ID {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "You cannot delete your own account.")
			return
		}
		if err := database.DeleteUser(db, subject.ID); err != nil {
			slog.Error("can't delete user", "user_id", subject.ID, "error", err)
			http.Error(w, "Could not delete user", http.StatusInternalServerError)
			return
		}
		slog.Info("user deleted", "user_id", subject.ID, "by", currentUser.ID)
		http.Redirect(w, r, "/users", http.StatusSeeOther)
	}
}

func resolveUser(w http.ResponseWriter, r *http.Request, db *sql.DB) (*models.User, bool) {
	id, err := pathSegmentID(r.URL.Path, "/users/")
	if err != nil {
		RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid user ID.")
		return nil, false
	}
	subject, err := database.GetUserByID(db, models.UserID(id))
	if err != nil {
		if err == sql.ErrNoRows {
			RenderErrorPage(w, http.StatusNotFound, "Not Found", "User not found.")
		} else {
			slog.Error("can't load user", "user_id", id, "error", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return nil, false
	}
	return subject, true
}
