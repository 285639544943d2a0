package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/larp-nexus/app/internal/database"
	"github.com/larp-nexus/app/internal/session"
)

// LoginPage renders the user login page.
func LoginPage(w http.ResponseWriter, r *http.Request) {
	RenderTemplate(w, "auth/login.html", map[string]interface{}{"Title": "Log In"})
}

// Login handles the login form submission.
func Login(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")
		if username == "" || password == "" {
			RenderTemplate(w, "auth/login.html", map[string]interface{}{
				"Title": "Log In",
				"Error": "Username and password are required.",
			})
			return
		}

		user, err := database.GetUserByUsername(db, username)
		if err != nil {
			if err == sql.ErrNoRows {
				RenderTemplate(w, "auth/login.html", map[string]interface{}{
					"Title": "Log In",
					"Error": "Invalid username or password.",
				})
			} else {
				slog.Error("can't look up user for login", "username", username, "error", err)
				http.Error(w, "Database error", http.StatusInternalServerError)
			}
			return
		}

		if err := database.VerifyPassword(user.PasswordHash, password); err != nil {
			RenderTemplate(w, "auth/login.html", map[string]interface{}{
				"Title": "Log In",
				"Error": "Invalid username or password.",
			})
			return
		}

		token := sessions.Create(user.ID)
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(24 * time.Hour),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
		slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
		http.Redirect(w, r, "/games", http.StatusSeeOther)
	}
}

// Logout revokes the current session.
func Logout(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(session.CookieName); err == nil {
			sessions.Delete(cookie.Value)
			http.SetCookie(w, &http.Cookie{
				Name:     session.CookieName,
				Value:    "",
				Path:     "/",
				Expires:  time.Unix(0, 0),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
