package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/larp-nexus/app/internal/config"
	"github.com/larp-nexus/app/internal/database"
	"github.com/larp-nexus/app/internal/handlers"
	"github.com/larp-nexus/app/internal/metric"
	"github.com/larp-nexus/app/internal/models"
	"github.com/larp-nexus/app/internal/session"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	cfg := config.New()

	db, err := database.InitDB(cfg.GetDatabasePath())
	if err != nil {
		slog.Error("can't initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := handlers.LoadTemplates(cfg.GetTemplatesDir()); err != nil {
		slog.Error("can't load templates", "error", err)
		os.Exit(1)
	}

	sessions := session.NewStore(cfg.GetSessionTTL())
	ensureAdminAccount(db)

	mux := http.NewServeMux()

	fs := http.FileServer(http.Dir(cfg.GetStaticDir()))
	mux.Handle("/static/", http.StripPrefix("/static/", fs))
	mux.Handle("/metrics", metric.Handler())
	mux.HandleFunc("/theme.css", handlers.ThemeStylesheet())
	mux.HandleFunc("/set-theme/", handlers.SetTheme())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/games", http.StatusSeeOther)
		} else {
			handlers.RenderErrorPage(w, http.StatusNotFound, "Page Not Found", "The page you are looking for does not exist.")
		}
	})

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.LoginPage(w, r)
		case http.MethodPost:
			handlers.Login(db, sessions)(w, r)
		default:
			handlers.RenderErrorPage(w, http.StatusMethodNotAllowed, "Method Not Allowed", "This method is not supported for /login.")
		}
	})

	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			handlers.Logout(sessions)(w, r)
		} else {
			handlers.RenderErrorPage(w, http.StatusMethodNotAllowed, "Method Not Allowed", "Logout requires POST method.")
		}
	})

	mux.HandleFunc("/games", handlers.GamesListPage(db, sessions))
	mux.HandleFunc("/games/new", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.CreateGamePage(db, sessions)(w, r)
		case http.MethodPost:
			handlers.CreateGame(db, sessions)(w, r)
		default:
			handlers.RenderErrorPage(w, http.StatusMethodNotAllowed, "Method Not Allowed", "This method is not supported for /games/new.")
		}
	})
	mux.HandleFunc("/games/", routeGamePaths(db, sessions))

	mux.HandleFunc("/events/", routeEventPaths(db, sessions))
	mux.HandleFunc("/modules/", routeModulePaths(db, sessions))

	mux.HandleFunc("/users", handlers.RequireAdmin(db, sessions, handlers.UsersListPage(db, sessions)))
	mux.HandleFunc("/users/new", handlers.RequireAdmin(db, sessions, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.CreateUserPage(db, sessions)(w, r)
		case http.MethodPost:
			handlers.CreateUser(db, sessions)(w, r)
		default:
			handlers.RenderErrorPage(w, http.StatusMethodNotAllowed, "Method Not Allowed", "This method is not supported for /users/new.")
		}
	}))
	mux.HandleFunc("/users/", handlers.RequireAdmin(db, sessions, routeUserPaths(db, sessions)))

	addr := ":" + cfg.GetPort()
	slog.Info("server starting", "addr", addr)
	if err := http.ListenAndServe(addr, metric.Middleware(mux)); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// routeGamePaths dispatches /games/{id}/action. The bare /games and
// /games/new routes are registered separately, so everything here
// carries an ID.
func routeGamePaths(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/games/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			handlers.RenderErrorPage(w, http.StatusNotFound, "Not Found", "Game ID missing or invalid path.")
			return
		}
		if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
			handlers.RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid Game ID format.")
			return
		}

		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			http.Redirect(w, r, "/games/"+parts[0]+"/events", http.StatusSeeOther)
		case len(parts) == 2 && parts[1] == "events" && r.Method == http.MethodGet:
			handlers.EventsListPage(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "edit" && r.Method == http.MethodGet:
			handlers.EditGamePage(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "edit" && r.Method == http.MethodPost:
			handlers.UpdateGame(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "properties" && r.Method == http.MethodGet:
			handlers.GamePropertiesPage(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "properties" && r.Method == http.MethodPost:
			handlers.UpdateGameProperties(db, sessions)(w, r)
		case len(parts) == 3 && parts[1] == "events" && parts[2] == "new" && r.Method == http.MethodGet:
			handlers.CreateEventPage(db, sessions)(w, r)
		case len(parts) == 3 && parts[1] == "events" && parts[2] == "new" && r.Method == http.MethodPost:
			handlers.CreateEvent(db, sessions)(w, r)
		default:
			handlers.RenderErrorPage(w, http.StatusNotFound, "Not Found", "Invalid game path.")
		}
	}
}

// routeEventPaths dispatches /events/{id}/action.
func routeEventPaths(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/events/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			handlers.RenderErrorPage(w, http.StatusNotFound, "Not Found", "Event ID missing or invalid path.")
			return
		}
		if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
			handlers.RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid Event ID format.")
			return
		}

		switch {
		case len(parts) == 2 && parts[1] == "modules" && r.Method == http.MethodGet:
			handlers.ModulesListPage(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "edit" && r.Method == http.MethodGet:
			handlers.EditEventPage(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "edit" && r.Method == http.MethodPost:
			handlers.UpdateEvent(db, sessions)(w, r)
		case len(parts) == 3 && parts[1] == "modules" && parts[2] == "new" && r.Method == http.MethodPost:
			handlers.CreateModule(db, sessions)(w, r)
		default:
			handlers.RenderErrorPage(w, http.StatusNotFound, "Not Found", "Invalid event path.")
		}
	}
}

// routeModulePaths dispatches /modules/{id} and /modules/{id}/action.
func routeModulePaths(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/modules/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			handlers.RenderErrorPage(w, http.StatusNotFound, "Not Found", "Module ID missing or invalid path.")
			return
		}
		if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
			handlers.RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid Module ID format.")
			return
		}

		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			handlers.ModuleDetailPage(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "edit" && r.Method == http.MethodGet:
			handlers.EditModulePage(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "edit" && r.Method == http.MethodPost:
			handlers.UpdateModule(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "delete" && r.Method == http.MethodPost:
			handlers.DeleteModule(db, sessions)(w, r)
		default:
			handlers.RenderErrorPage(w, http.StatusNotFound, "Not Found", "Invalid module path.")
		}
	}
}

// routeUserPaths dispatches /users/{id}/action; RequireAdmin wraps it
// at registration.
func routeUserPaths(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/users/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			handlers.RenderErrorPage(w, http.StatusNotFound, "Not Found", "User ID missing or invalid path.")
			return
		}
		if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
			handlers.RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid User ID format.")
			return
		}

		switch {
		case len(parts) == 2 && parts[1] == "edit" && r.Method == http.MethodGet:
			handlers.EditUserPage(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "edit" && r.Method == http.MethodPost:
			handlers.UpdateUser(db, sessions)(w, r)
		case len(parts) == 2 && parts[1] == "delete" && r.Method == http.MethodPost:
			handlers.DeleteUser(db, sessions)(w, r)
		default:
			handlers.RenderErrorPage(w, http.StatusNotFound, "Not Found", "Invalid user path.")
		}
	}
}

// ensureAdminAccount bootstraps a first admin so a fresh instance is
// reachable. Credentials come from ADMIN_USERNAME / ADMIN_PASSWORD;
// nothing happens if the username is taken or the variables are unset.
func ensureAdminAccount(db *sql.DB) {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}
	if _, err := database.GetUserByUsername(db, username); err == nil {
		return
	}
	admin, err := database.CreateUser(db, username, username, password, models.RoleAdmin)
	if err != nil {
		slog.Error("can't bootstrap admin account", "username", username, "error", err)
		return
	}
	slog.Info("admin account created", "user_id", admin.ID, "username", admin.Username)
}
