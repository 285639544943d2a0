package handlers

import (
	"database/sql"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/larp-nexus/app/internal/database"
	"github.com/larp-nexus/app/internal/models"
	"github.com/larp-nexus/app/internal/session"
)

// Template helper functions
var funcMap = template.FuncMap{
	"FormatDateTime": FormatDateTime,
	"FormatDate":     FormatDate,
	"HTMLDatetime":   HTMLDatetime,
	"Nl2br":          Nl2br,
	"TitleCase":      TitleCase,
	"ContainsID":     ContainsID,
}

// ContainsID reports whether id is in ids. Templates use it to mark
// membership checkboxes as selected.
func ContainsID(ids []models.UserID, id models.UserID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// TitleCase converts a string to title case.
// e.g., "player_count" -> "Player Count"
func TitleCase(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatDateTime formats a time.Time object into a more readable string.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("January 2, 2006 at 3:04 PM")
}

// FormatDate formats just the calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("Jan 2, 2006")
}

// HTMLDatetime renders a time for a datetime-local input value.
func HTMLDatetime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02T15:04")
}

// ParseHTMLDatetime parses a datetime-local form value. An empty
// value maps to the zero time ("not scheduled").
func ParseHTMLDatetime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", value, time.Local)
}

// Nl2br replaces newline characters with <br> tags.
func Nl2br(s string) template.HTML {
	return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
}

// templates holds all parsed templates, keyed by the template path
// relative to the templates directory, e.g. "games/games_list.html".
var (
	templates     map[string]*template.Template
	templatesOnce sync.Once
)

// LoadTemplates parses all HTML templates from the given directory
// and its immediate subdirectories. Every page is parsed together
// with layout.html and rendered through the "layout" template. It
// should be called once at application startup.
func LoadTemplates(dir string) error {
	var loadErr error
	templatesOnce.Do(func() {
		templates = make(map[string]*template.Template)
		layoutFile := filepath.Join(dir, "layout.html")

		topLevel, err := filepath.Glob(filepath.Join(dir, "*.html"))
		if err != nil {
			loadErr = fmt.Errorf("globbing templates: %w", err)
			return
		}
		nested, err := filepath.Glob(filepath.Join(dir, "*", "*.html"))
		if err != nil {
			loadErr = fmt.Errorf("globbing templates: %w", err)
			return
		}

		var pageFiles []string
		for _, file := range append(topLevel, nested...) {
			if file != layoutFile {
				pageFiles = append(pageFiles, file)
			}
		}
		if len(pageFiles) == 0 {
			loadErr = fmt.Errorf("no page templates found in %s", dir)
			return
		}

		for _, pageFile := range pageFiles {
			name := strings.TrimPrefix(pageFile, dir+string(filepath.Separator))
			name = filepath.ToSlash(name)

			tmpl, parseErr := template.New(filepath.Base(pageFile)).Funcs(funcMap).ParseFiles(layoutFile, pageFile)
			if parseErr != nil {
				loadErr = fmt.Errorf("parsing page template %s: %w", name, parseErr)
				return
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

// RenderTemplate executes the named page template inside the layout.
func RenderTemplate(w http.ResponseWriter, name string, data interface{}) {
	tmpl, ok := templates[name]
	if !ok {
		slog.Error("template not found", "name", name)
		http.Error(w, "Template not found: "+name, http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("can't execute template", "name", name, "error", err)
	}
}

// RenderErrorPage renders a standardized error page.
func RenderErrorPage(w http.ResponseWriter, statusCode int, title string, message string) {
	w.WriteHeader(statusCode)
	RenderTemplate(w, "error.html", map[string]interface{}{
		"Title":      fmt.Sprintf("Error %d - %s", statusCode, title),
		"StatusCode": statusCode,
		"StatusText": http.StatusText(statusCode),
		"ErrorTitle": title,
		"Message":    message,
	})
}

// GetCurrentUser resolves the session cookie to its user record.
func GetCurrentUser(r *http.Request, db *sql.DB, sessions *session.Store) (*models.User, error) {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil {
		return nil, fmt.Errorf("no session cookie: %w", err)
	}
	userID, ok := sessions.Get(cookie.Value)
	if !ok {
		return nil, fmt.Errorf("invalid session token")
	}
	return database.GetUserByID(db, userID)
}

// AuthMiddleware protects routes that require authentication.
func AuthMiddleware(sessions *session.Store, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if _, ok := sessions.Get(cookie.Value); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireAdmin protects routes reserved for global admins. It renders
// a 403 rather than redirecting so a logged-in non-admin sees why.
func RequireAdmin(db *sql.DB, sessions *session.Store, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if models.NormalizeRole(user.Role) != models.RoleAdmin {
			RenderErrorPage(w, http.StatusForbidden, "Forbidden", "You need administrator rights for this page.")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// pathSegmentID extracts the numeric path segment that follows
// prefix, e.g. pathSegmentID("/games/12/events", "/games/") -> 12.
func pathSegmentID(path, prefix string) (int64, error) {
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return 0, fmt.Errorf("missing ID in path %q", path)
	}
	return strconv.ParseInt(rest, 10, 64)
}
