package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/larp-nexus/app/internal/authz"
	"github.com/larp-nexus/app/internal/database"
	"github.com/larp-nexus/app/internal/models"
	"github.com/larp-nexus/app/internal/session"
)

// gameRow augments a game with display names for the list page.
type gameRow struct {
	Game        *models.Game
	AdminNames  []string
	WriterNames []string
	IsAdmin     bool
}

// GamesListPage displays all games with their memberships and
// property schema sizes.
func GamesListPage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		games, err := database.GetAllGames(db)
		if err != nil {
			slog.Error("can't list games", "error", err)
			http.Error(w, "Failed to retrieve games", http.StatusInternalServerError)
			return
		}

		rows := make([]gameRow, 0, len(games))
		for _, game := range games {
			rows = append(rows, gameRow{
				Game:        game,
				AdminNames:  usernamesFor(db, game.Administrators),
				WriterNames: usernamesFor(db, game.Writers),
				IsAdmin:     authz.IsAdministrator(game, currentUser.ID, currentUser.Role),
			})
		}

		RenderTemplate(w, "games/games_list.html", map[string]interface{}{
			"Title": "Games",
			"User":  currentUser,
			"Games": rows,
		})
	}
}

// CreateGamePage renders the new-game form.
func CreateGamePage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		users, err := database.GetAllUsers(db)
		if err != nil {
			slog.Error("can't list users for game form", "error", err)
			http.Error(w, "Failed to retrieve users", http.StatusInternalServerError)
			return
		}
		RenderTemplate(w, "games/game_form.html", map[string]interface{}{
			"Title": "Create New Game",
			"User":  currentUser,
			"Users": users,
		})
	}
}

// CreateGame handles the new-game form submission. The creator is
// always added to the game's administrators so a fresh game is never
// orphaned.
func CreateGame(db *sql.DB, sessions *session.Store) http.HandlerFunc {
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

		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Game name is required.")
			return
		}

		admins := parseUserIDs(r.Form["administrators"])
		if !containsUserID(admins, currentUser.ID) {
			admins = append(admins, currentUser.ID)
		}

		game := &models.Game{
			Name:           name,
			System:         strings.TrimSpace(r.FormValue("system")),
			Administrators: admins,
			Writers:        parseUserIDs(r.Form["writers"]),
		}
		created, err := database.CreateGame(db, game)
		if err != nil {
			slog.Error("can't create game", "error", err)
			http.Error(w, "Could not create game", http.StatusInternalServerError)
			return
		}
		slog.Info("game created", "game_id", created.ID, "name", created.Name, "by", currentUser.ID)
		http.Redirect(w, r, "/games", http.StatusSeeOther)
	}
}

// EditGamePage renders the game edit form, admin-gated.
func EditGamePage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, currentUser, ok := resolveGameForManage(w, r, db, sessions)
		if !ok {
			return
		}
		users, err := database.GetAllUsers(db)
		if err != nil {
			slog.Error("can't list users for game form", "error", err)
			http.Error(w, "Failed to retrieve users", http.StatusInternalServerError)
			return
		}
		RenderTemplate(w, "games/game_form.html", map[string]interface{}{
			"Title": "Edit Game",
			"User":  currentUser,
			"Users": users,
			"Game":  game,
		})
	}
}

// UpdateGame handles the game edit form submission, admin-gated.
func UpdateGame(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, currentUser, ok := resolveGameForManage(w, r, db, sessions)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		game.Name = strings.TrimSpace(r.FormValue("name"))
		game.System = strings.TrimSpace(r.FormValue("system"))
		game.Administrators = parseUserIDs(r.Form["administrators"])
		game.Writers = parseUserIDs(r.Form["writers"])
		if game.Name == "" {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Game name is required.")
			return
		}

		if err := database.UpdateGame(db, game); err != nil {
			slog.Error("can't update game", "game_id", game.ID, "error", err)
			http.Error(w, "Could not update game", http.StatusInternalServerError)
			return
		}
		slog.Info("game updated", "game_id", game.ID, "by", currentUser.ID)
		http.Redirect(w, r, "/games", http.StatusSeeOther)
	}
}

// GamePropertiesPage renders the property schema editor, admin-gated.
func GamePropertiesPage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, currentUser, ok := resolveGameForManage(w, r, db, sessions)
		if !ok {
			return
		}
		RenderTemplate(w, "games/properties_form.html", map[string]interface{}{
			"Title": game.Name + " - Module Properties",
			"User":  currentUser,
			"Game":  game,
		})
	}
}

// UpdateGameProperties handles the property schema form submission,
// admin-gated. Existing rows may be relabeled, retyped or removed;
// one new definition may be appended per submit.
func UpdateGameProperties(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, currentUser, ok := resolveGameForManage(w, r, db, sessions)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		var defs []models.PropertyDefinition
		for _, def := range game.Properties {
			if r.FormValue("delete_"+def.Key) == "on" {
				continue
			}
			label := strings.TrimSpace(r.FormValue("label_" + def.Key))
			if label == "" {
				label = def.Label
			}
			propType := r.FormValue("type_" + def.Key)
			if !models.ValidPropertyType(propType) {
				propType = def.Type
			}
			defs = append(defs, models.PropertyDefinition{Key: def.Key, Label: label, Type: propType})
		}

		newKey := normalizePropertyKey(r.FormValue("new_key"))
		if newKey != "" {
			exists := false
			for _, def := range defs {
				if def.Key == newKey {
					exists = true
					break
				}
			}
			if !exists {
				newLabel := strings.TrimSpace(r.FormValue("new_label"))
				if newLabel == "" {
					newLabel = newKey
				}
				newType := r.FormValue("new_type")
				if !models.ValidPropertyType(newType) {
					newType = models.PropertyTypeString
				}
				defs = append(defs, models.PropertyDefinition{Key: newKey, Label: newLabel, Type: newType})
			}
		}

		if err := database.SetGameProperties(db, game.ID, defs); err != nil {
			slog.Error("can't update game properties", "game_id", game.ID, "error", err)
			http.Error(w, "Could not update properties", http.StatusInternalServerError)
			return
		}
		slog.Info("game properties updated", "game_id", game.ID, "count", len(defs), "by", currentUser.ID)
		http.Redirect(w, r, "/games/"+strconv.FormatInt(game.ID, 10)+"/properties", http.StatusSeeOther)
	}
}

// resolveGameForManage loads the game from the URL and checks that
// the current user may administer it. On failure it writes the
// response and returns ok=false.
func resolveGameForManage(w http.ResponseWriter, r *http.Request, db *sql.DB, sessions *session.Store) (*models.Game, *models.User, bool) {
	currentUser, err := GetCurrentUser(r, db, sessions)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, nil, false
	}

	gameID, err := pathSegmentID(r.URL.Path, "/games/")
	if err != nil {
		RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid game ID.")
		return nil, nil, false
	}

	game, err := database.GetGameByID(db, gameID)
	if err != nil {
		if err == sql.ErrNoRows {
			RenderErrorPage(w, http.StatusNotFound, "Not Found", "Game not found.")
		} else {
			slog.Error("can't load game", "game_id", gameID, "error", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return nil, nil, false
	}

	if !authz.CanManageGame(game, currentUser.ID, currentUser.Role).Allowed() {
		RenderErrorPage(w, http.StatusForbidden, "Forbidden", "You may not administer this game.")
		return nil, nil, false
	}
	return game, currentUser, true
}

func usernamesFor(db *sql.DB, ids []models.UserID) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		user, err := database.GetUserByID(db, id)
		if err != nil {
			names = append(names, "Unknown User")
			continue
		}
		names = append(names, user.Username)
	}
	return names
}

func parseUserIDs(values []string) []models.UserID {
	var ids []models.UserID
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		if !containsUserID(ids, models.UserID(id)) {
			ids = append(ids, models.UserID(id))
		}
	}
	return ids
}

func containsUserID(ids []models.UserID, id models.UserID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// normalizePropertyKey lowercases and underscores a key so schema
// lookups stay stable regardless of how the admin typed it.
func normalizePropertyKey(key string) string {
	key = strings.TrimSpace(strings.ToLower(key))
	return strings.ReplaceAll(key, " ", "_")
}
