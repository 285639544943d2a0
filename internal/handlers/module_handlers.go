package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/larp-nexus/app/internal/authz"
	"github.com/larp-nexus/app/internal/database"
	"github.com/larp-nexus/app/internal/models"
	"github.com/larp-nexus/app/internal/schedule"
	"github.com/larp-nexus/app/internal/session"
)

// gridRow pairs an hour label with its cells so templates can range
// over the grid row by row.
type gridRow struct {
	Hour  string
	Cells []schedule.Cell
}

// ModulesListPage shows an event's modules as a sortable table plus an
// hour-by-day schedule grid. Events without a defined window get a
// notice instead of a grid.
func ModulesListPage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		eventID, err := pathSegmentID(r.URL.Path, "/events/")
		if err != nil {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid event ID.")
			return
		}
		event, err := database.GetEventByID(db, eventID)
		if err != nil {
			if err == sql.ErrNoRows {
				RenderErrorPage(w, http.StatusNotFound, "Not Found", "Event not found.")
			} else {
				slog.Error("can't load event", "event_id", eventID, "error", err)
				http.Error(w, "Database error", http.StatusInternalServerError)
			}
			return
		}

		modules, err := database.GetModulesByEventID(db, eventID)
		if err != nil {
			slog.Error("can't list modules", "event_id", eventID, "error", err)
			http.Error(w, "Failed to retrieve modules", http.StatusInternalServerError)
			return
		}

		items := make([]schedule.Item, 0, len(modules))
		for _, m := range modules {
			items = append(items, schedule.Item{
				Label:         m.Name + " (" + m.AuthorName + ")",
				Start:         m.StartTime,
				DurationHours: m.DurationHours,
			})
		}

		data := map[string]interface{}{
			"Title":   event.Name + " - Modules",
			"User":    currentUser,
			"Event":   event,
			"Modules": modules,
		}
		grid, err := schedule.BuildGrid(event.StartTime, event.EndTime, items)
		if err != nil {
			if !errors.Is(err, schedule.ErrUndefined) {
				slog.Error("can't build schedule grid", "event_id", eventID, "error", err)
			}
			data["GridUnavailable"] = true
		} else {
			rows := make([]gridRow, len(grid.Hours))
			for h, hour := range grid.Hours {
				rows[h] = gridRow{Hour: hour, Cells: grid.Cells[h]}
			}
			data["GridDays"] = grid.Days
			data["GridRows"] = rows
		}
		RenderTemplate(w, "modules/modules_list.html", data)
	}
}

// CreateModule registers a fresh module under an event and sends the
// author straight to its edit form. Any logged-in user may write.
func CreateModule(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		eventID, err := pathSegmentID(r.URL.Path, "/events/")
		if err != nil {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid event ID.")
			return
		}
		event, err := database.GetEventByID(db, eventID)
		if err != nil {
			if err == sql.ErrNoRows {
				RenderErrorPage(w, http.StatusNotFound, "Not Found", "Event not found.")
			} else {
				slog.Error("can't load event", "event_id", eventID, "error", err)
				http.Error(w, "Database error", http.StatusInternalServerError)
			}
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			name = "Untitled Module"
		}

		module := &models.Module{
			EventID:    event.ID,
			AuthorID:   currentUser.ID,
			Name:       name,
			Properties: seedProperties(db, event.GameID),
		}
		created, err := database.CreateModule(db, module)
		if err != nil {
			slog.Error("can't create module", "event_id", event.ID, "error", err)
			http.Error(w, "Could not create module", http.StatusInternalServerError)
			return
		}
		slog.Info("module created", "module_id", created.ID, "event_id", event.ID, "author", currentUser.ID)
		http.Redirect(w, r, "/modules/"+strconv.FormatInt(created.ID, 10)+"/edit", http.StatusSeeOther)
	}
}

// ModuleDetailPage shows a single module; the edit link appears only
// for users who may actually edit it.
func ModuleDetailPage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		moduleID, err := pathSegmentID(r.URL.Path, "/modules/")
		if err != nil {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid module ID.")
			return
		}
		module, game, err := loadModuleWithGame(db, moduleID)
		if err != nil {
			if err == sql.ErrNoRows {
				RenderErrorPage(w, http.StatusNotFound, "Not Found", "Module not found.")
			} else {
				slog.Error("can't load module", "module_id", moduleID, "error", err)
				http.Error(w, "Database error", http.StatusInternalServerError)
			}
			return
		}

		RenderTemplate(w, "modules/module_detail.html", map[string]interface{}{
			"Title":       module.Name,
			"User":        currentUser,
			"Module":      module,
			"Game":        game,
			"Definitions": propertyDefinitions(game),
			"CanEdit":     authz.CanEditModule(game, module, currentUser.ID, currentUser.Role).Allowed(),
		})
	}
}

// EditModulePage renders the module edit form for its author or a
// game administrator.
func EditModulePage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		module, game, currentUser, ok := resolveModuleForEdit(w, r, db, sessions)
		if !ok {
			return
		}
		RenderTemplate(w, "modules/module_form.html", map[string]interface{}{
			"Title":       "Edit Module",
			"User":        currentUser,
			"Module":      module,
			"Game":        game,
			"Definitions": propertyDefinitions(game),
		})
	}
}

// UpdateModule handles the module edit form submission. Property
// values are accepted only for keys the game's schema defines.
func UpdateModule(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		module, game, currentUser, ok := resolveModuleForEdit(w, r, db, sessions)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Module name is required.")
			return
		}
		start, err := ParseHTMLDatetime(r.FormValue("start_time"))
		if err != nil {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid start time.")
			return
		}
		duration := 0.0
		if raw := strings.TrimSpace(r.FormValue("duration_hours")); raw != "" {
			duration, err = strconv.ParseFloat(raw, 64)
			if err != nil || duration < 0 {
				RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid duration.")
				return
			}
		}

		module.Name = name
		module.Summary = r.FormValue("summary")
		module.StartTime = start
		module.DurationHours = duration

		properties := make(map[string]string, len(module.Properties))
		for _, def := range propertyDefinitions(game) {
			if r.Form.Has("prop_" + def.Key) {
				properties[def.Key] = r.FormValue("prop_" + def.Key)
			} else if existing, ok := module.Properties[def.Key]; ok {
				properties[def.Key] = existing
			}
		}
		module.Properties = properties

		if err := database.UpdateModule(db, module); err != nil {
			slog.Error("can't update module", "module_id", module.ID, "error", err)
			http.Error(w, "Could not update module", http.StatusInternalServerError)
			return
		}
		slog.Info("module updated", "module_id", module.ID, "by", currentUser.ID)
		http.Redirect(w, r, "/modules/"+strconv.FormatInt(module.ID, 10), http.StatusSeeOther)
	}
}

// DeleteModule removes a module, gated like editing.
func DeleteModule(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		module, _, currentUser, ok := resolveModuleForEdit(w, r, db, sessions)
		if !ok {
			return
		}
		if err := database.DeleteModule(db, module.ID); err != nil {
			slog.Error("can't delete module", "module_id", module.ID, "error", err)
			http.Error(w, "Could not delete module", http.StatusInternalServerError)
			return
		}
		slog.Info("module deleted", "module_id", module.ID, "by", currentUser.ID)
		http.Redirect(w, r, "/events/"+strconv.FormatInt(module.EventID, 10)+"/modules", http.StatusSeeOther)
	}
}

// resolveModuleForEdit loads the module at /modules/{id}/... and its
// owning game, then checks the author-or-admin gate.
func resolveModuleForEdit(w http.ResponseWriter, r *http.Request, db *sql.DB, sessions *session.Store) (*models.Module, *models.Game, *models.User, bool) {
	currentUser, err := GetCurrentUser(r, db, sessions)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, nil, nil, false
	}

	moduleID, err := pathSegmentID(r.URL.Path, "/modules/")
	if err != nil {
		RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid module ID.")
		return nil, nil, nil, false
	}
	module, game, err := loadModuleWithGame(db, moduleID)
	if err != nil {
		if err == sql.ErrNoRows {
			RenderErrorPage(w, http.StatusNotFound, "Not Found", "Module not found.")
		} else {
			slog.Error("can't load module", "module_id", moduleID, "error", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return nil, nil, nil, false
	}

	if !authz.CanEditModule(game, module, currentUser.ID, currentUser.Role).Allowed() {
		RenderErrorPage(w, http.StatusForbidden, "Forbidden", "You may not edit this module.")
		return nil, nil, nil, false
	}
	return module, game, currentUser, true
}

// loadModuleWithGame fetches a module together with the game that owns
// its event. A missing game comes back nil so authorization fails
// closed rather than erroring.
func loadModuleWithGame(db *sql.DB, moduleID int64) (*models.Module, *models.Game, error) {
	module, err := database.GetModuleByID(db, moduleID)
	if err != nil {
		return nil, nil, err
	}
	event, err := database.GetEventByID(db, module.EventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return module, nil, nil
		}
		return nil, nil, err
	}
	game, err := database.GetGameByID(db, event.GameID)
	if err != nil {
		if err == sql.ErrNoRows {
			return module, nil, nil
		}
		return nil, nil, err
	}
	return module, game, nil
}

// seedProperties builds the initial property map for a new module from
// the game's schema; number properties start at "0", everything else
// empty.
func seedProperties(db *sql.DB, gameID int64) map[string]string {
	game, err := database.GetGameByID(db, gameID)
	if err != nil {
		slog.Error("can't load game for property seed", "game_id", gameID, "error", err)
		return map[string]string{}
	}
	seeded := make(map[string]string, len(game.Properties))
	for _, def := range game.Properties {
		if def.Type == models.PropertyTypeNumber {
			seeded[def.Key] = "0"
		} else {
			seeded[def.Key] = ""
		}
	}
	return seeded
}

func propertyDefinitions(game *models.Game) []models.PropertyDefinition {
	if game == nil {
		return nil
	}
	return game.Properties
}
