package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/larp-nexus/app/internal/authz"
	"github.com/larp-nexus/app/internal/database"
	"github.com/larp-nexus/app/internal/models"
	"github.com/larp-nexus/app/internal/schedule"
	"github.com/larp-nexus/app/internal/session"
)

// eventRow augments an event with its module count for the list page.
type eventRow struct {
	Event       *models.Event
	ModuleCount int
}

// monthCell is one slot of a month calendar; Day 0 renders blank
// padding before the first weekday.
type monthCell struct {
	Day      int
	IsToday  bool
	IsPast   bool
	HasEvent bool
}

type monthView struct {
	Name  string
	Year  int
	Weeks [][]monthCell
}

// EventsListPage displays a game's events with two month calendars
// (current and next month) highlighting days any event touches.
func EventsListPage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db, sessions)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		gameID, err := pathSegmentID(r.URL.Path, "/games/")
		if err != nil {
			RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid game ID.")
			return
		}
		game, err := database.GetGameByID(db, gameID)
		if err != nil {
			if err == sql.ErrNoRows {
				RenderErrorPage(w, http.StatusNotFound, "Not Found", "Game not found.")
			} else {
				slog.Error("can't load game", "game_id", gameID, "error", err)
				http.Error(w, "Database error", http.StatusInternalServerError)
			}
			return
		}

		events, err := database.GetEventsByGameID(db, gameID)
		if err != nil {
			slog.Error("can't list events", "game_id", gameID, "error", err)
			http.Error(w, "Failed to retrieve events", http.StatusInternalServerError)
			return
		}

		rows := make([]eventRow, 0, len(events))
		spans := make([]schedule.Span, 0, len(events))
		for _, event := range events {
			count, err := database.CountModulesByEventID(db, event.ID)
			if err != nil {
				slog.Error("can't count modules", "event_id", event.ID, "error", err)
				count = 0
			}
			rows = append(rows, eventRow{Event: event, ModuleCount: count})
			spans = append(spans, schedule.Span{Start: event.StartTime, End: event.EndTime})
		}

		now := time.Now()
		thisYear, thisMonth := now.Year(), now.Month()
		next := time.Date(thisYear, thisMonth, 1, 0, 0, 0, 0, time.Local).AddDate(0, 1, 0)

		RenderTemplate(w, "events/events_list.html", map[string]interface{}{
			"Title":   game.Name + " - Events",
			"User":    currentUser,
			"Game":    game,
			"Events":  rows,
			"IsAdmin": authz.IsAdministrator(game, currentUser.ID, currentUser.Role),
			"Calendars": []monthView{
				buildMonthView(thisYear, thisMonth, schedule.HighlightDays(thisYear, thisMonth, spans), now),
				buildMonthView(next.Year(), next.Month(), schedule.HighlightDays(next.Year(), next.Month(), spans), now),
			},
		})
	}
}

// CreateEventPage renders the new-event form, admin-gated.
func CreateEventPage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, currentUser, ok := resolveGameForManage(w, r, db, sessions)
		if !ok {
			return
		}
		RenderTemplate(w, "events/event_form.html", map[string]interface{}{
			"Title": "Add New Event",
			"User":  currentUser,
			"Game":  game,
		})
	}
}

// CreateEvent handles the new-event form submission, admin-gated.
func CreateEvent(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, currentUser, ok := resolveGameForManage(w, r, db, sessions)
		if !ok {
			return
		}
		event, ok := eventFromForm(w, r)
		if !ok {
			return
		}
		event.GameID = game.ID
		event.CreatedBy = currentUser.ID

		created, err := database.CreateEvent(db, event)
		if err != nil {
			slog.Error("can't create event", "game_id", game.ID, "error", err)
			http.Error(w, "Could not create event", http.StatusInternalServerError)
			return
		}
		slog.Info("event created", "event_id", created.ID, "game_id", game.ID, "by", currentUser.ID)
		http.Redirect(w, r, "/games/"+strconv.FormatInt(game.ID, 10)+"/events", http.StatusSeeOther)
	}
}

// EditEventPage renders the event edit form, admin-gated via the
// owning game.
func EditEventPage(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, game, currentUser, ok := resolveEventForManage(w, r, db, sessions)
		if !ok {
			return
		}
		RenderTemplate(w, "events/event_form.html", map[string]interface{}{
			"Title": "Edit Event",
			"User":  currentUser,
			"Game":  game,
			"Event": event,
		})
	}
}

// UpdateEvent handles the event edit form submission, admin-gated.
func UpdateEvent(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, game, currentUser, ok := resolveEventForManage(w, r, db, sessions)
		if !ok {
			return
		}
		updated, ok := eventFromForm(w, r)
		if !ok {
			return
		}
		event.Name = updated.Name
		event.StartTime = updated.StartTime
		event.EndTime = updated.EndTime
		event.Description = updated.Description

		if err := database.UpdateEvent(db, event); err != nil {
			slog.Error("can't update event", "event_id", event.ID, "error", err)
			http.Error(w, "Could not update event", http.StatusInternalServerError)
			return
		}
		slog.Info("event updated", "event_id", event.ID, "by", currentUser.ID)
		http.Redirect(w, r, "/games/"+strconv.FormatInt(game.ID, 10)+"/events", http.StatusSeeOther)
	}
}

// resolveEventForManage loads the event at /events/{id}/... and its
// owning game, then checks the admin gate. Authorship never grants
// event management.
func resolveEventForManage(w http.ResponseWriter, r *http.Request, db *sql.DB, sessions *session.Store) (*models.Event, *models.Game, *models.User, bool) {
	currentUser, err := GetCurrentUser(r, db, sessions)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, nil, nil, false
	}

	eventID, err := pathSegmentID(r.URL.Path, "/events/")
	if err != nil {
		RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid event ID.")
		return nil, nil, nil, false
	}
	event, err := database.GetEventByID(db, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			RenderErrorPage(w, http.StatusNotFound, "Not Found", "Event not found.")
		} else {
			slog.Error("can't load event", "event_id", eventID, "error", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return nil, nil, nil, false
	}

	game, err := database.GetGameByID(db, event.GameID)
	if err != nil {
		if err == sql.ErrNoRows {
			RenderErrorPage(w, http.StatusNotFound, "Not Found", "Game not found.")
		} else {
			slog.Error("can't load owning game", "game_id", event.GameID, "error", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return nil, nil, nil, false
	}

	if !authz.CanManageEvent(game, currentUser.ID, currentUser.Role).Allowed() {
		RenderErrorPage(w, http.StatusForbidden, "Forbidden", "You may not administer this event.")
		return nil, nil, nil, false
	}
	return event, game, currentUser, true
}

func eventFromForm(w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return nil, false
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Event name is required.")
		return nil, false
	}
	start, err := ParseHTMLDatetime(r.FormValue("start_time"))
	if err != nil {
		RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid start time.")
		return nil, false
	}
	end, err := ParseHTMLDatetime(r.FormValue("end_time"))
	if err != nil {
		RenderErrorPage(w, http.StatusBadRequest, "Bad Request", "Invalid end time.")
		return nil, false
	}

	return &models.Event{
		Name:        name,
		StartTime:   start,
		EndTime:     end,
		Description: r.FormValue("description"),
	}, true
}

// buildMonthView lays a month out week by week for rendering, marking
// today, past days and days carrying events.
func buildMonthView(year int, month time.Month, highlights map[int]bool, today time.Time) monthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	todayMidnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.Local)

	view := monthView{Name: month.String(), Year: year}
	week := make([]monthCell, int(first.Weekday()))
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
		week = append(week, monthCell{
			Day:      day,
			IsToday:  date.Equal(todayMidnight),
			IsPast:   date.Before(todayMidnight),
			HasEvent: highlights[day],
		})
		if date.Weekday() == time.Saturday {
			view.Weeks = append(view.Weeks, week)
			week = nil
		}
	}
	if len(week) > 0 {
		view.Weeks = append(view.Weeks, week)
	}
	return view
}
