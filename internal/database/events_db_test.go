package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/larp-nexus/app/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

func createTestGame(t *testing.T, db *sql.DB, name string, adminID models.UserID) *models.Game {
	t.Helper()
	game, err := CreateGame(db, &models.Game{
		Name:           name,
		Administrators: []models.UserID{adminID},
	})
	if err != nil {
		t.Fatalf("Failed to create test game %s: %v", name, err)
	}
	return game
}

func TestCreateEventAndGetEvent(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	admin := createTestUser(t, db, "eventadmin")
	game := createTestGame(t, db, "Event Game", admin.ID)

	start := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 2, 23, 59, 0, 0, time.UTC)

	t.Run("Create and Get Event", func(t *testing.T) {
		created, err := CreateEvent(db, &models.Event{
			GameID:      game.ID,
			Name:        "Summer Gathering",
			StartTime:   start,
			EndTime:     end,
			Description: "The big one.",
			CreatedBy:   admin.ID,
		})
		if err != nil {
			t.Fatalf("CreateEvent() error = %v", err)
		}
		if created.ID == 0 {
			t.Errorf("CreateEvent() returned event with ID 0")
		}
		if !created.StartTime.Equal(start) || !created.EndTime.Equal(end) {
			t.Errorf("CreateEvent() window = %v..%v, want %v..%v", created.StartTime, created.EndTime, start, end)
		}
		if created.CreatedBy != admin.ID {
			t.Errorf("CreateEvent() CreatedBy = %v, want %v", created.CreatedBy, admin.ID)
		}

		retrieved, err := GetEventByID(db, created.ID)
		if err != nil {
			t.Fatalf("GetEventByID() error = %v", err)
		}
		if retrieved.Name != "Summer Gathering" || retrieved.GameID != game.ID {
			t.Errorf("GetEventByID() got = %+v", retrieved)
		}
	})

	t.Run("Unscheduled event round-trips zero times", func(t *testing.T) {
		created, err := CreateEvent(db, &models.Event{GameID: game.ID, Name: "No Times Yet", CreatedBy: admin.ID})
		if err != nil {
			t.Fatalf("CreateEvent() error = %v", err)
		}
		retrieved, err := GetEventByID(db, created.ID)
		if err != nil {
			t.Fatalf("GetEventByID() error = %v", err)
		}
		if !retrieved.StartTime.IsZero() || !retrieved.EndTime.IsZero() {
			t.Errorf("GetEventByID() window = %v..%v, want zero times", retrieved.StartTime, retrieved.EndTime)
		}
	})

	t.Run("Event without creator round-trips zero UserID", func(t *testing.T) {
		created, err := CreateEvent(db, &models.Event{GameID: game.ID, Name: "Orphan Event"})
		if err != nil {
			t.Fatalf("CreateEvent() without creator error = %v", err)
		}
		retrieved, err := GetEventByID(db, created.ID)
		if err != nil {
			t.Fatalf("GetEventByID() error = %v", err)
		}
		if retrieved.CreatedBy != 0 {
			t.Errorf("GetEventByID() CreatedBy = %v, want 0", retrieved.CreatedBy)
		}
	})

	t.Run("Get Non-existent Event", func(t *testing.T) {
		if _, err := GetEventByID(db, 99999); err != sql.ErrNoRows {
			t.Errorf("GetEventByID() for non-existent ID, got err = %v, want sql.ErrNoRows", err)
		}
	})
}

func TestGetEventsByGameID(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	admin := createTestUser(t, db, "listadmin")
	game := createTestGame(t, db, "List Game", admin.ID)
	otherGame := createTestGame(t, db, "Other Game", admin.ID)

	later := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	if _, err := CreateEvent(db, &models.Event{GameID: game.ID, Name: "Later", StartTime: later, EndTime: later.Add(24 * time.Hour)}); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if _, err := CreateEvent(db, &models.Event{GameID: game.ID, Name: "Earlier", StartTime: earlier, EndTime: earlier.Add(24 * time.Hour)}); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if _, err := CreateEvent(db, &models.Event{GameID: otherGame.ID, Name: "Elsewhere", StartTime: earlier, EndTime: later}); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	events, err := GetEventsByGameID(db, game.ID)
	if err != nil {
		t.Fatalf("GetEventsByGameID() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("GetEventsByGameID() returned %d events, want 2", len(events))
	}
	if events[0].Name != "Earlier" || events[1].Name != "Later" {
		t.Errorf("GetEventsByGameID() order = [%s, %s], want start-time order", events[0].Name, events[1].Name)
	}
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	admin := createTestUser(t, db, "editadmin")
	game := createTestGame(t, db, "Edit Game", admin.ID)

	created, err := CreateEvent(db, &models.Event{GameID: game.ID, Name: "Before", CreatedBy: admin.ID})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	created.Name = "After"
	created.StartTime = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	created.EndTime = time.Date(2024, time.June, 11, 18, 0, 0, 0, time.UTC)
	created.Description = "Rescheduled."
	if err := UpdateEvent(db, created); err != nil {
		t.Fatalf("UpdateEvent() error = %v", err)
	}

	updated, err := GetEventByID(db, created.ID)
	if err != nil {
		t.Fatalf("GetEventByID() error = %v", err)
	}
	if updated.Name != "After" || updated.Description != "Rescheduled." {
		t.Errorf("UpdateEvent() got = %+v", updated)
	}
	if !updated.StartTime.Equal(created.StartTime) {
		t.Errorf("UpdateEvent() start = %v, want %v", updated.StartTime, created.StartTime)
	}

	if err := UpdateEvent(db, &models.Event{ID: 99999, Name: "X"}); err != sql.ErrNoRows {
		t.Errorf("UpdateEvent() for non-existent ID, got err = %v, want sql.ErrNoRows", err)
	}

	if err := DeleteEvent(db, created.ID); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}
	if _, err := GetEventByID(db, created.ID); err != sql.ErrNoRows {
		t.Errorf("GetEventByID() after delete, got err = %v, want sql.ErrNoRows", err)
	}
}

func TestCountModulesByEventID(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	admin := createTestUser(t, db, "countadmin")
	writer := createTestUser(t, db, "countwriter")
	game := createTestGame(t, db, "Count Game", admin.ID)
	event, err := CreateEvent(db, &models.Event{GameID: game.ID, Name: "Counted"})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	count, err := CountModulesByEventID(db, event.ID)
	if err != nil {
		t.Fatalf("CountModulesByEventID() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountModulesByEventID() = %d, want 0", count)
	}

	for i := 0; i < 3; i++ {
		if _, err := CreateModule(db, &models.Module{EventID: event.ID, AuthorID: writer.ID}); err != nil {
			t.Fatalf("CreateModule() error = %v", err)
		}
	}

	count, err = CountModulesByEventID(db, event.ID)
	if err != nil {
		t.Fatalf("CountModulesByEventID() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountModulesByEventID() = %d, want 3", count)
	}
}
