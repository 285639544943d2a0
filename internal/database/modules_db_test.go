package database

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/larp-nexus/app/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

func createTestEvent(t *testing.T, db *sql.DB, gameID int64, name string) *models.Event {
	t.Helper()
	event, err := CreateEvent(db, &models.Event{
		GameID:    gameID,
		Name:      name,
		StartTime: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Failed to create test event %s: %v", name, err)
	}
	return event
}

func TestCreateModuleAndGetModule(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	admin := createTestUser(t, db, "modadmin")
	writer := createTestUser(t, db, "modwriter")
	game := createTestGame(t, db, "Module Game", admin.ID)
	event := createTestEvent(t, db, game.ID, "Module Event")

	start := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	module := &models.Module{
		EventID:       event.ID,
		AuthorID:      writer.ID,
		Name:          "The Missing Courier",
		Summary:       "A courier vanished on the north road.",
		StartTime:     start,
		DurationHours: 3,
		Properties:    map[string]string{"location": "North Road", "max_players": "8"},
	}

	t.Run("Create and Get Module", func(t *testing.T) {
		created, err := CreateModule(db, module)
		if err != nil {
			t.Fatalf("CreateModule() error = %v", err)
		}
		if created.ID == 0 {
			t.Errorf("CreateModule() returned module with ID 0")
		}
		if created.AuthorID != writer.ID {
			t.Errorf("CreateModule() AuthorID = %v, want %v", created.AuthorID, writer.ID)
		}
		if !created.StartTime.Equal(start) || created.DurationHours != 3 {
			t.Errorf("CreateModule() schedule = %v/%vh, want %v/3h", created.StartTime, created.DurationHours, start)
		}
		if !reflect.DeepEqual(created.Properties, module.Properties) {
			t.Errorf("CreateModule() properties = %v, want %v", created.Properties, module.Properties)
		}

		retrieved, err := GetModuleByID(db, created.ID)
		if err != nil {
			t.Fatalf("GetModuleByID() error = %v", err)
		}
		if !reflect.DeepEqual(retrieved.Properties, module.Properties) {
			t.Errorf("GetModuleByID() properties = %v, want %v", retrieved.Properties, module.Properties)
		}
	})

	t.Run("Get Non-existent Module", func(t *testing.T) {
		if _, err := GetModuleByID(db, 99999); err != sql.ErrNoRows {
			t.Errorf("GetModuleByID() for non-existent ID, got err = %v, want sql.ErrNoRows", err)
		}
	})
}

func TestGetModulesByEventID(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	admin := createTestUser(t, db, "listmodadmin")
	writer := createTestUser(t, db, "listmodwriter")
	game := createTestGame(t, db, "List Module Game", admin.ID)
	event := createTestEvent(t, db, game.ID, "List Module Event")

	late := time.Date(2024, time.June, 1, 20, 0, 0, 0, time.UTC)
	early := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

	if _, err := CreateModule(db, &models.Module{EventID: event.ID, AuthorID: writer.ID, Name: "Night Watch", StartTime: late, DurationHours: 2}); err != nil {
		t.Fatalf("CreateModule() error = %v", err)
	}
	if _, err := CreateModule(db, &models.Module{EventID: event.ID, AuthorID: writer.ID, Name: "Morning Drill", StartTime: early, DurationHours: 1}); err != nil {
		t.Fatalf("CreateModule() error = %v", err)
	}

	modules, err := GetModulesByEventID(db, event.ID)
	if err != nil {
		t.Fatalf("GetModulesByEventID() error = %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("GetModulesByEventID() returned %d modules, want 2", len(modules))
	}
	if modules[0].Name != "Morning Drill" || modules[1].Name != "Night Watch" {
		t.Errorf("GetModulesByEventID() order = [%s, %s], want start-time order", modules[0].Name, modules[1].Name)
	}
	if modules[0].AuthorName != "listmodwriter" {
		t.Errorf("GetModulesByEventID() AuthorName = %q, want writer display name", modules[0].AuthorName)
	}
}

func TestUpdateModule(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	admin := createTestUser(t, db, "updmodadmin")
	writer := createTestUser(t, db, "updmodwriter")
	game := createTestGame(t, db, "Update Module Game", admin.ID)
	event := createTestEvent(t, db, game.ID, "Update Module Event")

	created, err := CreateModule(db, &models.Module{
		EventID:    event.ID,
		AuthorID:   writer.ID,
		Name:       "Draft",
		Properties: map[string]string{"location": ""},
	})
	if err != nil {
		t.Fatalf("CreateModule() error = %v", err)
	}

	created.Name = "Final"
	created.Summary = "Now with a plot."
	created.StartTime = time.Date(2024, time.June, 2, 14, 0, 0, 0, time.UTC)
	created.DurationHours = 2.5
	created.Properties = map[string]string{"location": "The Old Mill"}
	if err := UpdateModule(db, created); err != nil {
		t.Fatalf("UpdateModule() error = %v", err)
	}

	updated, err := GetModuleByID(db, created.ID)
	if err != nil {
		t.Fatalf("GetModuleByID() error = %v", err)
	}
	if updated.Name != "Final" || updated.Summary != "Now with a plot." || updated.DurationHours != 2.5 {
		t.Errorf("UpdateModule() got = %+v", updated)
	}
	if !reflect.DeepEqual(updated.Properties, created.Properties) {
		t.Errorf("UpdateModule() properties = %v, want %v", updated.Properties, created.Properties)
	}

	if err := UpdateModule(db, &models.Module{ID: 99999}); err != sql.ErrNoRows {
		t.Errorf("UpdateModule() for non-existent ID, got err = %v, want sql.ErrNoRows", err)
	}
}

func TestDeleteModule(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	admin := createTestUser(t, db, "delmodadmin")
	writer := createTestUser(t, db, "delmodwriter")
	game := createTestGame(t, db, "Delete Module Game", admin.ID)
	event := createTestEvent(t, db, game.ID, "Delete Module Event")

	created, err := CreateModule(db, &models.Module{
		EventID:    event.ID,
		AuthorID:   writer.ID,
		Properties: map[string]string{"location": "x"},
	})
	if err != nil {
		t.Fatalf("CreateModule() error = %v", err)
	}

	if err := DeleteModule(db, created.ID); err != nil {
		t.Fatalf("DeleteModule() error = %v", err)
	}
	if _, err := GetModuleByID(db, created.ID); err != sql.ErrNoRows {
		t.Errorf("GetModuleByID() after delete, got err = %v, want sql.ErrNoRows", err)
	}
	if err := DeleteModule(db, created.ID); err != sql.ErrNoRows {
		t.Errorf("DeleteModule() twice, got err = %v, want sql.ErrNoRows", err)
	}
}
