package database

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/larp-nexus/app/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// createTestUser is shared by the game, event and module tests.
func createTestUser(t *testing.T, db *sql.DB, username string) *models.User {
	t.Helper()
	user, err := CreateUser(db, username, username, "password", models.RoleUser)
	if err != nil {
		t.Fatalf("Failed to create test user %s: %v", username, err)
	}
	return user
}

func TestCreateGameAndGetGame(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	admin := createTestUser(t, db, "gameadmin")
	writer := createTestUser(t, db, "gamewriter")

	game := &models.Game{
		Name:           "Shadows Over Elmsworth",
		System:         "Accelerant",
		Administrators: []models.UserID{admin.ID},
		Writers:        []models.UserID{writer.ID},
		Properties: []models.PropertyDefinition{
			{Key: "location", Label: "Location", Type: models.PropertyTypeString},
			{Key: "max_players", Label: "Max Players", Type: models.PropertyTypeNumber},
		},
	}

	t.Run("Create and Get Game", func(t *testing.T) {
		created, err := CreateGame(db, game)
		if err != nil {
			t.Fatalf("CreateGame() error = %v", err)
		}
		if created.ID == 0 {
			t.Errorf("CreateGame() returned game with ID 0")
		}
		if created.Name != game.Name || created.System != game.System {
			t.Errorf("CreateGame() got = %+v, want name/system preserved", created)
		}
		if !reflect.DeepEqual(created.Administrators, game.Administrators) {
			t.Errorf("CreateGame() administrators = %v, want %v", created.Administrators, game.Administrators)
		}
		if !reflect.DeepEqual(created.Writers, game.Writers) {
			t.Errorf("CreateGame() writers = %v, want %v", created.Writers, game.Writers)
		}
		if !reflect.DeepEqual(created.Properties, game.Properties) {
			t.Errorf("CreateGame() properties = %v, want %v (in order)", created.Properties, game.Properties)
		}

		retrieved, err := GetGameByID(db, created.ID)
		if err != nil {
			t.Fatalf("GetGameByID() error = %v", err)
		}
		if !reflect.DeepEqual(retrieved, created) {
			t.Errorf("GetGameByID() got = %+v, want %+v", retrieved, created)
		}
	})

	t.Run("Get Non-existent Game", func(t *testing.T) {
		if _, err := GetGameByID(db, 99999); err != sql.ErrNoRows {
			t.Errorf("GetGameByID() for non-existent ID, got err = %v, want sql.ErrNoRows", err)
		}
	})
}

func TestUpdateGame(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	admin := createTestUser(t, db, "originaladmin")
	newAdmin := createTestUser(t, db, "newadmin")

	created, err := CreateGame(db, &models.Game{
		Name:           "Before",
		Administrators: []models.UserID{admin.ID},
	})
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	created.Name = "After"
	created.System = "Nordic"
	created.Administrators = []models.UserID{newAdmin.ID}
	created.Writers = []models.UserID{admin.ID}
	if err := UpdateGame(db, created); err != nil {
		t.Fatalf("UpdateGame() error = %v", err)
	}

	updated, err := GetGameByID(db, created.ID)
	if err != nil {
		t.Fatalf("GetGameByID() error = %v", err)
	}
	if updated.Name != "After" || updated.System != "Nordic" {
		t.Errorf("UpdateGame() got = %+v, want After/Nordic", updated)
	}
	if !reflect.DeepEqual(updated.Administrators, []models.UserID{newAdmin.ID}) {
		t.Errorf("UpdateGame() administrators = %v, want %v", updated.Administrators, []models.UserID{newAdmin.ID})
	}
	if !reflect.DeepEqual(updated.Writers, []models.UserID{admin.ID}) {
		t.Errorf("UpdateGame() writers = %v, want %v", updated.Writers, []models.UserID{admin.ID})
	}

	if err := UpdateGame(db, &models.Game{ID: 99999, Name: "X"}); err != sql.ErrNoRows {
		t.Errorf("UpdateGame() for non-existent ID, got err = %v, want sql.ErrNoRows", err)
	}
}

func TestSetGameProperties(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	created, err := CreateGame(db, &models.Game{Name: "Schema Game"})
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	defs := []models.PropertyDefinition{
		{Key: "tone", Label: "Tone", Type: models.PropertyTypeString},
		{Key: "start", Label: "Kickoff", Type: models.PropertyTypeDatetime},
		{Key: "cast", Label: "Cast Size", Type: models.PropertyTypeNumber},
	}
	if err := SetGameProperties(db, created.ID, defs); err != nil {
		t.Fatalf("SetGameProperties() error = %v", err)
	}

	game, err := GetGameByID(db, created.ID)
	if err != nil {
		t.Fatalf("GetGameByID() error = %v", err)
	}
	if !reflect.DeepEqual(game.Properties, defs) {
		t.Errorf("SetGameProperties() stored = %v, want %v (ordered)", game.Properties, defs)
	}

	// Replacing shrinks the schema.
	if err := SetGameProperties(db, created.ID, defs[:1]); err != nil {
		t.Fatalf("SetGameProperties() error = %v", err)
	}
	game, err = GetGameByID(db, created.ID)
	if err != nil {
		t.Fatalf("GetGameByID() error = %v", err)
	}
	if !reflect.DeepEqual(game.Properties, defs[:1]) {
		t.Errorf("SetGameProperties() after shrink = %v, want %v", game.Properties, defs[:1])
	}
}

func TestGetAllGames(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()

	if _, err := CreateGame(db, &models.Game{Name: "Zeta Run"}); err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}
	if _, err := CreateGame(db, &models.Game{Name: "Alpha Watch"}); err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	games, err := GetAllGames(db)
	if err != nil {
		t.Fatalf("GetAllGames() error = %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("GetAllGames() returned %d games, want 2", len(games))
	}
	if games[0].Name != "Alpha Watch" || games[1].Name != "Zeta Run" {
		t.Errorf("GetAllGames() order = [%s, %s], want name order", games[0].Name, games[1].Name)
	}
}
