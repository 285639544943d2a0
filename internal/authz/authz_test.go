package authz

import (
	"testing"

	"github.com/larp-nexus/app/internal/models"
)

func TestIsAdministrator(t *testing.T) {
	game := &models.Game{
		ID:             1,
		Name:           "Shadows Over Elmsworth",
		Administrators: []models.UserID{1},
	}

	t.Run("Listed administrator with user role", func(t *testing.T) {
		if !IsAdministrator(game, 1, models.RoleUser) {
			t.Errorf("IsAdministrator() = false, want true for listed administrator")
		}
	})

	t.Run("Unlisted user with user role", func(t *testing.T) {
		if IsAdministrator(game, 2, models.RoleUser) {
			t.Errorf("IsAdministrator() = true, want false for unlisted user")
		}
	})

	t.Run("Global admin role overrides membership", func(t *testing.T) {
		if !IsAdministrator(game, 2, models.RoleAdmin) {
			t.Errorf("IsAdministrator() = false, want true for global admin")
		}
		// And regardless of the game's contents.
		if !IsAdministrator(&models.Game{}, 99, models.RoleAdmin) {
			t.Errorf("IsAdministrator() = false, want true for global admin on empty game")
		}
	})

	t.Run("Nil game fails closed", func(t *testing.T) {
		if IsAdministrator(nil, 1, models.RoleUser) {
			t.Errorf("IsAdministrator() = true, want false for nil game")
		}
		// Global admins do not need the game record resolved.
		if !IsAdministrator(nil, 1, models.RoleAdmin) {
			t.Errorf("IsAdministrator() = false, want true for global admin with nil game")
		}
	})

	t.Run("Empty role defaults to non-admin", func(t *testing.T) {
		if IsAdministrator(game, 2, "") {
			t.Errorf("IsAdministrator() = true, want false for empty role")
		}
		if !IsAdministrator(game, 1, "") {
			t.Errorf("IsAdministrator() = false, want true for listed administrator with empty role")
		}
	})
}

func TestIsAuthor(t *testing.T) {
	module := &models.Module{ID: 10, AuthorID: 7}

	if !IsAuthor(module, 7) {
		t.Errorf("IsAuthor() = false, want true for the module's author")
	}
	if IsAuthor(module, 8) {
		t.Errorf("IsAuthor() = true, want false for another user")
	}
	if IsAuthor(nil, 7) {
		t.Errorf("IsAuthor() = true, want false for nil module")
	}
}

func TestCanEditModule(t *testing.T) {
	game := &models.Game{ID: 1, Administrators: []models.UserID{1}}
	module := &models.Module{ID: 10, AuthorID: 7}

	cases := []struct {
		name   string
		userID models.UserID
		role   string
		want   Decision
	}{
		{"game administrator", 1, models.RoleUser, Authorized},
		{"module author", 7, models.RoleUser, Authorized},
		{"global admin", 3, models.RoleAdmin, Authorized},
		{"unrelated user", 3, models.RoleUser, Forbidden},
		{"unrelated user without role", 3, "", Forbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanEditModule(game, module, tc.userID, tc.role)
			if got != tc.want {
				t.Errorf("CanEditModule() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanManageEvent(t *testing.T) {
	game := &models.Game{ID: 1, Administrators: []models.UserID{1}}

	// Authorship does not apply to events: a writer who is not an
	// administrator may not manage them.
	if got := CanManageEvent(game, 7, models.RoleUser); got != Forbidden {
		t.Errorf("CanManageEvent() = %v, want Forbidden for non-admin writer", got)
	}
	if got := CanManageEvent(game, 1, models.RoleUser); got != Authorized {
		t.Errorf("CanManageEvent() = %v, want Authorized for game administrator", got)
	}
	if got := CanManageEvent(nil, 1, models.RoleUser); got != Forbidden {
		t.Errorf("CanManageEvent() = %v, want Forbidden for unresolved game", got)
	}
}

func TestDecisionAllowed(t *testing.T) {
	if Forbidden.Allowed() {
		t.Errorf("Forbidden.Allowed() = true, want false")
	}
	if !Authorized.Allowed() {
		t.Errorf("Authorized.Allowed() = false, want true")
	}
}
