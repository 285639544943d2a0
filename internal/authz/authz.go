// Package authz holds the authorization predicates consumed before
// every mutating operation on games, events and modules. The
// predicates are pure and fail closed: a missing record or an absent
// role always resolves to "not authorized", never to a panic.
package authz

import "github.com/larp-nexus/app/internal/models"

// Decision is the result of an authorization check.
type Decision int

const (
	Forbidden Decision = iota
	Authorized
)

// Allowed reports whether the decision permits the operation.
func (d Decision) Allowed() bool {
	return d == Authorized
}

func (d Decision) String() string {
	if d == Authorized {
		return "authorized"
	}
	return "forbidden"
}

// IsAdministrator reports whether userID may administer game: either
// the user is listed on the game's administrators set, or their
// global role is admin. The global admin role always overrides
// per-game membership. A nil game fails closed.
func IsAdministrator(game *models.Game, userID models.UserID, role string) bool {
	if models.NormalizeRole(role) == models.RoleAdmin {
		return true
	}
	if game == nil {
		return false
	}
	for _, id := range game.Administrators {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAuthor reports whether userID wrote module. A nil module fails
// closed.
func IsAuthor(module *models.Module, userID models.UserID) bool {
	if module == nil {
		return false
	}
	return module.AuthorID == userID
}

// CanManageGame decides a mutation on a game or its property schema.
// Authorship does not apply at this level.
func CanManageGame(game *models.Game, userID models.UserID, role string) Decision {
	if IsAdministrator(game, userID, role) {
		return Authorized
	}
	return Forbidden
}

// CanManageEvent decides a mutation on an event, gated by its owning
// game.
func CanManageEvent(ownerGame *models.Game, userID models.UserID, role string) Decision {
	if IsAdministrator(ownerGame, userID, role) {
		return Authorized
	}
	return Forbidden
}

// CanEditModule decides a mutation on a module: game administrators
// and the module's author may edit.
func CanEditModule(ownerGame *models.Game, module *models.Module, userID models.UserID, role string) Decision {
	if IsAdministrator(ownerGame, userID, role) || IsAuthor(module, userID) {
		return Authorized
	}
	return Forbidden
}
