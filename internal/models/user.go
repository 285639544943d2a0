package models

import "time"

// UserID is the normalized identity used everywhere membership or
// authorship is checked. All comparisons go through this type so the
// two sides of a check can never diverge in representation.
type UserID int64

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system.
type User struct {
	ID           UserID
	Username     string
	DisplayName  string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// NormalizeRole maps an absent or unknown role to the non-admin
// default. Anonymous callers must never resolve to a privileged role.
func NormalizeRole(role string) string {
	if role == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}
