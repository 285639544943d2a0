package models

import "time"

const (
	PropertyTypeString   = "string"
	PropertyTypeNumber   = "number"
	PropertyTypeDatetime = "datetime"
)

// PropertyDefinition is a game-level schema entry that module custom
// properties conform to. Key is unique within its game.
type PropertyDefinition struct {
	Key   string
	Label string
	Type  string
}

// Game is a campaign/LARP definition owning events and a custom
// property schema. Administrators and Writers hold user identities.
type Game struct {
	ID             int64
	Name           string
	System         string
	Administrators []UserID
	Writers        []UserID
	Properties     []PropertyDefinition
	CreatedAt      time.Time
}

// PropertyByKey returns the schema entry for key, or nil if the game
// does not define it.
func (g *Game) PropertyByKey(key string) *PropertyDefinition {
	for i := range g.Properties {
		if g.Properties[i].Key == key {
			return &g.Properties[i]
		}
	}
	return nil
}

// ValidPropertyType reports whether t is one of the supported
// property types.
func ValidPropertyType(t string) bool {
	switch t {
	case PropertyTypeString, PropertyTypeNumber, PropertyTypeDatetime:
		return true
	}
	return false
}
