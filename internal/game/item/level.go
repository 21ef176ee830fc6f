package item

import (
	"fmt"
	"strings"
)

// Level tags the part of the world a region belongs to.
type Level int

// Levels in vanilla order. Isles is the hub; Helm is the final level.
const (
	Isles Level = iota
	Japes
	Aztec
	Factory
	Galleon
	Forest
	Caves
	Castle
	Helm
)

var levelNames = [...]string{"isles", "japes", "aztec", "factory", "galleon", "forest", "caves", "castle", "helm"}

// MainLevels are the seven levels whose lobbies can be shuffled.
var MainLevels = []Level{Japes, Aztec, Factory, Galleon, Forest, Caves, Castle}

// String returns the lowercase level name.
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel resolves a level name.
func ParseLevel(name string) (Level, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, ln := range levelNames {
		if ln == n {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown level %q", name)
}

// Key returns the boss key earned in l.
//
// Postcondition: ok is false for Isles.
func (l Level) Key() (Kind, bool) {
	if l < Japes || l > Helm {
		return NoItem, false
	}
	return JungleJapesKey + Kind(l-Japes), true
}
