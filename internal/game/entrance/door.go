// Package entrance assigns Wrinkly hint doors and Troff 'n' Scoff boss
// portals to physical door slots, connects the Isles level entrances in
// slot order, and re-validates that the rewired graph stays traversable.
package entrance

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
	"github.com/cory-johannsen/dkrando/internal/game/world"
)

// DoorType is what a door slot is able to host.
type DoorType int

// Door types.
const (
	TypeBoth DoorType = iota
	TypeWrinkly
	TypeTns
)

func (t DoorType) String() string {
	switch t {
	case TypeWrinkly:
		return "wrinkly"
	case TypeTns:
		return "tns"
	}
	return "both"
}

// ParseDoorType resolves a door type name. The empty string is TypeBoth.
func ParseDoorType(s string) (DoorType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return TypeBoth, nil
	case "wrinkly":
		return TypeWrinkly, nil
	case "tns":
		return TypeTns, nil
	}
	return TypeBoth, fmt.Errorf("unknown door type %q", s)
}

// CanHost reports whether t allows placement p.
func (t DoorType) CanHost(p Placement) bool {
	switch p {
	case PlacedWrinkly:
		return t != TypeTns
	case PlacedTns:
		return t != TypeWrinkly
	}
	return false
}

// Placement is what a door slot holds.
type Placement int

// Door placements.
const (
	PlacedNone Placement = iota
	PlacedWrinkly
	PlacedTns
)

func (p Placement) String() string {
	switch p {
	case PlacedWrinkly:
		return "wrinkly"
	case PlacedTns:
		return "tns"
	}
	return "none"
}

// ParsePlacement resolves a placement name. The empty string is PlacedNone.
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PlacedNone, nil
	case "wrinkly":
		return PlacedWrinkly, nil
	case "tns":
		return PlacedTns, nil
	}
	return PlacedNone, fmt.Errorf("unknown door placement %q", s)
}

// Door defaults.
const (
	DefaultScale    = 1.0
	DefaultMoveless = true
)

// Door is one physical door slot.
//
// Invariant: Placed and AssignedKong are written at most once per attempt,
// on a table owned by that attempt.
type Door struct {
	Name  string
	Map   string
	Level item.Level
	// RegionKey is the logical region the door stands in.
	RegionKey string
	// Position is x, y, z and the y rotation.
	Position [4]float64
	RX       float64
	RZ       float64
	Scale    float64
	Kongs    []item.Kong
	// Group is a per-level bucket of adjacent doors. At most one door of a
	// group hosts a portal.
	Group int
	// Moveless doors are reachable without any ability once their region is.
	Moveless bool
	// LogicSource is the door's own requirement as written.
	LogicSource string
	Vanilla     Placement
	Type        DoorType

	// Region and Logic are resolved by Table.Bind.
	Region world.RegionID
	Logic  logic.Expr

	Placed       Placement
	AssignedKong item.Kong
}

// AllowsKong reports whether kong k can use the door.
func (d *Door) AllowsKong(k item.Kong) bool {
	return slices.Contains(d.Kongs, k)
}

// DoorBuilder constructs a Door with defaults for every optional field.
type DoorBuilder struct {
	d Door
}

// NewDoor starts a door in region of level.
//
// Postcondition: Unset fields take the defaults: every kong, scale 1,
// moveless, type both, no vanilla placement, no logic.
func NewDoor(name, mapName, region string, level item.Level) *DoorBuilder {
	return &DoorBuilder{d: Door{
		Name:      name,
		Map:       mapName,
		Level:     level,
		RegionKey: region,
		Scale:     DefaultScale,
		Kongs:     slices.Clone(item.Kongs),
		Moveless:  DefaultMoveless,
		Type:      TypeBoth,
		Region:    world.NoRegion,
		Logic:     logic.Always,
	}}
}

// WithPosition sets the location and y rotation.
func (b *DoorBuilder) WithPosition(x, y, z, rotY float64) *DoorBuilder {
	b.d.Position = [4]float64{x, y, z, rotY}
	return b
}

// WithTilt sets the x and z rotation.
func (b *DoorBuilder) WithTilt(rx, rz float64) *DoorBuilder {
	b.d.RX, b.d.RZ = rx, rz
	return b
}

// WithScale sets the scale.
func (b *DoorBuilder) WithScale(scale float64) *DoorBuilder {
	b.d.Scale = scale
	return b
}

// WithKongs restricts the door to kongs.
func (b *DoorBuilder) WithKongs(kongs ...item.Kong) *DoorBuilder {
	b.d.Kongs = slices.Clone(kongs)
	return b
}

// WithGroup sets the exclusivity group.
func (b *DoorBuilder) WithGroup(group int) *DoorBuilder {
	b.d.Group = group
	return b
}

// WithMoveless sets the moveless flag.
func (b *DoorBuilder) WithMoveless(moveless bool) *DoorBuilder {
	b.d.Moveless = moveless
	return b
}

// WithLogic sets the door's requirement source.
func (b *DoorBuilder) WithLogic(src string) *DoorBuilder {
	b.d.LogicSource = src
	return b
}

// WithVanilla sets what the unmodified game places here.
func (b *DoorBuilder) WithVanilla(p Placement) *DoorBuilder {
	b.d.Vanilla = p
	return b
}

// WithType sets what the door can host.
func (b *DoorBuilder) WithType(t DoorType) *DoorBuilder {
	b.d.Type = t
	return b
}

// Build returns the door.
func (b *DoorBuilder) Build() Door {
	d := b.d
	d.Kongs = slices.Clone(b.d.Kongs)
	return d
}
