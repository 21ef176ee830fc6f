// Package item defines the closed universe of placeable items: kongs,
// weapons, instruments, moves, keys, blueprints and collectables.
package item

import (
	"fmt"
	"strings"
)

// Kind identifies one item of the closed enumeration.
//
// Invariant: 0 <= k < NumKinds for every valid Kind.
type Kind int

// Fixed item kinds. Blueprints follow blueprintBase and are addressed
// through Blueprint.
const (
	NoItem Kind = iota

	Donkey
	Diddy
	Lanky
	Tiny
	Chunky

	Coconut
	Peanut
	Grape
	Feather
	Pineapple

	Bongos
	Guitar
	Trombone
	Saxophone
	Triangle

	Vines
	Swim
	Oranges
	Barrels

	BaboonBlast
	StrongKong
	GorillaGrab
	ChimpyCharge
	RocketbarrelBoost
	SimianSpring
	Orangstand
	BaboonBalloon
	OrangstandSprint
	MiniMonkey
	PonyTailTwirl
	Monkeyport
	HunkyChunky
	PrimatePunch
	GorillaGone

	ProgressiveSlam
	ProgressiveDonkeyPotion
	ProgressiveDiddyPotion
	ProgressiveLankyPotion
	ProgressiveTinyPotion
	ProgressiveChunkyPotion

	CameraAndShockwave

	JungleJapesKey
	AngryAztecKey
	FranticFactoryKey
	GloomyGalleonKey
	FungiForestKey
	CrystalCavesKey
	CreepyCastleKey
	HideoutHelmKey

	GoldenBanana
	BananaFairy
	BananaMedal
	BattleCrown
	NintendoCoin
	RarewareCoin

	HomingAmmo
	SniperSight
	ProgressiveAmmoBelt
	ProgressiveInstrumentUpgrade

	BananaHoard

	blueprintBase
)

// blueprintCount is one blueprint per kong for Isles and the seven main levels.
const blueprintCount = 8 * 5

// NumKinds is the size of the item enumeration.
const NumKinds = int(blueprintBase) + blueprintCount

// Category groups kinds by their role in the item pool.
type Category int

// Item categories.
const (
	CategoryNone Category = iota
	CategoryKong
	CategoryGun
	CategoryInstrument
	CategoryTraining
	CategoryMove
	CategoryProgressive
	CategoryCamera
	CategoryKey
	CategoryBlueprint
	CategoryCollectable
	CategoryUpgrade
	CategoryHoard
)

var categoryNames = [...]string{
	CategoryNone:        "none",
	CategoryKong:        "kong",
	CategoryGun:         "gun",
	CategoryInstrument:  "instrument",
	CategoryTraining:    "training",
	CategoryMove:        "move",
	CategoryProgressive: "progressive",
	CategoryCamera:      "camera",
	CategoryKey:         "key",
	CategoryBlueprint:   "blueprint",
	CategoryCollectable: "collectable",
	CategoryUpgrade:     "upgrade",
	CategoryHoard:       "hoard",
}

// String returns the lowercase category name.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

var fixedNames = [...]string{
	NoItem:                       "no_item",
	Donkey:                       "donkey",
	Diddy:                        "diddy",
	Lanky:                        "lanky",
	Tiny:                         "tiny",
	Chunky:                       "chunky",
	Coconut:                      "coconut",
	Peanut:                       "peanut",
	Grape:                        "grape",
	Feather:                      "feather",
	Pineapple:                    "pineapple",
	Bongos:                       "bongos",
	Guitar:                       "guitar",
	Trombone:                     "trombone",
	Saxophone:                    "saxophone",
	Triangle:                     "triangle",
	Vines:                        "vines",
	Swim:                         "swim",
	Oranges:                      "oranges",
	Barrels:                      "barrels",
	BaboonBlast:                  "baboon_blast",
	StrongKong:                   "strong_kong",
	GorillaGrab:                  "gorilla_grab",
	ChimpyCharge:                 "chimpy_charge",
	RocketbarrelBoost:            "rocketbarrel_boost",
	SimianSpring:                 "simian_spring",
	Orangstand:                   "orangstand",
	BaboonBalloon:                "baboon_balloon",
	OrangstandSprint:             "orangstand_sprint",
	MiniMonkey:                   "mini_monkey",
	PonyTailTwirl:                "pony_tail_twirl",
	Monkeyport:                   "monkeyport",
	HunkyChunky:                  "hunky_chunky",
	PrimatePunch:                 "primate_punch",
	GorillaGone:                  "gorilla_gone",
	ProgressiveSlam:              "progressive_slam",
	ProgressiveDonkeyPotion:      "progressive_donkey_potion",
	ProgressiveDiddyPotion:       "progressive_diddy_potion",
	ProgressiveLankyPotion:       "progressive_lanky_potion",
	ProgressiveTinyPotion:        "progressive_tiny_potion",
	ProgressiveChunkyPotion:      "progressive_chunky_potion",
	CameraAndShockwave:           "camera_and_shockwave",
	JungleJapesKey:               "jungle_japes_key",
	AngryAztecKey:                "angry_aztec_key",
	FranticFactoryKey:            "frantic_factory_key",
	GloomyGalleonKey:             "gloomy_galleon_key",
	FungiForestKey:               "fungi_forest_key",
	CrystalCavesKey:              "crystal_caves_key",
	CreepyCastleKey:              "creepy_castle_key",
	HideoutHelmKey:               "hideout_helm_key",
	GoldenBanana:                 "golden_banana",
	BananaFairy:                  "banana_fairy",
	BananaMedal:                  "banana_medal",
	BattleCrown:                  "battle_crown",
	NintendoCoin:                 "nintendo_coin",
	RarewareCoin:                 "rareware_coin",
	HomingAmmo:                   "homing_ammo",
	SniperSight:                  "sniper_sight",
	ProgressiveAmmoBelt:          "progressive_ammo_belt",
	ProgressiveInstrumentUpgrade: "progressive_instrument_upgrade",
	BananaHoard:                  "banana_hoard",
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, NumKinds)
	for k := Kind(0); int(k) < NumKinds; k++ {
		m[k.String()] = k
	}
	return m
}()

// Valid reports whether k is inside the enumeration.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < NumKinds
}

// String returns the snake_case item name used in content files and output.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("item(%d)", int(k))
	}
	if k < blueprintBase {
		return fixedNames[k]
	}
	level, kong := k.blueprintParts()
	return "blueprint_" + level.String() + "_" + kong.String()
}

// Parse resolves an item name.
//
// Precondition: name is a snake_case item name, case-insensitive.
// Postcondition: Returns the matching Kind or an error naming the unknown item.
func Parse(name string) (Kind, error) {
	k, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return NoItem, fmt.Errorf("unknown item %q", name)
	}
	return k, nil
}

// MustParse is Parse that panics on unknown names. Intended for tests and
// package-level tables.
func MustParse(name string) Kind {
	k, err := Parse(name)
	if err != nil {
		panic("item: " + err.Error())
	}
	return k
}

// Blueprint returns the blueprint kind for the given level and kong.
//
// Precondition: level is Isles or one of the seven main levels.
func Blueprint(level Level, kong Kong) Kind {
	if level < Isles || level > Castle {
		panic(fmt.Sprintf("item: no blueprints for level %s", level))
	}
	return blueprintBase + Kind(int(level)*len(Kongs)+int(kong))
}

func (k Kind) blueprintParts() (Level, Kong) {
	off := int(k - blueprintBase)
	return Level(off / len(Kongs)), Kong(off % len(Kongs))
}

// Category returns the pool role of k.
func (k Kind) Category() Category {
	switch {
	case k >= Donkey && k <= Chunky:
		return CategoryKong
	case k >= Coconut && k <= Pineapple:
		return CategoryGun
	case k >= Bongos && k <= Triangle:
		return CategoryInstrument
	case k >= Vines && k <= Barrels:
		return CategoryTraining
	case k >= BaboonBlast && k <= GorillaGone:
		return CategoryMove
	case k >= ProgressiveSlam && k <= ProgressiveChunkyPotion:
		return CategoryProgressive
	case k == CameraAndShockwave:
		return CategoryCamera
	case k >= JungleJapesKey && k <= HideoutHelmKey:
		return CategoryKey
	case k >= GoldenBanana && k <= RarewareCoin:
		return CategoryCollectable
	case k >= HomingAmmo && k <= ProgressiveInstrumentUpgrade:
		return CategoryUpgrade
	case k == BananaHoard:
		return CategoryHoard
	case k >= blueprintBase && k.Valid():
		return CategoryBlueprint
	}
	return CategoryNone
}

// Kong returns the kong a kong item unlocks.
//
// Postcondition: ok is false for every non-kong item.
func (k Kind) Kong() (Kong, bool) {
	if k.Category() != CategoryKong {
		return 0, false
	}
	return Kong(k - Donkey), true
}

// BlueprintOf returns the level and kong of a blueprint item.
func (k Kind) BlueprintOf() (Level, Kong, bool) {
	if k.Category() != CategoryBlueprint {
		return 0, 0, false
	}
	level, kong := k.blueprintParts()
	return level, kong, true
}

// All returns every kind in enumeration order, excluding NoItem.
func All() []Kind {
	out := make([]Kind, 0, NumKinds-1)
	for k := Kind(1); int(k) < NumKinds; k++ {
		out = append(out, k)
	}
	return out
}
