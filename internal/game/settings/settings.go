// Package settings holds the read-only generation options resolved once
// before a seed is generated.
package settings

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cory-johannsen/dkrando/internal/game/item"
)

// Training barrel modes.
const (
	TrainingNormal    = "normal"
	TrainingStartWith = "startwith"
	TrainingShuffled  = "shuffled"
)

// Coin door requirements.
const (
	CoinDoorBoth     = "need_both"
	CoinDoorNintendo = "need_nin"
	CoinDoorRareware = "need_rw"
	CoinDoorNone     = "need_zero"
)

// Accessibility levels checked after a fill.
const (
	// AccessibilityAll requires every location to be reachable.
	AccessibilityAll = "all"
	// AccessibilityBeatable only requires the completion location.
	AccessibilityBeatable = "beatable"
)

// Tier names accepted in TierOrder.
const (
	TierHigh      = "high"
	TierBlueprint = "blueprint"
	TierLow       = "low"
	TierExcess    = "excess"
)

// DefaultTierOrder places logic-critical items first.
var DefaultTierOrder = []string{TierHigh, TierBlueprint, TierLow, TierExcess}

// DefaultEntryGBs are the B. Locker golden banana counts of the eight
// level slots.
var DefaultEntryGBs = []int{1, 5, 15, 30, 50, 65, 80, 100}

// Settings are the generation options.
type Settings struct {
	StartingKong         string   `mapstructure:"starting_kong" yaml:"starting_kong" json:"starting_kong"`
	TrainingBarrels      string   `mapstructure:"training_barrels" yaml:"training_barrels" json:"training_barrels"`
	StartWithKongs       bool     `mapstructure:"start_with_kongs" yaml:"start_with_kongs" json:"start_with_kongs"`
	StartWithCrankyMoves bool     `mapstructure:"start_with_cranky_moves" yaml:"start_with_cranky_moves" json:"start_with_cranky_moves"`
	ProgressiveUpgrades  bool     `mapstructure:"progressive_upgrades" yaml:"progressive_upgrades" json:"progressive_upgrades"`
	OpenLobbies          bool     `mapstructure:"open_lobbies" yaml:"open_lobbies" json:"open_lobbies"`
	OpenLevels           bool     `mapstructure:"open_levels" yaml:"open_levels" json:"open_levels"`
	OpenWorld            bool     `mapstructure:"open_world" yaml:"open_world" json:"open_world"`
	ShuffleLevels        bool     `mapstructure:"shuffle_levels" yaml:"shuffle_levels" json:"shuffle_levels"`
	ShuffleDoors         bool     `mapstructure:"shuffle_doors" yaml:"shuffle_doors" json:"shuffle_doors"`
	PortalsPerLevel      int      `mapstructure:"portals_per_level" yaml:"portals_per_level" json:"portals_per_level"`
	MovelessFirstPortal  bool     `mapstructure:"moveless_first_portal" yaml:"moveless_first_portal" json:"moveless_first_portal"`
	EntryGBs             []int    `mapstructure:"entry_gbs" yaml:"entry_gbs" json:"entry_gbs"`
	KRoolKeys            []int    `mapstructure:"krool_keys" yaml:"krool_keys" json:"krool_keys"`
	MedalRequirement     int      `mapstructure:"medal_requirement" yaml:"medal_requirement" json:"medal_requirement"`
	CoinDoor             string   `mapstructure:"coin_door" yaml:"coin_door" json:"coin_door"`
	CrownDoorCrowns      int      `mapstructure:"crown_door_crowns" yaml:"crown_door_crowns" json:"crown_door_crowns"`
	Accessibility        string   `mapstructure:"accessibility" yaml:"accessibility" json:"accessibility"`
	TierOrder            []string `mapstructure:"tier_order" yaml:"tier_order" json:"tier_order"`
	StartingItems        []string `mapstructure:"starting_items" yaml:"starting_items,omitempty" json:"starting_items,omitempty"`
	UnlockFairyShockwave bool     `mapstructure:"unlock_fairy_shockwave" yaml:"unlock_fairy_shockwave" json:"unlock_fairy_shockwave"`
}

// Default returns the settings used when none are configured.
func Default() Settings {
	return Settings{
		StartingKong:        item.KongDonkey.String(),
		TrainingBarrels:     TrainingNormal,
		ShuffleDoors:        true,
		MovelessFirstPortal: true,
		EntryGBs:            slices.Clone(DefaultEntryGBs),
		KRoolKeys:           []int{1, 2, 3, 4, 5, 6, 7, 8},
		MedalRequirement:    10,
		CoinDoor:            CoinDoorBoth,
		CrownDoorCrowns:     4,
		Accessibility:       AccessibilityAll,
		TierOrder:           slices.Clone(DefaultTierOrder),
	}
}

// Validate checks every option.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (s Settings) Validate() error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if _, err := item.ParseKong(s.StartingKong); err != nil {
		add("settings.starting_kong: %v", err)
	}
	switch s.TrainingBarrels {
	case TrainingNormal, TrainingStartWith, TrainingShuffled:
	default:
		add("settings.training_barrels must be one of [normal, startwith, shuffled], got %q", s.TrainingBarrels)
	}
	if s.PortalsPerLevel < 0 || s.PortalsPerLevel > 10 {
		add("settings.portals_per_level must be 0-10, got %d", s.PortalsPerLevel)
	}
	if len(s.EntryGBs) != 8 {
		add("settings.entry_gbs must list 8 counts, got %d", len(s.EntryGBs))
	}
	for i, n := range s.EntryGBs {
		if n < 0 || n > 201 {
			add("settings.entry_gbs[%d] must be 0-201, got %d", i, n)
		}
	}
	seen := make([]bool, 9)
	for _, k := range s.KRoolKeys {
		if k < 1 || k > 8 {
			add("settings.krool_keys entries must be 1-8, got %d", k)
			continue
		}
		if seen[k] {
			add("settings.krool_keys lists slot %d twice", k)
		}
		seen[k] = true
	}
	if s.MedalRequirement < 0 || s.MedalRequirement > 40 {
		add("settings.medal_requirement must be 0-40, got %d", s.MedalRequirement)
	}
	switch s.CoinDoor {
	case CoinDoorBoth, CoinDoorNintendo, CoinDoorRareware, CoinDoorNone:
	default:
		add("settings.coin_door must be one of [need_both, need_nin, need_rw, need_zero], got %q", s.CoinDoor)
	}
	if s.CrownDoorCrowns < 0 || s.CrownDoorCrowns > 10 {
		add("settings.crown_door_crowns must be 0-10, got %d", s.CrownDoorCrowns)
	}
	switch s.Accessibility {
	case AccessibilityAll, AccessibilityBeatable:
	default:
		add("settings.accessibility must be one of [all, beatable], got %q", s.Accessibility)
	}
	if err := validateTierOrder(s.TierOrder); err != nil {
		add("settings.tier_order: %v", err)
	}
	if _, err := item.ParseList(s.StartingItems); err != nil {
		add("settings.starting_items: %v", err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("settings validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTierOrder(order []string) error {
	if len(order) != len(DefaultTierOrder) {
		return fmt.Errorf("must list %v exactly once", DefaultTierOrder)
	}
	for _, name := range DefaultTierOrder {
		if !slices.Contains(order, name) {
			return fmt.Errorf("missing tier %q", name)
		}
	}
	if order[len(order)-1] != TierExcess {
		return fmt.Errorf("excess must be the last tier")
	}
	return nil
}

// Kong returns the starting kong.
//
// Precondition: s.Validate() returned nil.
func (s Settings) Kong() item.Kong {
	k, err := item.ParseKong(s.StartingKong)
	if err != nil {
		return item.KongDonkey
	}
	return k
}

// ExtraStartingItems returns the configured starting items.
func (s Settings) ExtraStartingItems() (item.List, error) {
	return item.ParseList(s.StartingItems)
}

// EntryGB returns the golden banana requirement of the 1-based slot.
func (s Settings) EntryGB(slot int) int {
	if slot < 1 || slot > len(s.EntryGBs) {
		return 0
	}
	return s.EntryGBs[slot-1]
}

// Params returns the values substituted for $name in world logic.
func (s Settings) Params() map[string]int {
	nin, rw := 0, 0
	switch s.CoinDoor {
	case CoinDoorBoth:
		nin, rw = 1, 1
	case CoinDoorNintendo:
		nin = 1
	case CoinDoorRareware:
		rw = 1
	}
	return map[string]int{
		"medal_requirement":  s.MedalRequirement,
		"crown_door_crowns":  s.CrownDoorCrowns,
		"coin_door_nintendo": nin,
		"coin_door_rareware": rw,
	}
}

// Flags returns the boolean options by their configuration key. World
// transitions and script hooks are gated on these names.
func (s Settings) Flags() map[string]bool {
	return map[string]bool{
		"start_with_kongs":        s.StartWithKongs,
		"start_with_cranky_moves": s.StartWithCrankyMoves,
		"progressive_upgrades":    s.ProgressiveUpgrades,
		"open_lobbies":            s.OpenLobbies,
		"open_levels":             s.OpenLevels,
		"open_world":              s.OpenWorld,
		"shuffle_levels":          s.ShuffleLevels,
		"shuffle_doors":           s.ShuffleDoors,
		"moveless_first_portal":   s.MovelessFirstPortal,
		"unlock_fairy_shockwave":  s.UnlockFairyShockwave,
	}
}
