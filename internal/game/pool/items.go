package pool

import (
	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/settings"
)

// Kongs returns the five kong items.
func Kongs() item.List {
	return item.List{item.Donkey, item.Diddy, item.Lanky, item.Tiny, item.Chunky}
}

// Guns returns the five gun items.
func Guns() item.List {
	return item.List{item.Coconut, item.Peanut, item.Grape, item.Feather, item.Pineapple}
}

// Instruments returns the five instrument items.
func Instruments() item.List {
	return item.List{item.Bongos, item.Guitar, item.Trombone, item.Saxophone, item.Triangle}
}

// TrainingBarrelAbilities returns the four training barrel abilities.
func TrainingBarrelAbilities() item.List {
	return item.List{item.Vines, item.Swim, item.Oranges, item.Barrels}
}

// Moves returns the fifteen individual Cranky moves.
func Moves() item.List {
	out := make(item.List, 0, 15)
	for k := item.BaboonBlast; k <= item.GorillaGone; k++ {
		out = append(out, k)
	}
	return out
}

// Potions returns three progressive potions per kong.
func Potions() item.List {
	return item.Concat(
		item.Repeat(item.ProgressiveDonkeyPotion, 3),
		item.Repeat(item.ProgressiveDiddyPotion, 3),
		item.Repeat(item.ProgressiveLankyPotion, 3),
		item.Repeat(item.ProgressiveTinyPotion, 3),
		item.Repeat(item.ProgressiveChunkyPotion, 3),
	)
}

// Upgrades returns the ability items shuffled under s.
func Upgrades(s settings.Settings) item.List {
	var out item.List
	if s.TrainingBarrels == settings.TrainingShuffled {
		out = append(out, TrainingBarrelAbilities()...)
	}
	if !s.StartWithCrankyMoves {
		out = append(out, item.Repeat(item.ProgressiveSlam, 3)...)
		if s.ProgressiveUpgrades {
			out = append(out, Potions()...)
		} else {
			out = append(out, Moves()...)
		}
	}
	return append(out, item.CameraAndShockwave)
}

// HighPriorityItems returns the items that unlock logic.
func HighPriorityItems(s settings.Settings) item.List {
	var kongs item.List
	if !s.StartWithKongs {
		kongs = Kongs()
	}
	return item.Concat(kongs, Guns(), Instruments(), Upgrades(s))
}

// Blueprints returns one blueprint per kong for Isles and each main level.
func Blueprints() item.List {
	out := make(item.List, 0, 40)
	for l := item.Isles; l <= item.Castle; l++ {
		for _, k := range item.Kongs {
			out = append(out, item.Blueprint(l, k))
		}
	}
	return out
}

// Keys returns the eight boss keys.
func Keys() item.List {
	out := make(item.List, 0, 8)
	for k := item.JungleJapesKey; k <= item.HideoutHelmKey; k++ {
		out = append(out, k)
	}
	return out
}

// LowPriorityItems returns the collectables that gate progress in bulk.
func LowPriorityItems() item.List {
	return item.Concat(
		item.Repeat(item.GoldenBanana, 100),
		item.Repeat(item.BananaFairy, 20),
		item.Repeat(item.BananaMedal, 15),
		item.Repeat(item.BattleCrown, 4),
		item.List{item.NintendoCoin, item.RarewareCoin},
	)
}

// ExcessItems returns filler with no logical value beyond the low tier.
func ExcessItems() item.List {
	return item.Concat(
		item.List{item.HomingAmmo, item.SniperSight},
		item.Repeat(item.ProgressiveAmmoBelt, 2),
		item.Repeat(item.ProgressiveInstrumentUpgrade, 3),
		item.Repeat(item.GoldenBanana, 101),
		item.Repeat(item.BattleCrown, 6),
		item.Repeat(item.BananaMedal, 25),
	)
}
