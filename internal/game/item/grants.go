package item

// potionMoves lists, per kong potion, the move granted by the first,
// second and third copy.
var potionMoves = map[Kind][3]Kind{
	ProgressiveDonkeyPotion: {BaboonBlast, StrongKong, GorillaGrab},
	ProgressiveDiddyPotion:  {ChimpyCharge, RocketbarrelBoost, SimianSpring},
	ProgressiveLankyPotion:  {Orangstand, BaboonBalloon, OrangstandSprint},
	ProgressiveTinyPotion:   {MiniMonkey, PonyTailTwirl, Monkeyport},
	ProgressiveChunkyPotion: {HunkyChunky, PrimatePunch, GorillaGone},
}

// Grants returns the ability unlocked by the nth copy (1-based) of a
// progressive potion.
//
// Postcondition: ok is false when k is not a potion or n is outside 1..3.
func (k Kind) Grants(n int) (Kind, bool) {
	moves, ok := potionMoves[k]
	if !ok || n < 1 || n > len(moves) {
		return NoItem, false
	}
	return moves[n-1], true
}
