// Package rating implements an integer-only Elo update.
package rating

const (
	// Default is the rating assigned to a new profile.
	Default = 1200
	// Floor is the lowest rating a player can hold.
	Floor = 100

	kFactor = 32
	scale   = 1000
	maxDiff = 800
)

type band struct {
	upTo     int
	expected int
}

// expected score of the higher rated side, scaled by 1000, per rating difference
var bands = []band{
	{25, 500},
	{50, 537},
	{100, 640},
	{150, 691},
	{200, 760},
	{300, 849},
	{400, 909},
}

func expectedHigher(diff int) int {
	for _, b := range bands {
		if diff <= b.upTo {
			return b.expected
		}
	}
	return 950
}

// Update returns the new ratings of the winner and the loser. For a draw the
// order of the arguments only decides the order of the results.
func Update(winner, loser int, draw bool) (int, int) {
	winner, loser = max(winner, 0), max(loser, 0)
	diff := min(abs(winner-loser), maxDiff)
	hi := expectedHigher(diff)

	winnerExp, loserExp := hi, scale-hi
	if winner < loser {
		winnerExp, loserExp = scale-hi, hi
	}
	winnerAct, loserAct := scale, 0
	if draw {
		winnerAct, loserAct = scale/2, scale/2
	}

	// Go integer division truncates toward zero
	winnerDelta := kFactor * (winnerAct - winnerExp) / scale
	loserDelta := kFactor * (loserAct - loserExp) / scale
	return apply(winner, winnerDelta), apply(loser, loserDelta)
}

func apply(r, delta int) int {
	r += delta
	if r < 0 {
		r = 0
	}
	return max(r, Floor)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
