package game

// Points for an exact bid, plus a bonus per trick taken. A missed bid costs
// a fixed amount per trick of difference, over or under.
const (
	exactBidBonus   = 10
	pointsPerTrick  = 2
	penaltyPerTrick = 2
)

// RoundScore converts a bid and the tricks actually won into points.
func RoundScore(bid int, tricksWon int) int {
	if bid == tricksWon {
		return exactBidBonus + pointsPerTrick*tricksWon
	}
	diff := bid - tricksWon
	if diff < 0 {
		diff = -diff
	}
	return -penaltyPerTrick * diff
}

func RunningTotal(previousTotal int, roundScore int) int {
	return previousTotal + roundScore
}

// RoundScoresForAllPlayers scores every player that has a bid. A player
// without a bid is left out of the result.
func RoundScoresForAllPlayers(bids map[PlayerID]int, tricksWon map[PlayerID]int) map[PlayerID]int {
	scores := make(map[PlayerID]int, len(bids))
	for id, bid := range bids {
		scores[id] = RoundScore(bid, tricksWon[id])
	}
	return scores
}

// RunningTotals adds this round's scores to the totals carried over from
// the previous round. previous may be nil for the first round.
func RunningTotals(previous map[PlayerID]int, scores map[PlayerID]int) map[PlayerID]int {
	totals := make(map[PlayerID]int, len(scores))
	for id, score := range scores {
		totals[id] = RunningTotal(previous[id], score)
	}
	return totals
}
