package game

import "fmt"

// TotalRounds returns the number of rounds in a game whose largest round
// deals maxCards cards: the count climbs from 1 to maxCards and back.
func TotalRounds(maxCards int) int {
	if maxCards < 1 {
		panic(ContractViolation{Msg: fmt.Sprintf("max cards must be at least 1, got %d", maxCards)})
	}
	return 2*maxCards - 1
}

// CardsForRound returns the number of cards dealt in the given 1-based round.
func CardsForRound(roundNumber int, maxCards int) int {
	total := TotalRounds(maxCards)
	if roundNumber < 1 || roundNumber > total {
		panic(ContractViolation{Msg: fmt.Sprintf("round %d is outside 1..%d", roundNumber, total)})
	}
	if roundNumber <= maxCards {
		return roundNumber
	}
	return maxCards - (roundNumber - maxCards)
}
