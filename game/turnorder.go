package game

import "sort"

// SeatingOrder returns the players sorted by seat, clockwise from seat 0.
func SeatingOrder(players []Player) []Player {
	ordered := make([]Player, len(players))
	copy(ordered, players)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	return ordered
}

// BiddingOrder rotates the seating order so the player left of the dealer
// bids first and the dealer bids last.
func BiddingOrder(players []Player, dealerPosition int) []Player {
	seated := SeatingOrder(players)
	if len(seated) == 0 {
		return seated
	}
	start := (dealerPosition + 1) % len(seated)
	order := make([]Player, 0, len(seated))
	order = append(order, seated[start:]...)
	order = append(order, seated[:start]...)
	return order
}

// IsLastBidder reports whether playerID belongs to the dealer, who always
// bids last.
func IsLastBidder(playerID PlayerID, players []Player, dealerPosition int) bool {
	order := BiddingOrder(players, dealerPosition)
	if len(order) == 0 {
		return false
	}
	return order[len(order)-1].ID == playerID
}

func NextDealerPosition(current int, playerCount int) int {
	return (current + 1) % playerCount
}
