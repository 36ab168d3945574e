package game

import "sort"

// ValidateBidSet checks a complete set of bids for a round. The bids may
// never add up to the number of cards dealt, so at least one player is
// always wrong.
func ValidateBidSet(bids map[PlayerID]int, cardsCount int, allPlayerIDs []PlayerID) error {
	if missing := missingPlayers(bids, allPlayerIDs); len(missing) > 0 {
		return &ValidationError{Kind: IncompleteBids, Players: missing}
	}
	if neg := negativePlayers(bids); len(neg) > 0 {
		return &ValidationError{Kind: NegativeValue, Players: neg}
	}
	if over := playersAbove(bids, cardsCount); len(over) > 0 {
		return &ValidationError{Kind: ValueExceedsCardCount, Players: over, CardsCount: cardsCount}
	}
	total := sum(bids)
	if total == cardsCount {
		return &ValidationError{Kind: BidTotalEqualsCardCount, Total: total, CardsCount: cardsCount}
	}
	return nil
}

// ValidateTrickSet checks the tricks reported at the end of a round. Every
// dealt card makes exactly one trick, so the counts must add up to it.
func ValidateTrickSet(tricksWon map[PlayerID]int, cardsCount int, allPlayerIDs []PlayerID) error {
	if missing := missingPlayers(tricksWon, allPlayerIDs); len(missing) > 0 {
		return &ValidationError{Kind: IncompleteTricks, Players: missing}
	}
	total := sum(tricksWon)
	if total != cardsCount {
		return &ValidationError{Kind: TrickTotalMismatch, Total: total, CardsCount: cardsCount}
	}
	if neg := negativePlayers(tricksWon); len(neg) > 0 {
		return &ValidationError{Kind: NegativeValue, Players: neg}
	}
	if over := playersAbove(tricksWon, cardsCount); len(over) > 0 {
		return &ValidationError{Kind: ValueExceedsCardCount, Players: over, CardsCount: cardsCount}
	}
	return nil
}

// ForbiddenBid returns the one bid the last bidder may not make, given the
// bids already placed by everyone else. ok is false when no value is
// forbidden because the others already bid more than the cards dealt.
func ForbiddenBid(otherBids map[PlayerID]int, cardsCount int) (bid int, ok bool) {
	forbidden := cardsCount - sum(otherBids)
	if forbidden < 0 {
		return 0, false
	}
	return forbidden, true
}

func missingPlayers(counts map[PlayerID]int, allPlayerIDs []PlayerID) []PlayerID {
	var missing []PlayerID
	for _, id := range allPlayerIDs {
		if _, ok := counts[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func negativePlayers(counts map[PlayerID]int) []PlayerID {
	var neg []PlayerID
	for id, v := range counts {
		if v < 0 {
			neg = append(neg, id)
		}
	}
	return sortIDs(neg)
}

func playersAbove(counts map[PlayerID]int, limit int) []PlayerID {
	var over []PlayerID
	for id, v := range counts {
		if v > limit {
			over = append(over, id)
		}
	}
	return sortIDs(over)
}

func sortIDs(ids []PlayerID) []PlayerID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sum(counts map[PlayerID]int) int {
	total := 0
	for _, v := range counts {
		total += v
	}
	return total
}
