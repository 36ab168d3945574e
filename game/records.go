package game

import "sort"

// GameStatus is the lifecycle status a persisted game carries.
type GameStatus string

const (
	StatusActive    GameStatus = "active"
	StatusCompleted GameStatus = "completed"
	StatusAbandoned GameStatus = "abandoned"
)

// PlayerRoundScore is one player's line in a submitted round.
type PlayerRoundScore struct {
	PlayerID     PlayerID `json:"playerId"`
	Bid          int      `json:"bid"`
	TricksWon    int      `json:"tricksWon"`
	Score        int      `json:"score"`
	RunningTotal int      `json:"runningTotal"`
}

// RoundRecord is the shape a completed round is stored in.
type RoundRecord struct {
	RoundNumber    int                `json:"roundNumber"`
	CardsCount     int                `json:"cardsCount"`
	DealerPosition int                `json:"dealerPosition"`
	PerPlayer      []PlayerRoundScore `json:"perPlayer"`
}

// GameRecord is a persisted game as fetched for resumption.
type GameRecord struct {
	GameID   string        `json:"gameId"`
	Players  []Player      `json:"players"`
	MaxCards int           `json:"maxCards"`
	Rounds   []RoundRecord `json:"rounds"`
	Status   GameStatus    `json:"status"`
}

// RecordFromRound flattens a complete round into its stored shape, one
// line per player in player id order.
func RecordFromRound(r Round) RoundRecord {
	ids := make([]PlayerID, 0, len(r.Scores))
	for id := range r.Scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rec := RoundRecord{
		RoundNumber:    r.RoundNumber,
		CardsCount:     r.CardsCount,
		DealerPosition: r.DealerPosition,
		PerPlayer:      make([]PlayerRoundScore, 0, len(ids)),
	}
	for _, id := range ids {
		rec.PerPlayer = append(rec.PerPlayer, PlayerRoundScore{
			PlayerID:     id,
			Bid:          r.Bids[id],
			TricksWon:    r.TricksWon[id],
			Score:        r.Scores[id],
			RunningTotal: r.RunningTotals[id],
		})
	}
	return rec
}

// RoundFromRecord rebuilds a complete round from its stored shape.
func RoundFromRecord(rec RoundRecord) Round {
	r := Round{
		RoundNumber:    rec.RoundNumber,
		CardsCount:     rec.CardsCount,
		DealerPosition: rec.DealerPosition,
		Bids:           map[PlayerID]int{},
		TricksWon:      map[PlayerID]int{},
		Scores:         map[PlayerID]int{},
		RunningTotals:  map[PlayerID]int{},
		IsComplete:     true,
	}
	for _, line := range rec.PerPlayer {
		r.Bids[line.PlayerID] = line.Bid
		r.TricksWon[line.PlayerID] = line.TricksWon
		r.Scores[line.PlayerID] = line.Score
		r.RunningTotals[line.PlayerID] = line.RunningTotal
	}
	return r
}
