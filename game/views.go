package game

import "sort"

// Everything in this file is a read-only projection of a GameState. Nothing
// here is stored; callers recompute views from each new state.

// CurrentRound returns the round in progress, or the last round played
// once the game is over.
func CurrentRound(g GameState) (Round, bool) {
	if len(g.Rounds) == 0 {
		return Round{}, false
	}
	return g.Rounds[len(g.Rounds)-1], true
}

func CurrentCards(g GameState) int {
	r, ok := CurrentRound(g)
	if !ok {
		return 0
	}
	return r.CardsCount
}

func PlayerInPosition(g GameState, position int) (Player, bool) {
	for _, p := range g.Players {
		if p.Position == position {
			return p, true
		}
	}
	return Player{}, false
}

func Dealer(g GameState) (Player, bool) {
	return PlayerInPosition(g, g.DealerPosition)
}

func PlayerOrder(g GameState) []Player {
	return SeatingOrder(g.Players)
}

func CurrentBiddingOrder(g GameState) []Player {
	return BiddingOrder(g.Players, g.DealerPosition)
}

func IsPlayerLastBidder(g GameState, id PlayerID) bool {
	return IsLastBidder(id, g.Players, g.DealerPosition)
}

func IsSetup(g GameState) bool         { return g.CurrentPhase == PhaseSetup }
func IsBidding(g GameState) bool       { return g.CurrentPhase == PhaseBidding }
func IsTricks(g GameState) bool        { return g.CurrentPhase == PhaseTricks }
func IsRoundComplete(g GameState) bool { return g.CurrentPhase == PhaseRoundComplete }
func IsGameComplete(g GameState) bool  { return g.CurrentPhase == PhaseGameComplete }

// IsFinalRound reports whether the current round is the last one.
func IsFinalRound(g GameState) bool {
	return g.TotalRounds > 0 && g.CurrentRound == g.TotalRounds
}

// Progress is the current round as a percentage of all rounds.
func Progress(g GameState) float64 {
	if g.TotalRounds == 0 {
		return 0
	}
	return float64(g.CurrentRound) / float64(g.TotalRounds) * 100
}

// LatestTotals returns the running totals of the last complete round, or
// nil if no round has been completed.
func LatestTotals(g GameState) map[PlayerID]int {
	for i := len(g.Rounds) - 1; i >= 0; i-- {
		if g.Rounds[i].IsComplete {
			return g.Rounds[i].RunningTotals
		}
	}
	return nil
}

// Standing is a player's place in the table of running totals.
type Standing struct {
	Player Player `json:"player"`
	Total  int    `json:"total"`
	Rank   int    `json:"rank"`
}

// Standings orders players by latest running total, highest first. Equal
// totals keep seat order and share a rank.
func Standings(g GameState) []Standing {
	totals := LatestTotals(g)
	seated := SeatingOrder(g.Players)
	standings := make([]Standing, len(seated))
	for i, p := range seated {
		standings[i] = Standing{Player: p, Total: totals[p.ID]}
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Total > standings[j].Total
	})
	for i := range standings {
		if i > 0 && standings[i].Total == standings[i-1].Total {
			standings[i].Rank = standings[i-1].Rank
		} else {
			standings[i].Rank = i + 1
		}
	}
	return standings
}

// Leader returns the top of the standings.
func Leader(g GameState) (Standing, bool) {
	standings := Standings(g)
	if len(standings) == 0 {
		return Standing{}, false
	}
	return standings[0], true
}

// Result is the outcome of a finished game. Winners holds every player on
// the top score; Display is a single name for headlines when there is a
// tie and carries no meaning beyond that.
type Result struct {
	Winners []Player `json:"winners"`
	Score   int      `json:"score"`
	IsTie   bool     `json:"isTie"`
	Display Player   `json:"display"`
}

// Winner determines the result from the final running totals. ok is false
// until the game is complete. A player with no scored round counts as 0, so
// a game ended before its first round is scored is a tie of everyone.
func Winner(g GameState) (Result, bool) {
	if g.CurrentPhase != PhaseGameComplete || len(g.Players) == 0 {
		return Result{}, false
	}
	totals := LatestTotals(g)
	seated := SeatingOrder(g.Players)

	best := totals[seated[0].ID]
	for _, p := range seated[1:] {
		if t := totals[p.ID]; t > best {
			best = t
		}
	}
	var winners []Player
	for _, p := range seated {
		if totals[p.ID] == best {
			winners = append(winners, p)
		}
	}

	display := winners[0]
	for _, w := range winners[1:] {
		if w.Name < display.Name {
			display = w
		}
	}
	return Result{
		Winners: winners,
		Score:   best,
		IsTie:   len(winners) > 1,
		Display: display,
	}, true
}

// ScoreCell is one player's entry for one round on the scoreboard.
type ScoreCell struct {
	Bid          int  `json:"bid"`
	TricksWon    *int `json:"tricksWon,omitempty"`
	Score        *int `json:"score,omitempty"`
	RunningTotal *int `json:"runningTotal,omitempty"`
}

type ScoreboardRow struct {
	Player Player       `json:"player"`
	Rounds []*ScoreCell `json:"rounds"`
	Total  int          `json:"total"`
}

// Scoreboard is the per-round breakdown for every player. Rows are in seat
// order and each row holds one slot per round of the game, nil where the
// round has not been bid yet.
type Scoreboard struct {
	GameID        string          `json:"gameId,omitempty"`
	MaxCards      int             `json:"maxCards"`
	TotalRounds   int             `json:"totalRounds"`
	CurrentRound  int             `json:"currentRound"`
	CardsPerRound []int           `json:"cardsPerRound"`
	Rows          []ScoreboardRow `json:"rows"`
	IsComplete    bool            `json:"isComplete"`
	Result        *Result         `json:"result,omitempty"`
}

func BuildScoreboard(g GameState) Scoreboard {
	board := Scoreboard{
		GameID:       g.GameID,
		MaxCards:     g.MaxCards,
		TotalRounds:  g.TotalRounds,
		CurrentRound: g.CurrentRound,
		IsComplete:   g.CurrentPhase == PhaseGameComplete,
	}
	for n := 1; n <= g.TotalRounds; n++ {
		board.CardsPerRound = append(board.CardsPerRound, CardsForRound(n, g.MaxCards))
	}

	totals := LatestTotals(g)
	for _, p := range SeatingOrder(g.Players) {
		row := ScoreboardRow{
			Player: p,
			Rounds: make([]*ScoreCell, g.TotalRounds),
			Total:  totals[p.ID],
		}
		for _, r := range g.Rounds {
			bid, ok := r.Bids[p.ID]
			if !ok || r.RoundNumber < 1 || r.RoundNumber > g.TotalRounds {
				continue
			}
			cell := &ScoreCell{Bid: bid}
			if r.IsComplete {
				tricks, score, total := r.TricksWon[p.ID], r.Scores[p.ID], r.RunningTotals[p.ID]
				cell.TricksWon, cell.Score, cell.RunningTotal = &tricks, &score, &total
			}
			row.Rounds[r.RoundNumber-1] = cell
		}
		board.Rows = append(board.Rows, row)
	}

	if result, ok := Winner(g); ok {
		board.Result = &result
	}
	return board
}

// PlayerStats summarises one player's completed rounds.
type PlayerStats struct {
	RoundsPlayed int     `json:"roundsPlayed"`
	CorrectBids  int     `json:"correctBids"`
	Accuracy     float64 `json:"accuracy"`
	TotalScore   int     `json:"totalScore"`
	AverageScore float64 `json:"averageScore"`
	BestRound    *int    `json:"bestRound,omitempty"`
	WorstRound   *int    `json:"worstRound,omitempty"`
}

func StatsForPlayer(g GameState, id PlayerID) PlayerStats {
	var stats PlayerStats
	var best, worst int
	for _, r := range g.Rounds {
		if !r.IsComplete {
			continue
		}
		score, ok := r.Scores[id]
		if !ok {
			continue
		}
		if stats.RoundsPlayed == 0 || score > best {
			best = score
		}
		if stats.RoundsPlayed == 0 || score < worst {
			worst = score
		}
		stats.RoundsPlayed++
		stats.TotalScore += score
		if r.Bids[id] == r.TricksWon[id] {
			stats.CorrectBids++
		}
	}
	if stats.RoundsPlayed == 0 {
		return stats
	}
	stats.Accuracy = float64(stats.CorrectBids) / float64(stats.RoundsPlayed) * 100
	stats.AverageScore = float64(stats.TotalScore) / float64(stats.RoundsPlayed)
	stats.BestRound, stats.WorstRound = &best, &worst
	return stats
}
