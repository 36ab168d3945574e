package game

// PlayerID identifies a player for the lifetime of a game.
type PlayerID int

// Phase is the stage of the game progression.
type Phase string

const (
	PhaseSetup         Phase = "setup"
	PhaseBidding       Phase = "bidding"
	PhaseTricks        Phase = "tricks"
	PhaseRoundComplete Phase = "roundComplete"
	PhaseGameComplete  Phase = "gameComplete"
)

const (
	MinPlayers = 3
	MaxPlayers = 10
)

type Player struct {
	ID       PlayerID `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Position int      `json:"position" yaml:"position"`
}

// Round is one dealt hand. Bids are attached when bidding finishes;
// tricks, scores and running totals are attached together when the
// trick counts are accepted.
type Round struct {
	RoundNumber    int              `json:"roundNumber"`
	CardsCount     int              `json:"cardsCount"`
	DealerPosition int              `json:"dealerPosition"`
	Bids           map[PlayerID]int `json:"bids"`
	TricksWon      map[PlayerID]int `json:"tricksWon"`
	Scores         map[PlayerID]int `json:"scores"`
	RunningTotals  map[PlayerID]int `json:"runningTotals"`
	IsComplete     bool             `json:"isComplete"`
}

// GameState is the authoritative game record. Values are treated as
// immutable: transitions return a new GameState and never modify the
// one they were given.
type GameState struct {
	GameID         string   `json:"gameId,omitempty"`
	Players        []Player `json:"players"`
	MaxCards       int      `json:"maxCards"`
	CurrentRound   int      `json:"currentRound"`
	CurrentPhase   Phase    `json:"currentPhase"`
	DealerPosition int      `json:"dealerPosition"`
	Rounds         []Round  `json:"rounds"`
	IsGameActive   bool     `json:"isGameActive"`
	TotalRounds    int      `json:"totalRounds"`
}

// NewGameState returns the empty sentinel state a game starts from and
// returns to on reset.
func NewGameState() GameState {
	return GameState{
		Players:      []Player{},
		CurrentPhase: PhaseSetup,
		Rounds:       []Round{},
	}
}

// NewRound opens round roundNumber with no bids or results.
func NewRound(roundNumber int, maxCards int, dealerPosition int) Round {
	return Round{
		RoundNumber:    roundNumber,
		CardsCount:     CardsForRound(roundNumber, maxCards),
		DealerPosition: dealerPosition,
		Bids:           map[PlayerID]int{},
		TricksWon:      map[PlayerID]int{},
		Scores:         map[PlayerID]int{},
		RunningTotals:  map[PlayerID]int{},
	}
}

// Clone returns a deep copy of the round.
func (r Round) Clone() Round {
	r.Bids = copyCounts(r.Bids)
	r.TricksWon = copyCounts(r.TricksWon)
	r.Scores = copyCounts(r.Scores)
	r.RunningTotals = copyCounts(r.RunningTotals)
	return r
}

// Clone returns a deep copy of the state. Slices and maps of the copy
// share nothing with the original.
func (g GameState) Clone() GameState {
	players := make([]Player, len(g.Players))
	copy(players, g.Players)
	rounds := make([]Round, len(g.Rounds))
	for i, r := range g.Rounds {
		rounds[i] = r.Clone()
	}
	g.Players = players
	g.Rounds = rounds
	return g
}

func (g GameState) playerIDs() []PlayerID {
	ids := make([]PlayerID, 0, len(g.Players))
	for _, p := range g.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

func (g GameState) hasPlayer(id PlayerID) bool {
	for _, p := range g.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

func copyCounts(m map[PlayerID]int) map[PlayerID]int {
	out := make(map[PlayerID]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
