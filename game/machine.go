package game

import (
	"fmt"

	mapset "github.com/deckarep/golang-set"
	"github.com/looplab/fsm"
)

const phaseLoaded = "loaded"

// phaseEvents lists which events each phase accepts. Only the source
// phases are consulted; the state machine below decides the destination.
var phaseEvents = fsm.Events{
	{Name: eventInitialize, Src: []string{string(PhaseSetup)}, Dst: string(PhaseBidding)},
	{Name: eventLoadExisting, Src: []string{string(PhaseSetup)}, Dst: phaseLoaded},
	{Name: eventSubmitBids, Src: []string{string(PhaseBidding)}, Dst: string(PhaseTricks)},
	{Name: eventSubmitTricks, Src: []string{string(PhaseTricks)}, Dst: string(PhaseRoundComplete)},
	{Name: eventAdvanceRound, Src: []string{string(PhaseRoundComplete)}, Dst: string(PhaseBidding)},
	{Name: eventCompleteGame, Src: []string{string(PhaseRoundComplete)}, Dst: string(PhaseGameComplete)},
	{
		Name: eventForceComplete,
		Src:  []string{string(PhaseBidding), string(PhaseTricks), string(PhaseRoundComplete)},
		Dst:  string(PhaseGameComplete),
	},
	{
		Name: eventReset,
		Src: []string{
			string(PhaseSetup),
			string(PhaseBidding),
			string(PhaseTricks),
			string(PhaseRoundComplete),
			string(PhaseGameComplete),
		},
		Dst: string(PhaseSetup),
	},
}

// Transition is the result of applying an event: the next state and the
// side effects the caller should attempt.
type Transition struct {
	State   GameState
	Effects []Effect
}

// CanApply reports whether the state's phase accepts the event.
func CanApply(state GameState, event Event) bool {
	return fsm.NewFSM(string(state.CurrentPhase), phaseEvents, nil).Can(event.Name())
}

// Apply computes the state that follows event. The given state is never
// modified. A *ValidationError means the input was rejected and nothing
// changed. Events that do not fit the current phase panic with a
// ContractViolation.
func Apply(state GameState, event Event) (Transition, error) {
	if !CanApply(state, event) {
		violate("%s is not allowed in phase %s", event.Name(), state.CurrentPhase)
	}

	switch ev := event.(type) {
	case Initialize:
		return initialize(ev)
	case LoadExisting:
		return loadExisting(ev)
	case SubmitBids:
		return submitBids(state, ev)
	case SubmitTricks:
		return submitTricks(state, ev)
	case AdvanceRound:
		return advanceRound(state), nil
	case CompleteGame:
		return completeGame(state, ev), nil
	case Reset:
		return reset(state), nil
	}
	panic(ContractViolation{Msg: fmt.Sprintf("unknown event %T", event)})
}

func initialize(ev Initialize) (Transition, error) {
	if err := validateSetup(ev.Players, ev.MaxCards); err != nil {
		return Transition{}, err
	}

	players := make([]Player, len(ev.Players))
	for i, p := range ev.Players {
		p.Position = i
		players[i] = p
	}

	next := GameState{
		GameID:         ev.GameID,
		Players:        players,
		MaxCards:       ev.MaxCards,
		TotalRounds:    TotalRounds(ev.MaxCards),
		CurrentRound:   1,
		CurrentPhase:   PhaseBidding,
		DealerPosition: 0,
		Rounds:         []Round{NewRound(1, ev.MaxCards, 0)},
		IsGameActive:   true,
	}
	return Transition{State: next}, nil
}

func loadExisting(ev LoadExisting) (Transition, error) {
	if err := validateSetup(ev.Players, ev.MaxCards); err != nil {
		return Transition{}, err
	}
	if !validSeats(ev.Players) {
		violate("loaded seats are not a permutation of 0..%d", len(ev.Players)-1)
	}
	switch ev.CurrentPhase {
	case PhaseBidding, PhaseTricks, PhaseRoundComplete, PhaseGameComplete:
	default:
		violate("cannot load a game into phase %q", ev.CurrentPhase)
	}

	loaded := GameState{
		GameID:         ev.GameID,
		Players:        ev.Players,
		MaxCards:       ev.MaxCards,
		TotalRounds:    TotalRounds(ev.MaxCards),
		CurrentRound:   ev.CurrentRound,
		CurrentPhase:   ev.CurrentPhase,
		DealerPosition: ev.DealerPosition,
		Rounds:         ev.Rounds,
		IsGameActive:   ev.IsGameActive,
	}
	if loaded.Rounds == nil {
		loaded.Rounds = []Round{}
	}
	return Transition{State: loaded.Clone()}, nil
}

func submitBids(state GameState, ev SubmitBids) (Transition, error) {
	current := lastRound(state)
	requireKnownPlayers(state, ev.Bids)
	if err := ValidateBidSet(ev.Bids, current.CardsCount, state.playerIDs()); err != nil {
		return Transition{}, err
	}

	next := state.Clone()
	next.Rounds[len(next.Rounds)-1].Bids = copyCounts(ev.Bids)
	next.CurrentPhase = PhaseTricks
	return Transition{State: next}, nil
}

func submitTricks(state GameState, ev SubmitTricks) (Transition, error) {
	current := lastRound(state)
	requireKnownPlayers(state, ev.TricksWon)
	if err := ValidateTrickSet(ev.TricksWon, current.CardsCount, state.playerIDs()); err != nil {
		return Transition{}, err
	}

	next := state.Clone()
	idx := len(next.Rounds) - 1
	var previous map[PlayerID]int
	if idx > 0 {
		previous = next.Rounds[idx-1].RunningTotals
	}
	round := &next.Rounds[idx]
	round.TricksWon = copyCounts(ev.TricksWon)
	round.Scores = RoundScoresForAllPlayers(round.Bids, round.TricksWon)
	round.RunningTotals = RunningTotals(previous, round.Scores)
	round.IsComplete = true
	next.CurrentPhase = PhaseRoundComplete

	return Transition{
		State:   next,
		Effects: []Effect{RecordRound{GameID: next.GameID, Round: RecordFromRound(*round)}},
	}, nil
}

func advanceRound(state GameState) Transition {
	if state.CurrentRound >= state.TotalRounds {
		violate("round %d is the last of %d", state.CurrentRound, state.TotalRounds)
	}

	next := state.Clone()
	next.CurrentRound++
	next.DealerPosition = NextDealerPosition(state.DealerPosition, len(state.Players))
	next.Rounds = append(next.Rounds, NewRound(next.CurrentRound, next.MaxCards, next.DealerPosition))
	next.CurrentPhase = PhaseBidding
	return Transition{State: next}
}

func completeGame(state GameState, ev CompleteGame) Transition {
	if !ev.Force && state.CurrentRound != state.TotalRounds {
		violate("round %d of %d is not the last", state.CurrentRound, state.TotalRounds)
	}

	next := state.Clone()
	next.CurrentPhase = PhaseGameComplete
	next.IsGameActive = false
	return Transition{
		State: next,
		Effects: []Effect{RecordStatus{
			GameID:      next.GameID,
			Status:      StatusCompleted,
			FinalTotals: copyCounts(LatestTotals(next)),
		}},
	}
}

func reset(state GameState) Transition {
	t := Transition{State: NewGameState()}
	if state.IsGameActive {
		t.Effects = []Effect{RecordStatus{
			GameID:      state.GameID,
			Status:      StatusAbandoned,
			FinalTotals: copyCounts(LatestTotals(state)),
		}}
	}
	return t
}

func validateSetup(players []Player, maxCards int) error {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return &ValidationError{
			Kind: InvalidPlayerCount,
			Msg:  fmt.Sprintf("%d players, need %d to %d", len(players), MinPlayers, MaxPlayers),
		}
	}
	if maxCards < 1 {
		return &ValidationError{Kind: InvalidMaxCards, Msg: fmt.Sprintf("max cards %d, need at least 1", maxCards)}
	}
	seen := mapset.NewSet()
	for _, p := range players {
		if seen.Contains(p.ID) {
			return &ValidationError{Kind: DuplicatePlayer, Players: []PlayerID{p.ID}, Msg: fmt.Sprintf("player %d listed twice", p.ID)}
		}
		seen.Add(p.ID)
	}
	return nil
}

func validSeats(players []Player) bool {
	seats := mapset.NewSet()
	for _, p := range players {
		if p.Position < 0 || p.Position >= len(players) {
			return false
		}
		seats.Add(p.Position)
	}
	return seats.Cardinality() == len(players)
}

func requireKnownPlayers(state GameState, counts map[PlayerID]int) {
	for id := range counts {
		if !state.hasPlayer(id) {
			violate("player %d is not in this game", id)
		}
	}
}

func lastRound(state GameState) Round {
	if len(state.Rounds) == 0 {
		violate("no round in progress")
	}
	return state.Rounds[len(state.Rounds)-1]
}
