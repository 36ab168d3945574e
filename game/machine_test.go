package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func threePlayers() []Player {
	return []Player{
		{ID: 1, Name: "Cara"},
		{ID: 2, Name: "Bram"},
		{ID: 3, Name: "Anna"},
	}
}

func mustApply(t *testing.T, state GameState, event Event) Transition {
	t.Helper()
	tr, err := Apply(state, event)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", event.Name(), err)
	}
	return tr
}

func expectViolation(t *testing.T, call func()) {
	t.Helper()
	defer func() {
		if _, ok := recover().(ContractViolation); !ok {
			t.Errorf("expected a ContractViolation panic")
		}
	}()
	call()
}

// playRound bids and scores the current round and returns the state in
// roundComplete.
func playRound(t *testing.T, state GameState, bids, tricks map[PlayerID]int) GameState {
	t.Helper()
	state = mustApply(t, state, SubmitBids{Bids: bids}).State
	return mustApply(t, state, SubmitTricks{TricksWon: tricks}).State
}

func newGame(t *testing.T, maxCards int) GameState {
	t.Helper()
	return mustApply(t, NewGameState(), Initialize{GameID: "g1", Players: threePlayers(), MaxCards: maxCards}).State
}

// fullGame plays a three round game to completion.
// Final totals: Cara 34, Bram 6, Anna 18.
func fullGame(t *testing.T) GameState {
	t.Helper()
	s := newGame(t, 2)
	s = playRound(t, s, map[PlayerID]int{1: 1, 2: 1, 3: 0}, map[PlayerID]int{1: 1, 2: 0, 3: 0})
	s = mustApply(t, s, AdvanceRound{}).State
	s = playRound(t, s, map[PlayerID]int{1: 1, 2: 0, 3: 0}, map[PlayerID]int{1: 1, 2: 0, 3: 1})
	s = mustApply(t, s, AdvanceRound{}).State
	s = playRound(t, s, map[PlayerID]int{1: 0, 2: 0, 3: 0}, map[PlayerID]int{1: 0, 2: 1, 3: 0})
	return mustApply(t, s, CompleteGame{}).State
}

func TestInitialize(t *testing.T) {
	players := []Player{
		{ID: 7, Name: "A", Position: 4},
		{ID: 3, Name: "B", Position: 0},
		{ID: 9, Name: "C", Position: 2},
	}
	s := mustApply(t, NewGameState(), Initialize{GameID: "g1", Players: players, MaxCards: 5}).State

	if s.CurrentPhase != PhaseBidding || !s.IsGameActive {
		t.Errorf("expected an active game in bidding, got %s active=%v", s.CurrentPhase, s.IsGameActive)
	}
	if s.TotalRounds != 9 || s.CurrentRound != 1 || s.DealerPosition != 0 {
		t.Errorf("unexpected geometry: total %d, round %d, dealer %d", s.TotalRounds, s.CurrentRound, s.DealerPosition)
	}
	for i, p := range s.Players {
		if p.Position != i {
			t.Errorf("player %d seated at %d, expected %d", p.ID, p.Position, i)
		}
	}
	if len(s.Rounds) != 1 || s.Rounds[0].CardsCount != 1 || s.Rounds[0].IsComplete {
		t.Errorf("expected one open round of one card, got %+v", s.Rounds)
	}
	if players[0].Position != 4 {
		t.Errorf("Initialize modified the caller's players")
	}
}

func TestInitializeRejectsBadSetup(t *testing.T) {
	testCases := []struct {
		name     string
		players  []Player
		maxCards int
		kind     ErrorKind
	}{
		{name: "two players", players: threePlayers()[:2], maxCards: 3, kind: InvalidPlayerCount},
		{name: "eleven players", players: seatedPlayers(11), maxCards: 3, kind: InvalidPlayerCount},
		{name: "no cards", players: threePlayers(), maxCards: 0, kind: InvalidMaxCards},
		{name: "duplicate id", players: append(threePlayers(), Player{ID: 2, Name: "Again"}), maxCards: 3, kind: DuplicatePlayer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := Apply(NewGameState(), Initialize{Players: tc.players, MaxCards: tc.maxCards})
			if !IsKind(err, tc.kind) {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
			if len(tr.Effects) != 0 {
				t.Errorf("rejected setup produced effects")
			}
		})
	}
}

func TestFullGame(t *testing.T) {
	s := fullGame(t)

	if s.CurrentPhase != PhaseGameComplete || s.IsGameActive {
		t.Fatalf("expected a finished game, got %s active=%v", s.CurrentPhase, s.IsGameActive)
	}
	if len(s.Rounds) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(s.Rounds))
	}
	expected := map[PlayerID]int{1: 34, 2: 6, 3: 18}
	if totals := LatestTotals(s); !cmp.Equal(totals, expected) {
		t.Errorf("expected totals %v, actual %v", expected, totals)
	}

	// every running total is the previous total plus the round score
	prev := map[PlayerID]int{}
	for _, r := range s.Rounds {
		for id, score := range r.Scores {
			if r.RunningTotals[id] != prev[id]+score {
				t.Errorf("round %d player %d: total %d != %d + %d", r.RoundNumber, id, r.RunningTotals[id], prev[id], score)
			}
		}
		prev = r.RunningTotals
	}
}

func TestDealerRotatesEachRound(t *testing.T) {
	s := newGame(t, 3)
	var dealers, cards []int
	for {
		dealers = append(dealers, s.DealerPosition)
		cards = append(cards, CurrentCards(s))
		n := CurrentCards(s)
		bids := map[PlayerID]int{1: 0, 2: 0, 3: 0}
		tricks := map[PlayerID]int{1: n, 2: 0, 3: 0}
		s = playRound(t, s, bids, tricks)
		if IsFinalRound(s) {
			break
		}
		s = mustApply(t, s, AdvanceRound{}).State
	}

	if expected := []int{0, 1, 2, 0, 1}; !cmp.Equal(dealers, expected) {
		t.Errorf("expected dealers %v, actual %v", expected, dealers)
	}
	if expected := []int{1, 2, 3, 2, 1}; !cmp.Equal(cards, expected) {
		t.Errorf("expected cards %v, actual %v", expected, cards)
	}
	for i, r := range s.Rounds {
		if r.DealerPosition != dealers[i] {
			t.Errorf("round %d stored dealer %d, expected %d", r.RoundNumber, r.DealerPosition, dealers[i])
		}
	}
}

func TestRejectedInputLeavesStateUnchanged(t *testing.T) {
	s := newGame(t, 3)
	before := s.Clone()

	_, err := Apply(s, SubmitBids{Bids: map[PlayerID]int{1: 1, 2: 0, 3: 0}})
	if !IsKind(err, BidTotalEqualsCardCount) {
		t.Fatalf("expected BidTotalEqualsCardCount, got %v", err)
	}
	if !cmp.Equal(before, s) {
		t.Errorf("state changed after rejected bids: %s", cmp.Diff(before, s))
	}

	s = mustApply(t, s, SubmitBids{Bids: map[PlayerID]int{1: 1, 2: 1, 3: 0}}).State
	before = s.Clone()
	_, err = Apply(s, SubmitTricks{TricksWon: map[PlayerID]int{1: 1, 2: 1, 3: 0}})
	if !IsKind(err, TrickTotalMismatch) {
		t.Fatalf("expected TrickTotalMismatch, got %v", err)
	}
	if !cmp.Equal(before, s) {
		t.Errorf("state changed after rejected tricks: %s", cmp.Diff(before, s))
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	s := newGame(t, 3)
	before := s.Clone()

	next := mustApply(t, s, SubmitBids{Bids: map[PlayerID]int{1: 1, 2: 1, 3: 0}}).State
	if !cmp.Equal(before, s) {
		t.Errorf("input state changed: %s", cmp.Diff(before, s))
	}
	next.Rounds[0].Bids[1] = 5
	if s.Rounds[0].Bids[1] != 0 {
		t.Errorf("next state shares bids with the input")
	}
}

func TestTransitionEffects(t *testing.T) {
	s := newGame(t, 2)
	s = mustApply(t, s, SubmitBids{Bids: map[PlayerID]int{1: 1, 2: 1, 3: 0}}).State
	tr := mustApply(t, s, SubmitTricks{TricksWon: map[PlayerID]int{1: 1, 2: 0, 3: 0}})

	expected := []Effect{RecordRound{
		GameID: "g1",
		Round: RoundRecord{
			RoundNumber:    1,
			CardsCount:     1,
			DealerPosition: 0,
			PerPlayer: []PlayerRoundScore{
				{PlayerID: 1, Bid: 1, TricksWon: 1, Score: 12, RunningTotal: 12},
				{PlayerID: 2, Bid: 1, TricksWon: 0, Score: -2, RunningTotal: -2},
				{PlayerID: 3, Bid: 0, TricksWon: 0, Score: 10, RunningTotal: 10},
			},
		},
	}}
	if !cmp.Equal(tr.Effects, expected) {
		t.Errorf("unexpected effects: %s", cmp.Diff(expected, tr.Effects))
	}

	forced := mustApply(t, tr.State, CompleteGame{Force: true})
	status := []Effect{RecordStatus{GameID: "g1", Status: StatusCompleted, FinalTotals: map[PlayerID]int{1: 12, 2: -2, 3: 10}}}
	if !cmp.Equal(forced.Effects, status) {
		t.Errorf("unexpected effects: %s", cmp.Diff(status, forced.Effects))
	}

	if advanced := mustApply(t, tr.State, AdvanceRound{}); len(advanced.Effects) != 0 {
		t.Errorf("advance produced effects: %v", advanced.Effects)
	}
}

func TestReset(t *testing.T) {
	s := newGame(t, 2)
	tr := mustApply(t, s, Reset{})
	if !cmp.Equal(tr.State, NewGameState()) {
		t.Errorf("reset did not return the empty state: %s", cmp.Diff(NewGameState(), tr.State))
	}
	abandoned := []Effect{RecordStatus{GameID: "g1", Status: StatusAbandoned, FinalTotals: map[PlayerID]int{}}}
	if !cmp.Equal(tr.Effects, abandoned) {
		t.Errorf("unexpected effects: %s", cmp.Diff(abandoned, tr.Effects))
	}

	done := mustApply(t, fullGame(t), Reset{})
	if len(done.Effects) != 0 {
		t.Errorf("reset of a finished game produced effects: %v", done.Effects)
	}
	if idle := mustApply(t, NewGameState(), Reset{}); len(idle.Effects) != 0 {
		t.Errorf("reset in setup produced effects: %v", idle.Effects)
	}
}

func TestForceComplete(t *testing.T) {
	s := newGame(t, 3)
	for _, state := range []GameState{
		s,
		mustApply(t, s, SubmitBids{Bids: map[PlayerID]int{1: 1, 2: 1, 3: 0}}).State,
	} {
		next := mustApply(t, state, CompleteGame{Force: true}).State
		if next.CurrentPhase != PhaseGameComplete || next.IsGameActive {
			t.Errorf("forced completion from %s left phase %s", state.CurrentPhase, next.CurrentPhase)
		}
	}
}

func TestCanApply(t *testing.T) {
	setup := NewGameState()
	bidding := newGame(t, 2)
	testCases := []struct {
		state    GameState
		event    Event
		expected bool
	}{
		{state: setup, event: Initialize{}, expected: true},
		{state: setup, event: LoadExisting{}, expected: true},
		{state: setup, event: SubmitBids{}, expected: false},
		{state: setup, event: CompleteGame{Force: true}, expected: false},
		{state: setup, event: Reset{}, expected: true},
		{state: bidding, event: Initialize{}, expected: false},
		{state: bidding, event: SubmitBids{}, expected: true},
		{state: bidding, event: SubmitTricks{}, expected: false},
		{state: bidding, event: AdvanceRound{}, expected: false},
		{state: bidding, event: CompleteGame{}, expected: false},
		{state: bidding, event: CompleteGame{Force: true}, expected: true},
	}

	for i, tc := range testCases {
		if actual := CanApply(tc.state, tc.event); actual != tc.expected {
			t.Errorf("Test case %d: %s in %s expected %v, actual %v", i, tc.event.Name(), tc.state.CurrentPhase, tc.expected, actual)
		}
	}
}

func TestContractViolations(t *testing.T) {
	bidding := newGame(t, 2)
	roundOne := playRound(t, bidding, map[PlayerID]int{1: 1, 2: 1, 3: 0}, map[PlayerID]int{1: 1, 2: 0, 3: 0})
	finished := fullGame(t)

	final := mustApply(t, roundOne, AdvanceRound{}).State
	final = playRound(t, final, map[PlayerID]int{1: 1, 2: 0, 3: 0}, map[PlayerID]int{1: 1, 2: 0, 3: 1})
	final = mustApply(t, final, AdvanceRound{}).State
	final = playRound(t, final, map[PlayerID]int{1: 0, 2: 0, 3: 0}, map[PlayerID]int{1: 0, 2: 1, 3: 0})

	testCases := []struct {
		name  string
		state GameState
		event Event
	}{
		{name: "bids in setup", state: NewGameState(), event: SubmitBids{Bids: map[PlayerID]int{}}},
		{name: "tricks while bidding", state: bidding, event: SubmitTricks{TricksWon: map[PlayerID]int{1: 1, 2: 0, 3: 0}}},
		{name: "unknown player", state: bidding, event: SubmitBids{Bids: map[PlayerID]int{1: 1, 2: 1, 3: 0, 42: 0}}},
		{name: "complete before last round", state: roundOne, event: CompleteGame{}},
		{name: "advance past last round", state: final, event: AdvanceRound{}},
		{name: "initialize twice", state: bidding, event: Initialize{Players: threePlayers(), MaxCards: 2}},
		{name: "bids after game end", state: finished, event: SubmitBids{Bids: map[PlayerID]int{1: 1, 2: 1, 3: 0}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectViolation(t, func() { _, _ = Apply(tc.state, tc.event) })
		})
	}
}

func TestLoadExisting(t *testing.T) {
	played := newGame(t, 2)
	played = playRound(t, played, map[PlayerID]int{1: 1, 2: 1, 3: 0}, map[PlayerID]int{1: 1, 2: 0, 3: 0})
	played = mustApply(t, played, AdvanceRound{}).State

	ev := LoadExisting{
		GameID:         "g1",
		Players:        played.Players,
		MaxCards:       2,
		Rounds:         played.Rounds,
		CurrentRound:   2,
		CurrentPhase:   PhaseBidding,
		DealerPosition: 1,
		IsGameActive:   true,
	}
	loaded := mustApply(t, NewGameState(), ev).State
	if !cmp.Equal(loaded, played) {
		t.Errorf("loaded state differs: %s", cmp.Diff(played, loaded))
	}
	loaded.Rounds[0].Scores[1] = 99
	if played.Rounds[0].Scores[1] == 99 {
		t.Errorf("loaded state shares rounds with the event")
	}

	next := playRound(t, loaded, map[PlayerID]int{1: 1, 2: 0, 3: 0}, map[PlayerID]int{1: 1, 2: 0, 3: 1})
	if total := LatestTotals(next)[2]; total != 8 {
		t.Errorf("expected Bram on 8 after resuming, got %d", total)
	}

	t.Run("bad seats", func(t *testing.T) {
		bad := ev
		bad.Players = []Player{{ID: 1, Position: 0}, {ID: 2, Position: 0}, {ID: 3, Position: 2}}
		expectViolation(t, func() { _, _ = Apply(NewGameState(), bad) })
	})
	t.Run("setup phase", func(t *testing.T) {
		bad := ev
		bad.CurrentPhase = PhaseSetup
		expectViolation(t, func() { _, _ = Apply(NewGameState(), bad) })
	})
}
