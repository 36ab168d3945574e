package test

import (
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog/log"

	"boerenbridge.com/server/game"
	"boerenbridge.com/server/gamescript"
	"boerenbridge.com/server/logging"
)

var testGameLogger = log.With().Str("logger_name", "test::testgame").Logger()

// TestGameScript replays a game script against the scoring state machine
// and records every expectation that does not hold.
type TestGameScript struct {
	script   *gamescript.Script
	filename string
	result   *ScriptTestResult
	state    game.GameState
	names    map[game.PlayerID]string
}

func NewTestGameScript(script *gamescript.Script, filename string, result *ScriptTestResult) *TestGameScript {
	names := make(map[game.PlayerID]string)
	for _, p := range script.Players {
		names[game.PlayerID(p.ID)] = p.Name
	}
	return &TestGameScript{
		script:   script,
		filename: filename,
		result:   result,
		state:    game.NewGameState(),
		names:    names,
	}
}

func (g *TestGameScript) run() error {
	players := make([]game.Player, len(g.script.Players))
	for i, p := range g.script.Players {
		players[i] = game.Player{ID: game.PlayerID(p.ID), Name: p.Name}
	}
	if err := g.apply(game.Initialize{GameID: g.filename, Players: players, MaxCards: g.script.MaxCards}); err != nil {
		return err
	}

	for i, step := range g.script.Steps {
		if err := g.runStep(i+1, step); err != nil {
			return err
		}
	}

	if g.state.CurrentPhase != game.PhaseGameComplete {
		return fmt.Errorf("Script ended in phase %s at round %d of %d",
			g.state.CurrentPhase, g.state.CurrentRound, g.state.TotalRounds)
	}
	if g.script.VerifyEnd != nil {
		g.verifyEnd(g.script.VerifyEnd)
	}
	return nil
}

// runStep submits the step's bids and tricks. A step that expects an error
// must end in that rejection; whatever it submitted before the rejection
// stands.
func (g *TestGameScript) runStep(stepNum int, step gamescript.Step) error {
	where := fmt.Sprintf("step %d round %d", stepNum, g.state.CurrentRound)
	testGameLogger.Debug().
		Str(logging.GameIDKey, g.filename).
		Int(logging.RoundNumKey, g.state.CurrentRound).
		Str(logging.PhaseKey, string(g.state.CurrentPhase)).
		Msgf("Running %s", where)

	submissions := []struct {
		counts gamescript.Counts
		event  func(map[game.PlayerID]int) game.Event
	}{
		{step.Bids, func(m map[game.PlayerID]int) game.Event { return game.SubmitBids{Bids: m} }},
		{step.Tricks, func(m map[game.PlayerID]int) game.Event { return game.SubmitTricks{TricksWon: m} }},
	}
	for _, s := range submissions {
		if s.counts == nil {
			continue
		}
		before := g.state
		err := g.apply(s.event(g.toIDs(s.counts)))
		if err == nil {
			continue
		}
		if step.ExpectError == "" {
			return fmt.Errorf("[%s] %v", where, err)
		}
		if !game.IsKind(err, game.ErrorKind(step.ExpectError)) {
			return fmt.Errorf("[%s] Expected %s, got: %v", where, step.ExpectError, err)
		}
		if !cmp.Equal(before, g.state) {
			return fmt.Errorf("[%s] State changed after a rejected submission: %s", where, cmp.Diff(before, g.state))
		}
		return nil
	}
	if step.ExpectError != "" {
		return fmt.Errorf("[%s] Expected %s but the submission was accepted", where, step.ExpectError)
	}

	if step.Tricks == nil {
		return nil
	}
	if step.Verify != nil {
		g.verifyRound(where, step.Verify)
	}
	if game.IsFinalRound(g.state) {
		return g.apply(game.CompleteGame{})
	}
	return g.apply(game.AdvanceRound{})
}

func (g *TestGameScript) verifyRound(where string, verify *gamescript.RoundVerification) {
	round := g.state.Rounds[len(g.state.Rounds)-1]
	g.compare(where+" scores", verify.Scores, round.Scores)
	g.compare(where+" totals", verify.Totals, round.RunningTotals)
}

func (g *TestGameScript) verifyEnd(verify *gamescript.EndVerification) {
	result, ok := game.Winner(g.state)
	if !ok {
		g.result.addError(fmt.Errorf("[verify-end] No result for a completed game"))
		return
	}
	if verify.Winners != nil {
		actual := make([]string, len(result.Winners))
		for i, p := range result.Winners {
			actual[i] = p.Name
		}
		expected := append([]string(nil), verify.Winners...)
		sort.Strings(actual)
		sort.Strings(expected)
		if !cmp.Equal(expected, actual) {
			g.result.addError(fmt.Errorf("[verify-end] Winners do not match: %s", cmp.Diff(expected, actual)))
		}
	}
	if verify.Tie != nil && *verify.Tie != result.IsTie {
		g.result.addError(fmt.Errorf("[verify-end] Expected tie %v, actual %v", *verify.Tie, result.IsTie))
	}
	g.compare("verify-end totals", verify.Totals, game.LatestTotals(g.state))
}

// compare checks the named entries of expected against actual. Players the
// script does not name are not checked.
func (g *TestGameScript) compare(where string, expected gamescript.Counts, actual map[game.PlayerID]int) {
	if expected == nil {
		return
	}
	got := gamescript.Counts{}
	for id, v := range actual {
		if _, ok := expected[g.names[id]]; ok {
			got[g.names[id]] = v
		}
	}
	if !cmp.Equal(expected, got) {
		g.result.addError(fmt.Errorf("[%s] Values do not match: %s", where, cmp.Diff(expected, got)))
	}
}

func (g *TestGameScript) toIDs(counts gamescript.Counts) map[game.PlayerID]int {
	m := make(map[game.PlayerID]int, len(counts))
	for name, v := range counts {
		id, _ := g.script.PlayerID(name)
		m[game.PlayerID(id)] = v
	}
	return m
}

// apply advances the state. A contract violation is reported as an error
// so one broken script does not stop the run.
func (g *TestGameScript) apply(event game.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cv, ok := r.(game.ContractViolation)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("%s rejected: %s", event.Name(), cv.Msg)
		}
	}()
	tr, err := game.Apply(g.state, event)
	if err != nil {
		return err
	}
	g.state = tr.State
	return nil
}
