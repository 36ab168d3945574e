package nats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boerenbridge.com/server/game"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	messages []published
	err      error
	closed   bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{subject: subj, data: data})
	return nil
}

func (f *fakeConn) Close() {
	f.closed = true
}

func startedGame(t *testing.T) game.GameState {
	tr, err := game.Apply(game.NewGameState(), game.Initialize{
		GameID:   "12",
		Players:  []game.Player{{ID: 1, Name: "Cara"}, {ID: 2, Name: "Bram"}, {ID: 3, Name: "Anna"}},
		MaxCards: 3,
	})
	require.NoError(t, err)
	return tr.State
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "game.KX7P2A.state", GameStateSubject("KX7P2A"))
	assert.Equal(t, "game.KX7P2A.round", RoundSubject("KX7P2A"))
	assert.Equal(t, "game.KX7P2A.end", GameEndSubject("KX7P2A"))
}

func TestGameUpdated(t *testing.T) {
	nc := &fakeConn{}
	p := &Publisher{nc: nc}
	require.NoError(t, p.GameUpdated("KX7P2A", startedGame(t)))
	require.Len(t, nc.messages, 1)
	assert.Equal(t, "game.KX7P2A.state", nc.messages[0].subject)

	var msg GameStateMessage
	require.NoError(t, json.Unmarshal(nc.messages[0].data, &msg))
	assert.Equal(t, MessageGameState, msg.MessageType)
	assert.Equal(t, game.PhaseBidding, msg.Phase)
	assert.Equal(t, 1, msg.CurrentRound)
	assert.Equal(t, 5, msg.TotalRounds)
	assert.Equal(t, 1, msg.CardsCount)
	assert.Equal(t, "Bram", msg.State.Players[1].Name)
}

func TestRoundCompletedAndEnded(t *testing.T) {
	nc := &fakeConn{}
	p := &Publisher{nc: nc}
	round := game.RoundRecord{
		RoundNumber: 1,
		CardsCount:  1,
		PerPlayer:   []game.PlayerRoundScore{{PlayerID: 1, Bid: 1, TricksWon: 1, Score: 12, RunningTotal: 12}},
	}
	require.NoError(t, p.RoundCompleted("ABC234", round))
	require.NoError(t, p.GameEnded("ABC234", game.StatusAbandoned, nil))
	require.Len(t, nc.messages, 2)

	var scored RoundScoredMessage
	require.NoError(t, json.Unmarshal(nc.messages[0].data, &scored))
	assert.Equal(t, round, scored.Round)

	assert.Equal(t, "game.ABC234.end", nc.messages[1].subject)
	assert.JSONEq(t,
		`{"messageType":"GAME_FINISHED","gameCode":"ABC234","status":"abandoned","finalTotals":{}}`,
		string(nc.messages[1].data))
}

func TestPublishFailure(t *testing.T) {
	nc := &fakeConn{err: fmt.Errorf("nats: connection closed")}
	p := &Publisher{nc: nc}
	err := p.GameEnded("ABC234", game.StatusCompleted, map[game.PlayerID]int{1: 30})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.ABC234.end")

	p.Close()
	assert.True(t, nc.closed)
}
