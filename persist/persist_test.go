package persist

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boerenbridge.com/server/game"
)

func scoredGame(t *testing.T) game.GameState {
	t.Helper()
	tr, err := game.Apply(game.NewGameState(), game.Initialize{
		GameID:   "g1",
		Players:  []game.Player{{ID: 1, Name: "Cara"}, {ID: 2, Name: "Bram"}, {ID: 3, Name: "Anna"}},
		MaxCards: 3,
	})
	require.NoError(t, err)
	tr, err = game.Apply(tr.State, game.SubmitBids{Bids: map[game.PlayerID]int{1: 1, 2: 1, 3: 1}})
	require.NoError(t, err)
	tr, err = game.Apply(tr.State, game.SubmitTricks{TricksWon: map[game.PlayerID]int{1: 1, 2: 0, 3: 0}})
	require.NoError(t, err)
	return tr.State
}

func TestMemoryTracker(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryGameStateTracker()
	state := scoredGame(t)

	_, err := tracker.Load(ctx, "g1")
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	require.NoError(t, tracker.Save(ctx, "g1", state))
	loaded, err := tracker.Load(ctx, "g1")
	require.NoError(t, err)
	if !cmp.Equal(state, loaded) {
		t.Errorf("snapshot changed: %s", cmp.Diff(state, loaded))
	}

	require.NoError(t, tracker.Remove(ctx, "g1"))
	_, err = tracker.Load(ctx, "g1")
	assert.Equal(t, ErrNotFound, errors.Cause(err))
	assert.NoError(t, tracker.Remove(ctx, "g1"))
}

func TestSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryGameStateTracker()
	state := scoredGame(t)
	require.NoError(t, tracker.Save(ctx, "g1", state))

	state.Rounds[0].Scores[1] = 100
	loaded, err := tracker.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Rounds[0].Scores[1])
}

func TestEncodeRoundMaps(t *testing.T) {
	state := scoredGame(t)
	data, err := encode(state)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"bids":{"1":1,"2":1,"3":1}`)
	assert.Contains(t, out, `"tricksWon":{"1":1,"2":0,"3":0}`)
	assert.Contains(t, out, `"scores":{"1":12,"2":-2,"3":-2}`)
	assert.Contains(t, out, `"runningTotals":{"1":12,"2":-2,"3":-2}`)

	decoded, err := decode(data)
	require.NoError(t, err)
	if !cmp.Equal(state, decoded) {
		t.Errorf("decoded state differs: %s", cmp.Diff(state, decoded))
	}
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "boerenbridge:game:g1", redisKey("g1"))
}
