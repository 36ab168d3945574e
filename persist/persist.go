package persist

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"boerenbridge.com/server/game"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned by Load when no snapshot exists for the game.
var ErrNotFound = errors.New("game state not found")

// PersistGameState keeps snapshots of in-flight games so they survive a
// server restart.
type PersistGameState interface {
	Load(ctx context.Context, gameID string) (game.GameState, error)
	Save(ctx context.Context, gameID string, state game.GameState) error
	Remove(ctx context.Context, gameID string) error
}

func encode(state game.GameState) ([]byte, error) {
	return json.Marshal(state)
}

func decode(data []byte) (game.GameState, error) {
	var state game.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return game.GameState{}, err
	}
	return state, nil
}
