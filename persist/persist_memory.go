package persist

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"boerenbridge.com/server/game"
)

type MemoryGameStateTracker struct {
	mu          sync.Mutex
	activeGames map[string][]byte
}

func NewMemoryGameStateTracker() *MemoryGameStateTracker {
	return &MemoryGameStateTracker{
		activeGames: make(map[string][]byte),
	}
}

func (m *MemoryGameStateTracker) Load(ctx context.Context, gameID string) (game.GameState, error) {
	m.mu.Lock()
	stateBytes, ok := m.activeGames[gameID]
	m.mu.Unlock()
	if !ok {
		return game.GameState{}, errors.Wrapf(ErrNotFound, "game %s", gameID)
	}
	state, err := decode(stateBytes)
	if err != nil {
		return game.GameState{}, errors.Wrapf(err, "Unable to decode game state for %s", gameID)
	}
	return state, nil
}

func (m *MemoryGameStateTracker) Save(ctx context.Context, gameID string, state game.GameState) error {
	stateBytes, err := encode(state)
	if err != nil {
		return errors.Wrapf(err, "Unable to encode game state for %s", gameID)
	}
	m.mu.Lock()
	m.activeGames[gameID] = stateBytes
	m.mu.Unlock()
	return nil
}

func (m *MemoryGameStateTracker) Remove(ctx context.Context, gameID string) error {
	m.mu.Lock()
	delete(m.activeGames, gameID)
	m.mu.Unlock()
	return nil
}
