package history

import (
	"context"

	"github.com/pkg/errors"

	"boerenbridge.com/server/game"
)

// ErrGameNotFound is returned when a recorder has no game with the given id.
var ErrGameNotFound = errors.New("game not found")

// Recorder stores finished rounds and game status changes so that games can
// be listed later and resumed after an interruption. The core never calls a
// Recorder; the game manager carries out the effects a transition returns.
type Recorder interface {
	// CreateGame registers a new game and returns the id it is known by.
	CreateGame(ctx context.Context, players []game.Player, maxCards int) (string, error)
	SubmitRound(ctx context.Context, gameID string, round game.RoundRecord) error
	UpdateStatus(ctx context.Context, gameID string, status game.GameStatus) error
	FetchGame(ctx context.Context, gameID string) (game.GameRecord, error)
}
