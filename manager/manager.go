package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"

	"boerenbridge.com/server/caching"
	"boerenbridge.com/server/game"
	"boerenbridge.com/server/history"
	"boerenbridge.com/server/logging"
	"boerenbridge.com/server/persist"
	"boerenbridge.com/server/util"
)

var managerLogger = logging.GetZeroLogger("manager::manager", nil)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrInvalidTransition = errors.New("invalid transition")
)

const gameCodeCacheSize = 100000

// Notifier is told about every accepted transition. Failures are reported
// as warnings and never undo the transition.
type Notifier interface {
	GameUpdated(gameCode string, state game.GameState) error
	RoundCompleted(gameCode string, round game.RoundRecord) error
	GameEnded(gameCode string, status game.GameStatus, finalTotals map[game.PlayerID]int) error
}

// Outcome is what a caller gets back from a manager operation. Warnings
// lists collaborator failures that did not stop the transition.
type Outcome struct {
	GameID   string         `json:"gameId"`
	GameCode string         `json:"gameCode"`
	State    game.GameState `json:"state"`
	Warnings []string       `json:"warnings,omitempty"`
}

type activeGame struct {
	mu       sync.Mutex
	gameID   string
	gameCode string
	state    game.GameState
	lastUsed time.Time
	evicted  bool
}

func (g *activeGame) outcome(warnings []string) Outcome {
	return Outcome{GameID: g.gameID, GameCode: g.gameCode, State: g.state, Warnings: warnings}
}

// Manager holds the games in play and is the only caller of game.Apply on
// them. Transitions on one game run one at a time; different games proceed
// independently.
type Manager struct {
	config   util.ServerConfig
	recorder history.Recorder
	persist  persist.PersistGameState
	notifier Notifier
	codes    *caching.GameCodeCache
	games    cmap.ConcurrentMap
	now      func() time.Time
}

// NewManager builds a manager. recorder and notifier may be nil.
func NewManager(config util.ServerConfig, recorder history.Recorder, persistState persist.PersistGameState, notifier Notifier) (*Manager, error) {
	codes, err := caching.NewCache(gameCodeCacheSize)
	if err != nil {
		return nil, err
	}
	if persistState == nil {
		persistState = persist.NewMemoryGameStateTracker()
	}
	return &Manager{
		config:   config,
		recorder: recorder,
		persist:  persistState,
		notifier: notifier,
		codes:    codes,
		games:    cmap.New(),
		now:      time.Now,
	}, nil
}

// NewGame checks the server limits, registers the game with the recorder
// and starts it.
func (m *Manager) NewGame(ctx context.Context, players []game.Player, maxCards int) (Outcome, error) {
	if err := m.checkLimits(players, maxCards); err != nil {
		return Outcome{}, err
	}
	if _, err := m.apply(game.NewGameState(), game.Initialize{Players: players, MaxCards: maxCards}); err != nil {
		return Outcome{}, err
	}

	var warnings []string
	gameID, err := m.createGame(ctx, players, maxCards)
	if err != nil {
		warnings = append(warnings, m.warn("recorder", "", err))
		gameID = uuid.New().String()
	}
	tr, err := m.apply(game.NewGameState(), game.Initialize{GameID: gameID, Players: players, MaxCards: maxCards})
	if err != nil {
		return Outcome{}, err
	}

	g, err := m.register(gameID, tr.State)
	if err != nil {
		return Outcome{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	warnings = append(warnings, m.afterTransition(ctx, g, nil)...)

	util.Metrics.GameCreated()
	managerLogger.Info().
		Str(logging.GameIDKey, gameID).
		Str(logging.GameCodeKey, g.gameCode).
		Int("players", len(players)).
		Int("maxCards", maxCards).
		Msg("Game created")
	return g.outcome(warnings), nil
}

func (m *Manager) checkLimits(players []game.Player, maxCards int) error {
	if len(players) < m.config.MinPlayers || len(players) > m.config.MaxPlayers {
		return &game.ValidationError{
			Kind: game.InvalidPlayerCount,
			Msg:  fmt.Sprintf("%d players, this server allows %d to %d", len(players), m.config.MinPlayers, m.config.MaxPlayers),
		}
	}
	if len(players) > 0 && maxCards*len(players) > m.config.DeckSize {
		return &game.ValidationError{
			Kind: game.InvalidMaxCards,
			Msg:  fmt.Sprintf("max cards %d exceeds the limit of %d for %d players", maxCards, m.config.DeckSize/len(players), len(players)),
		}
	}
	return nil
}

func (m *Manager) createGame(ctx context.Context, players []game.Player, maxCards int) (string, error) {
	if m.recorder == nil {
		return uuid.New().String(), nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.config.PersistTimeout())
	defer cancel()
	return m.recorder.CreateGame(ctx, players, maxCards)
}

// Dispatch applies event to the game. A rejected submission returns the
// *game.ValidationError and the unchanged state; an event the game cannot
// take in its phase returns an ErrInvalidTransition error.
func (m *Manager) Dispatch(ctx context.Context, gameID string, event game.Event) (Outcome, error) {
	g, err := m.acquire(ctx, gameID)
	if err != nil {
		return Outcome{}, err
	}
	defer g.mu.Unlock()

	tr, err := m.apply(g.state, event)
	if err != nil {
		if verr, ok := err.(*game.ValidationError); ok {
			util.Metrics.SubmissionRejected(string(verr.Kind))
			managerLogger.Debug().
				Str(logging.GameIDKey, gameID).
				Str(logging.EventKey, event.Name()).
				Str("kind", string(verr.Kind)).
				Msg("Submission rejected")
		}
		return g.outcome(nil), err
	}

	g.state = tr.State
	g.lastUsed = m.now()
	warnings := m.afterTransition(ctx, g, tr.Effects)
	managerLogger.Debug().
		Str(logging.GameIDKey, gameID).
		Str(logging.EventKey, event.Name()).
		Str(logging.PhaseKey, string(g.state.CurrentPhase)).
		Int(logging.RoundNumKey, g.state.CurrentRound).
		Msg("Transition applied")

	out := g.outcome(warnings)
	if g.state.CurrentPhase == game.PhaseSetup {
		m.drop(ctx, g)
	}
	return out, nil
}

// apply runs a transition and turns a contract violation into an error.
func (m *Manager) apply(state game.GameState, event game.Event) (tr game.Transition, err error) {
	defer func() {
		if r := recover(); r != nil {
			cv, ok := r.(game.ContractViolation)
			if !ok {
				panic(r)
			}
			managerLogger.Error().
				Str(logging.GameIDKey, state.GameID).
				Str(logging.EventKey, event.Name()).
				Str(logging.PhaseKey, string(state.CurrentPhase)).
				Msg(cv.Error())
			tr, err = game.Transition{}, errors.Wrap(ErrInvalidTransition, cv.Msg)
		}
	}()
	return game.Apply(state, event)
}

// afterTransition snapshots the game, carries out the transition's effects
// and notifies listeners. Every failure becomes a warning.
func (m *Manager) afterTransition(ctx context.Context, g *activeGame, effects []game.Effect) []string {
	var warnings []string

	if g.state.CurrentPhase != game.PhaseSetup {
		if err := m.withTimeout(ctx, func(ctx context.Context) error {
			return m.persist.Save(ctx, g.gameID, g.state)
		}); err != nil {
			warnings = append(warnings, m.warn("snapshot", g.gameID, err))
		}
	}

	for _, effect := range effects {
		switch e := effect.(type) {
		case game.RecordRound:
			util.Metrics.RoundCompleted()
			if m.recorder != nil {
				if err := m.withTimeout(ctx, func(ctx context.Context) error {
					return m.recorder.SubmitRound(ctx, e.GameID, e.Round)
				}); err != nil {
					warnings = append(warnings, m.warn("recorder", g.gameID, err))
				}
			}
			if m.notifier != nil {
				if err := m.notifier.RoundCompleted(g.gameCode, e.Round); err != nil {
					warnings = append(warnings, m.warn("notifier", g.gameID, err))
				}
			}
		case game.RecordStatus:
			if e.Status == game.StatusCompleted {
				util.Metrics.GameCompleted()
			}
			if m.recorder != nil {
				if err := m.withTimeout(ctx, func(ctx context.Context) error {
					return m.recorder.UpdateStatus(ctx, e.GameID, e.Status)
				}); err != nil {
					warnings = append(warnings, m.warn("recorder", g.gameID, err))
				}
			}
			if m.notifier != nil {
				if err := m.notifier.GameEnded(g.gameCode, e.Status, e.FinalTotals); err != nil {
					warnings = append(warnings, m.warn("notifier", g.gameID, err))
				}
			}
		}
	}

	if m.notifier != nil {
		if err := m.notifier.GameUpdated(g.gameCode, g.state); err != nil {
			warnings = append(warnings, m.warn("notifier", g.gameID, err))
		}
	}
	return warnings
}

func (m *Manager) withTimeout(ctx context.Context, f func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.PersistTimeout())
	defer cancel()
	return f(ctx)
}

func (m *Manager) warn(collaborator string, gameID string, err error) string {
	util.Metrics.CollaboratorFailed(collaborator)
	managerLogger.Warn().
		Str(logging.GameIDKey, gameID).
		Str("collaborator", collaborator).
		Err(err).
		Msg("Collaborator failed")
	return fmt.Sprintf("%s: %s", collaborator, err)
}

// Resume brings a game back into play: from memory, from its snapshot, or
// rebuilt from the recorder's history.
func (m *Manager) Resume(ctx context.Context, gameID string) (Outcome, error) {
	g, err := m.acquire(ctx, gameID)
	if err == nil {
		defer g.mu.Unlock()
		return g.outcome(nil), nil
	}
	if errors.Cause(err) != ErrGameNotFound || m.recorder == nil {
		return Outcome{}, err
	}

	var rec game.GameRecord
	err = m.withTimeout(ctx, func(ctx context.Context) error {
		rec, err = m.recorder.FetchGame(ctx, gameID)
		return err
	})
	if errors.Cause(err) == history.ErrGameNotFound {
		return Outcome{}, errors.Wrapf(ErrGameNotFound, "game %s", gameID)
	} else if err != nil {
		return Outcome{}, errors.Wrapf(err, "Unable to fetch game %s", gameID)
	}
	if rec.GameID == "" {
		rec.GameID = gameID
	}

	ev, err := LoadEventFromRecord(rec)
	if err != nil {
		return Outcome{}, err
	}
	tr, err := m.apply(game.NewGameState(), ev)
	if err != nil {
		return Outcome{}, errors.Wrapf(ErrCorruptHistory, "game %s: %s", gameID, err)
	}

	g, err = m.register(gameID, tr.State)
	if err != nil {
		return Outcome{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	warnings := m.afterTransition(ctx, g, nil)
	managerLogger.Info().
		Str(logging.GameIDKey, gameID).
		Str(logging.PhaseKey, string(g.state.CurrentPhase)).
		Int(logging.RoundNumKey, g.state.CurrentRound).
		Msg("Game resumed from history")
	return g.outcome(warnings), nil
}

// State returns the current state of a game held in memory or snapshotted.
func (m *Manager) State(ctx context.Context, gameID string) (Outcome, error) {
	g, err := m.acquire(ctx, gameID)
	if err != nil {
		return Outcome{}, err
	}
	defer g.mu.Unlock()
	return g.outcome(nil), nil
}

// Lookup finds a game by its code.
func (m *Manager) Lookup(ctx context.Context, gameCode string) (Outcome, error) {
	gameID, ok := m.codes.GameCodeToID(gameCode)
	if !ok {
		return Outcome{}, errors.Wrapf(ErrGameNotFound, "game code %s", gameCode)
	}
	return m.State(ctx, gameID)
}

// End unloads a game and deletes its snapshot. Stored history is kept.
func (m *Manager) End(ctx context.Context, gameID string) error {
	g, err := m.acquire(ctx, gameID)
	if err != nil {
		return err
	}
	defer g.mu.Unlock()
	m.drop(ctx, g)
	managerLogger.Info().Str(logging.GameIDKey, gameID).Msg("Game ended")
	return nil
}

// EvictIdle unloads games untouched for longer than maxIdle. Their
// snapshots stay, so they are picked up again on the next request.
func (m *Manager) EvictIdle(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	evicted := 0
	for item := range m.games.IterBuffered() {
		g := item.Val.(*activeGame)
		g.mu.Lock()
		if g.lastUsed.Before(cutoff) {
			g.evicted = true
			m.games.Remove(g.gameID)
			evicted++
		}
		g.mu.Unlock()
	}
	if evicted > 0 {
		managerLogger.Info().Int("evicted", evicted).Msg("Idle games unloaded")
	}
	util.Metrics.SetActiveGamesCount(m.games.Count())
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (m *Manager) RunEviction(ctx context.Context, interval time.Duration, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(maxIdle)
		}
	}
}

// ActiveGames is the number of games held in memory.
func (m *Manager) ActiveGames() int {
	return m.games.Count()
}

// acquire returns the game locked, restoring it from its snapshot if it is
// not in memory.
func (m *Manager) acquire(ctx context.Context, gameID string) (*activeGame, error) {
	for {
		var g *activeGame
		if v, ok := m.games.Get(gameID); ok {
			g = v.(*activeGame)
		} else {
			var state game.GameState
			err := m.withTimeout(ctx, func(ctx context.Context) error {
				var err error
				state, err = m.persist.Load(ctx, gameID)
				return err
			})
			if errors.Cause(err) == persist.ErrNotFound {
				return nil, errors.Wrapf(ErrGameNotFound, "game %s", gameID)
			} else if err != nil {
				return nil, errors.Wrapf(err, "Unable to restore game %s", gameID)
			}
			if g, err = m.register(gameID, state); err != nil {
				return nil, err
			}
		}
		g.mu.Lock()
		if !g.evicted {
			return g, nil
		}
		g.mu.Unlock()
	}
}

// register adds a game to the table, or returns the one already there.
func (m *Manager) register(gameID string, state game.GameState) (*activeGame, error) {
	code, err := m.codes.Allocate(gameID)
	if err != nil {
		return nil, err
	}
	g := &activeGame{gameID: gameID, gameCode: code, state: state, lastUsed: m.now()}
	for {
		if m.games.SetIfAbsent(gameID, g) {
			util.Metrics.SetActiveGamesCount(m.games.Count())
			return g, nil
		}
		if v, ok := m.games.Get(gameID); ok {
			return v.(*activeGame), nil
		}
	}
}

// drop removes a game from memory and deletes its snapshot. The caller
// holds g.mu.
func (m *Manager) drop(ctx context.Context, g *activeGame) {
	g.evicted = true
	m.games.Remove(g.gameID)
	m.codes.Remove(g.gameID)
	if err := m.withTimeout(ctx, func(ctx context.Context) error {
		return m.persist.Remove(ctx, g.gameID)
	}); err != nil {
		m.warn("snapshot", g.gameID, err)
	}
	util.Metrics.SetActiveGamesCount(m.games.Count())
}
