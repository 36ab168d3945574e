package nats

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"boerenbridge.com/server/game"
	"boerenbridge.com/server/logging"
)

/**
Every game publishes on three subjects keyed by its game code.
game.<code>.state : full game state after every accepted transition
game.<code>.round : a round's bids, tricks and scores once it is scored
game.<code>.end   : final status and totals when the game completes or is abandoned

Scoreboard displays subscribe to game.<code>.* and never publish.
*/

var natsLogger = log.With().Str("logger_name", "nats::publisher").Logger()

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	MessageGameState    = "GAME_STATE"
	MessageRoundScored  = "ROUND_SCORED"
	MessageGameFinished = "GAME_FINISHED"
)

type conn interface {
	Publish(subj string, data []byte) error
	Close()
}

// Publisher sends game updates to NATS. It satisfies manager.Notifier.
type Publisher struct {
	nc conn
}

func NewPublisher(url string) (*Publisher, error) {
	nc, err := natsgo.Connect(url)
	if err != nil {
		natsLogger.Error().Msg(fmt.Sprintf("Failed to connect to nats server: %v", err))
		return nil, errors.Wrapf(err, "Unable to connect to %s", url)
	}
	return &Publisher{nc: nc}, nil
}

func GameStateSubject(gameCode string) string {
	return fmt.Sprintf("game.%s.state", gameCode)
}

func RoundSubject(gameCode string) string {
	return fmt.Sprintf("game.%s.round", gameCode)
}

func GameEndSubject(gameCode string) string {
	return fmt.Sprintf("game.%s.end", gameCode)
}

type GameStateMessage struct {
	MessageType  string         `json:"messageType"`
	GameCode     string         `json:"gameCode"`
	Phase        game.Phase     `json:"phase"`
	CurrentRound int            `json:"currentRound"`
	TotalRounds  int            `json:"totalRounds"`
	CardsCount   int            `json:"cardsCount"`
	State        game.GameState `json:"state"`
}

type RoundScoredMessage struct {
	MessageType string           `json:"messageType"`
	GameCode    string           `json:"gameCode"`
	Round       game.RoundRecord `json:"round"`
}

type GameFinishedMessage struct {
	MessageType string                `json:"messageType"`
	GameCode    string                `json:"gameCode"`
	Status      game.GameStatus       `json:"status"`
	FinalTotals map[game.PlayerID]int `json:"finalTotals"`
}

func (p *Publisher) GameUpdated(gameCode string, state game.GameState) error {
	return p.publish(GameStateSubject(gameCode), MessageGameState, &GameStateMessage{
		MessageType:  MessageGameState,
		GameCode:     gameCode,
		Phase:        state.CurrentPhase,
		CurrentRound: state.CurrentRound,
		TotalRounds:  state.TotalRounds,
		CardsCount:   game.CurrentCards(state),
		State:        state,
	})
}

func (p *Publisher) RoundCompleted(gameCode string, round game.RoundRecord) error {
	return p.publish(RoundSubject(gameCode), MessageRoundScored, &RoundScoredMessage{
		MessageType: MessageRoundScored,
		GameCode:    gameCode,
		Round:       round,
	})
}

func (p *Publisher) GameEnded(gameCode string, status game.GameStatus, finalTotals map[game.PlayerID]int) error {
	if finalTotals == nil {
		finalTotals = map[game.PlayerID]int{}
	}
	return p.publish(GameEndSubject(gameCode), MessageGameFinished, &GameFinishedMessage{
		MessageType: MessageGameFinished,
		GameCode:    gameCode,
		Status:      status,
		FinalTotals: finalTotals,
	})
}

func (p *Publisher) publish(subject string, messageType string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return errors.Wrapf(err, "Unable to encode %s", messageType)
	}
	natsLogger.Debug().Str("subject", subject).Msg(fmt.Sprintf("Game->Display: %s", messageType))
	if err := p.nc.Publish(subject, data); err != nil {
		natsLogger.Error().
			Str(logging.EventKey, messageType).
			Err(err).
			Msg(fmt.Sprintf("Failed to publish to %s", subject))
		return errors.Wrapf(err, "Unable to publish to %s", subject)
	}
	return nil
}

func (p *Publisher) Close() {
	p.nc.Close()
}
