// Package apiserver stores game history through a remote scorekeeping API.
//
// Endpoints used, relative to the base URL:
//
//	POST /games                 {"player_ids", "players", "max_cards"} -> {"id"}
//	POST /games/:id/rounds      {"round_number", "cards_count", "dealer_position", "scores"}
//	PUT  /games/:id/status      {"status"}
//	GET  /games/:id             game with players and recorded rounds
package apiserver

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"boerenbridge.com/server/game"
	"boerenbridge.com/server/history"
	"boerenbridge.com/server/logging"
)

var (
	json          = jsoniter.ConfigCompatibleWithStandardLibrary
	requestLogger = logging.GetZeroLogger("apiserver::client", nil)
)

const (
	defaultMaxRetries       = 3
	defaultRetryDelayMillis = 500
	defaultTimeout          = 10 * time.Second
)

// Client implements history.Recorder over HTTP. Transport failures and 5xx
// responses are retried; other responses are returned as they are.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	maxRetries       int
	retryDelayMillis int
}

var _ history.Recorder = (*Client)(nil)

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		httpClient:       &http.Client{Timeout: defaultTimeout},
		maxRetries:       defaultMaxRetries,
		retryDelayMillis: defaultRetryDelayMillis,
	}
}

// WithRetries changes how often and how far apart failed requests are retried.
func (c *Client) WithRetries(maxRetries int, retryDelayMillis int) *Client {
	c.maxRetries = maxRetries
	c.retryDelayMillis = retryDelayMillis
	return c
}

type playerBody struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type createGameBody struct {
	PlayerIDs []int        `json:"player_ids"`
	Players   []playerBody `json:"players"`
	MaxCards  int          `json:"max_cards"`
}

type scoreBody struct {
	PlayerID     int `json:"player_id"`
	Bid          int `json:"bid"`
	TricksWon    int `json:"tricks_won"`
	Score        int `json:"score"`
	RunningTotal int `json:"running_total"`
}

type roundBody struct {
	RoundNumber    int         `json:"round_number"`
	CardsCount     int         `json:"cards_count"`
	DealerPosition int         `json:"dealer_position"`
	Scores         []scoreBody `json:"scores"`
}

type gamePlayerBody struct {
	PlayerID int        `json:"player_id"`
	Position int        `json:"position"`
	Player   playerBody `json:"player"`
}

type gameBody struct {
	ID          int64            `json:"id"`
	MaxCards    int              `json:"max_cards"`
	Status      string           `json:"status"`
	GamePlayers []gamePlayerBody `json:"game_players"`
	Rounds      []roundBody      `json:"rounds"`
}

func (c *Client) CreateGame(ctx context.Context, players []game.Player, maxCards int) (string, error) {
	body := createGameBody{MaxCards: maxCards}
	for _, p := range players {
		body.PlayerIDs = append(body.PlayerIDs, int(p.ID))
		body.Players = append(body.Players, playerBody{ID: int(p.ID), Name: p.Name})
	}
	var created gameBody
	if err := c.do(ctx, http.MethodPost, "/games", body, &created); err != nil {
		return "", errors.Wrap(err, "Unable to create game")
	}
	if created.ID == 0 {
		return "", fmt.Errorf("API server returned no game id")
	}
	return strconv.FormatInt(created.ID, 10), nil
}

func (c *Client) SubmitRound(ctx context.Context, gameID string, round game.RoundRecord) error {
	body := roundBody{
		RoundNumber:    round.RoundNumber,
		CardsCount:     round.CardsCount,
		DealerPosition: round.DealerPosition,
	}
	for _, line := range round.PerPlayer {
		body.Scores = append(body.Scores, scoreBody{
			PlayerID:     int(line.PlayerID),
			Bid:          line.Bid,
			TricksWon:    line.TricksWon,
			Score:        line.Score,
			RunningTotal: line.RunningTotal,
		})
	}
	path := fmt.Sprintf("/games/%s/rounds", gameID)
	return errors.Wrapf(c.do(ctx, http.MethodPost, path, body, nil), "Unable to submit round %d", round.RoundNumber)
}

func (c *Client) UpdateStatus(ctx context.Context, gameID string, status game.GameStatus) error {
	path := fmt.Sprintf("/games/%s/status", gameID)
	body := map[string]string{"status": string(status)}
	return errors.Wrapf(c.do(ctx, http.MethodPut, path, body, nil), "Unable to set status %s", status)
}

func (c *Client) FetchGame(ctx context.Context, gameID string) (game.GameRecord, error) {
	var fetched gameBody
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/games/%s", gameID), nil, &fetched); err != nil {
		return game.GameRecord{}, errors.Wrapf(err, "Unable to fetch game %s", gameID)
	}

	record := game.GameRecord{
		GameID:   gameID,
		MaxCards: fetched.MaxCards,
		Status:   game.GameStatus(fetched.Status),
		Rounds:   []game.RoundRecord{},
	}
	for _, gp := range fetched.GamePlayers {
		record.Players = append(record.Players, game.Player{
			ID:       game.PlayerID(gp.PlayerID),
			Name:     gp.Player.Name,
			Position: gp.Position,
		})
	}
	for _, r := range fetched.Rounds {
		rec := game.RoundRecord{
			RoundNumber:    r.RoundNumber,
			CardsCount:     r.CardsCount,
			DealerPosition: r.DealerPosition,
		}
		for _, s := range r.Scores {
			rec.PerPlayer = append(rec.PerPlayer, game.PlayerRoundScore{
				PlayerID:     game.PlayerID(s.PlayerID),
				Bid:          s.Bid,
				TricksWon:    s.TricksWon,
				Score:        s.Score,
				RunningTotal: s.RunningTotal,
			})
		}
		record.Rounds = append(record.Rounds, rec)
	}
	return record, nil
}

type statusError struct {
	url    string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned HTTP status %d: %s", e.url, e.status, e.body)
}

// do sends the request, retrying transport errors and 5xx responses, and
// decodes a 2xx body into out when out is not nil.
func (c *Client) do(ctx context.Context, method string, path string, in interface{}, out interface{}) error {
	url := c.baseURL + path
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "Unable to marshal request body")
		}
	}

	var bodyBytes []byte
	var err error
	for retries := 0; ; retries++ {
		bodyBytes, err = c.attempt(ctx, method, url, payload)
		if err == nil {
			break
		}
		if se, ok := err.(*statusError); ok && se.status < 500 {
			break
		}
		if retries >= c.maxRetries || ctx.Err() != nil {
			break
		}
		requestLogger.Error().Msgf("Error in %s %s: %s. Retrying (%d/%d)", method, url, err, retries+1, c.maxRetries)
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(c.retryDelayMillis) * time.Millisecond):
		}
	}
	if err != nil {
		if se, ok := err.(*statusError); ok && se.status == http.StatusNotFound {
			return errors.Wrap(history.ErrGameNotFound, se.Error())
		}
		return err
	}

	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(bodyBytes, out), "Unable to unmarshal json body")
}

func (c *Client) attempt(ctx context.Context, method string, url string, payload []byte) ([]byte, error) {
	var body *bytes.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader([]byte{})
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "Error from http %s", method)
	}
	defer resp.Body.Close()

	bodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read response from %s", url)
	}
	requestLogger.Debug().Msgf("Response from %s: %s", url, string(bodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{url: url, status: resp.StatusCode, body: string(bodyBytes)}
	}
	return bodyBytes, nil
}
