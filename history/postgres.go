package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"boerenbridge.com/server/game"
)

var postgresLogger = log.With().Str("logger_name", "history::postgres").Logger()

// ErrRoundExists is returned when a round number is submitted twice.
var ErrRoundExists = errors.New("round already recorded")

const uniqueViolation = "23505"

// PostgresRecorder keeps game history in PostgreSQL. Game ids are the
// decimal form of the games.id column.
type PostgresRecorder struct {
	db *sqlx.DB
}

func NewPostgresRecorder(connStr string) (*PostgresRecorder, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect to history database")
	}
	return &PostgresRecorder{db: db}, nil
}

func NewPostgresRecorderWithDB(db *sqlx.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// Migrate creates any missing tables.
func (r *PostgresRecorder) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, Schema)
	return errors.Wrap(err, "Unable to create history tables")
}

func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}

func parseGameID(gameID string) (int64, error) {
	id, err := strconv.ParseInt(gameID, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(ErrGameNotFound, "invalid game id %q", gameID)
	}
	return id, nil
}

func formatGameID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (r *PostgresRecorder) CreateGame(ctx context.Context, players []game.Player, maxCards int) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "Unable to begin transaction")
	}
	defer tx.Rollback()

	for _, p := range players {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO players (id, name) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
			p.ID, p.Name)
		if err != nil {
			return "", errors.Wrapf(err, "Unable to store player %d", p.ID)
		}
	}

	var id int64
	err = tx.GetContext(ctx, &id,
		`INSERT INTO games (max_cards, status) VALUES ($1, $2) RETURNING id`,
		maxCards, string(game.StatusActive))
	if err != nil {
		return "", errors.Wrap(err, "Unable to create game")
	}
	for position, p := range players {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO game_players (game_id, player_id, position) VALUES ($1, $2, $3)`,
			id, p.ID, position)
		if err != nil {
			return "", errors.Wrapf(err, "Unable to seat player %d", p.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "Unable to commit new game")
	}
	gameID := formatGameID(id)
	postgresLogger.Debug().Str("gameID", gameID).Int("players", len(players)).Msg("Game created")
	return gameID, nil
}

// SubmitRound stores a completed round. Running totals are stored as given.
// Storing the last round does not change the game's status.
func (r *PostgresRecorder) SubmitRound(ctx context.Context, gameID string, round game.RoundRecord) error {
	id, err := parseGameID(gameID)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "Unable to begin transaction")
	}
	defer tx.Rollback()

	var status string
	err = tx.GetContext(ctx, &status, `SELECT status FROM games WHERE id = $1 FOR UPDATE`, id)
	if err == sql.ErrNoRows {
		return errors.Wrapf(ErrGameNotFound, "game %s", gameID)
	} else if err != nil {
		return errors.Wrapf(err, "Unable to read game %s", gameID)
	}
	if status != string(game.StatusActive) {
		return fmt.Errorf("game %s is %s and takes no more rounds", gameID, status)
	}

	var roundID int64
	err = tx.GetContext(ctx, &roundID,
		`INSERT INTO rounds (game_id, round_number, cards_count, dealer_position)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		id, round.RoundNumber, round.CardsCount, round.DealerPosition)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return errors.Wrapf(ErrRoundExists, "game %s round %d", gameID, round.RoundNumber)
	} else if err != nil {
		return errors.Wrapf(err, "Unable to store round %d of game %s", round.RoundNumber, gameID)
	}

	for _, line := range round.PerPlayer {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO round_scores (round_id, player_id, bid, tricks_won, score, running_total)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			roundID, line.PlayerID, line.Bid, line.TricksWon, line.Score, line.RunningTotal)
		if err != nil {
			return errors.Wrapf(err, "Unable to store score of player %d", line.PlayerID)
		}
	}
	return errors.Wrap(tx.Commit(), "Unable to commit round")
}

func (r *PostgresRecorder) UpdateStatus(ctx context.Context, gameID string, status game.GameStatus) error {
	id, err := parseGameID(gameID)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE games SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return errors.Wrapf(err, "Unable to update status of game %s", gameID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrGameNotFound, "game %s", gameID)
	}
	return nil
}

type gameRow struct {
	ID        int64     `db:"id"`
	MaxCards  int       `db:"max_cards"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

type playerRow struct {
	ID       int    `db:"id"`
	Name     string `db:"name"`
	Position int    `db:"position"`
}

type scoreRow struct {
	RoundNumber    int `db:"round_number"`
	CardsCount     int `db:"cards_count"`
	DealerPosition int `db:"dealer_position"`
	PlayerID       int `db:"player_id"`
	Bid            int `db:"bid"`
	TricksWon      int `db:"tricks_won"`
	Score          int `db:"score"`
	RunningTotal   int `db:"running_total"`
}

func (r *PostgresRecorder) FetchGame(ctx context.Context, gameID string) (game.GameRecord, error) {
	id, err := parseGameID(gameID)
	if err != nil {
		return game.GameRecord{}, err
	}

	var row gameRow
	err = r.db.GetContext(ctx, &row, `SELECT id, max_cards, status, created_at FROM games WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return game.GameRecord{}, errors.Wrapf(ErrGameNotFound, "game %s", gameID)
	} else if err != nil {
		return game.GameRecord{}, errors.Wrapf(err, "Unable to read game %s", gameID)
	}

	players, err := r.players(ctx, id)
	if err != nil {
		return game.GameRecord{}, err
	}

	var scores []scoreRow
	err = r.db.SelectContext(ctx, &scores,
		`SELECT r.round_number, r.cards_count, r.dealer_position,
		        rs.player_id, rs.bid, rs.tricks_won, rs.score, rs.running_total
		 FROM rounds r JOIN round_scores rs ON rs.round_id = r.id
		 WHERE r.game_id = $1
		 ORDER BY r.round_number, rs.player_id`, id)
	if err != nil {
		return game.GameRecord{}, errors.Wrapf(err, "Unable to read rounds of game %s", gameID)
	}

	return game.GameRecord{
		GameID:   gameID,
		Players:  players,
		MaxCards: row.MaxCards,
		Rounds:   groupRounds(scores),
		Status:   game.GameStatus(row.Status),
	}, nil
}

func (r *PostgresRecorder) players(ctx context.Context, id int64) ([]game.Player, error) {
	var rows []playerRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT p.id, p.name, gp.position
		 FROM game_players gp JOIN players p ON p.id = gp.player_id
		 WHERE gp.game_id = $1
		 ORDER BY gp.position`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read players of game %d", id)
	}
	players := make([]game.Player, len(rows))
	for i, row := range rows {
		players[i] = game.Player{ID: game.PlayerID(row.ID), Name: row.Name, Position: row.Position}
	}
	return players, nil
}

// groupRounds folds score rows, ordered by round number, into one record
// per round.
func groupRounds(rows []scoreRow) []game.RoundRecord {
	rounds := []game.RoundRecord{}
	for _, row := range rows {
		if len(rounds) == 0 || rounds[len(rounds)-1].RoundNumber != row.RoundNumber {
			rounds = append(rounds, game.RoundRecord{
				RoundNumber:    row.RoundNumber,
				CardsCount:     row.CardsCount,
				DealerPosition: row.DealerPosition,
			})
		}
		last := &rounds[len(rounds)-1]
		last.PerPlayer = append(last.PerPlayer, game.PlayerRoundScore{
			PlayerID:     game.PlayerID(row.PlayerID),
			Bid:          row.Bid,
			TricksWon:    row.TricksWon,
			Score:        row.Score,
			RunningTotal: row.RunningTotal,
		})
	}
	return rounds
}
