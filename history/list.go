package history

import (
	"context"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"boerenbridge.com/server/game"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GameFilter narrows and pages the game history. A game matches PlayerIDs
// only if every listed player took part. EndDate includes the whole day.
type GameFilter struct {
	PlayerIDs []game.PlayerID `form:"player_ids"`
	StartDate *time.Time      `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time      `form:"end_date" time_format:"2006-01-02"`
	Status    game.GameStatus `form:"status"`
	SortOrder string          `form:"sort_order"`
	Page      int             `form:"page"`
	PageSize  int             `form:"page_size"`
}

// GameSummary is one line of the game history.
type GameSummary struct {
	GameID      string                `json:"gameId"`
	CreatedAt   time.Time             `json:"createdAt"`
	Status      game.GameStatus       `json:"status"`
	MaxCards    int                   `json:"maxCards"`
	Players     []game.Player         `json:"players"`
	FinalTotals map[game.PlayerID]int `json:"finalTotals,omitempty"`
	Winners     []game.PlayerID       `json:"winners,omitempty"`
}

type GamePage struct {
	Games      []GameSummary `json:"games"`
	TotalGames int           `json:"totalGames"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

func (f GameFilter) normalized() GameFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	} else if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if strings.ToLower(f.SortOrder) == "asc" {
		f.SortOrder = "ASC"
	} else {
		f.SortOrder = "DESC"
	}
	return f
}

// whereClause builds the filter conditions with ? placeholders, to be
// rebound for the driver.
func whereClause(f GameFilter) (string, []interface{}) {
	conds := []string{"TRUE"}
	var args []interface{}
	if len(f.PlayerIDs) > 0 {
		ids := make([]int64, len(f.PlayerIDs))
		for i, id := range f.PlayerIDs {
			ids[i] = int64(id)
		}
		conds = append(conds,
			`(SELECT COUNT(DISTINCT gp.player_id) FROM game_players gp
			  WHERE gp.game_id = g.id AND gp.player_id = ANY(?)) = ?`)
		args = append(args, pq.Array(ids), len(distinct(ids)))
	}
	if f.StartDate != nil {
		conds = append(conds, "g.created_at >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		end := time.Date(f.EndDate.Year(), f.EndDate.Month(), f.EndDate.Day(), 0, 0, 0, 0, f.EndDate.Location()).AddDate(0, 0, 1)
		conds = append(conds, "g.created_at < ?")
		args = append(args, end)
	}
	if f.Status != "" {
		conds = append(conds, "g.status = ?")
		args = append(args, string(f.Status))
	}
	return strings.Join(conds, " AND "), args
}

func distinct(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// ListGames returns one page of game history, newest first unless the
// filter asks for ascending order.
func (r *PostgresRecorder) ListGames(ctx context.Context, filter GameFilter) (GamePage, error) {
	f := filter.normalized()
	where, args := whereClause(f)

	var total int
	err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM games g WHERE "+where), args...)
	if err != nil {
		return GamePage{}, errors.Wrap(err, "Unable to count games")
	}

	query := "SELECT g.id, g.max_cards, g.status, g.created_at FROM games g WHERE " + where +
		" ORDER BY g.created_at " + f.SortOrder + ", g.id " + f.SortOrder + " LIMIT ? OFFSET ?"
	pageArgs := append(append([]interface{}{}, args...), f.PageSize, (f.Page-1)*f.PageSize)
	var rows []gameRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), pageArgs...); err != nil {
		return GamePage{}, errors.Wrap(err, "Unable to list games")
	}

	page := GamePage{
		Games:      make([]GameSummary, 0, len(rows)),
		TotalGames: total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: (total + f.PageSize - 1) / f.PageSize,
	}
	for _, row := range rows {
		summary, err := r.summarize(ctx, row)
		if err != nil {
			return GamePage{}, err
		}
		page.Games = append(page.Games, summary)
	}
	return page, nil
}

func (r *PostgresRecorder) summarize(ctx context.Context, row gameRow) (GameSummary, error) {
	players, err := r.players(ctx, row.ID)
	if err != nil {
		return GameSummary{}, err
	}

	var lines []struct {
		PlayerID     int `db:"player_id"`
		RunningTotal int `db:"running_total"`
	}
	err = r.db.SelectContext(ctx, &lines,
		`SELECT rs.player_id, rs.running_total
		 FROM round_scores rs JOIN rounds r ON r.id = rs.round_id
		 WHERE r.game_id = $1
		   AND r.round_number = (SELECT MAX(round_number) FROM rounds WHERE game_id = $1)`, row.ID)
	if err != nil {
		return GameSummary{}, errors.Wrapf(err, "Unable to read totals of game %d", row.ID)
	}

	summary := GameSummary{
		GameID:    formatGameID(row.ID),
		CreatedAt: row.CreatedAt,
		Status:    game.GameStatus(row.Status),
		MaxCards:  row.MaxCards,
		Players:   players,
	}
	if len(lines) > 0 {
		summary.FinalTotals = make(map[game.PlayerID]int, len(lines))
		for _, line := range lines {
			summary.FinalTotals[game.PlayerID(line.PlayerID)] = line.RunningTotal
		}
	}
	if summary.Status == game.StatusCompleted {
		summary.Winners = topScorers(players, summary.FinalTotals)
	}
	return summary, nil
}

// topScorers lists, in seat order, every player on the highest total.
func topScorers(players []game.Player, totals map[game.PlayerID]int) []game.PlayerID {
	best, found := 0, false
	for _, p := range players {
		if t, ok := totals[p.ID]; ok && (!found || t > best) {
			best, found = t, true
		}
	}
	var winners []game.PlayerID
	for _, p := range players {
		if t, ok := totals[p.ID]; found && ok && t == best {
			winners = append(winners, p.ID)
		}
	}
	return winners
}
