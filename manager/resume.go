package manager

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"boerenbridge.com/server/game"
)

var (
	ErrGameAbandoned  = errors.New("game was abandoned")
	ErrCorruptHistory = errors.New("stored game history is inconsistent")
)

// LoadEventFromRecord works out where a stored game stands and returns the
// event that rebuilds it.
//
//	completed                -> gameComplete on the last stored round
//	active, rounds < total   -> bidding on the next round, dealer rotated
//	active, rounds == total  -> roundComplete on the final round
//	abandoned                -> ErrGameAbandoned
func LoadEventFromRecord(rec game.GameRecord) (game.LoadExisting, error) {
	if rec.Status == game.StatusAbandoned {
		return game.LoadExisting{}, errors.Wrapf(ErrGameAbandoned, "game %s", rec.GameID)
	}
	if rec.MaxCards < 1 {
		return game.LoadExisting{}, errors.Wrapf(ErrCorruptHistory, "game %s has max cards %d", rec.GameID, rec.MaxCards)
	}
	if err := checkSeats(rec.Players); err != nil {
		return game.LoadExisting{}, errors.Wrapf(ErrCorruptHistory, "game %s: %s", rec.GameID, err)
	}

	records := make([]game.RoundRecord, len(rec.Rounds))
	copy(records, rec.Rounds)
	sort.Slice(records, func(i, j int) bool { return records[i].RoundNumber < records[j].RoundNumber })

	total := game.TotalRounds(rec.MaxCards)
	if len(records) > total {
		return game.LoadExisting{}, errors.Wrapf(ErrCorruptHistory, "game %s has %d rounds of %d", rec.GameID, len(records), total)
	}
	rounds := make([]game.Round, 0, len(records)+1)
	for i, r := range records {
		if r.RoundNumber != i+1 {
			return game.LoadExisting{}, errors.Wrapf(ErrCorruptHistory, "game %s is missing round %d", rec.GameID, i+1)
		}
		if r.DealerPosition < 0 || r.DealerPosition >= len(rec.Players) {
			return game.LoadExisting{}, errors.Wrapf(ErrCorruptHistory, "game %s round %d has dealer %d", rec.GameID, r.RoundNumber, r.DealerPosition)
		}
		rounds = append(rounds, game.RoundFromRecord(r))
	}

	ev := game.LoadExisting{
		GameID:   rec.GameID,
		Players:  rec.Players,
		MaxCards: rec.MaxCards,
	}
	played := len(rounds)
	switch {
	case rec.Status == game.StatusCompleted:
		ev.CurrentPhase = game.PhaseGameComplete
		ev.CurrentRound = played
		if played > 0 {
			ev.DealerPosition = rounds[played-1].DealerPosition
		}
	case rec.Status == game.StatusActive && played < total:
		dealer := 0
		if played > 0 {
			dealer = game.NextDealerPosition(rounds[played-1].DealerPosition, len(rec.Players))
		}
		rounds = append(rounds, game.NewRound(played+1, rec.MaxCards, dealer))
		ev.CurrentPhase = game.PhaseBidding
		ev.CurrentRound = played + 1
		ev.DealerPosition = dealer
		ev.IsGameActive = true
	case rec.Status == game.StatusActive:
		ev.CurrentPhase = game.PhaseRoundComplete
		ev.CurrentRound = total
		ev.DealerPosition = rounds[played-1].DealerPosition
		ev.IsGameActive = true
	default:
		return game.LoadExisting{}, errors.Wrapf(ErrCorruptHistory, "game %s has status %q", rec.GameID, rec.Status)
	}
	ev.Rounds = rounds
	return ev, nil
}

func checkSeats(players []game.Player) error {
	if len(players) < game.MinPlayers || len(players) > game.MaxPlayers {
		return fmt.Errorf("%d players", len(players))
	}
	taken := make([]bool, len(players))
	for _, p := range players {
		if p.Position < 0 || p.Position >= len(players) || taken[p.Position] {
			return fmt.Errorf("player %d has seat %d", p.ID, p.Position)
		}
		taken[p.Position] = true
	}
	return nil
}
