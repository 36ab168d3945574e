package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorKind classifies a rejected submission.
type ErrorKind string

const (
	IncompleteBids          ErrorKind = "IncompleteBids"
	BidTotalEqualsCardCount ErrorKind = "BidTotalEqualsCardCount"
	IncompleteTricks        ErrorKind = "IncompleteTricks"
	TrickTotalMismatch      ErrorKind = "TrickTotalMismatch"
	NegativeValue           ErrorKind = "NegativeValue"
	ValueExceedsCardCount   ErrorKind = "ValueExceedsCardCount"
	InvalidPlayerCount      ErrorKind = "InvalidPlayerCount"
	InvalidMaxCards         ErrorKind = "InvalidMaxCards"
	DuplicatePlayer         ErrorKind = "DuplicatePlayer"
)

// ValidationError is returned for input the caller can correct and
// resubmit. A transition that returns one leaves the state untouched.
type ValidationError struct {
	Kind       ErrorKind
	Players    []PlayerID
	Total      int
	CardsCount int
	Msg        string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	switch e.Kind {
	case IncompleteBids:
		return fmt.Sprintf("%s: no bid for players %s", e.Kind, formatIDs(e.Players))
	case IncompleteTricks:
		return fmt.Sprintf("%s: no trick count for players %s", e.Kind, formatIDs(e.Players))
	case BidTotalEqualsCardCount:
		return fmt.Sprintf("%s: bids add up to %d, the number of cards in the round", e.Kind, e.Total)
	case TrickTotalMismatch:
		return fmt.Sprintf("%s: tricks add up to %d but %d cards were dealt", e.Kind, e.Total, e.CardsCount)
	case NegativeValue:
		return fmt.Sprintf("%s: players %s have a negative count", e.Kind, formatIDs(e.Players))
	case ValueExceedsCardCount:
		return fmt.Sprintf("%s: players %s exceed %d cards", e.Kind, formatIDs(e.Players), e.CardsCount)
	}
	return string(e.Kind)
}

// IsKind reports whether err, or an error it wraps, is a ValidationError of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var verr *ValidationError
	return errors.As(err, &verr) && verr.Kind == kind
}

// ContractViolation is the panic value for calls a correct caller never
// makes: a transition in the wrong phase, an unknown player id, a round
// number outside the game.
type ContractViolation struct {
	Msg string
}

func (e ContractViolation) Error() string {
	return "contract violation: " + e.Msg
}

func violate(format string, args ...interface{}) {
	panic(ContractViolation{Msg: fmt.Sprintf(format, args...)})
}

func formatIDs(ids []PlayerID) string {
	sorted := make([]int, len(ids))
	for i, id := range ids {
		sorted[i] = int(id)
	}
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
