package game

// Event is an input to Apply. The set of events is closed.
type Event interface {
	Name() string
	isEvent()
}

// Initialize starts a new game. Players are seated in the order given.
type Initialize struct {
	GameID   string
	Players  []Player
	MaxCards int
}

// LoadExisting replaces the whole state with one rebuilt from persisted
// history. The caller works out the phase, round and dealer.
type LoadExisting struct {
	GameID         string
	Players        []Player
	MaxCards       int
	Rounds         []Round
	CurrentRound   int
	CurrentPhase   Phase
	DealerPosition int
	IsGameActive   bool
}

type SubmitBids struct {
	Bids map[PlayerID]int
}

type SubmitTricks struct {
	TricksWon map[PlayerID]int
}

type AdvanceRound struct{}

// CompleteGame ends the game after its last round. With Force set the
// game ends early from any in-progress phase.
type CompleteGame struct {
	Force bool
}

type Reset struct{}

const (
	eventInitialize    = "initialize"
	eventLoadExisting  = "load_existing"
	eventSubmitBids    = "submit_bids"
	eventSubmitTricks  = "submit_tricks"
	eventAdvanceRound  = "advance_round"
	eventCompleteGame  = "complete_game"
	eventForceComplete = "force_complete"
	eventReset         = "reset"
)

func (Initialize) Name() string   { return eventInitialize }
func (LoadExisting) Name() string { return eventLoadExisting }
func (SubmitBids) Name() string   { return eventSubmitBids }
func (SubmitTricks) Name() string { return eventSubmitTricks }
func (AdvanceRound) Name() string { return eventAdvanceRound }
func (Reset) Name() string        { return eventReset }

func (e CompleteGame) Name() string {
	if e.Force {
		return eventForceComplete
	}
	return eventCompleteGame
}

func (Initialize) isEvent()   {}
func (LoadExisting) isEvent() {}
func (SubmitBids) isEvent()   {}
func (SubmitTricks) isEvent() {}
func (AdvanceRound) isEvent() {}
func (CompleteGame) isEvent() {}
func (Reset) isEvent()        {}

// Effect is a side effect a transition asks its caller to carry out.
// Effects are best effort: the new state stands whether they succeed or not.
type Effect interface {
	isEffect()
}

// RecordRound asks for a completed round to be stored.
type RecordRound struct {
	GameID string
	Round  RoundRecord
}

// RecordStatus asks for the game's stored status to change.
type RecordStatus struct {
	GameID      string
	Status      GameStatus
	FinalTotals map[PlayerID]int
}

func (RecordRound) isEffect()  {}
func (RecordStatus) isEffect() {}
