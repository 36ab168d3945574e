package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func seatedPlayers(n int) []Player {
	players := make([]Player, n)
	for i := 0; i < n; i++ {
		players[i] = Player{ID: PlayerID(100 + i), Name: string(rune('A' + i)), Position: i}
	}
	return players
}

func ids(players []Player) []PlayerID {
	out := make([]PlayerID, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}

func TestSeatingOrder(t *testing.T) {
	players := []Player{
		{ID: 3, Name: "C", Position: 2},
		{ID: 1, Name: "A", Position: 0},
		{ID: 2, Name: "B", Position: 1},
	}
	expected := []PlayerID{1, 2, 3}
	if actual := ids(SeatingOrder(players)); !cmp.Equal(actual, expected) {
		t.Errorf("expected %v, actual %v", expected, actual)
	}
	if players[0].ID != 3 {
		t.Errorf("SeatingOrder reordered its input")
	}
}

func TestBiddingOrder(t *testing.T) {
	players := seatedPlayers(4)
	testCases := []struct {
		dealer   int
		expected []PlayerID
	}{
		{dealer: 0, expected: []PlayerID{101, 102, 103, 100}},
		{dealer: 1, expected: []PlayerID{102, 103, 100, 101}},
		{dealer: 3, expected: []PlayerID{100, 101, 102, 103}},
	}

	for _, tc := range testCases {
		order := BiddingOrder(players, tc.dealer)
		if actual := ids(order); !cmp.Equal(actual, tc.expected) {
			t.Errorf("dealer %d: expected %v, actual %v", tc.dealer, tc.expected, actual)
		}
		dealer := players[tc.dealer].ID
		if !IsLastBidder(dealer, players, tc.dealer) {
			t.Errorf("dealer %d should bid last", tc.dealer)
		}
		if IsLastBidder(order[0].ID, players, tc.dealer) {
			t.Errorf("dealer %d: first bidder %d reported as last", tc.dealer, order[0].ID)
		}
	}
}

func TestDealerRotationCycles(t *testing.T) {
	for n := MinPlayers; n <= MaxPlayers; n++ {
		for start := 0; start < n; start++ {
			pos := start
			for i := 0; i < n; i++ {
				pos = NextDealerPosition(pos, n)
			}
			if pos != start {
				t.Errorf("%d players: dealer started at %d and ended at %d", n, start, pos)
			}
		}
	}

	expected := []int{1, 2, 0}
	var actual []int
	pos := 0
	for i := 0; i < 3; i++ {
		pos = NextDealerPosition(pos, 3)
		actual = append(actual, pos)
	}
	if !cmp.Equal(actual, expected) {
		t.Errorf("expected %v, actual %v", expected, actual)
	}
}
