package gamescript

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func getBoolPointer(v bool) *bool {
	return &v
}

func TestReadGameScript(t *testing.T) {
	script, err := ReadGameScript("test_scripts/script1.yaml")
	if err != nil {
		t.Fatalf("ReadGameScript returned error [%s]", err)
	}
	if script == nil {
		t.Fatal("ReadGameScript returned nil data")
	}

	expectedScript := Script{
		Title: "Three players, two cards",
		Players: []Player{
			{ID: 1, Name: "Cara"},
			{ID: 2, Name: "Bram"},
			{ID: 3, Name: "Anna"},
		},
		MaxCards: 2,
		Steps: []Step{
			{
				Bids:   Counts{"Cara": 1, "Bram": 1, "Anna": 0},
				Tricks: Counts{"Cara": 1, "Bram": 0, "Anna": 0},
				Verify: &RoundVerification{
					Scores: Counts{"Cara": 12, "Bram": -2, "Anna": 10},
				},
			},
			{
				Bids:        Counts{"Cara": 1, "Bram": 1, "Anna": 0},
				ExpectError: "BidTotalEqualsCardCount",
			},
			{
				Bids:   Counts{"Cara": 1, "Bram": 0, "Anna": 0},
				Tricks: Counts{"Cara": 1, "Bram": 0, "Anna": 1},
				Verify: &RoundVerification{
					Totals: Counts{"Cara": 24, "Bram": 8, "Anna": 8},
				},
			},
			{
				Bids:   Counts{"Cara": 0, "Bram": 0, "Anna": 0},
				Tricks: Counts{"Cara": 0, "Bram": 1, "Anna": 0},
			},
		},
		VerifyEnd: &EndVerification{
			Winners: []string{"Cara"},
			Tie:     getBoolPointer(false),
			Totals:  Counts{"Cara": 34, "Bram": 6, "Anna": 18},
		},
	}

	if !cmp.Equal(*script, expectedScript) {
		t.Errorf("ReadGameScript returned unexpected data: %s", cmp.Diff(expectedScript, *script))
	}
}

func TestReadGameScriptRejectsUnknownPlayer(t *testing.T) {
	_, err := ReadGameScript("test_scripts/unknown_player.yaml")
	if err == nil {
		t.Fatal("ReadGameScript accepted a step naming an undeclared player")
	}
	if !strings.Contains(err.Error(), "Unknown player [Dirk] in step 1 bids") {
		t.Errorf("unexpected error [%s]", err)
	}

	if _, err := ReadGameScript("test_scripts/missing.yaml"); err == nil {
		t.Error("ReadGameScript accepted a missing file")
	}
}

func TestCountsExpression(t *testing.T) {
	testCases := []struct {
		yaml     string
		expected Counts
		err      bool
	}{
		{yaml: `{Cara: 2, Bram: 0}`, expected: Counts{"Cara": 2, "Bram": 0}},
		{yaml: `"Cara 2, Bram -1"`, expected: Counts{"Cara": 2, "Bram": -1}},
		{yaml: `"Cara 2"`, expected: Counts{"Cara": 2}},
		{yaml: `"Cara"`, err: true},
		{yaml: `"Cara two"`, err: true},
		{yaml: `[1, 2]`, err: true},
	}
	for i, tc := range testCases {
		var c Counts
		err := yaml.Unmarshal([]byte(tc.yaml), &c)
		if tc.err {
			if err == nil {
				t.Errorf("Test case %d: expected an error, got %v", i, c)
			}
			continue
		}
		if err != nil {
			t.Errorf("Test case %d: %s", i, err)
			continue
		}
		if !cmp.Equal(c, tc.expected) {
			t.Errorf("Test case %d: %s", i, cmp.Diff(tc.expected, c))
		}
	}
}

func TestValidate(t *testing.T) {
	players := []Player{{ID: 1, Name: "Cara"}, {ID: 2, Name: "Bram"}, {ID: 3, Name: "Anna"}}
	testCases := []struct {
		name   string
		script Script
		errMsg string
	}{
		{
			name:   "valid",
			script: Script{Players: players, MaxCards: 1, Steps: []Step{{Bids: Counts{"Cara": 0}}}},
		},
		{
			name:   "no cards",
			script: Script{Players: players, MaxCards: 0},
			errMsg: "Invalid max-cards [0]",
		},
		{
			name:   "duplicate id",
			script: Script{Players: append([]Player{{ID: 1, Name: "Dirk"}}, players...), MaxCards: 1},
			errMsg: "Duplicate player id [1]",
		},
		{
			name:   "duplicate name",
			script: Script{Players: append([]Player{{ID: 9, Name: "Anna"}}, players...), MaxCards: 1},
			errMsg: "Duplicate player name [Anna]",
		},
		{
			name:   "empty step",
			script: Script{Players: players, MaxCards: 1, Steps: []Step{{ExpectError: "IncompleteBids"}}},
			errMsg: "Step 1 has neither bids nor tricks",
		},
		{
			name: "unknown verify name",
			script: Script{Players: players, MaxCards: 1, Steps: []Step{{
				Tricks: Counts{"Cara": 1},
				Verify: &RoundVerification{Totals: Counts{"Dirk": 3}},
			}}},
			errMsg: "Unknown player [Dirk] in step 1 verify totals",
		},
		{
			name:   "unknown winner",
			script: Script{Players: players, MaxCards: 1, VerifyEnd: &EndVerification{Winners: []string{"Dirk"}}},
			errMsg: "Unknown player [Dirk] in verify-end winners",
		},
	}
	for _, tc := range testCases {
		err := tc.script.Validate()
		if tc.errMsg == "" {
			if err != nil {
				t.Errorf("%s: unexpected error [%s]", tc.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
			t.Errorf("%s: expected error containing [%s], got [%v]", tc.name, tc.errMsg, err)
		}
	}
}

func TestPlayerID(t *testing.T) {
	s := Script{Players: []Player{{ID: 4, Name: "Cara"}}}
	if id, ok := s.PlayerID("Cara"); !ok || id != 4 {
		t.Errorf("PlayerID(Cara) = %d, %v", id, ok)
	}
	if _, ok := s.PlayerID("Dirk"); ok {
		t.Error("PlayerID found an undeclared player")
	}
}
