package test

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameScripts(t *testing.T) {
	require.NoError(t, RunGameScriptTests("game-scripts", ""))
}

func TestGameScriptsByName(t *testing.T) {
	require.NoError(t, RunGameScriptTests("game-scripts", "tie"))
	assert.Error(t, RunGameScriptTests("game-scripts", "no-such-script"))
	assert.Error(t, RunGameScriptTests("no-such-dir", ""))
}

func TestDisabledScript(t *testing.T) {
	driver := NewTestDriver()
	require.NoError(t, driver.RunGameScript("game-scripts/disabled.yaml"))
	assert.True(t, driver.ScriptResult["game-scripts/disabled.yaml"].Disabled)
	assert.True(t, driver.ReportResult())
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, ioutil.WriteFile(file, []byte(content), 0644))
	return file
}

const header = `
players:
  - {id: 1, name: Cara}
  - {id: 2, name: Bram}
  - {id: 3, name: Anna}
max-cards: 1
`

func TestFailingScripts(t *testing.T) {
	testCases := []struct {
		name    string
		steps   string
		failure string
	}{
		{
			name: "wrong score",
			steps: `
steps:
  - bids: "Cara 0, Bram 0, Anna 0"
    tricks: "Cara 1, Bram 0, Anna 0"
    verify:
      scores: {Cara: 10}
`,
			failure: "Values do not match",
		},
		{
			name: "wrong winner",
			steps: `
steps:
  - bids: "Cara 0, Bram 0, Anna 0"
    tricks: "Cara 1, Bram 0, Anna 0"
verify-end:
  winners: [Cara]
  tie: false
`,
			failure: "Winners do not match",
		},
		{
			name: "unexpected acceptance",
			steps: `
steps:
  - bids: "Cara 0, Bram 0, Anna 0"
    expect-error: BidTotalEqualsCardCount
`,
			failure: "but the submission was accepted",
		},
		{
			name: "wrong error kind",
			steps: `
steps:
  - bids: "Cara 1, Bram 0"
    expect-error: BidTotalEqualsCardCount
`,
			failure: "got: IncompleteBids",
		},
		{
			name: "unfinished game",
			steps: `
steps:
  - bids: "Cara 0, Bram 0, Anna 0"
`,
			failure: "Script ended in phase tricks",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			file := writeScript(t, header+tc.steps)
			driver := NewTestDriver()
			assert.Error(t, driver.RunGameScript(file))
			result := driver.ScriptResult[file]
			require.NotEmpty(t, result.Failures)
			assert.False(t, result.Passed)
			found := false
			for _, e := range result.Failures {
				if strings.Contains(e.Error(), tc.failure) {
					found = true
				}
			}
			assert.True(t, found, "failures %v do not mention %q", result.Failures, tc.failure)
			assert.False(t, driver.ReportResult())
		})
	}
}
