package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Text(t *testing.T) {
	out, _, err := execute(t, "split", "--teams", "2", "--seed", "7", "Ana", "Bo", "Cy", "Dee")
	require.NoError(t, err)

	assert.Contains(t, out, "Team 1 (2): ")
	assert.Contains(t, out, "Team 2 (2): ")
	assert.Contains(t, out, "seed=7 strategy=balanced")
	assert.NotContains(t, out, "Saved snapshot")
}

func TestSplit_SameSeedSameTeams(t *testing.T) {
	args := []string{"split", "--format", "json", "--teams", "3", "--seed", "42", "A", "B", "C", "D", "E", "F", "G"}

	first, _, err := execute(t, args...)
	require.NoError(t, err)
	second, _, err := execute(t, args...)
	require.NoError(t, err)

	var a, b SplitResult
	decodeResponse(t, first, &a)
	decodeResponse(t, second, &b)
	assert.Equal(t, a, b)
	require.Len(t, a.Teams, 3)
	assert.Equal(t, []int{3, 2, 2}, []int{len(a.Teams[0]), len(a.Teams[1]), len(a.Teams[2])})
}

func TestSplit_StripeNumbersDuplicates(t *testing.T) {
	out, _, err := execute(t, "split", "--format", "json", "--teams", "2", "--strategy", "stripe", "--seed", "1",
		"Kim", "Bo", "Kim", "Dee")
	require.NoError(t, err)

	var res SplitResult
	resp := decodeResponse(t, out, &res)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "stripe", res.Strategy)
	assert.Equal(t, [][]string{{"Kim-1", "Kim-2"}, {"Bo", "Dee"}}, res.Teams)
}

func TestSplit_StrategyFromConfig(t *testing.T) {
	cfg := writeFile(t, "teamsplit.cue", `strategy: "stripe"`)

	out, _, err := execute(t, "split", "--config", cfg, "--format", "json", "--teams", "2", "--seed", "1", "A", "B", "C")
	require.NoError(t, err)

	var res SplitResult
	decodeResponse(t, out, &res)
	assert.Equal(t, "stripe", res.Strategy)
	assert.Equal(t, [][]string{{"A", "C"}, {"B"}}, res.Teams)
}

func TestSplit_RosterFile(t *testing.T) {
	roster := writeFile(t, "roster.txt", "# squad\nAna\n\n  Bo  \nCy\n")

	out, _, err := execute(t, "split", "--format", "json", "--teams", "1", "--strategy", "stripe", "--file", roster, "Dee")
	require.NoError(t, err)

	var res SplitResult
	decodeResponse(t, out, &res)
	assert.Equal(t, [][]string{{"Ana", "Bo", "Cy", "Dee"}}, res.Teams)
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
		code int
	}{
		{"no names", []string{"--teams", "2"}, "no names given", ExitCommandError},
		{"blank names only", []string{"--teams", "1", " ", ""}, "no names given", ExitCommandError},
		{"too many teams", []string{"--teams", "4", "A", "B", "C"}, "--teams must be between 1 and 3", ExitCommandError},
		{"zero teams", []string{"--teams", "0", "A"}, "--teams must be between 1 and 1", ExitCommandError},
		{"bad strategy", []string{"--teams", "1", "--strategy", "random", "A"}, "invalid strategy", ExitCommandError},
		{"missing file", []string{"--teams", "1", "--file", filepath.Join(t.TempDir(), "nope.txt")}, "failed to read roster file", ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"split"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, tt.code, GetExitCode(err))
		})
	}
}

func TestSplit_RequiresTeamsFlag(t *testing.T) {
	_, _, err := execute(t, "split", "Ana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "teams" not set`)
}

func TestSplit_JSONErrorEnvelope(t *testing.T) {
	out, _, err := execute(t, "split", "--format", "json", "--teams", "3", "A")
	require.Error(t, err)

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidInput, resp.Error.Code)
}
