package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/teamsplit/internal/ir"
)

func TestSplitSaveThenInspect(t *testing.T) {
	for _, scheme := range []string{"file", "sqlite"} {
		t.Run(scheme, func(t *testing.T) {
			dsn := scheme + "://" + filepath.Join(t.TempDir(), "teams.db")

			out, _, err := execute(t, "split", "--format", "json", "--teams", "2", "--seed", "3", "--save", dsn,
				"Ana", "Bo", "Cy", "Dee", "Eve")
			require.NoError(t, err)
			var res SplitResult
			decodeResponse(t, out, &res)
			require.NotEmpty(t, res.SnapshotID)

			out, _, err = execute(t, "snapshots", "list", "--db", dsn)
			require.NoError(t, err)
			assert.Contains(t, out, res.SnapshotID[:12])
			assert.Contains(t, out, "2 teams  5 members  seed=3  balanced")

			out, _, err = execute(t, "snapshots", "show", res.SnapshotID, "--db", dsn, "--format", "json")
			require.NoError(t, err)
			var snap ir.Snapshot
			decodeResponse(t, out, &snap)
			assert.Equal(t, res.SnapshotID, snap.ID)
			require.Len(t, snap.Teams, 2)
			assert.Equal(t, res.Teams[0], ir.DisplayNames(snap.Teams[0].Members))
			assert.Equal(t, int64(3), snap.Metadata.Seed)

			out, _, err = execute(t, "snapshots", "show", res.SnapshotID, "--db", dsn)
			require.NoError(t, err)
			assert.Contains(t, out, "Snapshot "+res.SnapshotID)
			assert.Contains(t, out, "Team 1 (3): ")
		})
	}
}

func TestSnapshotsList_Empty(t *testing.T) {
	out, _, err := execute(t, "snapshots", "list", "--db", "memory://")
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshots.")
}

func TestSnapshotsShow_NotFound(t *testing.T) {
	_, _, err := execute(t, "snapshots", "show", "missing", "--db", "memory://")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "snapshot missing not found")
}

func TestSnapshots_BadDSN(t *testing.T) {
	_, _, err := execute(t, "snapshots", "list", "--db", "ftp://nowhere")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "0123456789ab", shortID("0123456789abcdef"))
}
