package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/persist"
)

// SnapshotsOptions holds flags shared by the snapshots subcommands.
type SnapshotsOptions struct {
	*RootOptions
	Database string
}

// NewSnapshotsCommand creates the snapshots command group.
func NewSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect saved splits",
		Long: `List or show splits saved with "split --save" or POST /api/snapshots.

Examples:
  teamsplit snapshots list --db sqlite:///tmp/teams.db
  teamsplit snapshots show 3f2a... --db file:///tmp/teams.json`,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "snapshot DSN (default from config)")

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List saved splits, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotsList(opts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "show <id>",
		Short:         "Show one saved split",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotsShow(opts, args[0], cmd)
		},
	})

	return cmd
}

func (o *SnapshotsOptions) open() (persist.Backend, error) {
	dsn := o.Database
	if dsn == "" {
		cfg, err := o.LoadConfig()
		if err != nil {
			return nil, err
		}
		dsn = cfg.PersistDSN
	}
	backend, err := persist.Open(dsn)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open snapshot storage", err)
	}
	return backend, nil
}

func runSnapshotsList(opts *SnapshotsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	backend, err := opts.open()
	if err != nil {
		return err
	}
	defer backend.Close()

	snaps, err := backend.List(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodePersistFailed, "failed to list snapshots", err)
	}

	if formatter.JSON() {
		return formatter.Success(snaps)
	}
	if len(snaps) == 0 {
		fmt.Fprintln(formatter.Writer, "No snapshots.")
		return nil
	}
	for _, s := range snaps {
		fmt.Fprintf(formatter.Writer, "%s  %s  %d teams  %d members  seed=%d  %s\n",
			shortID(s.ID), s.Metadata.CreatedAt.Format("2006-01-02 15:04:05"),
			s.Metadata.TeamCount, s.Metadata.MemberCount, s.Metadata.Seed, s.Metadata.Strategy)
	}
	return nil
}

func runSnapshotsShow(opts *SnapshotsOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	backend, err := opts.open()
	if err != nil {
		return err
	}
	defer backend.Close()

	snap, err := backend.Get(cmd.Context(), id)
	if errors.Is(err, ir.ErrNotFound) {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("snapshot %s not found", id), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodePersistFailed, "failed to read snapshot", err)
	}

	if formatter.JSON() {
		return formatter.Success(snap)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "Snapshot %s\n", snap.ID)
	fmt.Fprintf(w, "Created:  %s\n", snap.Metadata.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Session:  %s\n", snap.Metadata.Session)
	fmt.Fprintf(w, "Seed:     %d (%s)\n\n", snap.Metadata.Seed, snap.Metadata.Strategy)
	for _, team := range snap.Teams {
		names := ir.DisplayNames(team.Members)
		fmt.Fprintf(w, "Team %d (%d): %s\n", team.Index+1, len(names), strings.Join(names, ", "))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
