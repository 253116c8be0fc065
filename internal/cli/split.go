package cli

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/teamsplit/internal/engine"
	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/partition"
	"github.com/roach88/teamsplit/internal/persist"
)

// SplitOptions holds flags for the split command.
type SplitOptions struct {
	*RootOptions
	Teams    int
	Strategy string
	Seed     int64
	Save     string // persistence DSN; empty skips saving
	File     string // newline-separated roster
}

// SplitResult is the JSON payload of a successful split.
type SplitResult struct {
	Seed       int64      `json:"seed"`
	Strategy   string     `json:"strategy"`
	Teams      [][]string `json:"teams"`
	SnapshotID string     `json:"snapshot_id,omitempty"`
}

// NewSplitCommand creates the split command.
func NewSplitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SplitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "split --teams N [NAME...]",
		Short: "Split a roster into balanced teams",
		Long: `Split a roster into N teams whose sizes differ by at most one.

Names come from the arguments and/or --file (one per line, # comments and
blank lines ignored). Repeated names are numbered: Kim, Kim becomes
Kim-1, Kim-2. The same roster, seed and strategy always give the same teams.

Exit codes:
  0 - Teams generated
  1 - Teams could not be generated
  2 - Command error (bad flags, unreadable file, unreachable storage)

Examples:
  teamsplit split --teams 2 Ana Bo Cy Dee
  teamsplit split --teams 3 --file roster.txt --seed 42
  teamsplit split --teams 2 --strategy stripe --save sqlite:///tmp/teams.db Ana Bo Cy`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.Seed = rand.Int64()
			}
			return runSplit(opts, args, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Teams, "teams", "n", 0, "number of teams (required)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "partition strategy: balanced|stripe (default from config)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (default: random)")
	cmd.Flags().StringVar(&opts.Save, "save", "", "persist the result to a DSN (memory://, file://, sqlite://, postgres://)")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read names from a file, one per line")
	_ = cmd.MarkFlagRequired("teams")

	return cmd
}

func runSplit(opts *SplitOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = cfg.Strategy
	}
	if _, err := partition.ParseStrategy(strategy); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid strategy", err)
	}

	names := cleanNames(args)
	if opts.File != "" {
		fromFile, err := readRoster(opts.File)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "failed to read roster file", err)
		}
		names = append(fromFile, names...)
	}
	if len(names) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "no names given", nil)
	}
	if opts.Teams < 1 || opts.Teams > len(names) {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput,
			fmt.Sprintf("--teams must be between 1 and %d", len(names)), nil)
	}
	formatter.VerboseLog("Splitting %d name(s) into %d team(s), seed %d, strategy %s",
		len(names), opts.Teams, opts.Seed, strategy)

	store := engine.New(
		engine.WithLogger(opts.Logger(cmd.ErrOrStderr(), cfg)),
		engine.WithHistoryCapacity(cfg.HistoryCapacity),
	)
	for _, action := range []ir.Action{
		ir.SetTotalMembers(len(names)),
		ir.ConfirmTotalMembers(),
		ir.SetRoster(names...),
		ir.SetTeamCount(opts.Teams),
		ir.ConfirmTeamCount(),
		ir.GenerateTeams(opts.Seed, strategy),
	} {
		store.Dispatch(action)
	}

	state := store.State()
	if len(state.Teams) == 0 {
		return formatter.Fail(ExitFailure, ErrCodeSplitFailed, "teams could not be generated", nil)
	}

	result := SplitResult{
		Seed:     state.Seed,
		Strategy: state.Strategy,
		Teams:    make([][]string, len(state.Teams)),
	}
	for i, team := range state.Teams {
		result.Teams[i] = ir.DisplayNames(team.Members)
	}

	if opts.Save != "" {
		id, err := saveSnapshot(cmd, store, opts.Save)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodePersistFailed, "failed to save snapshot", err)
		}
		result.SnapshotID = id
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	w := formatter.Writer
	for i, team := range result.Teams {
		fmt.Fprintf(w, "Team %d (%d): %s\n", i+1, len(team), strings.Join(team, ", "))
	}
	fmt.Fprintf(w, "\nseed=%d strategy=%s\n", result.Seed, result.Strategy)
	if result.SnapshotID != "" {
		fmt.Fprintf(w, "Saved snapshot %s\n", result.SnapshotID)
	}
	return nil
}

func saveSnapshot(cmd *cobra.Command, store *engine.Store, dsn string) (string, error) {
	snap, err := store.Snapshot()
	if err != nil {
		return "", err
	}
	backend, err := persist.Open(dsn)
	if err != nil {
		return "", err
	}
	defer backend.Close()

	if err := backend.Write(cmd.Context(), snap); err != nil {
		return "", err
	}
	return snap.ID, nil
}

// readRoster reads one name per line, skipping blanks and # comments.
func readRoster(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func cleanNames(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if ir.CleanName(r) != "" {
			out = append(out, r)
		}
	}
	return out
}
