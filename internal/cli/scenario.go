package cli

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/teamsplit/internal/harness"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Filter string // scenario name filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario run.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Steps  int      `json:"steps"`
	Errors []string `json:"errors,omitempty"`
}

// ScenarioSummary holds the overall outcome.
type ScenarioSummary struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <file-or-dir>...",
		Short: "Run dispatch scenarios",
		Long: `Run YAML dispatch scenarios against a fresh store and check their
step expectations and assertions. Directories are searched for .yaml/.yml files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing paths, bad filter)

Examples:
  teamsplit scenario ./scenarios
  teamsplit scenario two-kims.yaml time-travel.yaml
  teamsplit scenario ./scenarios --filter "generate-*" --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by file name glob")

	return cmd
}

func runScenarios(opts *ScenarioOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	logger := opts.Logger(cmd.ErrOrStderr(), cfg)

	files, err := findScenarioFiles(paths, opts.Filter)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "failed to find scenarios", err)
	}

	summary := ScenarioSummary{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		formatter.VerboseLog("Running %s", file)
		res := runScenarioFile(file, logger)
		summary.Scenarios = append(summary.Scenarios, res)
		if res.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: summary}
		if summary.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeScenarioFailed,
				Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed),
			}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		writeScenarioText(formatter, summary)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}

func runScenarioFile(file string, logger *slog.Logger) ScenarioResult {
	res := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, result, err := harness.RunFile(file, harness.WithLogger(logger))
	if scenario != nil {
		res.Name = scenario.Name
		res.Steps = len(scenario.Steps)
	}
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}
	res.Pass = result.Pass
	res.Errors = result.Errors
	return res
}

func writeScenarioText(f *OutputFormatter, summary ScenarioSummary) {
	w := f.Writer
	if summary.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, s := range summary.Scenarios {
		if s.Pass {
			fmt.Fprintf(w, "✓ %s (%d steps)\n", s.Name, s.Steps)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintf(w, "\nScenario Summary: %d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
}

// findScenarioFiles expands paths into YAML files. Directories are walked
// recursively; filter matches the file name without extension.
func findScenarioFiles(paths []string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, "probe"); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	keep := func(path string) {
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if ok, _ := filepath.Match(filter, name); !ok {
				return
			}
		}
		files = append(files, path)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			keep(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				keep(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
