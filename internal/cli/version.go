package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roach88/teamsplit/internal/ir"
)

// VersionInfo is the JSON payload of the version command.
type VersionInfo struct {
	Version       string `json:"version"`
	SchemaVersion string `json:"schema_version"`
	GoVersion     string `json:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				Version:       ir.AppVersion,
				SchemaVersion: ir.SchemaVersion,
				GoVersion:     runtime.Version(),
			}
			formatter := rootOpts.formatter(cmd)
			if formatter.JSON() {
				return formatter.Success(info)
			}
			fmt.Fprintf(formatter.Writer, "teamsplit %s (snapshot schema %s, %s)\n",
				info.Version, info.SchemaVersion, info.GoVersion)
			return nil
		},
	}
}
