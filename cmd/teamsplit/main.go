// Command teamsplit splits a roster of names into balanced teams.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/teamsplit/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
