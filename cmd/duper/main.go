package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/duper/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cli.Version = version
	cli.Commit = commit
	cli.BuildDate = date

	rootCmd := &cobra.Command{
		Use:   "duper",
		Short: "File deduplication utility",
		Long: `duper finds and quarantines duplicate files. It fingerprints every
file under a directory, flags files sharing a filename or content
hash, keeps the best-named copy of each identical-content group and
moves the rest into a quarantine area. Every move is recorded and
reversible.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cli.AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(cli.NewScanCommand())
	rootCmd.AddCommand(cli.NewDedupeCommand())
	rootCmd.AddCommand(cli.NewRestoreCommand())
	rootCmd.AddCommand(cli.NewMovesCommand())
	rootCmd.AddCommand(cli.NewStatsCommand())
	rootCmd.AddCommand(cli.NewConfigCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	return rootCmd.Execute()
}
