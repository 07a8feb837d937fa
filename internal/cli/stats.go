package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/duper/pkg/output"
)

// NewStatsCommand creates the stats command
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <directory>",
		Short: "Show fingerprint totals for a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			env, err := newEnvironment(cfg)
			if err != nil {
				return err
			}
			defer env.Close()

			stats, err := env.engine.Stats(args[0])
			if err != nil {
				return fmt.Errorf("failed to collect stats: %w", err)
			}

			output.NewPrinter(os.Stdout, false).Stats(stats)
			return nil
		},
	}
}
