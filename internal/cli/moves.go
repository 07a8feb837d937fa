package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/duper/pkg/output"
)

// NewMovesCommand creates the moves command
func NewMovesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "moves",
		Short: "List quarantined files and their move ids",
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

			moves, err := env.engine.Moves()
			if err != nil {
				return fmt.Errorf("failed to list moves: %w", err)
			}

			output.NewPrinter(os.Stdout, false).Moves(moves)
			return nil
		},
	}
}
