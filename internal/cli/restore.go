package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/duper/pkg/output"
)

// NewRestoreCommand creates the restore command
func NewRestoreCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "restore [move-id]",
		Short: "Move quarantined files back to their original paths",
		Long: `Restore a quarantined file to its original location using its move
id (see the moves command), or restore everything with --all. A
restore fails if something else now occupies the original path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd, args, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "restore every quarantined file")

	return cmd
}

func runRestore(cmd *cobra.Command, args []string, all bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if all == (len(args) == 1) {
		return fmt.Errorf("specify either a move id or --all")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	env, err := newEnvironment(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	if !all {
		if err := env.engine.RestoreOne(ctx, args[0]); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		if !cfg.Output.Quiet {
			fmt.Println("Restored 1 file(s).")
		}
		return nil
	}

	report, err := env.engine.RestoreAll(ctx)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	printer := output.NewPrinter(os.Stdout, cfg.Output.Quiet)
	printer.RestoreReport(report)

	os.Exit(report.Status.ExitCode())
	return nil
}
