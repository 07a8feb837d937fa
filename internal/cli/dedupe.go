package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/duper/pkg/output"
)

var dedupeFlags TargetFlags

// NewDedupeCommand creates the dedupe command
func NewDedupeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe <directory>",
		Short: "Scan a directory and quarantine its duplicates",
		Long: `Scan a directory, flag files sharing a filename or content hash as
duplicates, pick one keeper per identical-content group and move the
others into quarantine. Every move is recorded and can be undone with
the restore command.`,
		Args: cobra.ExactArgs(1),
		RunE: runDedupe,
	}

	addTargetFlags(cmd, &dedupeFlags)

	return cmd
}

func runDedupe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	target := args[0]
	if err := validateTarget(target); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlagsToConfig(cfg, &dedupeFlags); err != nil {
		return err
	}

	env, err := newEnvironment(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	if cfg.Output.Progress && !cfg.Output.Quiet {
		env.engine.SetScanProgress(output.NewProgressBar(os.Stdout))
	}

	printer := output.NewPrinter(os.Stdout, cfg.Output.Quiet)

	// Fingerprints must be current before classification
	scanReport, err := env.engine.Scan(ctx, target)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	printer.ScanReport(scanReport)

	report, err := env.engine.ClassifyAndResolve(ctx, target)
	if err != nil {
		return fmt.Errorf("deduplication failed: %w", err)
	}
	printer.ResolveReport(report)

	if scanReport.Errors > 0 && report.Status.ExitCode() == 0 {
		os.Exit(scanReport.Status.ExitCode())
	}
	os.Exit(report.Status.ExitCode())
	return nil
}
