package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/duper/pkg/output"
)

var scanFlags TargetFlags

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Fingerprint the files under a directory",
		Long: `Scan a directory and record a fingerprint (content hash, size,
timestamps) for every eligible file. The first scan of a directory
processes everything; later scans only reconcile additions and
removals.`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	addTargetFlags(cmd, &scanFlags)

	return cmd
}

// addTargetFlags registers the flags shared by scan and dedupe
func addTargetFlags(cmd *cobra.Command, flags *TargetFlags) {
	cmd.Flags().StringVarP(&flags.Mode, "mode", "m", "", "directory layout: flat, hierarchical")
	cmd.Flags().IntVar(&flags.MinDirFiles, "min-dir-files", -1, "hierarchical mode: minimum direct files before a subdirectory is scanned")
	cmd.Flags().StringVarP(&flags.WorkDir, "work-dir", "w", "", "working directory for the database and quarantine")
	cmd.Flags().StringVar(&flags.Quarantine, "quarantine", "", "quarantine directory (default: <work-dir>/quarantine)")
	cmd.Flags().StringVarP(&flags.Bandwidth, "bandwidth", "b", "", "hashing read limit (e.g., \"10M\", \"1G\")")

	// Logging flags
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&flags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

func runScan(cmd *cobra.Command, args []string) error {
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
	if err := applyFlagsToConfig(cfg, &scanFlags); err != nil {
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

	report, err := env.engine.Scan(ctx, target)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	printer := output.NewPrinter(os.Stdout, cfg.Output.Quiet)
	printer.ScanReport(report)

	os.Exit(report.Status.ExitCode())
	return nil
}
