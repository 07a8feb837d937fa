// Package output renders reports for the terminal
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/duper/pkg/models"
)

// Printer writes human-readable reports
type Printer struct {
	writer io.Writer
	quiet  bool
}

// NewPrinter creates a printer. In quiet mode only errors are shown.
func NewPrinter(writer io.Writer, quiet bool) *Printer {
	return &Printer{writer: writer, quiet: quiet}
}

// ScanReport prints a scan summary
func (p *Printer) ScanReport(report *models.ScanReport) {
	if p.quiet {
		p.errorLog(report.ErrorLog)
		return
	}

	kind := "Rescan"
	if report.FirstScan {
		kind = "Full scan"
	}

	fmt.Fprintf(p.writer, "%s of %s completed in %s\n", kind, report.Directory, formatDuration(report.Duration))
	fmt.Fprintf(p.writer, "\n")
	fmt.Fprintf(p.writer, "Summary:\n")
	fmt.Fprintf(p.writer, "  Files processed: %d\n", report.Processed)
	if !report.FirstScan {
		fmt.Fprintf(p.writer, "  Records removed: %d\n", report.Removed)
	}
	fmt.Fprintf(p.writer, "  Errors:          %d\n", report.Errors)
	fmt.Fprintf(p.writer, "\n")
	fmt.Fprintf(p.writer, "Status: %s\n", report.Status)

	p.errorLog(report.ErrorLog)
}

// ResolveReport prints a deduplication summary
func (p *Printer) ResolveReport(report *models.ResolveReport) {
	if p.quiet {
		p.errorLog(report.ErrorLog)
		return
	}

	fmt.Fprintf(p.writer, "Deduplication of %s\n", report.Directory)
	fmt.Fprintf(p.writer, "\n")
	fmt.Fprintf(p.writer, "Summary:\n")
	fmt.Fprintf(p.writer, "  Files considered:  %d\n", report.TotalFiles)
	fmt.Fprintf(p.writer, "  Flagged duplicate: %d\n", report.DuplicateCount)
	fmt.Fprintf(p.writer, "  Content groups:    %d\n", report.GroupCount)
	fmt.Fprintf(p.writer, "  Moved to quarantine: %d\n", report.MovedCount)
	fmt.Fprintf(p.writer, "  Move errors:       %d\n", report.MoveErrors)
	fmt.Fprintf(p.writer, "\n")
	fmt.Fprintf(p.writer, "Status: %s\n", report.Status)

	p.errorLog(report.ErrorLog)
}

// RestoreReport prints a restore-all summary
func (p *Printer) RestoreReport(report *models.RestoreReport) {
	if p.quiet {
		p.errorLog(report.ErrorLog)
		return
	}

	fmt.Fprintf(p.writer, "Restored %d file(s), %d error(s)\n", report.Restored, report.Errors)
	fmt.Fprintf(p.writer, "Status: %s\n", report.Status)

	p.errorLog(report.ErrorLog)
}

// Moves prints the open ledger entries
func (p *Printer) Moves(moves []*models.MoveRecord) {
	if len(moves) == 0 {
		fmt.Fprintf(p.writer, "No quarantined files.\n")
		return
	}

	fmt.Fprintf(p.writer, "%d quarantined file(s):\n\n", len(moves))
	for _, m := range moves {
		fmt.Fprintf(p.writer, "  %s\n", m.ID)
		fmt.Fprintf(p.writer, "    From: %s\n", m.OriginalPath)
		fmt.Fprintf(p.writer, "    To:   %s\n", m.DestinationPath)
		fmt.Fprintf(p.writer, "    When: %s\n", m.MovedAt.Format("2006-01-02 15:04:05"))
	}
}

// Stats prints the per-root totals
func (p *Printer) Stats(stats *models.DirectoryStats) {
	fmt.Fprintf(p.writer, "Directory: %s\n", stats.Directory)
	fmt.Fprintf(p.writer, "  Files:      %d\n", stats.FileCount)
	fmt.Fprintf(p.writer, "  Total size: %s\n", formatBytes(stats.TotalBytes))
	fmt.Fprintf(p.writer, "  Duplicates: %d\n", stats.DuplicateCount)
	if stats.LastScanTime.IsZero() {
		fmt.Fprintf(p.writer, "  Last scan:  never\n")
	} else {
		fmt.Fprintf(p.writer, "  Last scan:  %s\n", stats.LastScanTime.Format("2006-01-02 15:04:05"))
	}
}

func (p *Printer) errorLog(log string) {
	if log == "" {
		return
	}
	fmt.Fprintf(p.writer, "\nErrors:\n%s\n", log)
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
