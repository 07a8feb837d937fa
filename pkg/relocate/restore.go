package relocate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sdejongh/duper/pkg/logging"
	"github.com/sdejongh/duper/pkg/models"
	"github.com/sdejongh/duper/pkg/store"
)

// Restorer reverses ledger entries, moving quarantined files back to
// their original paths. It touches only the ledger and the
// filesystem: restored files are not re-registered in the
// fingerprint store, so a rescan is needed to pick them up again.
type Restorer struct {
	store  *store.Store
	logger logging.Logger
}

// NewRestorer creates a restorer
func NewRestorer(st *store.Store, logger logging.Logger) *Restorer {
	return &Restorer{store: st, logger: logger}
}

// RestoreOne reverses the ledger entry with the given id. The entry
// is deleted only after the file is back at its original path; on
// failure the entry stays so the restore can be retried.
func (r *Restorer) RestoreOne(ctx context.Context, id string) error {
	move, err := r.store.GetMove(id)
	if err != nil {
		return err
	}

	if err := r.restore(ctx, move); err != nil {
		return err
	}

	return nil
}

// RestoreAll reverses every ledger entry. Failed entries are kept
// and counted; the batch always runs to completion.
func (r *Restorer) RestoreAll(ctx context.Context) (*models.RestoreReport, error) {
	moves, err := r.store.ListMoves()
	if err != nil {
		return nil, err
	}

	report := &models.RestoreReport{}
	var errLines []string

	for _, move := range moves {
		if err := r.restore(ctx, move); err != nil {
			report.Errors++
			errLines = append(errLines, fmt.Sprintf("failed to restore '%s': %v", move.OriginalPath, err))
			r.logger.Error(ctx, "restore failed", err, logging.Fields{
				"id":       move.ID,
				"original": move.OriginalPath,
			})
			continue
		}
		report.Restored++
	}

	report.ErrorLog = strings.Join(errLines, "\n")
	report.Status = models.StatusFor(report.Errors)
	return report, nil
}

func (r *Restorer) restore(ctx context.Context, move *models.MoveRecord) error {
	// Refuse to clobber whatever now occupies the original path
	if _, err := os.Stat(move.OriginalPath); err == nil {
		return fmt.Errorf("original path is occupied: %s", move.OriginalPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check original path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(move.OriginalPath), 0755); err != nil {
		return fmt.Errorf("failed to create original directory: %w", err)
	}

	if err := moveFile(move.DestinationPath, move.OriginalPath); err != nil {
		return err
	}

	if err := r.store.DeleteMove(move.ID); err != nil {
		return fmt.Errorf("failed to close ledger entry: %w", err)
	}

	r.logger.Info(ctx, "restored file", logging.Fields{
		"id":       move.ID,
		"original": move.OriginalPath,
	})

	return nil
}
