// Package dedupe decides which files are duplicates and which copy
// of each duplicate set survives. Classification and resolution are
// pure functions over fingerprint records; the Classifier type wires
// them to the store.
package dedupe

import (
	"context"

	"github.com/sdejongh/duper/pkg/logging"
	"github.com/sdejongh/duper/pkg/models"
	"github.com/sdejongh/duper/pkg/store"
)

// Classifier recomputes the potential-duplicate flag for every
// record under a root
type Classifier struct {
	store  *store.Store
	logger logging.Logger
}

// NewClassifier creates a classifier
func NewClassifier(st *store.Store, logger logging.Logger) *Classifier {
	return &Classifier{store: st, logger: logger}
}

// Classify resets every duplicate flag under root and recomputes it
// from scratch. A record is flagged when another record under the
// same root shares its exact filename, or shares its non-empty
// content hash. Returns the flagged and total record counts.
func (c *Classifier) Classify(ctx context.Context, root string) (flagged, total int, err error) {
	records, err := c.store.ListFiles(root)
	if err != nil {
		return 0, 0, err
	}

	duplicates := DuplicatePaths(records)

	if err := c.store.SetDuplicateFlags(root, duplicates); err != nil {
		return 0, 0, err
	}

	c.logger.Info(ctx, "classification complete", logging.Fields{
		"root":    root,
		"total":   len(records),
		"flagged": len(duplicates),
	})

	return len(duplicates), len(records), nil
}

// DuplicatePaths returns the set of paths flagged by either
// duplicate criterion: exact filename match or non-empty
// content-hash match. The two predicates are independent and
// combined by union.
func DuplicatePaths(records []*models.FileRecord) map[string]bool {
	flagged := duplicatesByName(records)
	for path := range duplicatesByHash(records) {
		flagged[path] = true
	}
	return flagged
}

// duplicatesByName flags records sharing an exact filename with
// another record. Content is irrelevant to this criterion.
func duplicatesByName(records []*models.FileRecord) map[string]bool {
	byName := make(map[string][]*models.FileRecord)
	for _, rec := range records {
		byName[rec.Filename] = append(byName[rec.Filename], rec)
	}

	flagged := make(map[string]bool)
	for _, group := range byName {
		if len(group) < 2 {
			continue
		}
		for _, rec := range group {
			flagged[rec.Path] = true
		}
	}
	return flagged
}

// duplicatesByHash flags records sharing a non-empty content hash
// with another record. The empty hash marks an unreadable file and
// never matches, not even another unreadable file.
func duplicatesByHash(records []*models.FileRecord) map[string]bool {
	byHash := make(map[string][]*models.FileRecord)
	for _, rec := range records {
		if !rec.HasHash() {
			continue
		}
		byHash[rec.ContentHash] = append(byHash[rec.ContentHash], rec)
	}

	flagged := make(map[string]bool)
	for _, group := range byHash {
		if len(group) < 2 {
			continue
		}
		for _, rec := range group {
			flagged[rec.Path] = true
		}
	}
	return flagged
}
