package dedupe

import (
	"sort"

	"github.com/sdejongh/duper/pkg/models"
)

// Group is a set of duplicate-flagged records sharing one non-empty
// content hash. Only groups of two or more members reach resolution.
type Group struct {
	Hash    string
	Members []*models.FileRecord
}

// Resolution is the outcome for one group: exactly one keeper stays
// in place, every other member is relocated.
type Resolution struct {
	Keeper   *models.FileRecord
	Relocate []*models.FileRecord
}

// Groups collects the content-hash groups among flagged records.
// Records without a hash never group: unreadable files cannot be
// proven duplicates. Groups are ordered by hash and members by path
// so resolution is reproducible.
func Groups(records []*models.FileRecord) []Group {
	byHash := make(map[string][]*models.FileRecord)
	for _, rec := range records {
		if !rec.IsDuplicate || !rec.HasHash() {
			continue
		}
		byHash[rec.ContentHash] = append(byHash[rec.ContentHash], rec)
	}

	var groups []Group
	for hash, members := range byHash {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			return members[i].Path < members[j].Path
		})
		groups = append(groups, Group{Hash: hash, Members: members})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Hash < groups[j].Hash
	})

	return groups
}

// Resolve scores every member of a group and picks the keeper.
//
// Score components, summed:
//   - 3 when the simplified name is the shortest in the group
//   - 2 when the simplified name is the alphabetically first
//   - 1 when the size is the smallest in the group and non-zero
//
// The keeper is the highest-scoring member; ties go to the
// lexicographically smallest path so repeated runs pick the same
// keeper.
func Resolve(g Group) Resolution {
	minLen := len(g.Members[0].SimplifiedName)
	firstAlpha := g.Members[0].SimplifiedName
	minSize := g.Members[0].SizeBytes

	for _, m := range g.Members[1:] {
		if len(m.SimplifiedName) < minLen {
			minLen = len(m.SimplifiedName)
		}
		if m.SimplifiedName < firstAlpha {
			firstAlpha = m.SimplifiedName
		}
		if m.SizeBytes < minSize {
			minSize = m.SizeBytes
		}
	}

	keeper := g.Members[0]
	keeperScore := -1
	for _, m := range g.Members {
		score := 0
		if len(m.SimplifiedName) == minLen {
			score += 3
		}
		if m.SimplifiedName == firstAlpha {
			score += 2
		}
		if m.SizeBytes == minSize && minSize > 0 {
			score += 1
		}

		// Members are path-sorted, so strict improvement keeps the
		// smallest path among equals
		if score > keeperScore {
			keeper = m
			keeperScore = score
		}
	}

	resolution := Resolution{Keeper: keeper}
	for _, m := range g.Members {
		if m.Path != keeper.Path {
			resolution.Relocate = append(resolution.Relocate, m)
		}
	}

	return resolution
}
