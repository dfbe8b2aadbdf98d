// Package snapshot assembles per-category facts into a single immutable,
// timestamped Snapshot.
package snapshot

import (
	"fmt"
	"time"

	"github.com/Guliveer/sysinv/internal/models"
)

// AssemblyError reports a fact sequence that breaks the collector contract:
// a missing, duplicate or unexpected category, or an invalid status.
type AssemblyError struct {
	Reason string
}

func (e *AssemblyError) Error() string {
	return "assembly error: " + e.Reason
}

func assemblyErrorf(format string, args ...any) *AssemblyError {
	return &AssemblyError{Reason: fmt.Sprintf(format, args...)}
}

// Assembler builds Snapshots. The zero value uses time.Now.
type Assembler struct {
	now func() time.Time
}

// NewAssembler returns an Assembler stamping snapshots with the given clock.
// A nil clock means time.Now.
func NewAssembler(now func() time.Time) *Assembler {
	return &Assembler{now: now}
}

// Assemble checks that facts hold exactly one entry per requested category
// and returns them as a Snapshot ordered like requested.
//
// collected_at is the current time, or the latest fact time if the clock is
// behind it, so the snapshot is never older than its facts.
func (a *Assembler) Assemble(hostname string, requested []models.Category, facts []models.HostFact) (models.Snapshot, error) {
	if hostname == "" {
		return models.Snapshot{}, assemblyErrorf("empty hostname")
	}
	if len(requested) == 0 {
		return models.Snapshot{}, assemblyErrorf("no categories requested")
	}

	want := make(map[models.Category]int, len(requested))
	for i, c := range requested {
		if !c.Valid() {
			return models.Snapshot{}, assemblyErrorf("unknown category %q requested", c)
		}
		if _, dup := want[c]; dup {
			return models.Snapshot{}, assemblyErrorf("category %s requested twice", c)
		}
		want[c] = i
	}

	ordered := make([]models.HostFact, len(requested))
	seen := make([]bool, len(requested))
	var latest time.Time
	for _, f := range facts {
		i, ok := want[f.Category]
		if !ok {
			return models.Snapshot{}, assemblyErrorf("unexpected %s fact", f.Category)
		}
		if seen[i] {
			return models.Snapshot{}, assemblyErrorf("duplicate %s fact", f.Category)
		}
		if !f.Status.Valid() {
			return models.Snapshot{}, assemblyErrorf("%s fact has invalid status %q", f.Category, f.Status.Code)
		}
		if f.Status.Code == models.StatusOK && (f.Values == nil || f.Values.Category() != f.Category) {
			return models.Snapshot{}, assemblyErrorf("%s fact is ok but carries no %s values", f.Category, f.Category)
		}
		seen[i] = true
		ordered[i] = f
		if f.CollectedAt.After(latest) {
			latest = f.CollectedAt
		}
	}
	for i, ok := range seen {
		if !ok {
			return models.Snapshot{}, assemblyErrorf("missing %s fact", requested[i])
		}
	}

	now := a.clock()()
	if latest.After(now) {
		now = latest
	}

	return models.Snapshot{
		Hostname:      hostname,
		CollectedAt:   models.Timestamp(now),
		SchemaVersion: models.SchemaVersion,
		Facts:         ordered,
	}, nil
}

func (a *Assembler) clock() func() time.Time {
	if a == nil || a.now == nil {
		return time.Now
	}
	return a.now
}
