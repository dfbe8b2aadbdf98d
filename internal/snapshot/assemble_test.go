package snapshot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/sysinv/internal/models"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func okFact(c models.Category, v models.FactValues, at time.Time) models.HostFact {
	return models.HostFact{Category: c, Status: models.OK(), Values: v, CollectedAt: at}
}

func TestAssembleOrdersFactsAndStampsTime(t *testing.T) {
	a := NewAssembler(fixedClock(base.Add(1500 * time.Microsecond)))
	requested := []models.Category{models.CategoryCPU, models.CategoryGPU, models.CategoryMemory}
	facts := []models.HostFact{
		okFact(models.CategoryMemory, models.MemoryFacts{TotalBytes: 1}, base),
		{Category: models.CategoryGPU, Status: models.Unavailable("no probe"), CollectedAt: base},
		okFact(models.CategoryCPU, models.CPUFacts{Model: "x"}, base),
	}

	snap, err := a.Assemble("ws-01", requested, facts)
	require.NoError(t, err)

	assert.Equal(t, "ws-01", snap.Hostname)
	assert.Equal(t, models.SchemaVersion, snap.SchemaVersion)
	assert.Equal(t, requested, snap.Categories())
	assert.Equal(t, base.Add(time.Millisecond), snap.CollectedAt)
}

func TestAssembleNeverEarlierThanLatestFact(t *testing.T) {
	late := base.Add(time.Hour)
	a := NewAssembler(fixedClock(base))

	snap, err := a.Assemble("ws-01", []models.Category{models.CategoryMemory, models.CategoryCPU}, []models.HostFact{
		okFact(models.CategoryMemory, models.MemoryFacts{}, base.Add(-time.Minute)),
		okFact(models.CategoryCPU, models.CPUFacts{}, late),
	})
	require.NoError(t, err)
	assert.False(t, snap.CollectedAt.Before(late))
}

func TestAssembleRejectsContractViolations(t *testing.T) {
	cpu := okFact(models.CategoryCPU, models.CPUFacts{}, base)
	mem := okFact(models.CategoryMemory, models.MemoryFacts{}, base)
	both := []models.Category{models.CategoryCPU, models.CategoryMemory}

	tests := []struct {
		name      string
		hostname  string
		requested []models.Category
		facts     []models.HostFact
		want      string
	}{
		{"empty hostname", "", both, []models.HostFact{cpu, mem}, "empty hostname"},
		{"nothing requested", "h", nil, nil, "no categories"},
		{"requested twice", "h", []models.Category{models.CategoryCPU, models.CategoryCPU}, []models.HostFact{cpu}, "requested twice"},
		{"unknown requested", "h", []models.Category{"fan"}, nil, "unknown category"},
		{"duplicate fact", "h", both, []models.HostFact{cpu, mem, cpu}, "duplicate cpu"},
		{"missing fact", "h", both, []models.HostFact{cpu}, "missing memory"},
		{"unexpected fact", "h", []models.Category{models.CategoryCPU}, []models.HostFact{cpu, mem}, "unexpected memory"},
		{"invalid status", "h", []models.Category{models.CategoryCPU},
			[]models.HostFact{{Category: models.CategoryCPU, Status: models.Status{Code: "weird"}}}, "invalid status"},
		{"ok without values", "h", []models.Category{models.CategoryCPU},
			[]models.HostFact{{Category: models.CategoryCPU, Status: models.OK()}}, "no cpu values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAssembler(nil).Assemble(tt.hostname, tt.requested, tt.facts)

			var aerr *AssemblyError
			require.True(t, errors.As(err, &aerr), "want *AssemblyError, got %v", err)
			assert.Contains(t, aerr.Reason, tt.want)
		})
	}
}
