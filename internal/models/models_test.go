package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []Category
		wantErr bool
	}{
		{"empty means all", nil, AllCategories(), false},
		{"keeps caller order", []string{"os", "cpu"}, []Category{CategoryOS, CategoryCPU}, false},
		{"dedupes", []string{"gpu", "GPU", " gpu "}, []Category{CategoryGPU}, false},
		{"unknown", []string{"cpu", "bogus"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategories(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotJSONFieldOrder(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.UTC)
	snap := Snapshot{
		Hostname:      "host-a",
		CollectedAt:   Timestamp(at),
		SchemaVersion: SchemaVersion,
		Facts: []HostFact{
			{Category: CategoryMemory, Status: OK(), Values: MemoryFacts{TotalBytes: 8, AvailableBytes: 4, UsedBytes: 4}, CollectedAt: Timestamp(at)},
			{Category: CategoryGPU, Status: Unavailable("no GPU found"), CollectedAt: Timestamp(at)},
		},
	}

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, `{"hostname":"host-a","collected_at":"2024-03-01T12:30:45.123Z","schema_version":1,"facts":[`), out)
	assert.Contains(t, out, `{"category":"memory","status":{"code":"ok"},"values":{"total_bytes":8,"available_bytes":4,"used_bytes":4},"collected_at":"2024-03-01T12:30:45.123Z"}`)
	assert.Contains(t, out, `{"category":"gpu","status":{"code":"unavailable","message":"no GPU found"},"values":null,`)

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, snap.Equal(back))
}

func TestHostFactUnmarshalRejectsUnknownCategory(t *testing.T) {
	var f HostFact
	err := json.Unmarshal([]byte(`{"category":"tpu","status":{"code":"ok"},"values":null,"collected_at":"2024-03-01T12:30:45.123Z"}`), &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestDecodeValuesIsTypedPerCategory(t *testing.T) {
	v, err := DecodeValues(CategoryCPU, json.RawMessage(`{"model":"Xeon","logical_cores":8,"physical_cores":4}`))
	require.NoError(t, err)
	cpu, ok := v.(CPUFacts)
	require.True(t, ok)
	assert.Equal(t, "Xeon", cpu.Model)
	require.NotNil(t, cpu.PhysicalCores)
	assert.Equal(t, 4, *cpu.PhysicalCores)

	v, err = DecodeValues(CategoryStorage, json.RawMessage("null"))
	require.NoError(t, err)
	assert.Nil(t, v)
}
