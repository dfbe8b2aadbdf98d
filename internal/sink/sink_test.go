package sink

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Guliveer/sysinv/internal/models"
)

func newSink(t *testing.T) *JSONSink {
	t.Helper()
	s, err := New(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }

func randomTime(r *rand.Rand) time.Time {
	return models.Timestamp(time.Unix(1_600_000_000+r.Int63n(200_000_000), r.Int63n(1e9)))
}

func randomString(r *rand.Rand) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789 -_.\"\\é"
	b := []rune(alphabet)
	n := r.Intn(12)
	out := make([]rune, n)
	for i := range out {
		out[i] = b[r.Intn(len(b))]
	}
	return string(out)
}

func randomValues(r *rand.Rand, c models.Category) models.FactValues {
	switch c {
	case models.CategoryCPU:
		f := models.CPUFacts{Model: randomString(r), Vendor: randomString(r), LogicalCores: r.Intn(128)}
		if r.Intn(2) == 0 {
			f.PhysicalCores = ptr(r.Intn(64))
			f.ClockMHz = ptr(float64(r.Intn(5000)) + 0.5)
		}
		return f
	case models.CategoryMemory:
		return models.MemoryFacts{TotalBytes: r.Uint64(), AvailableBytes: r.Uint64(), UsedBytes: r.Uint64()}
	case models.CategoryStorage:
		var f models.StorageFacts
		for i := 0; i < r.Intn(4); i++ {
			f.Volumes = append(f.Volumes, models.Volume{
				Device: randomString(r), Mountpoint: fmt.Sprintf("/mnt/%d", i), FSType: "ext4",
				TotalBytes: r.Uint64(), FreeBytes: r.Uint64(), UsedBytes: r.Uint64(),
			})
		}
		return f
	case models.CategoryGPU:
		f := models.GPUFacts{Devices: []models.GPUDevice{{Name: randomString(r), MemoryBytes: r.Uint64()}}}
		if r.Intn(2) == 0 {
			f.Devices[0].TemperatureC = ptr(float64(r.Intn(90)))
		}
		return f
	case models.CategoryNetwork:
		return models.NetworkFacts{Interfaces: []models.NetworkInterface{{
			Name: randomString(r), MTU: 1500, Flags: []string{"up"}, Addresses: []string{"10.0.0.1/24"},
		}}}
	case models.CategoryOS:
		return models.OSFacts{
			Family: "linux", Platform: randomString(r), Version: randomString(r),
			Arch: "x86_64", Hostname: randomString(r), BootTime: time.Unix(r.Int63n(2e9), 0).UTC(),
		}
	}
	panic("unhandled category " + c)
}

func randomSnapshot(r *rand.Rand) models.Snapshot {
	cats := models.AllCategories()
	r.Shuffle(len(cats), func(i, j int) { cats[i], cats[j] = cats[j], cats[i] })
	cats = cats[:1+r.Intn(len(cats))]

	snap := models.Snapshot{
		Hostname:      "host-" + randomString(r),
		CollectedAt:   randomTime(r),
		SchemaVersion: models.SchemaVersion,
	}
	for _, c := range cats {
		f := models.HostFact{Category: c, CollectedAt: randomTime(r)}
		switch r.Intn(3) {
		case 0:
			f.Status = models.OK()
			f.Values = randomValues(r, c)
		case 1:
			f.Status = models.Unavailable(randomString(r))
		default:
			f.Status = models.PartialError(randomString(r))
		}
		snap.Facts = append(snap.Facts, f)
	}
	return snap
}

func TestRoundTripRandomSnapshots(t *testing.T) {
	s := newSink(t)
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		snap := randomSnapshot(r)

		path, err := s.Write(snap, fmt.Sprintf("snap-%03d", i))
		require.NoError(t, err)

		got, err := s.Read(path)
		require.NoError(t, err)
		require.True(t, snap.Equal(got), "snapshot %d did not round-trip:\nwant %+v\ngot  %+v", i, snap, got)
	}
}

func TestWriteIsByteStable(t *testing.T) {
	s := newSink(t)
	snap := randomSnapshot(rand.New(rand.NewSource(7)))

	p1, err := s.Write(snap, "a")
	require.NoError(t, err)
	got, err := s.Read(p1)
	require.NoError(t, err)
	p2, err := s.Write(got, "b")
	require.NoError(t, err)

	b1, _ := os.ReadFile(p1)
	b2, _ := os.ReadFile(p2)
	assert.Equal(t, string(b1), string(b2))
	assert.True(t, strings.HasPrefix(string(b1), "{\n  \"hostname\""))
}

func TestFileName(t *testing.T) {
	snap := models.Snapshot{CollectedAt: time.Date(2024, 3, 1, 9, 5, 7, 123e6, time.UTC)}

	tests := []struct {
		name string
		want string
	}{
		{"", "system_info_20240301_090507.json"},
		{"inventory", "inventory.json"},
		{"inventory.json", "inventory.json"},
		{"report.JSON", "report.JSON"},
		{"report.Json", "report.Json"},
		{"inventory.json.bak", "inventory.json.bak.json"},
		{"nested/name", "nested/name.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(snap, tt.name))
		})
	}
}

func TestWritePlacesFiles(t *testing.T) {
	s := newSink(t)
	snap := models.Snapshot{Hostname: "h", CollectedAt: time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC), SchemaVersion: 1}

	path, err := s.Write(snap, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "system_info_20240301_090507.json"), path)

	abs := filepath.Join(t.TempDir(), "elsewhere", "out.json")
	path, err = s.Write(snap, abs)
	require.NoError(t, err)
	assert.Equal(t, abs, path)
	assert.FileExists(t, abs)

	// Only the committed files remain; no temp files are left behind.
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadMissingSchemaVersionLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	content := []byte(`{"hostname":"h","collected_at":"2024-03-01T09:05:07.000Z","facts":[]}`)
	require.NoError(t, os.WriteFile(path, content, 0640))
	before, err := os.Stat(path)
	require.NoError(t, err)

	_, err = ReadFile(path)

	var malformed *MalformedDataError
	require.True(t, errors.As(err, &malformed), "want *MalformedDataError, got %v", err)
	assert.Contains(t, malformed.Reason, "schema_version")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, after)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), info.ModTime())
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not an object", `[1,2]`, "not a JSON object"},
		{"missing hostname", `{"collected_at":"2024-03-01T09:05:07.000Z","schema_version":1,"facts":[]}`, "missing key hostname"},
		{"missing facts", `{"hostname":"h","collected_at":"2024-03-01T09:05:07.000Z","schema_version":1}`, "missing key facts"},
		{"hostname wrong type", `{"hostname":5,"collected_at":"2024-03-01T09:05:07.000Z","schema_version":1,"facts":[]}`, "hostname"},
		{"hostname null", `{"hostname":null,"collected_at":"2024-03-01T09:05:07.000Z","schema_version":1,"facts":[]}`, "hostname"},
		{"bad timestamp", `{"hostname":"h","collected_at":"yesterday","schema_version":1,"facts":[]}`, "collected_at"},
		{"schema as string", `{"hostname":"h","collected_at":"2024-03-01T09:05:07.000Z","schema_version":"1","facts":[]}`, "schema_version"},
		{"schema fractional", `{"hostname":"h","collected_at":"2024-03-01T09:05:07.000Z","schema_version":1.5,"facts":[]}`, "schema_version"},
		{"facts object", `{"hostname":"h","collected_at":"2024-03-01T09:05:07.000Z","schema_version":1,"facts":{}}`, "facts"},
		{"unknown category", `{"hostname":"h","collected_at":"2024-03-01T09:05:07.000Z","schema_version":1,"facts":[{"category":"fan","status":{"code":"ok"},"values":null,"collected_at":"2024-03-01T09:05:07.000Z"}]}`, "facts[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("doc.json", []byte(tt.doc))
			var malformed *MalformedDataError
			require.True(t, errors.As(err, &malformed), "want *MalformedDataError, got %v", err)
			assert.Contains(t, malformed.Error(), tt.want)
		})
	}
}

func TestDecodeNewerSchema(t *testing.T) {
	doc := fmt.Sprintf(`{"hostname":"h","collected_at":"2024-03-01T09:05:07.000Z","schema_version":%d,"facts":[]}`,
		models.SchemaVersion+1)

	_, err := Decode("doc.json", []byte(doc))

	var unsupported *UnsupportedSchemaError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, models.SchemaVersion+1, unsupported.Version)
}

func TestPrune(t *testing.T) {
	s := newSink(t)
	now := time.Now()
	snap := models.Snapshot{Hostname: "h", CollectedAt: now, SchemaVersion: 1}

	oldPath, err := s.Write(snap, "old")
	require.NoError(t, err)
	upperPath, err := s.Write(snap, "legacy.JSON")
	require.NoError(t, err)
	assert.Equal(t, "legacy.JSON", filepath.Base(upperPath))
	newPath, err := s.Write(snap, "new")
	require.NoError(t, err)
	for _, p := range []string{oldPath, upperPath} {
		require.NoError(t, os.Chtimes(p, now.Add(-48*time.Hour), now.Add(-48*time.Hour)))
	}

	removed, err := s.Prune(now.Add(-24 * time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, removed)
	assert.NoFileExists(t, oldPath)
	assert.NoFileExists(t, upperPath)
	assert.FileExists(t, newPath)

	files, err := s.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{newPath}, files)
}
