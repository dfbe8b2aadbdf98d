package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/sysinv/internal/models"
)

// writeTestConfig points every path at a temp directory.
func writeTestConfig(t *testing.T) (path, dir string) {
	t.Helper()
	dir = t.TempDir()
	cfg := fmt.Sprintf(`hostname: test-host
database:
  type: sqlite
  connection_string: %q
data:
  directory: %q
collection:
  categories: [cpu, memory, gpu, os]
logging:
  level: warn
  file: %q
`, filepath.Join(dir, "systems.db"), filepath.Join(dir, "data"), filepath.Join(dir, "sysinv.log"))
	path = filepath.Join(dir, "sysinv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0640))
	return path, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		flagConfig, flagOutput, flagCategories = "", "", nil
		flagForce = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCollectThenQuery(t *testing.T) {
	cfgPath, dir := writeTestConfig(t)

	out, err := execute(t, "collect", "--config", cfgPath, "--output", "snap")
	require.NoError(t, err, out)
	assert.Contains(t, out, "test-host")
	assert.FileExists(t, filepath.Join(dir, "data", "snap.json"))

	out, err = execute(t, "read", filepath.Join(dir, "data", "snap.json"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "Host:      test-host")
	assert.Contains(t, out, "gpu")

	out, err = execute(t, "list", "--config", cfgPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "test-host")

	out, err = execute(t, "show", "test-host", "--config", cfgPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"hostname": "test-host"`)

	out, err = execute(t, "health", "--config", cfgPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "healthy")

	out, err = execute(t, "delete", "test-host", "--config", cfgPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Deleted test-host")

	_, err = execute(t, "show", "test-host", "--config", cfgPath)
	assert.Error(t, err)
}

func TestReadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"hostname":"h"}`), 0640))

	_, err := execute(t, "read", path)
	assert.ErrorContains(t, err, "missing key")
}

func TestStatusSummary(t *testing.T) {
	snap := models.Snapshot{Facts: []models.HostFact{
		{Category: models.CategoryCPU, Status: models.OK()},
		{Category: models.CategoryMemory, Status: models.OK()},
		{Category: models.CategoryGPU, Status: models.Unavailable("none")},
	}}
	assert.Equal(t, "2 ok, 1 unavailable", statusSummary(snap))
}

func TestConfigInitThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "sysinv.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Wrote "+path)

	out, err = execute(t, "config", "validate", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "ok (database sqlite, 6 categories)")

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "config", "init", path, "--force")
	require.NoError(t, err, out)
}

func TestConfigValidateReportsProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sysinv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  type: oracle\ncollection:\n  categories: [cpu, fans]\n"), 0640))

	_, err := execute(t, "config", "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
	assert.Contains(t, err.Error(), "fans")

	_, err = execute(t, "config", "validate", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
