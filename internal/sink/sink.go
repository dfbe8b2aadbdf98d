// Package sink writes snapshots to JSON files and reads them back.
// Files are written atomically: a reader never observes a partially written
// snapshot, and an existing file is only ever replaced whole.
package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/sysinv/internal/models"
)

const (
	filePrefix = "system_info_"
	fileExt    = ".json"
	nameLayout = "20060102_150405"
)

// JSONSink stores one snapshot per file under a data directory.
type JSONSink struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

// New creates a sink rooted at dir. The directory is created if it does not exist.
func New(dir string, logger *zap.Logger) (*JSONSink, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &JSONSink{dir: dir, logger: logger}, nil
}

// Dir returns the data directory.
func (s *JSONSink) Dir() string { return s.dir }

// FileName returns the file name for snap. Without an explicit name it is
// system_info_<collected_at as YYYYMMDD_HHMMSS>.json; an explicit name is
// kept verbatim with .json appended unless already present.
func FileName(snap models.Snapshot, name string) string {
	if name == "" {
		return filePrefix + snap.CollectedAt.UTC().Format(nameLayout) + fileExt
	}
	if isSnapshotFile(name) {
		return name
	}
	return name + fileExt
}

// isSnapshotFile matches the .json extension in any case.
func isSnapshotFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), fileExt)
}

// Path resolves where Write would place snap. Relative names are placed in
// the data directory, absolute names are used as given.
func (s *JSONSink) Path(snap models.Snapshot, name string) string {
	file := FileName(snap, name)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.dir, file)
}

// Encode renders snap as the indented JSON document written to disk.
func Encode(snap models.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write serializes snap and returns the path written. The document goes to a
// temporary file in the target directory first and is renamed into place.
func (s *JSONSink) Write(snap models.Snapshot, name string) (string, error) {
	data, err := Encode(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	path := s.Path(snap, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(path, data); err != nil {
		return "", err
	}

	s.logger.Debug("Snapshot written",
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return path, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0640); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	committed = true
	return nil
}

// Read parses the snapshot stored at path. The file is never modified.
func (s *JSONSink) Read(path string) (models.Snapshot, error) {
	return ReadFile(path)
}

// ReadFile parses and validates a snapshot file.
func ReadFile(path string) (models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Snapshot{}, err
	}
	return Decode(path, data)
}

// Decode validates and parses a snapshot document. path is only used in errors.
func Decode(path string, data []byte) (models.Snapshot, error) {
	malformed := func(reason string, err error) error {
		return &MalformedDataError{Path: path, Reason: reason, Err: err}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Snapshot{}, malformed("not a JSON object", err)
	}

	for _, key := range []string{"hostname", "collected_at", "schema_version", "facts"} {
		if _, ok := doc[key]; !ok {
			return models.Snapshot{}, malformed("missing key "+key, nil)
		}
	}

	var snap models.Snapshot

	if err := json.Unmarshal(doc["hostname"], &snap.Hostname); err != nil || isNull(doc["hostname"]) {
		return models.Snapshot{}, malformed("hostname must be a string", err)
	}

	var collectedAt string
	if err := json.Unmarshal(doc["collected_at"], &collectedAt); err != nil || isNull(doc["collected_at"]) {
		return models.Snapshot{}, malformed("collected_at must be a string", err)
	}
	t, err := models.ParseTime(collectedAt)
	if err != nil {
		return models.Snapshot{}, malformed("collected_at is not an ISO-8601 timestamp", err)
	}
	snap.CollectedAt = t

	// json.Number also accepts numeric strings, which are not valid here.
	var version json.Number
	if raw := bytes.TrimSpace(doc["schema_version"]); len(raw) == 0 || raw[0] == '"' {
		return models.Snapshot{}, malformed("schema_version must be an integer", nil)
	}
	if err := json.Unmarshal(doc["schema_version"], &version); err != nil || isNull(doc["schema_version"]) {
		return models.Snapshot{}, malformed("schema_version must be an integer", err)
	}
	v, err := version.Int64()
	if err != nil || v < 1 {
		return models.Snapshot{}, malformed("schema_version must be a positive integer", err)
	}
	if v > models.SchemaVersion {
		return models.Snapshot{}, &UnsupportedSchemaError{Path: path, Version: int(v), Supported: models.SchemaVersion}
	}
	snap.SchemaVersion = int(v)

	var rawFacts []json.RawMessage
	if err := json.Unmarshal(doc["facts"], &rawFacts); err != nil || isNull(doc["facts"]) {
		return models.Snapshot{}, malformed("facts must be an array", err)
	}
	snap.Facts = make([]models.HostFact, 0, len(rawFacts))
	seen := make(map[models.Category]bool, len(rawFacts))
	for i, raw := range rawFacts {
		var f models.HostFact
		if err := json.Unmarshal(raw, &f); err != nil {
			return models.Snapshot{}, malformed(fmt.Sprintf("facts[%d]", i), err)
		}
		if seen[f.Category] {
			return models.Snapshot{}, malformed(fmt.Sprintf("facts[%d]: duplicate category %s", i, f.Category), nil)
		}
		seen[f.Category] = true
		snap.Facts = append(snap.Facts, f)
	}

	return snap, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Files lists the JSON files in the data directory, oldest name first.
func (s *JSONSink) Files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isSnapshotFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Prune removes snapshot files last modified before cutoff and returns how
// many were removed. Files that cannot be removed are logged and skipped.
func (s *JSONSink) Prune(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.Files()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("Failed to remove expired snapshot",
				zap.String("file", path),
				zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("Pruned expired snapshots",
			zap.Int("removed", removed),
			zap.Time("cutoff", cutoff))
	}
	return removed, nil
}
