package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the snapshot schema written by this build.
const SchemaVersion = 1

// TimeLayout is the wire format for timestamps: ISO-8601, UTC, millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Timestamp normalizes t to UTC with millisecond precision, the resolution
// preserved by the JSON encoding.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// HostFact is one category's measurement and how it was obtained.
// Values is nil unless Status.Code is StatusOK.
type HostFact struct {
	Category    Category
	Status      Status
	Values      FactValues
	CollectedAt time.Time
}

// Snapshot is one immutable capture of all requested host facts.
type Snapshot struct {
	Hostname      string
	CollectedAt   time.Time
	SchemaVersion int
	Facts         []HostFact
}

// PersistedRecord is a Snapshot plus store-assigned identity and audit timestamps.
type PersistedRecord struct {
	ID        uint
	Snapshot  Snapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fact returns the fact recorded for c, if any.
func (s Snapshot) Fact(c Category) (HostFact, bool) {
	for _, f := range s.Facts {
		if f.Category == c {
			return f, true
		}
	}
	return HostFact{}, false
}

// Categories returns the categories of the recorded facts in order.
func (s Snapshot) Categories() []Category {
	cats := make([]Category, len(s.Facts))
	for i, f := range s.Facts {
		cats[i] = f.Category
	}
	return cats
}

// Equal reports whether two snapshots carry the same data. Timestamps are
// compared as instants and values by their encoded form.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Hostname != o.Hostname || s.SchemaVersion != o.SchemaVersion ||
		!s.CollectedAt.Equal(o.CollectedAt) || len(s.Facts) != len(o.Facts) {
		return false
	}
	for i := range s.Facts {
		if !s.Facts[i].Equal(o.Facts[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two facts carry the same data.
func (f HostFact) Equal(o HostFact) bool {
	if f.Category != o.Category || f.Status != o.Status || !f.CollectedAt.Equal(o.CollectedAt) {
		return false
	}
	a, errA := json.Marshal(f.Values)
	b, errB := json.Marshal(o.Values)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

type hostFactJSON struct {
	Category    Category        `json:"category"`
	Status      Status          `json:"status"`
	Values      json.RawMessage `json:"values"`
	CollectedAt string          `json:"collected_at"`
}

// MarshalJSON encodes the fact with fields in the order
// category, status, values, collected_at.
func (f HostFact) MarshalJSON() ([]byte, error) {
	values := json.RawMessage("null")
	if f.Values != nil {
		data, err := json.Marshal(f.Values)
		if err != nil {
			return nil, fmt.Errorf("encoding %s values: %w", f.Category, err)
		}
		values = data
	}
	return json.Marshal(hostFactJSON{
		Category:    f.Category,
		Status:      f.Status,
		Values:      values,
		CollectedAt: f.CollectedAt.UTC().Format(TimeLayout),
	})
}

// UnmarshalJSON decodes a fact, resolving Values by its category.
func (f *HostFact) UnmarshalJSON(data []byte) error {
	var raw hostFactJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Category.Valid() {
		return fmt.Errorf("unknown category %q", raw.Category)
	}
	if !raw.Status.Valid() {
		return fmt.Errorf("%s: unknown status %q", raw.Category, raw.Status.Code)
	}
	collectedAt, err := ParseTime(raw.CollectedAt)
	if err != nil {
		return fmt.Errorf("%s: collected_at: %w", raw.Category, err)
	}
	values, err := DecodeValues(raw.Category, raw.Values)
	if err != nil {
		return fmt.Errorf("%s: values: %w", raw.Category, err)
	}
	*f = HostFact{
		Category:    raw.Category,
		Status:      raw.Status,
		Values:      values,
		CollectedAt: collectedAt,
	}
	return nil
}

type snapshotJSON struct {
	Hostname      string     `json:"hostname"`
	CollectedAt   string     `json:"collected_at"`
	SchemaVersion int        `json:"schema_version"`
	Facts         []HostFact `json:"facts"`
}

// MarshalJSON encodes the snapshot with fields in the order
// hostname, collected_at, schema_version, facts.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	facts := s.Facts
	if facts == nil {
		facts = []HostFact{}
	}
	return json.Marshal(snapshotJSON{
		Hostname:      s.Hostname,
		CollectedAt:   s.CollectedAt.UTC().Format(TimeLayout),
		SchemaVersion: s.SchemaVersion,
		Facts:         facts,
	})
}

// UnmarshalJSON decodes a snapshot. Key presence and schema checks are left
// to callers that need them.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	collectedAt, err := ParseTime(raw.CollectedAt)
	if err != nil {
		return fmt.Errorf("collected_at: %w", err)
	}
	*s = Snapshot{
		Hostname:      raw.Hostname,
		CollectedAt:   collectedAt,
		SchemaVersion: raw.SchemaVersion,
		Facts:         raw.Facts,
	}
	return nil
}

// ParseTime parses an ISO-8601 timestamp and returns it in UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
