package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/Guliveer/sysinv/internal/models"
)

// systemRow is the persisted form of a snapshot. One row per hostname.
type systemRow struct {
	ID            uint           `gorm:"primaryKey;autoIncrement"`
	Hostname      string         `gorm:"column:hostname;size:255;not null;uniqueIndex:idx_systems_hostname"`
	CollectedAt   time.Time      `gorm:"column:collected_at;not null"`
	SchemaVersion int            `gorm:"column:schema_version;not null"`
	Facts         datatypes.JSON `gorm:"column:facts;not null"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null"`
}

func (systemRow) TableName() string { return "systems" }

func toRow(snap models.Snapshot) (systemRow, error) {
	facts := snap.Facts
	if facts == nil {
		facts = []models.HostFact{}
	}
	data, err := json.Marshal(facts)
	if err != nil {
		return systemRow{}, fmt.Errorf("encode facts: %w", err)
	}
	return systemRow{
		Hostname:      snap.Hostname,
		CollectedAt:   models.Timestamp(snap.CollectedAt),
		SchemaVersion: snap.SchemaVersion,
		Facts:         datatypes.JSON(data),
	}, nil
}

func (r systemRow) record() (models.PersistedRecord, error) {
	var facts []models.HostFact
	if err := json.Unmarshal(r.Facts, &facts); err != nil {
		return models.PersistedRecord{}, fmt.Errorf("decode facts of %s: %w", r.Hostname, err)
	}
	return models.PersistedRecord{
		ID: r.ID,
		Snapshot: models.Snapshot{
			Hostname:      r.Hostname,
			CollectedAt:   models.Timestamp(r.CollectedAt),
			SchemaVersion: r.SchemaVersion,
			Facts:         facts,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}, nil
}
