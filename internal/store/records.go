package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Guliveer/sysinv/internal/models"
)

// upsertColumns are overwritten when a hostname already has a record.
// id and created_at are never touched.
var upsertColumns = []string{"collected_at", "schema_version", "facts", "updated_at"}

// errConflict marks an upsert whose update fallback also failed.
type errConflict struct{ err error }

func (e errConflict) Error() string { return e.err.Error() }
func (e errConflict) Unwrap() error { return e.err }

// Upsert inserts the snapshot or replaces the facts of the existing record
// for its hostname, in a single statement. If the statement still hits the
// unique index it is retried once as a plain update. The returned record is
// read back in the same transaction, so it always carries this snapshot.
func (s *Store) Upsert(ctx context.Context, snap models.Snapshot) (models.PersistedRecord, error) {
	db, err := s.conn("upsert")
	if err != nil {
		return models.PersistedRecord{}, err
	}
	if snap.Hostname == "" {
		return models.PersistedRecord{}, &PersistenceError{Op: "upsert", Kind: KindQuery, Err: errors.New("empty hostname")}
	}

	row, err := toRow(snap)
	if err != nil {
		return models.PersistedRecord{}, &PersistenceError{Op: "upsert", Kind: KindQuery, Err: err}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rec models.PersistedRecord
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The insert runs under a savepoint so a failed statement leaves
		// the transaction usable for the update fallback.
		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "hostname"}},
				DoUpdates: clause.AssignmentColumns(upsertColumns),
			}).Create(&row).Error
		})
		if isDuplicateKey(err) {
			s.logger.Warn("Upsert hit a duplicate key, retrying as update",
				zap.String("hostname", snap.Hostname),
				zap.Error(err))
			if err := s.update(ctx, tx, row); err != nil {
				return errConflict{err}
			}
			err = nil
		}
		if err != nil {
			return err
		}

		rec, err = s.find(ctx, tx, snap.Hostname)
		return err
	})
	if err != nil {
		kind := KindQuery
		var conflict errConflict
		if errors.As(err, &conflict) {
			kind, err = KindConflict, conflict.err
		}
		return models.PersistedRecord{}, s.fail(ctx, "upsert", kind, err)
	}
	return rec, nil
}

func (s *Store) update(ctx context.Context, db *gorm.DB, row systemRow) error {
	res := db.WithContext(ctx).Model(&systemRow{}).
		Where("hostname = ?", row.Hostname).
		Updates(map[string]interface{}{
			"collected_at":   row.CollectedAt,
			"schema_version": row.SchemaVersion,
			"facts":          row.Facts,
			"updated_at":     models.Timestamp(s.now()),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no record for %s to update", row.Hostname)
	}
	return nil
}

// isDuplicateKey recognizes unique-constraint violations. Drivers without
// error translation are matched on their message.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"UNIQUE constraint failed",
		"Duplicate entry",
		"duplicate key value",
		"Cannot insert duplicate key",
		"Violation of UNIQUE KEY",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (s *Store) find(ctx context.Context, db *gorm.DB, hostname string) (models.PersistedRecord, error) {
	var row systemRow
	err := db.WithContext(ctx).Where("hostname = ?", hostname).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PersistedRecord{}, fmt.Errorf("%s: %w", hostname, ErrNotFound)
	}
	if err != nil {
		return models.PersistedRecord{}, err
	}
	return row.record()
}

// Get returns the record for hostname. A missing record is reported with
// an error wrapping ErrNotFound.
func (s *Store) Get(ctx context.Context, hostname string) (models.PersistedRecord, error) {
	db, err := s.conn("get")
	if err != nil {
		return models.PersistedRecord{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.find(ctx, db, hostname)
	if errors.Is(err, ErrNotFound) {
		return models.PersistedRecord{}, err
	}
	if err != nil {
		return models.PersistedRecord{}, s.fail(ctx, "get", KindQuery, err)
	}
	return rec, nil
}

// List returns all records ordered by hostname.
func (s *Store) List(ctx context.Context) ([]models.PersistedRecord, error) {
	db, err := s.conn("list")
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []systemRow
	if err := db.WithContext(ctx).Order("hostname").Find(&rows).Error; err != nil {
		return nil, s.fail(ctx, "list", KindQuery, err)
	}

	records := make([]models.PersistedRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, &PersistenceError{Op: "list", Kind: KindQuery, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes the record for hostname and reports whether one existed.
func (s *Store) Delete(ctx context.Context, hostname string) (bool, error) {
	db, err := s.conn("delete")
	if err != nil {
		return false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := db.WithContext(ctx).Where("hostname = ?", hostname).Delete(&systemRow{})
	if res.Error != nil {
		return false, s.fail(ctx, "delete", KindQuery, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteStale removes records not updated since before and returns how many
// were removed.
func (s *Store) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	db, err := s.conn("delete stale")
	if err != nil {
		return 0, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := db.WithContext(ctx).Where("updated_at < ?", models.Timestamp(before)).Delete(&systemRow{})
	if res.Error != nil {
		return 0, s.fail(ctx, "delete stale", KindQuery, res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("Removed stale records",
			zap.Int64("removed", res.RowsAffected),
			zap.Time("before", before))
	}
	return res.RowsAffected, nil
}
