// Package store persists snapshots in a relational database, one record per
// hostname. It is backed by GORM and supports sqlite, postgres, mysql and
// sqlserver.
//
// Every operation is bounded by the configured timeout and every failure is
// reported as a *PersistenceError. The store never retries a failed
// connection; callers own the retry policy.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"github.com/Guliveer/sysinv/internal/models"
)

// Supported database types.
const (
	TypeSQLite    = "sqlite"
	TypePostgres  = "postgres"
	TypeMySQL     = "mysql"
	TypeSQLServer = "sqlserver"
)

// defaultBusyTimeout applies to sqlite when no store timeout is configured.
const defaultBusyTimeout = 5 * time.Second

// Config selects and bounds the database connection.
type Config struct {
	Type             string
	ConnectionString string
	Timeout          time.Duration
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the clock used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Health is the result of a connectivity probe.
type Health struct {
	Healthy bool
	Reason  string
}

func (h Health) String() string {
	if h.Healthy {
		return "healthy"
	}
	return "unreachable: " + h.Reason
}

// Store owns a single database handle between Connect and Disconnect.
type Store struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu sync.RWMutex
	db *gorm.DB
}

// New creates a disconnected store. It does not touch the database.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeType maps accepted aliases to a supported database type.
func NormalizeType(t string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "sqlite", "sqlite3":
		return TypeSQLite, nil
	case "postgres", "postgresql", "pgsql":
		return TypePostgres, nil
	case "mysql", "mariadb":
		return TypeMySQL, nil
	case "sqlserver", "mssql":
		return TypeSQLServer, nil
	default:
		return "", fmt.Errorf("unsupported database type %q", t)
	}
}

func (s *Store) dialector() (gorm.Dialector, error) {
	typ, err := NormalizeType(s.cfg.Type)
	if err != nil {
		return nil, err
	}
	dsn := s.cfg.ConnectionString
	if dsn == "" {
		return nil, errors.New("empty connection string")
	}

	switch typ {
	case TypeSQLite:
		if path := sqlitePath(dsn); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		return sqlite.Open(s.sqliteDSN(dsn)), nil
	case TypePostgres:
		return postgres.Open(dsn), nil
	case TypeMySQL:
		return mysql.New(mysql.Config{DSN: dsn, SkipInitializeWithVersion: true}), nil
	default:
		return sqlserver.Open(dsn), nil
	}
}

// sqliteDSN adds a busy timeout so writers from other processes wait for the
// file lock instead of failing with SQLITE_BUSY. A DSN that already sets
// busy_timeout is left alone.
func (s *Store) sqliteDSN(dsn string) string {
	if sqlitePath(dsn) == "" || strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	ms := defaultBusyTimeout.Milliseconds()
	if s.cfg.Timeout > 0 {
		ms = s.cfg.Timeout.Milliseconds()
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, ms)
}

// sqlitePath returns the file behind a sqlite DSN, or "" for in-memory databases.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// fail wraps err as a PersistenceError, classifying deadline overruns as timeouts.
func (s *Store) fail(ctx context.Context, op string, kind Kind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &PersistenceError{Op: op, Kind: KindTimeout, Timeout: s.cfg.Timeout, Err: err}
	}
	return &PersistenceError{Op: op, Kind: kind, Err: err}
}

// Connect opens the database, verifies it is reachable and migrates the
// systems table. Calling Connect on a connected store is a no-op.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	dialector, err := s.dialector()
	if err != nil {
		return &PersistenceError{Op: "connect", Kind: KindConnection, Err: err}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               newZapLogger(s.logger),
		NowFunc:              func() time.Time { return models.Timestamp(s.now()) },
		DisableAutomaticPing: true,
		TranslateError:       true,
	})
	if err != nil {
		return s.fail(ctx, "connect", KindConnection, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return s.fail(ctx, "connect", KindConnection, err)
	}
	if typ, _ := NormalizeType(s.cfg.Type); typ == TypeSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return s.fail(ctx, "connect", KindConnection, err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&systemRow{}); err != nil {
		_ = sqlDB.Close()
		return s.fail(ctx, "migrate", KindQuery, err)
	}

	s.db = db
	s.logger.Debug("Connected to database", zap.String("type", s.cfg.Type))
	return nil
}

// Disconnect releases the database handle. It is safe to call on a
// disconnected store.
func (s *Store) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return &PersistenceError{Op: "disconnect", Kind: KindConnection, Err: err}
	}
	if err := sqlDB.Close(); err != nil {
		return &PersistenceError{Op: "disconnect", Kind: KindConnection, Err: err}
	}
	s.logger.Debug("Disconnected from database")
	return nil
}

func (s *Store) conn(op string) (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, &PersistenceError{Op: op, Kind: KindConnection, Err: ErrNotConnected}
	}
	return s.db, nil
}

// HealthCheck probes connectivity without touching any data.
func (s *Store) HealthCheck(ctx context.Context) Health {
	db, err := s.conn("health")
	if err != nil {
		return Health{Reason: ErrNotConnected.Error()}
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return Health{Reason: s.fail(ctx, "ping", KindConnection, err).Error()}
	}
	return Health{Healthy: true}
}
