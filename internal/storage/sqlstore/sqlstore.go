// Package sqlstore implements storage.Store on top of database/sql.
// SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq) are supported; the
// dialect is picked from the database URL.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"   // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitledger/internal/joincode"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// maxCodeAttempts bounds the join code retry loop in CreateGroup.
	maxCodeAttempts = 8
)

// Store implements storage.Store using a SQL database.
type Store struct {
	db          *sqlx.DB
	newCode     joincode.Generator
	now         func() time.Time
	onCollision func()
	noMigrate   bool
}

// Option configures a Store.
type Option func(*Store)

// WithCodeGenerator replaces the join code generator.
func WithCodeGenerator(gen joincode.Generator) Option {
	return func(s *Store) { s.newCode = gen }
}

// WithClock replaces the time source used for created_at/joined_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCollisionHook registers fn to be called every time a generated join
// code is already taken.
func WithCollisionHook(fn func()) Option {
	return func(s *Store) { s.onCollision = fn }
}

// WithoutMigrations makes Open leave the schema untouched.
func WithoutMigrations() Option {
	return func(s *Store) { s.noMigrate = true }
}

// ParseURL splits a database URL into a driver name and a driver DSN.
//
//	sqlite:./data/app.db        -> sqlite, ./data/app.db
//	sqlite:///./data/app.db     -> sqlite, ./data/app.db
//	postgres://u:p@host/db      -> postgres, postgres://u:p@host/db
//	postgresql://u:p@host/db    -> postgres, postgres://u:p@host/db
//
// A bare path is treated as a SQLite file.
func ParseURL(url string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(url, "postgres://"):
		return DriverPostgres, url, nil
	case strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, "postgres://" + strings.TrimPrefix(url, "postgresql://"), nil
	case strings.HasPrefix(url, "sqlite:"):
		path := strings.TrimPrefix(url, "sqlite:")
		path = strings.TrimPrefix(path, "///")
		if path == "" {
			return "", "", fmt.Errorf("sqlite URL has no path: %q", url)
		}
		return DriverSQLite, path, nil
	case strings.Contains(url, "://"):
		return "", "", fmt.Errorf("unsupported database URL scheme: %q", url)
	case url == "":
		return "", "", fmt.Errorf("empty database URL")
	default:
		return DriverSQLite, url, nil
	}
}

// Open connects to the database named by url, applies connection settings
// for its dialect and runs pending migrations unless WithoutMigrations is
// given.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	driverName, dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	if driverName == DriverSQLite {
		if strings.Contains(dsn, ":memory:") {
			return nil, fmt.Errorf("in-memory SQLite is not supported, use a file path")
		}
		// Create parent directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch driverName {
	case DriverSQLite:
		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case DriverPostgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrap("connect to database", err)
	}

	s := New(db, opts...)
	if !s.noMigrate {
		if err := s.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
	}

	slog.Info("Database ready", "driver", driverName)
	return s, nil
}

// New wraps an already-open database. No migrations are run.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{
		db:          db,
		newCode:     joincode.New,
		now:         time.Now,
		onCollision: func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DriverName returns the name of the underlying database driver.
func (s *Store) DriverName() string {
	return s.db.DriverName()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return wrap("ping database", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// q rebinds a query written with ? placeholders to the driver's bindvar style.
func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// withTx runs fn inside a transaction. The transaction is rolled back
// unless fn returns nil and the commit succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit transaction", err)
	}
	return nil
}

func (s *Store) unixNow() int64 {
	return s.now().Unix()
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}
