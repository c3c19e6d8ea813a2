// Package db contains the SQLite backed persistence layer.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/checho651/bfx-report/internal/config"
	"github.com/checho651/bfx-report/internal/registry"
)

const (
	defaultBusyTimeoutMS = 10_000
	memoryPath           = ":memory:"
)

// Connection wraps the database handle and the typed query interface.
type Connection struct {
	DB      *sql.DB
	Queries *Queries
}

// NewConnection opens the database described by cfg, applies migrations and
// creates the collection tables of reg.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig, reg *registry.Registry) (*Connection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	opts := []Option{WithMaxOpenConns(cfg.GetMaxOpenConns())}
	if cfg.BusyTimeoutMS > 0 {
		opts = append(opts, WithBusyTimeout(cfg.BusyTimeoutMS))
	}

	sqlDB, err := Open(cfg.GetPath(), opts...)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, sqlDB, reg); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &Connection{DB: sqlDB, Queries: New(sqlDB)}, nil
}

// Close closes the underlying database.
func (c *Connection) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

type openConfig struct {
	busyTimeout  int
	maxOpenConns int
}

// Option customises Open.
type Option func(*openConfig)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds.
func WithBusyTimeout(ms int) Option { return func(c *openConfig) { c.busyTimeout = ms } }

// WithMaxOpenConns bounds the connection pool.
func WithMaxOpenConns(n int) Option { return func(c *openConfig) { c.maxOpenConns = n } }

// Open opens an SQLite database at path with foreign keys, WAL journaling and
// a busy timeout applied to every pooled connection. Parent directories are
// created when missing.
func Open(path string, opts ...Option) (*sql.DB, error) {
	cfg := openConfig{busyTimeout: defaultBusyTimeoutMS, maxOpenConns: config.DefaultMaxOpenConns}
	for _, o := range opts {
		o(&cfg)
	}

	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == memoryPath {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.maxOpenConns)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqlDB, nil
}

func dsn(path string, cfg openConfig) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.busyTimeout))
	if path != memoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
		q.Set("_txlock", "immediate")
	}
	return "file:" + path + "?" + q.Encode()
}

// OpenMemory opens a migrated in-memory database for tests and registers
// t.Cleanup to close it. A nil reg uses the built-in catalog.
func OpenMemory(t testing.TB, reg *registry.Registry) *sql.DB {
	t.Helper()

	sqlDB, err := Open(memoryPath)
	if err != nil {
		t.Fatalf("db.OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if reg == nil {
		reg = registry.New(nil)
	}
	if err := EnsureSchema(context.Background(), sqlDB, reg); err != nil {
		t.Fatalf("db.OpenMemory: %v", err)
	}
	return sqlDB
}
