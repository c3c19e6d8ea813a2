// Package settings exposes the two process-wide sync toggles: whether the
// periodic scheduler runs, and whether the engine may contact the remote API.
package settings

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/checho651/bfx-report/internal/db"
)

// SchedulerConfig is the master switch of periodic synchronization
type SchedulerConfig struct {
	IsEnable bool `json:"isEnable"`
}

// SyncModeConfig selects online mode (IsEnable) or offline mode, where the
// remote API is never contacted and reads are served from the store only.
type SyncModeConfig struct {
	IsEnable bool `json:"isEnable"`
}

// Defaults are the toggle values written when the store is created
type Defaults struct {
	SchedulerEnabled bool
	SyncModeOnline   bool
}

// Service reads and writes the toggles.
//
//go:generate mockgen -destination=mocks/mock_service.go -package=mocks github.com/checho651/bfx-report/internal/settings Service
type Service interface {
	// Initialize writes defaults for toggles that were never set. Values
	// already stored are left untouched.
	Initialize(ctx context.Context, defaults Defaults) error
	SchedulerConfig(ctx context.Context) (SchedulerConfig, error)
	SetSchedulerConfig(ctx context.Context, cfg SchedulerConfig) error
	SyncModeConfig(ctx context.Context) (SyncModeConfig, error)
	SetSyncModeConfig(ctx context.Context, cfg SyncModeConfig) error
}

type dbService struct {
	sqlDB *sql.DB

	mu       sync.RWMutex
	defaults Defaults
}

// NewDBService creates a Service backed by the single-row toggle tables
func NewDBService(sqlDB *sql.DB) Service {
	return &dbService{sqlDB: sqlDB}
}

func (s *dbService) Initialize(ctx context.Context, defaults Defaults) error {
	s.mu.Lock()
	s.defaults = defaults
	s.mu.Unlock()

	return db.RunTx(ctx, s.sqlDB, func(tx *sql.Tx) error {
		q := db.New(tx)
		if err := q.InitToggle(ctx, db.ToggleScheduler, defaults.SchedulerEnabled); err != nil {
			return fmt.Errorf("failed to initialize scheduler toggle: %w", err)
		}
		if err := q.InitToggle(ctx, db.ToggleSyncMode, defaults.SyncModeOnline); err != nil {
			return fmt.Errorf("failed to initialize sync mode toggle: %w", err)
		}
		return nil
	})
}

func (s *dbService) SchedulerConfig(ctx context.Context) (SchedulerConfig, error) {
	s.mu.RLock()
	fallback := s.defaults.SchedulerEnabled
	s.mu.RUnlock()

	v, err := s.get(ctx, db.ToggleScheduler, fallback)
	return SchedulerConfig{IsEnable: v}, err
}

func (s *dbService) SetSchedulerConfig(ctx context.Context, cfg SchedulerConfig) error {
	return db.New(s.sqlDB).SetToggle(ctx, db.ToggleScheduler, cfg.IsEnable)
}

func (s *dbService) SyncModeConfig(ctx context.Context) (SyncModeConfig, error) {
	s.mu.RLock()
	fallback := s.defaults.SyncModeOnline
	s.mu.RUnlock()

	v, err := s.get(ctx, db.ToggleSyncMode, fallback)
	return SyncModeConfig{IsEnable: v}, err
}

func (s *dbService) SetSyncModeConfig(ctx context.Context, cfg SyncModeConfig) error {
	return db.New(s.sqlDB).SetToggle(ctx, db.ToggleSyncMode, cfg.IsEnable)
}

func (s *dbService) get(ctx context.Context, t db.Toggle, fallback bool) (bool, error) {
	v, found, err := db.New(s.sqlDB).GetToggle(ctx, t)
	if err != nil {
		return false, fmt.Errorf("failed to read %s toggle: %w", t, err)
	}
	if !found {
		return fallback, nil
	}
	return v, nil
}
