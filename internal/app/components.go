package app

import (
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/export"
	"github.com/checho651/bfx-report/internal/service"
	"github.com/checho651/bfx-report/internal/sync/coordinator"
	"github.com/checho651/bfx-report/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator runs the periodic sync cycles
	SyncCoordinator coordinator.Coordinator

	// ReportService answers reporting calls
	ReportService service.ReportService

	// Exports runs CSV exports
	Exports *export.Queue

	// Database is the store connection
	Database *db.Connection

	// Telemetry owns the tracer and meter providers
	Telemetry *telemetry.Telemetry
}
