package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/checho651/bfx-report/internal/api"
	"github.com/checho651/bfx-report/internal/auth"
	"github.com/checho651/bfx-report/internal/config"
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/export"
	"github.com/checho651/bfx-report/internal/httpclient"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/service"
	database "github.com/checho651/bfx-report/internal/service/db"
	"github.com/checho651/bfx-report/internal/settings"
	"github.com/checho651/bfx-report/internal/sources"
	pkgsync "github.com/checho651/bfx-report/internal/sync"
	"github.com/checho651/bfx-report/internal/sync/coordinator"
	"github.com/checho651/bfx-report/internal/sync/state"
	"github.com/checho651/bfx-report/internal/sync/writer"
	"github.com/checho651/bfx-report/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":31339"
	defaultRequestTimeout = 60 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 90 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	// defaultAuthCacheTTL bounds how long remote credential checks are reused
	defaultAuthCacheTTL = time.Minute

	syncTracerName = "github.com/checho651/bfx-report/sync"
)

// ReportAppOptions is a function that configures the report app builder
type ReportAppOptions func(*reportAppConfig) error

// reportAppConfig holds what the builder needs. Component overrides exist
// for tests; production code leaves them nil.
type reportAppConfig struct {
	config *config.Config

	source        sources.Source
	syncManager   pkgsync.Manager
	exportStorage export.Storage
	telemetry     *telemetry.Telemetry

	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...ReportAppOptions) (*reportAppConfig, error) {
	cfg := &reportAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.config == nil {
		cfg.config = config.Default()
	}

	return cfg, nil
}

// NewReportApp builds every component of the server: the store, the sync
// engine and its scheduler, the reporting service, the export queue and the
// HTTP server
func NewReportApp(ctx context.Context, opts ...ReportAppOptions) (*ReportApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	reg := registry.New(cfg.config.FileNameLabelOverrides())

	dbConfig := cfg.config.Database
	if dbConfig == nil {
		dbConfig = &config.DatabaseConfig{}
	}
	conn, err := db.NewConnection(ctx, dbConfig, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Ensure cleanup happens on error
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			_ = conn.Close()
		}
	}()

	settingsSvc := settings.NewDBService(conn.DB)
	if err := InitializeStore(ctx, cfg.config, settingsSvc); err != nil {
		return nil, err
	}

	if cfg.source == nil {
		cfg.source = sources.NewRESTSource(
			httpclient.NewDefaultClient(cfg.config.Remote.GetTimeout()),
			reg,
			sources.WithEndpoint(cfg.config.Remote.GetEndpoint()),
			sources.WithPublicEndpoint(cfg.config.Remote.GetPublicEndpoint()),
		)
	}

	syncCoordinator, err := buildSyncComponents(cfg, conn, reg, settingsSvc)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	reportService, err := buildServiceComponents(cfg, conn, reg, settingsSvc)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	exports, err := buildExportQueue(cfg, conn, reg, reportService)
	if err != nil {
		return nil, fmt.Errorf("failed to build export queue: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, reportService, exports)
	if err != nil {
		exports.Close()
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	return &ReportApp{
		config: cfg.config,
		components: &AppComponents{
			SyncCoordinator: syncCoordinator,
			ReportService:   reportService,
			Exports:         exports,
			Database:        conn,
			Telemetry:       cfg.telemetry,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ReportAppOptions {
	return func(cfg *reportAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) ReportAppOptions {
	return func(cfg *reportAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ReportAppOptions {
	return func(cfg *reportAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithSource injects the remote data source (for testing)
func WithSource(src sources.Source) ReportAppOptions {
	return func(cfg *reportAppConfig) error {
		cfg.source = src
		return nil
	}
}

// WithSyncManager injects the sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) ReportAppOptions {
	return func(cfg *reportAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithExportStorage injects where export files are written (for testing)
func WithExportStorage(s export.Storage) ReportAppOptions {
	return func(cfg *reportAppConfig) error {
		cfg.exportStorage = s
		return nil
	}
}

// WithTelemetry sets the telemetry providers. The app does not shut them
// down; the caller owns them.
func WithTelemetry(t *telemetry.Telemetry) ReportAppOptions {
	return func(cfg *reportAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// buildSyncComponents builds the sync manager and the scheduler driving it
func buildSyncComponents(
	b *reportAppConfig,
	conn *db.Connection,
	reg *registry.Registry,
	settingsSvc settings.Service,
) (coordinator.Coordinator, error) {
	slog.Info("Initializing sync components")

	if b.syncManager == nil {
		syncWriter, err := writer.NewDBSyncWriter(conn.DB, reg)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync writer: %w", err)
		}

		b.syncManager = pkgsync.NewManager(
			b.source,
			syncWriter,
			state.NewDBStateService(conn.DB, reg),
			conn.Queries,
			reg,
			pkgsync.WithTracer(b.telemetry.Tracer(syncTracerName)),
		)
	}

	coordOpts := []coordinator.Option{coordinator.WithSyncConfig(b.config.Sync)}

	syncMetrics, err := telemetry.NewSyncMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	if syncMetrics != nil {
		coordOpts = append(coordOpts, coordinator.WithSyncMetrics(syncMetrics))
	}

	syncCoordinator := coordinator.New(b.syncManager, settingsSvc, conn.Queries, coordOpts...)
	slog.Info("Sync components initialized successfully")

	return syncCoordinator, nil
}

// buildServiceComponents builds the reporting service. Remote credential
// checks go through the data source and are cached briefly.
func buildServiceComponents(
	b *reportAppConfig,
	conn *db.Connection,
	reg *registry.Registry,
	settingsSvc settings.Service,
) (service.ReportService, error) {
	slog.Info("Initializing service components")

	svc, err := database.New(
		database.WithDB(conn.DB),
		database.WithRegistry(reg),
		database.WithSettings(settingsSvc),
		database.WithRemoteValidator(auth.NewCachingValidator(auth.NewRemoteValidator(b.source), defaultAuthCacheTTL)),
		database.WithTracer(b.telemetry.Tracer(database.ServiceTracerName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report service: %w", err)
	}

	slog.Info("Service components initialized successfully")
	return svc, nil
}

// buildExportQueue builds the export worker pool
func buildExportQueue(
	b *reportAppConfig,
	conn *db.Connection,
	reg *registry.Registry,
	svc service.ReportService,
) (*export.Queue, error) {
	if b.exportStorage == nil {
		b.exportStorage = export.NewOSStorage(b.config.Export.GetDir())
	}

	exportMetrics, err := telemetry.NewExportMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create export metrics: %w", err)
	}

	queue := export.NewQueue(svc, b.exportStorage, reg,
		export.WithRecorder(conn.Queries),
		export.WithWorkers(b.config.Export.GetWorkers()),
		export.WithExportMetrics(exportMetrics),
	)
	slog.Info("Export queue configured", "dir", b.exportStorage.Dir(), "workers", b.config.Export.GetWorkers())
	return queue, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	b *reportAppConfig,
	svc service.ReportService,
	exports *export.Queue,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// metrics and tracing go first so they see every request
	metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	b.middlewares = append([]func(http.Handler) http.Handler{
		telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
		metricsMiddleware,
	}, b.middlewares...)

	router := api.NewServer(svc, exports,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(b.telemetry.MetricsHandler()),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
