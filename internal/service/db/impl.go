// Package database provides the store-backed implementation of the ReportService interface
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/checho651/bfx-report/internal/auth"
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/otel"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/service"
	"github.com/checho651/bfx-report/internal/settings"
)

// options holds configuration options for the database service
type options struct {
	sqlDB    *sql.DB
	reg      *registry.Registry
	settings settings.Service
	remote   auth.Validator
	tracer   trace.Tracer
}

// Option is a functional option for configuring the database service
type Option func(*options) error

// WithDB sets the store the service reads from. The caller is responsible
// for closing it.
func WithDB(sqlDB *sql.DB) Option {
	return func(o *options) error {
		if sqlDB == nil {
			return fmt.Errorf("database handle is required")
		}
		o.sqlDB = sqlDB
		return nil
	}
}

// WithRegistry sets the collection catalog
func WithRegistry(reg *registry.Registry) Option {
	return func(o *options) error {
		if reg == nil {
			return fmt.Errorf("registry is required")
		}
		o.reg = reg
		return nil
	}
}

// WithSettings sets the toggle service
func WithSettings(svc settings.Service) Option {
	return func(o *options) error {
		if svc == nil {
			return fmt.Errorf("settings service is required")
		}
		o.settings = svc
		return nil
	}
}

// WithRemoteValidator sets the validator used in online mode. Without one
// credentials are always checked against the stored users.
func WithRemoteValidator(v auth.Validator) Option {
	return func(o *options) error {
		o.remote = v
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the database service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

type handlerFunc func(ctx context.Context, user *db.User, params json.RawMessage) (any, error)

type handler struct {
	// public handlers are served without credentials
	public bool
	// activates marks the login method, which reactivates the user
	activates bool
	fn        handlerFunc
}

// dbService implements the ReportService interface on top of the local store
type dbService struct {
	sqlDB    *sql.DB
	reg      *registry.Registry
	settings settings.Service
	remote   auth.Validator
	store    auth.Validator
	tracer   trace.Tracer

	handlers map[string]handler

	// symbols caches the getSymbols answer until a sync replaces the
	// pairs or currencies snapshot
	symbolsMu sync.Mutex
	symbols   map[string]any
}

var _ service.ReportService = (*dbService)(nil)

// New creates a new store-backed report service with the given options
func New(opts ...Option) (service.ReportService, error) {
	o := &options{}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.sqlDB == nil || o.reg == nil || o.settings == nil {
		return nil, fmt.Errorf("database, registry and settings are required")
	}

	s := &dbService{
		sqlDB:    o.sqlDB,
		reg:      o.reg,
		settings: o.settings,
		remote:   o.remote,
		store:    auth.NewStoreValidator(db.New(o.sqlDB)),
		tracer:   o.tracer,
	}
	s.handlers = s.buildHandlers()
	return s, nil
}

func (s *dbService) buildHandlers() map[string]handler {
	h := map[string]handler{}
	for method, d := range s.reg.Descriptors() {
		h[method] = handler{fn: s.collectionHandler(d)}
	}
	h[service.MethodGetSymbols] = handler{fn: s.getSymbols}

	h[service.MethodLogin] = handler{activates: true, fn: getEmail}
	h[service.MethodGetEmail] = handler{fn: getEmail}
	h[service.MethodIsSyncModeConfig] = handler{public: true, fn: s.isSyncModeConfig}
	h[service.MethodEnableSyncMode] = handler{fn: s.setSyncMode(true)}
	h[service.MethodDisableSyncMode] = handler{fn: s.setSyncMode(false)}
	h[service.MethodIsSchedulerEnabled] = handler{public: true, fn: s.isSchedulerEnabled}
	h[service.MethodEnableScheduler] = handler{fn: s.setScheduler(true)}
	h[service.MethodDisableScheduler] = handler{fn: s.setScheduler(false)}
	h[service.MethodGetSyncProgress] = handler{fn: s.getSyncProgress}
	h[service.MethodGetPublicTradesConf] = handler{fn: s.getPublicTradesConf}
	h[service.MethodEditPublicTradesConf] = handler{fn: s.editPublicTradesConf}
	return h
}

// CheckReadiness checks if the service is ready to serve requests
func (s *dbService) CheckReadiness(ctx context.Context) error {
	if err := s.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Authenticate validates creds and returns the stored user
func (s *dbService) Authenticate(ctx context.Context, creds auth.Credentials) (db.User, error) {
	return s.authenticate(ctx, creds, false)
}

func (s *dbService) authenticate(ctx context.Context, creds auth.Credentials, activate bool) (db.User, error) {
	ctx, span := s.startSpan(ctx, "dbService.Authenticate")
	defer span.End()

	validator, err := s.validator(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return db.User{}, err
	}
	info, err := validator.Validate(ctx, creds)
	if err != nil {
		if !errors.Is(err, auth.ErrUnauthorized) {
			otel.RecordError(span, err)
		}
		return db.User{}, err
	}

	var user db.User
	err = db.RunTx(ctx, s.sqlDB, func(tx *sql.Tx) error {
		q := db.New(tx)
		existing, err := q.GetUserByCredentials(ctx, creds.APIKey, creds.APISecret, creds.AuthToken)
		switch {
		case err == nil && (existing.Active || !activate):
			user = existing
			return nil
		case err == nil:
			existing.Active = true
			user, err = q.UpsertUser(ctx, existing)
			return err
		case errors.Is(err, sql.ErrNoRows):
			user, err = q.UpsertUser(ctx, db.User{
				Email:     info.Email,
				Username:  info.Username,
				APIKey:    creds.APIKey,
				APISecret: creds.APISecret,
				AuthToken: creds.AuthToken,
				Active:    true,
				Timezone:  info.Timezone,
			})
			if err == nil {
				slog.Info("Registered user", "user_id", user.ID)
			}
			return err
		default:
			return err
		}
	})
	if err != nil {
		otel.RecordError(span, err)
		return db.User{}, fmt.Errorf("failed to register user: %w", err)
	}
	if !user.Active {
		return db.User{}, fmt.Errorf("%w: user is not active", auth.ErrUnauthorized)
	}

	span.SetAttributes(otel.AttrUserID.Int64(user.ID))
	return user, nil
}

// validator picks the remote validator in online mode and the store in
// offline mode, where the remote API must not be contacted
func (s *dbService) validator(ctx context.Context) (auth.Validator, error) {
	if s.remote == nil {
		return s.store, nil
	}
	mode, err := s.settings.SyncModeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync mode: %w", err)
	}
	if !mode.IsEnable {
		return s.store, nil
	}
	return s.remote, nil
}

// Call dispatches req to its method
func (s *dbService) Call(ctx context.Context, req service.Request) (any, error) {
	ctx, span := s.startSpan(ctx, "dbService.Call",
		trace.WithAttributes(otel.AttrMethod.String(req.Method)))
	defer span.End()

	h, ok := s.handlers[req.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", service.ErrUnknownMethod, req.Method)
	}

	var user *db.User
	if !h.public {
		u, err := s.authenticate(ctx, req.Auth, h.activates)
		if err != nil {
			return nil, err
		}
		user = &u
		span.SetAttributes(otel.AttrUserID.Int64(u.ID))
	}

	result, err := h.fn(ctx, user, req.Params)
	if err != nil && !errors.Is(err, service.ErrInvalidParams) {
		otel.RecordError(span, err)
	}
	return result, err
}

func getEmail(_ context.Context, user *db.User, _ json.RawMessage) (any, error) {
	return user.Email, nil
}
