package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-inventory/internal/audit"
	"github.com/nerrad567/gray-logic-inventory/internal/driver"
	"github.com/nerrad567/gray-logic-inventory/internal/entity"
	"github.com/nerrad567/gray-logic-inventory/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-inventory/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-inventory/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-inventory/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-inventory/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// countsReportInterval is how often entity counts are written to InfluxDB.
const countsReportInterval = time.Minute

// Application names accepted in api.mounts.
const (
	AppEntity = "entity"
)

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Service   *entity.Service
	Drivers   *driver.Registry
	DB        *database.DB     // optional: health and pool stats
	AuditRepo audit.Repository // optional: /__audit__ and mutation trail
	MQTT      *mqtt.Client     // optional: entity events on the bus
	Influx    *influxdb.Client // optional: request and mutation metrics
	Version   string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	service   *entity.Service
	drivers   *driver.Registry
	db        *database.DB
	auditRepo audit.Repository
	auditCh   chan *audit.AuditLog
	mqtt      *mqtt.Client
	influx    *influxdb.Client
	version   string
	startTime time.Time
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc // cancels background goroutines on Close()
	wg        sync.WaitGroup     // tracks background goroutines
}

// New creates a new API server with the given dependencies and subscribes
// it to the entity service's mutation events.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Service == nil {
		return nil, fmt.Errorf("entity service is required")
	}
	if deps.Drivers == nil {
		return nil, fmt.Errorf("driver registry is required")
	}
	for prefix, app := range deps.Config.Mounts {
		if app != AppEntity {
			return nil, fmt.Errorf("mount %q: unknown application %q", prefix, app)
		}
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		service:   deps.Service,
		drivers:   deps.Drivers,
		db:        deps.DB,
		auditRepo: deps.AuditRepo,
		mqtt:      deps.MQTT,
		influx:    deps.Influx,
		version:   deps.Version,
		startTime: time.Now(),
	}
	s.hub = NewHub(s.wsCfg, s.logger)
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}

	s.service.AddNotifier(entity.NotifierFunc(s.publishEvent))

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, the audit writer and the metrics reporter,
// then launches the HTTP listener in a background goroutine. The server
// can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Background goroutines stop on Close, not when ctx ends.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.goBackground(func() { s.hub.Run(srvCtx) })

	if s.auditCh != nil {
		s.goBackground(func() { s.drainAuditLog(srvCtx) })
	}
	if s.influx != nil {
		s.goBackground(func() { s.reportCountsLoop(srvCtx) })
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr, "mounts", s.cfg.Mounts)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// stops the background goroutines and waits for them, so every audit
// entry queued by a finished request is written before Close returns.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// goBackground runs fn in a goroutine that Close waits for.
func (s *Server) goBackground(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// reportCountsLoop writes per-driver entity counts to InfluxDB until ctx
// is cancelled.
func (s *Server) reportCountsLoop(ctx context.Context) {
	ticker := time.NewTicker(countsReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counts, err := s.service.Counts(ctx)
			if err != nil {
				s.logger.Warn("counting entities for metrics failed", "error", err)
				continue
			}
			s.influx.WriteEntityCounts(counts)
		}
	}
}
