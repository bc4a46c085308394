package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/homegraph/internal/audit"
	"github.com/nerrad567/homegraph/internal/home"
	"github.com/nerrad567/homegraph/internal/host/memhost"
	"github.com/nerrad567/homegraph/internal/infrastructure/config"
	"github.com/nerrad567/homegraph/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// DefaultWriteTimeout bounds how long a light state request waits for each
// device write.
const DefaultWriteTimeout = 15 * time.Second

// ChangeSource publishes host value changes. *memhost.Graph implements it.
type ChangeSource interface {
	Observe(fn memhost.Observer)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Security  config.SecurityConfig
	Logger    *logging.Logger
	Directory *home.Directory

	// Changes feeds the WebSocket hub. Optional.
	Changes ChangeSource

	// Audit records light writes. Optional.
	Audit audit.Repository

	// WriteTimeout bounds each device write. Zero selects DefaultWriteTimeout.
	WriteTimeout time.Duration
	Version      string
}

// Server is the HTTP API server for homegraph.
//
// It is created with New and started with Start. All methods are safe for
// concurrent use.
type Server struct {
	cfg          config.APIConfig
	wsCfg        config.WebSocketConfig
	secCfg       config.SecurityConfig
	logger       *logging.Logger
	dir          *home.Directory
	changes      ChangeSource
	writeTimeout time.Duration
	version      string

	hub     *Hub
	tickets *ticketStore

	auditRepo audit.Repository
	auditCh   chan *audit.Entry
	auditStop context.CancelFunc
	auditDone chan struct{}

	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	watch    sync.Once
}

// New creates an API server. The server is not listening until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("directory is required")
	}
	if deps.Security.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	s := &Server{
		cfg:          deps.Config,
		wsCfg:        deps.WS,
		secCfg:       deps.Security,
		logger:       deps.Logger,
		dir:          deps.Directory,
		changes:      deps.Changes,
		writeTimeout: deps.WriteTimeout,
		version:      deps.Version,
		tickets:      newTicketStore(ticketTTL),
		auditRepo:    deps.Audit,
	}
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.Entry, auditChanSize)
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = DefaultWriteTimeout
	}
	s.hub = NewHub(s.wsCfg, s.logger)
	return s, nil
}

// Start binds the listener and serves in a background goroutine. Binding
// errors (port in use, bad address) are returned directly.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.cleanTicketsLoop(srvCtx)
	if s.auditRepo != nil {
		// The drain outlives ctx so Close can flush after in-flight
		// requests finish.
		var auditCtx context.Context
		auditCtx, s.auditStop = context.WithCancel(context.WithoutCancel(ctx))
		s.auditDone = make(chan struct{})
		go s.drainAuditLog(auditCtx, s.auditDone)
	}
	s.watchChanges()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		s.stopAudit()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	go func() {
		var serveErr error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", ln.Addr().String(),
				"cert", s.cfg.TLS.CertFile,
			)
			serveErr = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", ln.Addr().String())
			serveErr = s.server.Serve(ln)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", serveErr)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests, then flushes the audit entries they queued.
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
	s.stopAudit()
	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// stopAudit ends the drain loop and waits for it to write what is queued.
func (s *Server) stopAudit() {
	if s.auditStop == nil {
		return
	}
	s.auditStop()
	<-s.auditDone
}

// HealthCheck reports whether the server has been started.
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
