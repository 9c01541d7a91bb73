package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/ventoctl/internal/config"
	"github.com/muurk/ventoctl/internal/discovery"
	"github.com/muurk/ventoctl/internal/logging"
	"github.com/muurk/ventoctl/internal/metrics"
	"github.com/muurk/ventoctl/internal/transport"
)

// DefaultInterval is how often a WebSocket client receives the device state.
const DefaultInterval = 5 * time.Second

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	CertPath string // TLS is enabled when both CertPath and KeyPath are set
	KeyPath  string

	// Password is sent to every controller. Controllers silently drop
	// requests with the wrong one.
	Password string

	// Interval between state pushes on a WebSocket stream.
	Interval time.Duration

	// Registry supplies known devices and records newly located ones.
	Registry *config.Registry

	// Transport options for every UDP client the bridge creates.
	Transport []transport.Option

	Metrics        *metrics.BridgeMetrics
	MetricsHandler http.Handler // served on /metrics when set
}

// Server is the HTTP and WebSocket bridge.
type Server struct {
	config    *Config
	tlsConfig *tls.Config
	scanner   *discovery.Scanner
	upgrader  websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener
	baseCtx    context.Context
	cancel     context.CancelFunc

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*websocket.Conn

	// regMu guards the registry. It is never held across network I/O.
	regMu sync.Mutex
}

// New creates a new Server instance
func New(cfg *Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("server: registry is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	var tlsConfig *tls.Config
	if cfg.CertPath != "" || cfg.KeyPath != "" {
		var err error
		if tlsConfig, err = NewTLSConfig(cfg.CertPath, cfg.KeyPath); err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:      cfg,
		tlsConfig:   tlsConfig,
		scanner:     discovery.NewScanner(cfg.Transport...),
		baseCtx:     baseCtx,
		cancel:      cancel,
		activeConns: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  4096,
			HandshakeTimeout: writeWait,
		},
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.baseCtx },
	}
	return s, nil
}

// Handler returns the bridge's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /api/devices", s.handleDevices)
	mux.HandleFunc("GET /api/devices/{id}/state", s.handleState)
	mux.HandleFunc("POST /api/devices/{id}/values", s.handleWrite)
	mux.HandleFunc("GET /ws/{id}", s.handleWebSocket)
	if s.config.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.config.MetricsHandler)
	}
	return mux
}

// Start serves until ctx is canceled, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	logging.Info("Starting Vento bridge",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("interval", s.config.Interval),
		zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr returns the listening address once Start has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.cancel()

	// Hijacked WebSocket connections are not tracked by http.Server.
	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Info("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	s.mu.Unlock()

	err := s.httpServer.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of active connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) track(addr string, conn *websocket.Conn) {
	s.mu.Lock()
	s.activeConns[addr] = conn
	s.mu.Unlock()
	s.config.Metrics.ClientConnected()
	logging.LogConnection(addr, "websocket_upgraded")
}

func (s *Server) untrack(addr string) {
	s.mu.Lock()
	delete(s.activeConns, addr)
	s.mu.Unlock()
	s.config.Metrics.ClientDisconnected()
	logging.LogConnection(addr, "websocket_closed")
}
