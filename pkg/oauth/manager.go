package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Manager supervises the callback listener lifecycle. The listener starts
// lazily on the first authorization request and stays up until Stop, so a
// slow user can still finish the browser flow.
type Manager struct {
	server *CallbackServer
	logger *slog.Logger

	mu       sync.Mutex
	httpSrv  *http.Server
	serveErr error
	running  bool
}

// NewManager creates a manager for the given callback server.
func NewManager(server *CallbackServer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{server: server, logger: logger}
}

// Start binds the loopback listener and begins serving callbacks. Calling
// Start while the listener is already up is a no-op.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	ln, err := net.Listen("tcp", m.server.Addr())
	if err != nil {
		return fmt.Errorf("binding callback listener on %s: %w", m.server.Addr(), err)
	}

	srv := &http.Server{
		Handler:           m.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	m.httpSrv = srv
	m.serveErr = nil
	m.running = true

	m.logger.Info("callback listener started", "addr", m.server.Addr(), "path", m.server.RedirectURL())

	go func() {
		err := srv.Serve(ln)
		m.mu.Lock()
		defer m.mu.Unlock()
		if err != nil && err != http.ErrServerClosed {
			m.serveErr = err
			m.logger.Error("callback listener stopped", "error", err)
		}
		m.running = false
	}()

	return nil
}

// Running reports whether the listener is currently serving.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Err returns the terminal serve error, if the listener died unexpectedly.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.serveErr
}

// Stop shuts the listener down gracefully.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	srv := m.httpSrv
	running := m.running
	m.httpSrv = nil
	m.mu.Unlock()

	if !running || srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
