// Package server assembles the MCP server from configuration.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-strava/pkg/auth"
	"github.com/txn2/mcp-strava/pkg/config"
	"github.com/txn2/mcp-strava/pkg/database/migrate"
	"github.com/txn2/mcp-strava/pkg/geocode"
	"github.com/txn2/mcp-strava/pkg/oauth"
	"github.com/txn2/mcp-strava/pkg/strava"
	"github.com/txn2/mcp-strava/pkg/tokens"
	pgstore "github.com/txn2/mcp-strava/pkg/tokens/postgres"
	geocodetk "github.com/txn2/mcp-strava/pkg/toolkits/geocode"
	stravatk "github.com/txn2/mcp-strava/pkg/toolkits/strava"
)

// Version is set at build time.
var Version = "dev"

// Toolkit is the registration surface toolkits share.
type Toolkit interface {
	Kind() string
	Name() string
	RegisterTools(*mcp.Server)
	Tools() []string
	Close() error
}

// Server bundles the MCP server with the resources it owns.
type Server struct {
	MCP *mcp.Server

	config   *config.Config
	auth     *auth.Authenticator
	toolkits []Toolkit
	db       *sql.DB
	logger   *slog.Logger
}

// New builds the full server: token store, authenticator, callback
// listener, and toolkits, wired onto a fresh MCP server.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}

	store, db, err := buildStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	tracker := oauth.NewStateTracker(0)
	callbackCfg := oauth.CallbackConfig{
		Host: cfg.OAuth.CallbackHost,
		Port: cfg.OAuth.CallbackPort,
		Path: cfg.OAuth.CallbackPath,
	}

	provider := strava.NewProvider(strava.OAuthConfig{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  fmt.Sprintf("http://%s:%d%s", callbackCfg.Host, callbackCfg.Port, callbackCfg.Path),
	})

	authenticator := auth.New(store, provider, tracker, nil, strava.DefaultConfig(), logger)
	callback := oauth.NewCallbackServer(callbackCfg, tracker, authenticator, logger)
	listener := oauth.NewManager(callback, logger)
	authenticator.SetListener(listener)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)
	mcpServer.AddReceivingMiddleware(toolLoggingMiddleware(logger))

	geocoder := geocode.NewClient("")
	stravaToolkit := stravatk.New("strava", authenticator, geocoder, logger)
	geocodeToolkit := geocodetk.New("geocode", geocoder, logger)

	stravaToolkit.RegisterTools(mcpServer)
	stravaToolkit.RegisterResources(mcpServer)
	geocodeToolkit.RegisterTools(mcpServer)

	logger.Info("server assembled",
		"name", cfg.Server.Name,
		"version", cfg.Server.Version,
		"tokens_backend", cfg.Tokens.Backend,
		"tools", len(stravaToolkit.Tools())+len(geocodeToolkit.Tools()),
	)

	return &Server{
		MCP:      mcpServer,
		config:   cfg,
		auth:     authenticator,
		toolkits: []Toolkit{stravaToolkit, geocodeToolkit},
		db:       db,
		logger:   logger,
	}, nil
}

// buildStore constructs the configured token store. The returned db is
// non-nil only for the postgres backend.
func buildStore(cfg *config.Config, logger *slog.Logger) (tokens.Store, *sql.DB, error) {
	switch cfg.Tokens.Backend {
	case config.TokensBackendMemory:
		return tokens.NewMemoryStore(), nil, nil

	case config.TokensBackendFile:
		passphrase := os.Getenv(cfg.Tokens.PassphraseEnv)
		if passphrase == "" {
			return nil, nil, fmt.Errorf("environment variable %s must be set for the file token backend", cfg.Tokens.PassphraseEnv)
		}
		store, err := tokens.NewFileStore(cfg.Tokens.Path, passphrase)
		if err != nil {
			return nil, nil, fmt.Errorf("creating file token store: %w", err)
		}
		return store, nil, nil

	case config.TokensBackendPostgres:
		db, err := sql.Open("postgres", cfg.Tokens.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening token database: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("pinging token database: %w", err)
		}
		if err := migrate.Run(db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrating token database: %w", err)
		}
		logger.Info("token database ready")
		return pgstore.New(db), db, nil

	default:
		return nil, nil, fmt.Errorf("unknown tokens backend %q", cfg.Tokens.Backend)
	}
}

// toolLoggingMiddleware logs tool calls with their duration.
func toolLoggingMiddleware(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}

			start := time.Now()
			result, err := next(ctx, method, req)
			logger.Debug("tool call",
				"method", method,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err != nil,
			)
			return result, err
		}
	}
}

// Close releases everything the server owns: the callback listener,
// toolkits, and the token database when one is open.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var firstErr error
	if err := s.auth.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	for _, tk := range s.toolkits {
		if err := tk.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
