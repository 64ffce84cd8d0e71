package oauth

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/txn2/mcp-strava/pkg/config"
)

//go:embed views/*.html
var views embed.FS

var (
	resultTemplate     = template.Must(template.ParseFS(views, "views/result.html"))
	loginTemplate      = template.Must(template.ParseFS(views, "views/login.html"))
	loginErrorTemplate = template.Must(template.ParseFS(views, "views/login_error.html"))
)

// Callback server defaults. The loopback listener must match the redirect
// URI registered with the Strava application.
const (
	DefaultCallbackHost = "127.0.0.1"
	DefaultCallbackPort = 5050
	DefaultCallbackPath = "/strava-oauth"

	exchangeTimeout = 30 * time.Second
)

// CallbackConfig configures the loopback callback endpoint.
type CallbackConfig struct {
	Host string
	Port int
	Path string
}

func (c *CallbackConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultCallbackHost
	}
	if c.Port == 0 {
		c.Port = DefaultCallbackPort
	}
	if c.Path == "" {
		c.Path = DefaultCallbackPath
	}
}

type resultView struct {
	Title   string
	Heading string
	Message string
	Success bool
}

type loginView struct {
	AuthorizeURL string
}

type loginErrorView struct {
	Error string
}

// CallbackServer serves the loopback OAuth endpoints: a login page that
// links into Strava's authorization flow, and the redirect callback that
// checks the CSRF state, exchanges the code, persists the tokens, and
// renders a human-readable result page.
type CallbackServer struct {
	config  CallbackConfig
	tracker *StateTracker
	flow    Flow
	logger  *slog.Logger
}

// Flow drives the two browser-facing halves of the authorization flow.
type Flow interface {
	// AuthorizationURL issues a fresh CSRF state and returns the provider
	// authorization URL for the login page to link to.
	AuthorizationURL(ctx context.Context) (string, error)

	// Complete exchanges the code and persists the resulting tokens. The
	// returned name is a best-effort athlete display name and may be empty.
	Complete(ctx context.Context, code string) (name string, err error)
}

// NewCallbackServer creates a callback server. Zero config fields take the
// loopback defaults.
func NewCallbackServer(config CallbackConfig, tracker *StateTracker, flow Flow, logger *slog.Logger) *CallbackServer {
	config.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &CallbackServer{
		config:  config,
		tracker: tracker,
		flow:    flow,
		logger:  logger,
	}
}

// Addr returns the host:port the server listens on.
func (s *CallbackServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// RedirectURL returns the redirect URI to register with the provider.
func (s *CallbackServer) RedirectURL() string {
	return fmt.Sprintf("http://%s%s", s.Addr(), s.config.Path)
}

// Handler returns the HTTP handler serving the login page and the
// callback path.
func (s *CallbackServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleLogin)
	mux.HandleFunc("GET "+s.config.Path, s.handleCallback)
	return mux
}

// handleLogin serves the entry page at the server root: a link into
// Strava's authorization flow, or a configuration error when the
// application credentials are not set.
func (s *CallbackServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w)

	if !config.HasCredentials() {
		s.logger.Warn("login page requested without provider credentials")
		s.render(w, http.StatusOK, loginErrorTemplate, loginErrorView{
			Error: fmt.Sprintf("Strava API credentials not configured. Set %s and %s in the environment. Get these from https://www.strava.com/settings/api.",
				config.EnvClientID, config.EnvClientSecret),
		})
		return
	}

	authorizeURL, err := s.flow.AuthorizationURL(r.Context())
	if err != nil {
		s.logger.Error("building authorization url", "error", err)
		s.render(w, http.StatusInternalServerError, loginErrorTemplate, loginErrorView{
			Error: "Could not start the authorization flow. Check the server logs and try again.",
		})
		return
	}

	s.render(w, http.StatusOK, loginTemplate, loginView{AuthorizeURL: authorizeURL})
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w)
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		s.logger.Warn("authorization denied by provider", "error", errParam)
		s.render(w, http.StatusBadRequest, resultTemplate, resultView{
			Title:   "Authorization Failed",
			Heading: "Authorization failed",
			Message: fmt.Sprintf("Strava reported an error: %s. Request a new authorization URL and try again.", errParam),
		})
		return
	}

	if err := s.tracker.Validate(q.Get("state")); err != nil {
		s.logger.Warn("callback state rejected")
		s.render(w, http.StatusForbidden, resultTemplate, resultView{
			Title:   "Authorization Failed",
			Heading: "Request could not be verified",
			Message: "The state parameter is missing, expired, or was already used. Request a new authorization URL and try again.",
		})
		return
	}

	code := q.Get("code")
	if code == "" {
		s.render(w, http.StatusBadRequest, resultTemplate, resultView{
			Title:   "Authorization Failed",
			Heading: "Missing authorization code",
			Message: "Strava did not return an authorization code. Request a new authorization URL and try again.",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), exchangeTimeout)
	defer cancel()

	name, err := s.flow.Complete(ctx, code)
	if err != nil {
		s.logger.Error("completing authorization", "error", err)
		s.render(w, http.StatusBadGateway, resultTemplate, resultView{
			Title:   "Authorization Failed",
			Heading: "Token exchange failed",
			Message: fmt.Sprintf("Could not complete authentication: %v. Request a new authorization URL and try again.", err),
		})
		return
	}

	message := "Authentication complete. Your Strava data is now available."
	if name != "" {
		message = fmt.Sprintf("Welcome, %s! Your Strava data is now available.", name)
	}
	s.logger.Info("authorization complete", "athlete", name)
	s.render(w, http.StatusOK, resultTemplate, resultView{
		Title:   "Authorization Complete",
		Heading: "Connected to Strava",
		Message: message,
		Success: true,
	})
}

func (s *CallbackServer) render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("rendering page", "error", err)
	}
}

func setSecurityHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Content-Security-Policy", "default-src 'none'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
}
