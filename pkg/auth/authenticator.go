package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/txn2/mcp-strava/pkg/oauth"
	"github.com/txn2/mcp-strava/pkg/strava"
	"github.com/txn2/mcp-strava/pkg/tokens"
)

// Provider performs the OAuth operations against Strava.
type Provider interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*tokens.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*tokens.TokenSet, error)
}

// Status describes the current credential state.
type Status struct {
	Authenticated bool  `json:"authenticated"`
	ExpiresAt     int64 `json:"expires_at,omitempty"`
	ExpiresIn     int64 `json:"expires_in_seconds,omitempty"`
	Expired       bool  `json:"expired,omitempty"`
}

// Authenticator owns the token lifecycle: it loads stored credentials,
// refreshes them when expired, and hands out ready-to-use API clients.
// All token reads and writes happen under a single process-wide lock so
// concurrent tool calls trigger at most one refresh.
type Authenticator struct {
	store     tokens.Store
	provider  Provider
	tracker   *oauth.StateTracker
	listener  *oauth.Manager
	clientCfg strava.Config
	logger    *slog.Logger

	mu sync.Mutex

	// now is overridable for tests.
	now func() time.Time
}

// New creates an authenticator. listener may be nil when the callback
// endpoint is managed elsewhere.
func New(store tokens.Store, provider Provider, tracker *oauth.StateTracker, listener *oauth.Manager, clientCfg strava.Config, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		store:     store,
		provider:  provider,
		tracker:   tracker,
		listener:  listener,
		clientCfg: clientCfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SetListener attaches the callback listener after construction. The
// authenticator and the callback server reference each other, so one side
// has to be wired late.
func (a *Authenticator) SetListener(listener *oauth.Manager) {
	a.listener = listener
}

// Client returns an API client carrying a valid access token, refreshing
// the stored credentials first if they expired. It fails with
// authentication_required when no credentials are stored.
func (a *Authenticator) Client(ctx context.Context) (*strava.Client, error) {
	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	return strava.NewClient(token, a.clientCfg), nil
}

// accessToken loads the stored credentials and returns a valid access
// token, refreshing under the lock when expired. Client construction
// stays outside the critical section.
func (a *Authenticator) accessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}
	if set == nil || set.RefreshToken == "" {
		return "", errAuthRequired()
	}

	if set.ExpiredAt(a.now()) {
		a.logger.Debug("access token expired, refreshing")
		refreshed, err := a.provider.Refresh(ctx, set.RefreshToken)
		if err != nil {
			return "", err
		}
		if err := a.store.Save(ctx, refreshed); err != nil {
			return "", fmt.Errorf("saving refreshed credentials: %w", err)
		}
		set = refreshed
	}

	return set.AccessToken, nil
}

// Status reports whether credentials are stored and when they expire. It
// never triggers a refresh.
func (a *Authenticator) Status(ctx context.Context) (*Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	if set == nil {
		return &Status{}, nil
	}

	now := a.now()
	status := &Status{
		Authenticated: true,
		ExpiresAt:     set.ExpiresAt,
		Expired:       set.ExpiredAt(now),
	}
	if !status.Expired {
		status.ExpiresIn = set.ExpiresAt - now.Unix()
	}
	return status, nil
}

// AuthorizationURL issues a fresh CSRF state, ensures the callback listener
// is up, and returns the provider authorization URL to open in a browser.
func (a *Authenticator) AuthorizationURL(ctx context.Context) (string, error) {
	state, err := a.tracker.Generate()
	if err != nil {
		return "", err
	}

	if a.listener != nil {
		if err := a.listener.Start(); err != nil {
			return "", err
		}
	}
	return a.provider.AuthorizationURL(state), nil
}

// Complete finishes the authorization flow: exchange the code, persist the
// tokens, and best-effort identify the athlete for the result page.
func (a *Authenticator) Complete(ctx context.Context, code string) (string, error) {
	set, err := a.provider.Exchange(ctx, code)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	err = a.store.Save(ctx, set)
	a.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("saving credentials: %w", err)
	}

	// The result page survives a failed profile lookup.
	client := strava.NewClient(set.AccessToken, a.clientCfg)
	athlete, err := client.GetAthlete(ctx)
	if err != nil {
		a.logger.Warn("fetching athlete profile after exchange", "error", err)
		return "", nil
	}
	return strings.TrimSpace(athlete.Firstname + " " + athlete.Lastname), nil
}

// Logout clears stored credentials. It is idempotent.
func (a *Authenticator) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	a.logger.Info("credentials cleared")
	return nil
}

// Close stops the callback listener if one is managed.
func (a *Authenticator) Close(ctx context.Context) error {
	if a.listener == nil {
		return nil
	}
	return a.listener.Stop(ctx)
}

func errAuthRequired() error {
	return strava.NewError(
		strava.KindAuthRequired,
		"Not authenticated with Strava",
		"Call strava_auth_url to begin authentication",
	)
}

var _ oauth.Flow = (*Authenticator)(nil)
