package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/txn2/mcp-strava/pkg/tokens"
)

// Strava OAuth endpoints.
const (
	DefaultAuthURL  = "https://www.strava.com/oauth/authorize"
	DefaultTokenURL = "https://www.strava.com/oauth/token"
)

// DefaultScopes are the scopes requested by the authorization flow.
// Strava expects them comma-separated in a single scope parameter.
var DefaultScopes = []string{"read", "activity:read", "activity:read_all", "profile:read_all"}

// OAuthConfig configures the OAuth provider.
type OAuthConfig struct {
	ClientID     int
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	// AuthURL and TokenURL override the Strava endpoints, mainly for tests.
	AuthURL  string
	TokenURL string
	Timeout  time.Duration
}

// Provider performs the authorization-code exchange and token refresh
// against Strava's token endpoint.
type Provider struct {
	config  *oauth2.Config
	timeout time.Duration
}

// NewProvider creates an OAuth provider.
func NewProvider(cfg OAuthConfig) *Provider {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     strconv.Itoa(cfg.ClientID),
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			// Strava wants one comma-separated scope value.
			Scopes: []string{strings.Join(cfg.Scopes, ",")},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		timeout: cfg.Timeout,
	}
}

// AuthorizationURL builds the provider authorization URL embedding the
// CSRF state.
func (p *Provider) AuthorizationURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

// Exchange trades an authorization code for a token set. The expiry is the
// server-reported one.
func (p *Provider) Exchange(ctx context.Context, code string) (*tokens.TokenSet, error) {
	tok, err := p.config.Exchange(p.httpContext(ctx), code)
	if err != nil {
		return nil, mapExchangeError(err, false)
	}
	return tokenSetFromOAuth2(tok), nil
}

// Refresh trades a refresh token for a fresh token set. Strava may rotate
// the refresh token; the returned set always carries the current one.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*tokens.TokenSet, error) {
	src := p.config.TokenSource(p.httpContext(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
		// Force the source to refresh rather than reuse.
		Expiry: time.Now().Add(-time.Minute),
	})
	tok, err := src.Token()
	if err != nil {
		return nil, mapExchangeError(err, true)
	}
	return tokenSetFromOAuth2(tok), nil
}

// httpContext injects a timeout-bounded HTTP client for the oauth2 package.
func (p *Provider) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: p.timeout})
}

func tokenSetFromOAuth2(tok *oauth2.Token) *tokens.TokenSet {
	var expiresAt int64
	if !tok.Expiry.IsZero() {
		expiresAt = tok.Expiry.Unix()
	}
	return &tokens.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt,
	}
}
