package strava

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewProvider(OAuthConfig{
		ClientID:     12345,
		ClientSecret: "s3cret",
		RedirectURL:  "http://127.0.0.1:5050/strava-oauth",
		TokenURL:     srv.URL + "/token",
	})
}

func TestAuthorizationURL(t *testing.T) {
	provider := NewProvider(OAuthConfig{
		ClientID:     12345,
		ClientSecret: "s3cret",
		RedirectURL:  "http://127.0.0.1:5050/strava-oauth",
	})

	raw := provider.AuthorizationURL("test-state")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "www.strava.com", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "12345", q.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:5050/strava-oauth", q.Get("redirect_uri"))
	assert.Equal(t, "test-state", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "auto", q.Get("approval_prompt"))
	assert.Equal(t, "read,activity:read,activity:read_all,profile:read_all", q.Get("scope"))
}

func TestExchange(t *testing.T) {
	t.Run("returns server-reported token set", func(t *testing.T) {
		var gotForm url.Values
		provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotForm = r.Form
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in":21600}`))
		})

		set, err := provider.Exchange(context.Background(), "the-code")
		require.NoError(t, err)
		assert.Equal(t, "at-1", set.AccessToken)
		assert.Equal(t, "rt-1", set.RefreshToken)
		assert.Greater(t, set.ExpiresAt, int64(0))
		assert.NoError(t, set.Validate())

		assert.Equal(t, "the-code", gotForm.Get("code"))
		assert.Equal(t, "12345", gotForm.Get("client_id"))
		assert.Equal(t, "s3cret", gotForm.Get("client_secret"))
		assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	})

	t.Run("classifies a 400 as exchange_failed", func(t *testing.T) {
		provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Bad Request"}`))
		})

		_, err := provider.Exchange(context.Background(), "stale-code")
		require.Error(t, err)

		var tagged *Error
		require.True(t, errors.As(err, &tagged))
		assert.Equal(t, KindExchange, tagged.Kind)
	})

	t.Run("classifies unreachable endpoint as network_error", func(t *testing.T) {
		provider := NewProvider(OAuthConfig{
			ClientID:     12345,
			ClientSecret: "s3cret",
			TokenURL:     "http://127.0.0.1:1/token",
		})

		_, err := provider.Exchange(context.Background(), "code")
		require.Error(t, err)

		var tagged *Error
		require.True(t, errors.As(err, &tagged))
		assert.Equal(t, KindNetwork, tagged.Kind)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("uses the refresh grant and returns rotated tokens", func(t *testing.T) {
		var gotForm url.Values
		provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotForm = r.Form
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at-2","refresh_token":"rt-2","token_type":"Bearer","expires_in":21600}`))
		})

		set, err := provider.Refresh(context.Background(), "rt-1")
		require.NoError(t, err)
		assert.Equal(t, "at-2", set.AccessToken)
		assert.Equal(t, "rt-2", set.RefreshToken)
		assert.Greater(t, set.ExpiresAt, int64(0))

		assert.Equal(t, "refresh_token", gotForm.Get("grant_type"))
		assert.Equal(t, "rt-1", gotForm.Get("refresh_token"))
	})

	t.Run("classifies a 400 as unauthorized", func(t *testing.T) {
		provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Bad Request"}`))
		})

		_, err := provider.Refresh(context.Background(), "revoked")
		require.Error(t, err)

		var tagged *Error
		require.True(t, errors.As(err, &tagged))
		assert.Equal(t, KindUnauthorized, tagged.Kind)
		assert.Contains(t, tagged.Action, "strava_auth_url")
	})
}
