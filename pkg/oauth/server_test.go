package oauth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-strava/pkg/config"
)

type fakeFlow struct {
	name      string
	err       error
	calls     int
	gotCode   string
	authURL   string
	authErr   error
	authCalls int
}

func (f *fakeFlow) AuthorizationURL(context.Context) (string, error) {
	f.authCalls++
	return f.authURL, f.authErr
}

func (f *fakeFlow) Complete(_ context.Context, code string) (string, error) {
	f.calls++
	f.gotCode = code
	return f.name, f.err
}

func newTestCallback(t *testing.T, flow Flow) (*CallbackServer, *StateTracker, *httptest.Server) {
	t.Helper()
	tracker := NewStateTracker(0)
	server := NewCallbackServer(CallbackConfig{}, tracker, flow, nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, tracker, ts
}

func callbackGet(t *testing.T, ts *httptest.Server, params url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + DefaultCallbackPath + "?" + params.Encode())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func TestLoginPage(t *testing.T) {
	t.Setenv(config.EnvClientID, "12345")
	t.Setenv(config.EnvClientSecret, "s3cret")

	flow := &fakeFlow{authURL: "https://www.strava.com/oauth/authorize?client_id=12345"}
	_, _, ts := newTestCallback(t, flow)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Connect with Strava")
	assert.Contains(t, string(body), flow.authURL)
	assert.Equal(t, 1, flow.authCalls)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestLoginPageWithoutCredentials(t *testing.T) {
	t.Setenv(config.EnvClientID, "")
	t.Setenv(config.EnvClientSecret, "")

	flow := &fakeFlow{authURL: "https://www.strava.com/oauth/authorize"}
	_, _, ts := newTestCallback(t, flow)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "credentials not configured")
	assert.Contains(t, string(body), config.EnvClientID)

	// No state is issued until credentials are in place.
	assert.Equal(t, 0, flow.authCalls)
}

func TestLoginPageAuthorizationFailure(t *testing.T) {
	t.Setenv(config.EnvClientID, "12345")
	t.Setenv(config.EnvClientSecret, "s3cret")

	flow := &fakeFlow{authErr: errors.New("listener refused to start")}
	_, _, ts := newTestCallback(t, flow)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Could not start the authorization flow")
}

func TestCallbackSuccess(t *testing.T) {
	flow := &fakeFlow{name: "Eddy Merckx"}
	_, tracker, ts := newTestCallback(t, flow)

	state, err := tracker.Generate()
	require.NoError(t, err)

	resp, body := callbackGet(t, ts, url.Values{"state": {state}, "code": {"auth-code-1"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Connected to Strava")
	assert.Contains(t, body, "Eddy Merckx")
	assert.Equal(t, 1, flow.calls)
	assert.Equal(t, "auth-code-1", flow.gotCode)
}

func TestCallbackSuccessWithoutName(t *testing.T) {
	flow := &fakeFlow{}
	_, tracker, ts := newTestCallback(t, flow)

	state, err := tracker.Generate()
	require.NoError(t, err)

	resp, body := callbackGet(t, ts, url.Values{"state": {state}, "code": {"auth-code-1"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Authentication complete")
}

func TestCallbackProviderError(t *testing.T) {
	flow := &fakeFlow{}
	_, tracker, ts := newTestCallback(t, flow)

	state, err := tracker.Generate()
	require.NoError(t, err)

	resp, body := callbackGet(t, ts, url.Values{"state": {state}, "error": {"access_denied"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "access_denied")
	assert.Equal(t, 0, flow.calls)

	// State was not consumed by the error path.
	assert.Equal(t, 1, tracker.Pending())
}

func TestCallbackInvalidState(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
	}{
		{"missing state", url.Values{"code": {"c"}}},
		{"unknown state", url.Values{"state": {"bogus"}, "code": {"c"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := &fakeFlow{}
			_, _, ts := newTestCallback(t, flow)

			resp, body := callbackGet(t, ts, tt.params)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Contains(t, body, "could not be verified")
			assert.Equal(t, 0, flow.calls)
		})
	}
}

func TestCallbackStateReplay(t *testing.T) {
	flow := &fakeFlow{}
	_, tracker, ts := newTestCallback(t, flow)

	state, err := tracker.Generate()
	require.NoError(t, err)

	resp, _ := callbackGet(t, ts, url.Values{"state": {state}, "code": {"c1"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = callbackGet(t, ts, url.Values{"state": {state}, "code": {"c2"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 1, flow.calls)
}

func TestCallbackMissingCode(t *testing.T) {
	flow := &fakeFlow{}
	_, tracker, ts := newTestCallback(t, flow)

	state, err := tracker.Generate()
	require.NoError(t, err)

	resp, body := callbackGet(t, ts, url.Values{"state": {state}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Missing authorization code")
	assert.Equal(t, 0, flow.calls)
}

func TestCallbackExchangeFailure(t *testing.T) {
	flow := &fakeFlow{err: errors.New("exchange_failed: Authorization code invalid or expired")}
	_, tracker, ts := newTestCallback(t, flow)

	state, err := tracker.Generate()
	require.NoError(t, err)

	resp, body := callbackGet(t, ts, url.Values{"state": {state}, "code": {"stale"}})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "Token exchange failed")
}

func TestCallbackSecurityHeaders(t *testing.T) {
	flow := &fakeFlow{}
	_, _, ts := newTestCallback(t, flow)

	resp, _ := callbackGet(t, ts, url.Values{"state": {"bogus"}})

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'none'")
}

func TestCallbackRedirectURL(t *testing.T) {
	server := NewCallbackServer(CallbackConfig{}, NewStateTracker(0), &fakeFlow{}, nil)
	assert.Equal(t, "http://127.0.0.1:5050/strava-oauth", server.RedirectURL())

	custom := NewCallbackServer(CallbackConfig{Host: "localhost", Port: 9999, Path: "/cb"}, NewStateTracker(0), &fakeFlow{}, nil)
	assert.Equal(t, "http://localhost:9999/cb", custom.RedirectURL())
}
