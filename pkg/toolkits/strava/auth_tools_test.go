package strava

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-strava/pkg/auth"
	stravaapi "github.com/txn2/mcp-strava/pkg/strava"
)

func TestAuthStatusTool(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		tk := New("strava", &fakeAuth{}, nil, nil)

		result, _, err := tk.handleAuthStatus(context.Background(), nil, emptyInput{})
		require.NoError(t, err)
		require.False(t, result.IsError)

		var out authStatusOutput
		decodeResult(t, result, &out)
		assert.False(t, out.Authenticated)
		assert.Contains(t, out.Message, "strava_auth_url")
	})

	t.Run("authenticated", func(t *testing.T) {
		expiresAt := time.Now().Add(time.Hour).Unix()
		tk := New("strava", &fakeAuth{status: &auth.Status{
			Authenticated: true,
			ExpiresAt:     expiresAt,
			ExpiresIn:     3600,
		}}, nil, nil)

		result, _, err := tk.handleAuthStatus(context.Background(), nil, emptyInput{})
		require.NoError(t, err)

		var out authStatusOutput
		decodeResult(t, result, &out)
		assert.True(t, out.Authenticated)
		assert.Equal(t, expiresAt, out.ExpiresAt)
		assert.Contains(t, out.Message, "Authenticated")
	})

	t.Run("expired", func(t *testing.T) {
		tk := New("strava", &fakeAuth{status: &auth.Status{
			Authenticated: true,
			Expired:       true,
		}}, nil, nil)

		result, _, err := tk.handleAuthStatus(context.Background(), nil, emptyInput{})
		require.NoError(t, err)

		var out authStatusOutput
		decodeResult(t, result, &out)
		assert.True(t, out.Expired)
		assert.Contains(t, out.Message, "refreshed automatically")
	})
}

func TestAuthURLTool(t *testing.T) {
	tk := New("strava", &fakeAuth{authURL: "https://www.strava.com/oauth/authorize?state=abc"}, nil, nil)

	result, _, err := tk.handleAuthURL(context.Background(), nil, emptyInput{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out authURLOutput
	decodeResult(t, result, &out)
	assert.Equal(t, "https://www.strava.com/oauth/authorize?state=abc", out.URL)
}

func TestAuthURLToolError(t *testing.T) {
	tk := New("strava", &fakeAuth{authURLErr: stravaapi.NewError(stravaapi.KindUnexpected, "listener failed", "")}, nil, nil)

	result, _, err := tk.handleAuthURL(context.Background(), nil, emptyInput{})
	require.NoError(t, err)
	assertToolError(t, result, "unexpected_error")
}

func TestAuthenticateAlreadyAuthenticated(t *testing.T) {
	tk := New("strava", &fakeAuth{status: &auth.Status{Authenticated: true}}, nil, nil)

	result, _, err := tk.handleAuthenticate(context.Background(), nil, authenticateInput{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out authenticateOutput
	decodeResult(t, result, &out)
	assert.True(t, out.Authenticated)
}

func TestAuthenticateCompletesAfterApproval(t *testing.T) {
	fa := &fakeAuth{authURL: "https://www.strava.com/oauth/authorize?state=abc"}
	tk := New("strava", fa, nil, nil)
	tk.waitTimeout = 2 * time.Second
	tk.openBrowser = func(string) error { return nil }

	// Approval lands while the tool is polling.
	go func() {
		time.Sleep(100 * time.Millisecond)
		fa.setStatus(&auth.Status{Authenticated: true})
	}()

	result, _, err := tk.handleAuthenticate(context.Background(), nil, authenticateInput{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out authenticateOutput
	decodeResult(t, result, &out)
	assert.True(t, out.Authenticated)
	assert.Contains(t, out.Message, "complete")
}

func TestAuthenticateWithCode(t *testing.T) {
	fa := &fakeAuth{
		completeName: "Fausto Coppi",
		status:       &auth.Status{Authenticated: true, ExpiresAt: 1893456000},
	}
	tk := New("strava", fa, nil, nil)

	result, _, err := tk.handleAuthenticate(context.Background(), nil, authenticateInput{Code: "  abc123  "})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out authenticateOutput
	decodeResult(t, result, &out)
	assert.True(t, out.Authenticated)
	assert.Contains(t, out.Message, "Fausto Coppi")
	assert.Equal(t, int64(1893456000), out.ExpiresAt)
	assert.Equal(t, "abc123", fa.gotCode)
	assert.EqualValues(t, 1, fa.completeCalls)
}

func TestAuthenticateWithCodeExchangeFails(t *testing.T) {
	fa := &fakeAuth{
		completeErr: stravaapi.NewError(stravaapi.KindExchange, "Failed to exchange authorization code", "Call strava_auth_url for a fresh code"),
	}
	tk := New("strava", fa, nil, nil)

	result, _, err := tk.handleAuthenticate(context.Background(), nil, authenticateInput{Code: "stale"})
	require.NoError(t, err)
	assertToolError(t, result, "exchange_failed")
}

func TestAuthenticateTimesOut(t *testing.T) {
	fa := &fakeAuth{authURL: "https://www.strava.com/oauth/authorize?state=abc"}
	tk := New("strava", fa, nil, nil)
	tk.waitTimeout = 50 * time.Millisecond
	tk.openBrowser = func(string) error { return nil }

	result, _, err := tk.handleAuthenticate(context.Background(), nil, authenticateInput{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out authenticateOutput
	decodeResult(t, result, &out)
	assert.False(t, out.Authenticated)
	assert.Equal(t, fa.authURL, out.URL)
	assert.Contains(t, out.Message, "Timed out")
}

func TestLogoutTool(t *testing.T) {
	fa := &fakeAuth{}
	tk := New("strava", fa, nil, nil)

	result, _, err := tk.handleLogout(context.Background(), nil, emptyInput{})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.EqualValues(t, 1, fa.logoutCalls)
}
