package strava

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestErrorString(t *testing.T) {
	withAction := NewError(KindNotFound, "Resource not found", "Verify the ID exists")
	assert.Equal(t, "not_found: Resource not found (Verify the ID exists)", withAction.Error())

	bare := NewError(KindNetwork, "Unable to connect", "")
	assert.Equal(t, "network_error: Unable to connect", bare.Error())
}

func TestAsError(t *testing.T) {
	t.Run("passes tagged errors through", func(t *testing.T) {
		tagged := NewError(KindAuthRequired, "Not authenticated", "Use strava_auth_url")
		wrapped := fmt.Errorf("calling tool: %w", tagged)

		got := AsError(wrapped)
		assert.Equal(t, KindAuthRequired, got.Kind)
		assert.Equal(t, "Not authenticated", got.Message)
	})

	t.Run("wraps unknown errors with their type", func(t *testing.T) {
		got := AsError(errors.New("boom"))
		assert.Equal(t, KindUnexpected, got.Kind)
		assert.Contains(t, got.Message, "boom")
		assert.Contains(t, got.Message, "*errors.errorString")
	})
}

func TestMapStatusError(t *testing.T) {
	tests := []struct {
		status     int
		wantKind   Kind
		wantRetry  int
		wantAction bool
	}{
		{429, KindRateLimited, 900, true},
		{401, KindUnauthorized, 0, true},
		{404, KindNotFound, 0, true},
		{403, KindForbidden, 0, true},
		{500, KindUnexpected, 0, false},
		{502, KindUnexpected, 0, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			got := mapStatusError(tt.status, "body")
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.Equal(t, tt.wantRetry, got.RetryAfter)
			if tt.wantAction {
				assert.NotEmpty(t, got.Action)
			}
		})
	}

	t.Run("unexpected status carries body excerpt", func(t *testing.T) {
		got := mapStatusError(500, `{"message":"server exploded"}`)
		assert.Contains(t, got.Message, "server exploded")
	})
}

func TestMapTransportError(t *testing.T) {
	t.Run("deadline exceeded is a timeout", func(t *testing.T) {
		got := mapTransportError(context.DeadlineExceeded)
		assert.Equal(t, KindTimeout, got.Kind)
	})

	t.Run("url error wrapping a deadline is a timeout", func(t *testing.T) {
		got := mapTransportError(&url.Error{Op: "Get", URL: "https://example.com", Err: context.DeadlineExceeded})
		assert.Equal(t, KindTimeout, got.Kind)
	})

	t.Run("other url errors are network errors", func(t *testing.T) {
		got := mapTransportError(&url.Error{Op: "Get", URL: "https://example.com", Err: errors.New("connection refused")})
		assert.Equal(t, KindNetwork, got.Kind)
	})

	t.Run("anything else is unexpected", func(t *testing.T) {
		got := mapTransportError(errors.New("weird"))
		assert.Equal(t, KindUnexpected, got.Kind)
	})
}

func retrieveError(status int) *oauth2.RetrieveError {
	return &oauth2.RetrieveError{
		Response: &http.Response{StatusCode: status},
		Body:     []byte(`{"message":"Bad Request"}`),
	}
}

func TestMapExchangeError(t *testing.T) {
	t.Run("400 during exchange means bad code", func(t *testing.T) {
		got := mapExchangeError(retrieveError(400), false)
		assert.Equal(t, KindExchange, got.Kind)
		assert.Contains(t, got.Message, "Authorization code")
	})

	t.Run("400 during refresh means dead refresh token", func(t *testing.T) {
		got := mapExchangeError(retrieveError(400), true)
		assert.Equal(t, KindUnauthorized, got.Kind)
		assert.Contains(t, got.Message, "Refresh token")
	})

	t.Run("401 means bad client credentials", func(t *testing.T) {
		got := mapExchangeError(retrieveError(401), false)
		require.Equal(t, KindExchange, got.Kind)
		assert.Contains(t, got.Action, "STRAVA_CLIENT_ID")
	})

	t.Run("429 is rate limited", func(t *testing.T) {
		got := mapExchangeError(retrieveError(429), true)
		assert.Equal(t, KindRateLimited, got.Kind)
		assert.Equal(t, 900, got.RetryAfter)
	})

	t.Run("other statuses are exchange failures", func(t *testing.T) {
		got := mapExchangeError(retrieveError(503), false)
		assert.Equal(t, KindExchange, got.Kind)
		assert.Equal(t, 503, got.StatusCode)
	})

	t.Run("transport failures fall through", func(t *testing.T) {
		got := mapExchangeError(&url.Error{Op: "Post", URL: "https://example.com", Err: errors.New("no route to host")}, false)
		assert.Equal(t, KindNetwork, got.Kind)
	})
}
