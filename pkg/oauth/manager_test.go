package oauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freePort grabs an ephemeral port and releases it for the manager to bind.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func newTestManager(t *testing.T) (*Manager, *StateTracker) {
	t.Helper()
	tracker := NewStateTracker(0)
	server := NewCallbackServer(CallbackConfig{Port: freePort(t)}, tracker, &fakeFlow{name: "Beryl Burton"}, nil)
	manager := NewManager(server, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = manager.Stop(ctx)
	})
	return manager, tracker
}

func TestManagerStartServesCallbacks(t *testing.T) {
	manager, tracker := newTestManager(t)

	require.NoError(t, manager.Start())
	assert.True(t, manager.Running())

	state, err := tracker.Generate()
	require.NoError(t, err)

	url := fmt.Sprintf("%s?state=%s&code=abc", manager.server.RedirectURL(), state)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, manager.Err())
}

func TestManagerStartIdempotent(t *testing.T) {
	manager, _ := newTestManager(t)

	require.NoError(t, manager.Start())
	require.NoError(t, manager.Start())
	assert.True(t, manager.Running())
}

func TestManagerStopAndRestart(t *testing.T) {
	manager, _ := newTestManager(t)

	require.NoError(t, manager.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, manager.Stop(ctx))

	// Serve goroutine flips the running flag on shutdown.
	assert.Eventually(t, func() bool { return !manager.Running() }, time.Second, 10*time.Millisecond)

	require.NoError(t, manager.Start())
	assert.True(t, manager.Running())
}

func TestManagerStopWithoutStart(t *testing.T) {
	manager, _ := newTestManager(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, manager.Stop(ctx))
}

func TestManagerBindConflict(t *testing.T) {
	port := freePort(t)
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	server := NewCallbackServer(CallbackConfig{Port: port}, NewStateTracker(0), &fakeFlow{}, nil)
	manager := NewManager(server, nil)

	err = manager.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binding callback listener")
	assert.False(t, manager.Running())
}
