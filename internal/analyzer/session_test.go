package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStartsUnstarted(t *testing.T) {
	s := NewSession(Config{Command: "true"}, nil)
	assert.Equal(t, StateUnstarted, s.State())
	assert.NotEmpty(t, s.ID())
}

func TestSessionStartFailureIsHandshakeFailed(t *testing.T) {
	s := NewSession(Config{
		Command: "/nonexistent/analyzer-binary",
		Timeout: time.Second,
	}, nil)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHandshakeFailed)
	assert.Equal(t, StateClosed, s.State())
}

func TestSessionHandshakeTimeoutIsFatal(t *testing.T) {
	// A process that never answers the initialize request.
	s := NewSession(Config{
		Command: "cat",
		Timeout: 200 * time.Millisecond,
	}, nil)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHandshakeFailed)
	assert.Equal(t, StateClosed, s.State())
}

func TestSessionNotificationsRequireReady(t *testing.T) {
	s := NewSession(Config{Command: "true"}, nil)

	assert.ErrorIs(t, s.DidOpen("file:///f.py", "python", 0, ""), ErrNotReady)
	assert.ErrorIs(t, s.DidClose("file:///f.py"), ErrNotReady)
	assert.ErrorIs(t, s.DidChange("file:///f.py", 1, nil), ErrNotReady)

	_, err := s.DocumentSymbols(context.Background(), "file:///f.py")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSessionShutdownIdempotent(t *testing.T) {
	s := NewSession(Config{Command: "true"}, nil)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, StateClosed, s.State())
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUnstarted, "unstarted"},
		{StateInitializing, "initializing"},
		{StateReady, "ready"},
		{StateShuttingDown, "shutting down"},
		{StateClosed, "closed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestFilePathURIRoundTrip(t *testing.T) {
	assert.Equal(t, "file:///tmp/p/f.py", FilePathToURI("/tmp/p/f.py"))
	assert.Equal(t, "file:///tmp/p/f.py", FilePathToURI("file:///tmp/p/f.py"))
	assert.Equal(t, "/tmp/p/f.py", URIToFilePath("file:///tmp/p/f.py"))
}
