package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func runServer(t *testing.T, ctx context.Context) (chan<- ClientMessage, <-chan ServerMessage, <-chan error) {
	t.Helper()
	in := make(chan ClientMessage)
	out := make(chan ServerMessage, 16)
	done := make(chan error, 1)
	s := NewServer(nil, slog.Default())
	go func() {
		done <- s.Run(ctx, in, out)
	}()
	return in, out, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
		return nil
	}
}

func TestServerRepliesToChanges(t *testing.T) {
	in, out, done := runServer(t, context.Background())

	in <- CommandMessage{Insert{'h'}}
	in <- CommandMessage{Select{Line}}
	in <- CommandMessage{Insert{'i'}}
	in <- Shutdown{}
	require.NoError(t, waitDone(t, done))

	require.Len(t, out, 2, "selecting changes nothing")
	assert.Equal(t, TextChanged{Text: "h"}, <-out)
	assert.Equal(t, TextChanged{Text: "hi"}, <-out)
}

func TestServerSurvivesFailedCommand(t *testing.T) {
	in, out, done := runServer(t, context.Background())

	in <- CommandMessage{Open{Path: "/nonexistent/kavi"}}
	in <- CommandMessage{Insert{'x'}}
	close(in)
	require.NoError(t, waitDone(t, done))

	require.Len(t, out, 1)
	assert.Equal(t, TextChanged{Text: "x"}, <-out)
}

func TestServerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, _, done := runServer(t, ctx)
	cancel()
	assert.ErrorIs(t, waitDone(t, done), context.Canceled)
}
