package gui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessflake/kavi/editor"
	"github.com/lessflake/kavi/window"
)

type fakeRenderer struct {
	mu      sync.Mutex
	frames  []string
	resizes [][2]uint32
	err     error
}

func (f *fakeRenderer) DrawFrame(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, text)
	return f.err
}

func (f *fakeRenderer) Resize(width, height uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]uint32{width, height})
	return nil
}

func (f *fakeRenderer) lastFrame() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return ""
	}
	return f.frames[len(f.frames)-1]
}

type fakeWindow struct {
	mu         sync.Mutex
	closed     int
	fullscreen int
}

func (f *fakeWindow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeWindow) ToggleFullscreen() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullscreen++
}

type harness struct {
	renderer *fakeRenderer
	window   *fakeWindow
	events   chan window.Event
	client   chan error
	server   chan error
}

func start(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		renderer: &fakeRenderer{},
		window:   &fakeWindow{},
		events:   make(chan window.Event),
		client:   make(chan error, 1),
		server:   make(chan error, 1),
	}
	tx := make(chan editor.ClientMessage)
	rx := make(chan editor.ServerMessage)

	go func() {
		h.server <- editor.NewServer(nil, nil).Run(context.Background(), tx, rx)
	}()
	go func() {
		h.client <- NewClient(h.window, h.renderer, nil).Run(context.Background(), h.events, tx, rx)
	}()
	return h
}

func (h *harness) wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		t.Fatal("timed out")
		return nil
	}
}

func TestClientTypesIntoEditor(t *testing.T) {
	h := start(t)

	for _, e := range []window.KeyEvent{char('l'), char('h'), char('i'), key(window.KeyEnter), char('!')} {
		h.events <- e
	}
	assert.Eventually(t, func() bool {
		return h.renderer.lastFrame() == "hi\n!"
	}, time.Second, time.Millisecond)

	h.events <- window.Quit{}
	require.NoError(t, h.wait(t, h.client))
	require.NoError(t, h.wait(t, h.server), "the editor is shut down with the client")
	assert.Equal(t, 1, h.window.closed)
}

func TestClientAcksResize(t *testing.T) {
	h := start(t)

	ack := make(chan struct{})
	h.events <- window.ResizeEvent{Width: 800, Height: 600, Ack: ack}
	select {
	case <-ack:
	case <-time.After(time.Second):
		t.Fatal("resize was not acknowledged")
	}

	h.renderer.mu.Lock()
	assert.Equal(t, [][2]uint32{{800, 600}}, h.renderer.resizes)
	assert.Len(t, h.renderer.frames, 2, "first frame and the one after resizing")
	h.renderer.mu.Unlock()

	h.events <- window.Quit{}
	require.NoError(t, h.wait(t, h.client))
}

func TestClientWindowKeys(t *testing.T) {
	h := start(t)

	h.events <- key(window.KeyF11)
	h.events <- key(window.KeyEscape)
	require.NoError(t, h.wait(t, h.client))
	require.NoError(t, h.wait(t, h.server))

	assert.Equal(t, 1, h.window.fullscreen)
	assert.Equal(t, 1, h.window.closed)
}

func TestClientStopsOnDrawFailure(t *testing.T) {
	h := &harness{
		renderer: &fakeRenderer{err: errors.New("device lost")},
		window:   &fakeWindow{},
	}
	tx := make(chan editor.ClientMessage, 1)
	err := NewClient(h.window, h.renderer, nil).Run(context.Background(), nil, tx, nil)
	assert.ErrorContains(t, err, "device lost")
	assert.Equal(t, editor.Shutdown{}, <-tx)
	assert.Equal(t, 1, h.window.closed)
}
