// Package window opens a glfw window without a client API, for Vulkan to
// present to, and turns its callbacks into a stream of Events
package window

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	"golang.org/x/exp/slog"
)

func init() {
	// glfw must only be called from the main thread
	runtime.LockOSThread()
}

// Config of a window, zero values pick the defaults
type Config struct {
	Title  string
	Width  int
	Height int
	Logger *slog.Logger
}

type Window struct {
	glfw   *glfw.Window
	events chan Event
	logger *slog.Logger

	requests chan func()
	closing  chan struct{}
	once     sync.Once

	fullscreen bool
	// windowed position and size, restored when leaving fullscreen
	restore [4]int
}

// Open initializes glfw and creates the window. It must be called from the
// main goroutine, and so must Run and Destroy.
func Open(cfg Config) (*Window, error) {
	if cfg.Title == "" {
		cfg.Title = "kavi"
	}
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 720
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	err := glfw.Init()
	if err != nil {
		return nil, errors.Wrap(err, "initializing glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw found no vulkan loader")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "creating window")
	}

	w := &Window{
		glfw:     win,
		events:   make(chan Event, 64),
		logger:   logger,
		requests: make(chan func(), 8),
		closing:  make(chan struct{}),
	}
	win.SetKeyCallback(w.keyChange)
	win.SetCharCallback(w.charChange)
	win.SetFramebufferSizeCallback(w.framebufferSizeChange)

	logger.Debug("window open", slog.String("title", cfg.Title),
		slog.Int("width", cfg.Width), slog.Int("height", cfg.Height))
	return w, nil
}

// GLFW is the underlying window, for surface creation
func (w *Window) GLFW() *glfw.Window {
	return w.glfw
}

// Events delivers everything that happens to the window, ending with Quit
func (w *Window) Events() <-chan Event {
	return w.events
}

func (w *Window) keyChange(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	k, ok := glfwKeys[key]
	if !ok {
		return
	}
	w.send(KeyEvent{
		Key:     k,
		Pressed: action != glfw.Release,
		Repeat:  action == glfw.Repeat,
		Mods:    modifiersFromGLFW(mods),
	})
}

func (w *Window) charChange(_ *glfw.Window, char rune) {
	w.send(KeyEvent{Rune: char, Pressed: true})
}

// framebufferSizeChange holds the event loop until the receiver has redrawn,
// so the window never shows a stretched frame
func (w *Window) framebufferSizeChange(_ *glfw.Window, width, height int) {
	ack := make(chan struct{})
	if !w.send(ResizeEvent{Width: uint32(width), Height: uint32(height), Ack: ack}) {
		return
	}
	select {
	case <-ack:
	case <-w.closing:
	}
}

func (w *Window) send(e Event) bool {
	select {
	case w.events <- e:
		return true
	case <-w.closing:
		return false
	}
}

// Run pumps events until the window is closed by the user or Close, then
// sends Quit
func (w *Window) Run() {
	for !w.glfw.ShouldClose() {
		glfw.WaitEvents()
		w.drain()
	}
	select {
	case w.events <- Quit{}:
	case <-w.closing:
	}
}

func (w *Window) drain() {
	for {
		select {
		case fn := <-w.requests:
			fn()
		case <-w.closing:
			w.glfw.SetShouldClose(true)
			return
		default:
			return
		}
	}
}

// post runs fn on the event loop
func (w *Window) post(fn func()) {
	select {
	case w.requests <- fn:
		glfw.PostEmptyEvent()
	case <-w.closing:
	}
}

// Close makes Run return. It may be called from any goroutine, and more than
// once. Events sent after Close are dropped.
func (w *Window) Close() {
	w.once.Do(func() {
		close(w.closing)
		glfw.PostEmptyEvent()
	})
}

// ToggleFullscreen switches between windowed and fullscreen on the primary
// monitor. It may be called from any goroutine.
func (w *Window) ToggleFullscreen() {
	w.post(w.toggleFullscreen)
}

func (w *Window) toggleFullscreen() {
	if w.fullscreen {
		r := w.restore
		w.glfw.SetMonitor(nil, r[0], r[1], r[2], r[3], 0)
		w.fullscreen = false
		return
	}

	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		w.logger.Warn("no monitor to go fullscreen on")
		return
	}
	mode := monitor.GetVideoMode()
	x, y := w.glfw.GetPos()
	width, height := w.glfw.GetSize()
	w.restore = [4]int{x, y, width, height}
	w.glfw.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	w.fullscreen = true
}

// Destroy closes the window and terminates glfw
func (w *Window) Destroy() {
	w.Close()
	w.glfw.Destroy()
	glfw.Terminate()
}
