package window

import (
	"github.com/vulkan-go/glfw/v3.3/glfw"
)

// Event is one of Quit, KeyEvent or ResizeEvent
type Event interface {
	isEvent()
}

// Quit is the last event of a window, sent once it is closing
type Quit struct{}

// Key is a physical key, named by its US layout meaning
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyTab
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyF11
)

var glfwKeys = map[glfw.Key]Key{
	glfw.KeyEscape:    KeyEscape,
	glfw.KeyEnter:     KeyEnter,
	glfw.KeyKPEnter:   KeyEnter,
	glfw.KeyBackspace: KeyBackspace,
	glfw.KeyTab:       KeyTab,
	glfw.KeyLeft:      KeyLeft,
	glfw.KeyRight:     KeyRight,
	glfw.KeyUp:        KeyUp,
	glfw.KeyDown:      KeyDown,
	glfw.KeyF11:       KeyF11,
}

// Modifiers held during a key event
type Modifiers int

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

func modifiersFromGLFW(m glfw.ModifierKey) Modifiers {
	var ret Modifiers
	if m&glfw.ModShift != 0 {
		ret |= ModShift
	}
	if m&glfw.ModControl != 0 {
		ret |= ModControl
	}
	if m&glfw.ModAlt != 0 {
		ret |= ModAlt
	}
	if m&glfw.ModSuper != 0 {
		ret |= ModSuper
	}
	return ret
}

// KeyEvent is either a key changing state, or a character typed. A typed
// character has Rune set, Key is then KeyUnknown and Pressed true.
type KeyEvent struct {
	Key     Key
	Rune    rune
	Pressed bool
	Repeat  bool
	Mods    Modifiers
}

// ResizeEvent reports the new framebuffer size. The window is blocked until
// Ack is closed, which the receiver does once it drew a frame at that size.
// A zero width or height means the window was minimized.
type ResizeEvent struct {
	Width  uint32
	Height uint32
	Ack    chan struct{}
}

func (Quit) isEvent()        {}
func (KeyEvent) isEvent()    {}
func (ResizeEvent) isEvent() {}
