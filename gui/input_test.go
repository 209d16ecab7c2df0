package gui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lessflake/kavi/editor"
	"github.com/lessflake/kavi/window"
)

func key(k window.Key) window.KeyEvent {
	return window.KeyEvent{Key: k, Pressed: true}
}

func char(r rune) window.KeyEvent {
	return window.KeyEvent{Rune: r, Pressed: true}
}

func TestInputModes(t *testing.T) {
	var in Input
	assert.Equal(t, ModeNormal, in.Mode())

	cmd, action := in.Handle(char('l'))
	assert.Nil(t, cmd)
	assert.Equal(t, ActionNone, action)
	assert.Equal(t, ModeInsert, in.Mode())

	cmd, _ = in.Handle(char('l'))
	assert.Equal(t, editor.Insert{Rune: 'l'}, cmd, "insert mode types l")

	cmd, action = in.Handle(key(window.KeyEscape))
	assert.Nil(t, cmd)
	assert.Equal(t, ActionNone, action)
	assert.Equal(t, ModeNormal, in.Mode())

	_, action = in.Handle(key(window.KeyEscape))
	assert.Equal(t, ActionClose, action)
}

func TestInsertKeys(t *testing.T) {
	in := Input{mode: ModeInsert}
	for _, tc := range []struct {
		name  string
		event window.KeyEvent
		want  editor.Command
	}{
		{"backspace", key(window.KeyBackspace), editor.Delete{}},
		{"backspace repeat", window.KeyEvent{Key: window.KeyBackspace, Pressed: true, Repeat: true}, editor.Delete{}},
		{"enter", key(window.KeyEnter), editor.NewLine{}},
		{"char", char('é'), editor.Insert{Rune: 'é'}},
		{"release", window.KeyEvent{Key: window.KeyBackspace}, nil},
		{"arrow", key(window.KeyLeft), nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cmd, action := in.Handle(tc.event)
			assert.Equal(t, tc.want, cmd)
			assert.Equal(t, ActionNone, action)
		})
	}
}

func TestNormalKeys(t *testing.T) {
	var in Input
	for r, want := range map[rune]editor.Command{
		'p': editor.Delete{},
		'r': editor.Select{Scope: editor.Line},
		'e': editor.Select{Scope: editor.Character},
		'u': editor.Undo{},
		'U': editor.Redo{},
		'x': nil,
	} {
		cmd, _ := in.Handle(char(r))
		assert.Equal(t, want, cmd, "%q", r)
	}

	cmd, _ := in.Handle(key(window.KeyBackspace))
	assert.Nil(t, cmd, "backspace only deletes in insert mode")
	assert.Equal(t, ModeNormal, in.Mode())
}

func TestFullscreenInEveryMode(t *testing.T) {
	for _, mode := range []Mode{ModeNormal, ModeInsert} {
		in := Input{mode: mode}
		_, action := in.Handle(key(window.KeyF11))
		assert.Equal(t, ActionToggleFullscreen, action, mode.String())

		_, action = in.Handle(window.KeyEvent{Key: window.KeyF11, Pressed: true, Repeat: true})
		assert.Equal(t, ActionNone, action, "held F11 toggles once")
	}
}
