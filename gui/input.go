// Package gui translates keys into editor commands and runs the client loop
// between the window, the renderer and the editor
package gui

import (
	"github.com/lessflake/kavi/editor"
	"github.com/lessflake/kavi/window"
)

// Mode decides what typed characters mean
type Mode int

const (
	// ModeNormal maps characters to commands
	ModeNormal Mode = iota
	// ModeInsert types characters into the text
	ModeInsert
)

func (m Mode) String() string {
	if m == ModeInsert {
		return "insert"
	}
	return "normal"
}

// Action is something the window, rather than the editor, has to do
type Action int

const (
	ActionNone Action = iota
	ActionClose
	ActionToggleFullscreen
)

// Normal mode keymap
//
//	l	insert
//	p	delete
//	r	select line
//	e	select character
//	u U	undo, redo
var normalKeys = map[rune]editor.Command{
	'p': editor.Delete{},
	'r': editor.Select{Scope: editor.Line},
	'e': editor.Select{Scope: editor.Character},
	'u': editor.Undo{},
	'U': editor.Redo{},
}

// Input tracks the mode and maps key events to a command or an action
type Input struct {
	mode Mode
}

func (in *Input) Mode() Mode {
	return in.mode
}

// Handle returns the command e maps to, if any, and what the window should do.
// Escape leaves insert mode, and closes the window in normal mode.
func (in *Input) Handle(e window.KeyEvent) (editor.Command, Action) {
	if !e.Pressed {
		return nil, ActionNone
	}

	switch e.Key {
	case window.KeyF11:
		if e.Repeat {
			return nil, ActionNone
		}
		return nil, ActionToggleFullscreen
	case window.KeyEscape:
		if in.mode == ModeInsert {
			in.mode = ModeNormal
			return nil, ActionNone
		}
		return nil, ActionClose
	}

	if in.mode == ModeInsert {
		return in.insert(e), ActionNone
	}
	return in.normal(e), ActionNone
}

func (in *Input) insert(e window.KeyEvent) editor.Command {
	switch {
	case e.Key == window.KeyBackspace:
		return editor.Delete{}
	case e.Key == window.KeyEnter:
		return editor.NewLine{}
	case e.Rune != 0:
		return editor.Insert{Rune: e.Rune}
	}
	return nil
}

func (in *Input) normal(e window.KeyEvent) editor.Command {
	if e.Rune == 'l' {
		in.mode = ModeInsert
		return nil
	}
	return normalKeys[e.Rune]
}
