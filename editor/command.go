// Package editor holds the text being edited and applies the commands the
// gui sends it
package editor

import "fmt"

// Scope is what Delete removes
type Scope int

const (
	Character Scope = iota
	Line
)

func (s Scope) String() string {
	switch s {
	case Character:
		return "character"
	case Line:
		return "line"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// Command is one of Open, Select, Insert, Delete, NewLine, Undo or Redo
type Command interface {
	isCommand()
}

// Open replaces the buffer with the contents of the file at Path
type Open struct {
	Path string
}

// Select sets the scope of the next Delete
type Select struct {
	Scope Scope
}

// Insert types Rune at the cursor
type Insert struct {
	Rune rune
}

// Delete removes the selection before the cursor
type Delete struct{}

// NewLine breaks the line at the cursor
type NewLine struct{}

type Undo struct{}

type Redo struct{}

func (Open) isCommand()    {}
func (Select) isCommand()  {}
func (Insert) isCommand()  {}
func (Delete) isCommand()  {}
func (NewLine) isCommand() {}
func (Undo) isCommand()    {}
func (Redo) isCommand()    {}

// ClientMessage is what the gui sends the editor, CommandMessage or Shutdown
type ClientMessage interface {
	isClientMessage()
}

type CommandMessage struct {
	Command Command
}

// Shutdown is the last message of a client
type Shutdown struct{}

func (CommandMessage) isClientMessage() {}
func (Shutdown) isClientMessage()       {}

// ServerMessage is what the editor sends back
type ServerMessage interface {
	isServerMessage()
}

// TextChanged carries the whole text after a command changed it
type TextChanged struct {
	Text string
}

func (TextChanged) isServerMessage() {}
