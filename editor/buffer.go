package editor

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// edit replaced removed with inserted at pos
type edit struct {
	pos          int
	removed      []rune
	inserted     []rune
	cursorBefore int
	cursorAfter  int
}

// Buffer is a text with a cursor and an undo history. It is not safe for
// concurrent use.
type Buffer struct {
	text      []rune
	cursor    int
	selection Scope
	path      string

	undo []edit
	redo []edit
}

func NewBuffer(text string) *Buffer {
	b := &Buffer{text: []rune(text)}
	b.cursor = len(b.text)
	return b
}

func (b *Buffer) String() string {
	return string(b.text)
}

// Cursor is the rune offset text is typed at
func (b *Buffer) Cursor() int {
	return b.cursor
}

func (b *Buffer) Selection() Scope {
	return b.selection
}

// Path is the file last opened, if any
func (b *Buffer) Path() string {
	return b.path
}

// Apply runs c and reports whether the text changed
func (b *Buffer) Apply(c Command) (bool, error) {
	switch c := c.(type) {
	case Open:
		err := b.open(c.Path)
		return err == nil, err
	case Select:
		b.selection = c.Scope
		return false, nil
	case Insert:
		return b.replace(b.cursor, b.cursor, []rune{c.Rune}), nil
	case NewLine:
		return b.replace(b.cursor, b.cursor, []rune{'\n'}), nil
	case Delete:
		return b.delete(), nil
	case Undo:
		return b.undoLast(), nil
	case Redo:
		return b.redoLast(), nil
	}
	return false, errors.Errorf("unknown command %T", c)
}

func (b *Buffer) open(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	b.text = []rune(text)
	b.cursor = len(b.text)
	b.selection = Character
	b.path = path
	b.undo = nil
	b.redo = nil
	return nil
}

// delete removes the rune before the cursor, or the whole line holding the
// cursor when a line is selected. The selection goes back to Character.
func (b *Buffer) delete() bool {
	scope := b.selection
	b.selection = Character

	if scope == Line {
		start, end := b.lineAt(b.cursor)
		return b.replace(start, end, nil)
	}
	if b.cursor == 0 {
		return false
	}
	return b.replace(b.cursor-1, b.cursor, nil)
}

// lineAt returns the range of the line holding pos, with one of the newlines
// around it so no empty line is left behind
func (b *Buffer) lineAt(pos int) (start, end int) {
	start = pos
	for start > 0 && b.text[start-1] != '\n' {
		start--
	}
	end = pos
	for end < len(b.text) && b.text[end] != '\n' {
		end++
	}
	switch {
	case end < len(b.text):
		end++
	case start > 0:
		start--
	}
	return start, end
}

// replace swaps text[start:end] for inserted, recording the edit, and leaves
// the cursor after the inserted text
func (b *Buffer) replace(start, end int, inserted []rune) bool {
	if start == end && len(inserted) == 0 {
		return false
	}
	e := edit{
		pos:          start,
		removed:      append([]rune(nil), b.text[start:end]...),
		inserted:     inserted,
		cursorBefore: b.cursor,
		cursorAfter:  start + len(inserted),
	}
	b.apply(e.pos, len(e.removed), e.inserted)
	b.cursor = e.cursorAfter

	b.undo = append(b.undo, e)
	b.redo = nil
	return true
}

func (b *Buffer) apply(pos, n int, inserted []rune) {
	text := make([]rune, 0, len(b.text)-n+len(inserted))
	text = append(text, b.text[:pos]...)
	text = append(text, inserted...)
	text = append(text, b.text[pos+n:]...)
	b.text = text
}

func (b *Buffer) undoLast() bool {
	if len(b.undo) == 0 {
		return false
	}
	e := b.undo[len(b.undo)-1]
	b.undo = b.undo[:len(b.undo)-1]

	b.apply(e.pos, len(e.inserted), e.removed)
	b.cursor = e.cursorBefore
	b.redo = append(b.redo, e)
	return true
}

func (b *Buffer) redoLast() bool {
	if len(b.redo) == 0 {
		return false
	}
	e := b.redo[len(b.redo)-1]
	b.redo = b.redo[:len(b.redo)-1]

	b.apply(e.pos, len(e.removed), e.inserted)
	b.cursor = e.cursorAfter
	b.undo = append(b.undo, e)
	return true
}
