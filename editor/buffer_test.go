package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, b *Buffer, commands ...Command) {
	t.Helper()
	for _, c := range commands {
		_, err := b.Apply(c)
		require.NoError(t, err)
	}
}

func TestInsertAndNewLine(t *testing.T) {
	b := NewBuffer("")
	apply(t, b, Insert{'a'}, Insert{'b'}, NewLine{}, Insert{'c'})
	assert.Equal(t, "ab\nc", b.String())
	assert.Equal(t, 4, b.Cursor())
}

func TestDeleteCharacter(t *testing.T) {
	b := NewBuffer("héllo")
	apply(t, b, Delete{}, Delete{})
	assert.Equal(t, "hél", b.String())

	b = NewBuffer("")
	changed, err := b.Apply(Delete{})
	require.NoError(t, err)
	assert.False(t, changed, "nothing before the cursor")
}

func TestDeleteLine(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
		want string
	}{
		{"last line", "one\ntwo\nthree", "one\ntwo"},
		{"only line", "one", ""},
		{"empty last line", "one\n", "one"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuffer(tc.text)
			apply(t, b, Select{Line}, Delete{})
			assert.Equal(t, tc.want, b.String())
			assert.Equal(t, Character, b.Selection())
		})
	}
}

func TestDeleteMiddleLine(t *testing.T) {
	b := NewBuffer("one\ntwo\nthree")
	b.cursor = 5
	apply(t, b, Select{Line}, Delete{})
	assert.Equal(t, "one\nthree", b.String())
	assert.Equal(t, 4, b.Cursor())
}

func TestUndoRedo(t *testing.T) {
	b := NewBuffer("")
	apply(t, b, Insert{'a'}, Insert{'b'}, Delete{})
	assert.Equal(t, "a", b.String())

	apply(t, b, Undo{})
	assert.Equal(t, "ab", b.String())
	assert.Equal(t, 2, b.Cursor())

	apply(t, b, Undo{}, Undo{})
	assert.Equal(t, "", b.String())

	changed, err := b.Apply(Undo{})
	require.NoError(t, err)
	assert.False(t, changed, "history exhausted")

	apply(t, b, Redo{}, Redo{})
	assert.Equal(t, "ab", b.String())
	assert.Equal(t, 2, b.Cursor())

	apply(t, b, Insert{'c'})
	changed, err = b.Apply(Redo{})
	require.NoError(t, err)
	assert.False(t, changed, "a new edit drops the redo history")
	assert.Equal(t, "abc", b.String())
}

func TestUndoDeleteLine(t *testing.T) {
	b := NewBuffer("one\ntwo")
	apply(t, b, Select{Line}, Delete{}, Undo{})
	assert.Equal(t, "one\ntwo", b.String())
	assert.Equal(t, 7, b.Cursor())
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\r\nb"), 0o644))

	b := NewBuffer("")
	apply(t, b, Insert{'x'}, Open{Path: path})
	assert.Equal(t, "a\nb", b.String())
	assert.Equal(t, path, b.Path())
	assert.Equal(t, 3, b.Cursor())

	changed, err := b.Apply(Undo{})
	require.NoError(t, err)
	assert.False(t, changed, "opening clears the history")

	changed, err = b.Apply(Open{Path: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, "a\nb", b.String())
}
