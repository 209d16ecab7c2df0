package bdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFont = `STARTFONT 2.1
FONT -misc-test-medium-r-normal--8-80-75-75-c-80-iso10646-1
SIZE 8 75 75
FONTBOUNDINGBOX 8 8 0 -2
STARTPROPERTIES 3
FONT_ASCENT 6
FONT_DESCENT 2
FAMILY_NAME "Test Sans"
ENDPROPERTIES
CHARS 3
STARTCHAR B
ENCODING 66
SWIDTH 500 0
DWIDTH 8 0
BBX 2 2 1 0
BITMAP
C0
40
ENDCHAR
STARTCHAR A
ENCODING 65
BBX 3 1 0 0
BITMAP
A0
ENDCHAR
STARTCHAR unmapped
ENCODING -1
BBX 1 1 0 0
BITMAP
80
ENDCHAR
ENDFONT
`

func TestParse(t *testing.T) {
	font, err := Parse(strings.NewReader(testFont))
	require.NoError(t, err)

	assert.Equal(t, Bounds{Width: 8, Height: 8, X: 0, Y: -2}, font.Bounds)
	assert.Equal(t, "Test Sans", font.Properties["FAMILY_NAME"])

	ascent, ok := font.IntProperty("FONT_ASCENT")
	require.True(t, ok)
	assert.Equal(t, 6, ascent)

	_, ok = font.IntProperty("FAMILY_NAME")
	assert.False(t, ok)

	require.Len(t, font.Glyphs, 2)
	assert.Equal(t, 'A', font.Glyphs[0].Codepoint)
	assert.Equal(t, 'B', font.Glyphs[1].Codepoint)
	assert.Equal(t, Bounds{Width: 2, Height: 2, X: 1, Y: 0}, font.Glyphs[1].Bounds)
}

func TestGlyphPixels(t *testing.T) {
	font, err := Parse(strings.NewReader(testFont))
	require.NoError(t, err)

	a := font.Glyphs[0]
	assert.True(t, a.Pixel(0, 0))
	assert.False(t, a.Pixel(1, 0))
	assert.True(t, a.Pixel(2, 0))
	assert.False(t, a.Pixel(3, 0), "outside the bounding box")
	assert.False(t, a.Pixel(0, 1))

	var set [][2]int
	font.Glyphs[1].Pixels(func(x, y int) {
		set = append(set, [2]int{x, y})
	})
	assert.Equal(t, [][2]int{{0, 0}, {1, 0}, {1, 1}}, set)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
	}{
		{"not bdf", "hello\n"},
		{"no bounds", "STARTFONT 2.1\nENDFONT\n"},
		{"no end", "STARTFONT 2.1\nFONTBOUNDINGBOX 8 8 0 0\n"},
		{"bad bbx", "STARTFONT 2.1\nFONTBOUNDINGBOX 8 8 0\nENDFONT\n"},
		{"bad bitmap", "STARTFONT 2.1\nFONTBOUNDINGBOX 8 8 0 0\nSTARTCHAR a\nENCODING 97\nBITMAP\nZZ\nENDCHAR\nENDFONT\n"},
		{"unterminated glyph", "STARTFONT 2.1\nFONTBOUNDINGBOX 8 8 0 0\nSTARTCHAR a\nENCODING 97\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.src))
			assert.Error(t, err)
		})
	}
}
