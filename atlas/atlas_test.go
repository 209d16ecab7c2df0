package atlas

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessflake/kavi/bdf"
)

func TestLayout(t *testing.T) {
	for _, tc := range []struct {
		count, gw, gh uint32
		w, h          uint32
	}{
		{1, 8, 8, 8, 8},
		{4, 8, 8, 16, 16},
		{5, 8, 8, 32, 16},
		{16, 8, 8, 32, 32},
		{17, 8, 8, 64, 32},
		{95, 6, 11, 128, 64},
		{3, 6, 12, 32, 16},
		{0, 8, 8, 0, 0},
	} {
		w, h := Layout(tc.count, tc.gw, tc.gh)
		assert.Equal(t, tc.w, w, "width of %d %dx%d glyphs", tc.count, tc.gw, tc.gh)
		assert.Equal(t, tc.h, h, "height of %d %dx%d glyphs", tc.count, tc.gw, tc.gh)

		if tc.count == 0 {
			continue
		}
		perRow := w / tc.gw
		require.NotZero(t, perRow)
		rows := (tc.count + perRow - 1) / perRow
		assert.GreaterOrEqual(t, h, rows*tc.gh)
		assert.LessOrEqual(t, h, w)
	}
}

func TestCoordsRoundTrip(t *testing.T) {
	g := Geometry{Width: 64, Height: 32, GlyphWidth: 8, GlyphHeight: 16}
	require.Equal(t, uint32(8), g.PerRow())

	for i := uint32(0); i < 16; i++ {
		x, y := g.IndexToCoords(i)
		assert.Less(t, x, g.PerRow())
		assert.Equal(t, i, g.CoordsToIndex(x, y))
	}

	x, y := g.IndexToCoords(9)
	assert.Equal(t, uint32(1), x)
	assert.Equal(t, uint32(1), y)
}

const font = `STARTFONT 2.1
FONTBOUNDINGBOX 4 4 0 -1
STARTPROPERTIES 1
FONT_ASCENT 3
ENDPROPERTIES
STARTCHAR b
ENCODING 98
BBX 1 1 0 0
BITMAP
80
ENDCHAR
STARTCHAR a
ENCODING 97
BBX 2 2 1 -1
BITMAP
C0
40
ENDCHAR
STARTCHAR wide
ENCODING 99
BBX 6 1 0 0
BITMAP
FC
ENDCHAR
ENDFONT
`

func parse(t *testing.T, src string) *bdf.Font {
	f, err := bdf.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return f
}

func TestRasterize(t *testing.T) {
	b, err := Rasterize(parse(t, font))
	require.NoError(t, err)

	assert.Equal(t, Geometry{Width: 8, Height: 8, GlyphWidth: 4, GlyphHeight: 4}, b.Geometry)
	assert.Equal(t, map[rune]uint32{'a': 0, 'b': 1, 'c': 2}, b.Index)

	px := func(x, y int) byte { return b.Pixels[y*8+x] }

	// 'a' hangs one pixel below the baseline, its top row is 3 - (-1) - 2
	assert.Equal(t, byte(0xff), px(1, 2))
	assert.Equal(t, byte(0xff), px(2, 2))
	assert.Equal(t, byte(0), px(1, 3))
	assert.Equal(t, byte(0xff), px(2, 3))

	// 'b' in the second tile, on the baseline: row 3 - 0 - 1 = 2
	assert.Equal(t, byte(0xff), px(4, 2))

	// 'c' is clipped to its tile instead of bleeding into the next row
	for x := 0; x < 4; x++ {
		assert.Equal(t, byte(0xff), px(x, 6), "x=%d", x)
	}
	assert.Equal(t, byte(0), px(4, 6))
	assert.Equal(t, byte(0), px(5, 6))

	var set int
	for _, p := range b.Pixels {
		if p != 0 {
			set++
		}
	}
	assert.Equal(t, 3+1+4, set)
}

func TestRasterizeMissingAscent(t *testing.T) {
	src := strings.Replace(font, "FONT_ASCENT 3\n", "", 1)
	_, err := Rasterize(parse(t, src))
	assert.True(t, errors.Is(err, ErrMissingAscent))
}

func TestGet(t *testing.T) {
	b, err := Rasterize(parse(t, font))
	require.NoError(t, err)
	a := &Atlas{Geometry: b.Geometry, index: b.Index}

	x, y, ok := a.Get('c')
	require.True(t, ok)
	assert.Equal(t, [2]uint32{0, 1}, [2]uint32{x, y})

	_, _, ok = a.Get('z')
	assert.False(t, ok)
}
