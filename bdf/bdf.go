// Package bdf reads fonts in the Glyph Bitmap Distribution Format
package bdf

import (
	"bufio"
	"encoding/hex"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Bounds is a bounding box, X and Y being the offset of its lower left corner
// from the origin
type Bounds struct {
	Width  int
	Height int
	X      int
	Y      int
}

type Glyph struct {
	Name      string
	Codepoint rune
	Bounds    Bounds

	// one row of bits per scanline, top row first, most significant bit leftmost
	rows [][]byte
}

// Pixel reports whether the pixel at x, y of the glyph's bounding box is set,
// y growing downwards
func (g *Glyph) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= g.Bounds.Width || y >= len(g.rows) {
		return false
	}
	row := g.rows[y]
	if x/8 >= len(row) {
		return false
	}
	return row[x/8]&(0x80>>uint(x%8)) != 0
}

// Pixels calls fn for every set pixel of the glyph
func (g *Glyph) Pixels(fn func(x, y int)) {
	for y := range g.rows {
		for x := 0; x < g.Bounds.Width; x++ {
			if g.Pixel(x, y) {
				fn(x, y)
			}
		}
	}
}

type Font struct {
	Name       string
	Bounds     Bounds
	Properties map[string]string
	// Glyphs are sorted by codepoint
	Glyphs []*Glyph
}

// IntProperty returns the named property if it is an integer
func (f *Font) IntProperty(name string) (int, bool) {
	v, ok := f.Properties[name]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func Open(path string) (*Font, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening font")
	}
	defer f.Close()

	font, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return font, nil
}

type parser struct {
	scanner *bufio.Scanner
	line    int
	font    *Font
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Errorf("line %d: %s", p.line, errors.Errorf(format, args...))
}

func (p *parser) next() ([]string, bool) {
	for p.scanner.Scan() {
		p.line++
		fields := strings.Fields(p.scanner.Text())
		if len(fields) > 0 {
			return fields, true
		}
	}
	return nil, false
}

func (p *parser) ints(fields []string, n int) ([]int, error) {
	if len(fields) != n+1 {
		return nil, p.errorf("%s takes %d values, got %d", fields[0], n, len(fields)-1)
	}
	ret := make([]int, n)
	for i := range ret {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, p.errorf("%s: %v", fields[0], err)
		}
		ret[i] = v
	}
	return ret, nil
}

func (p *parser) bounds(fields []string) (Bounds, error) {
	v, err := p.ints(fields, 4)
	if err != nil {
		return Bounds{}, err
	}
	if v[0] < 0 || v[1] < 0 {
		return Bounds{}, p.errorf("%s has a negative size", fields[0])
	}
	return Bounds{Width: v[0], Height: v[1], X: v[2], Y: v[3]}, nil
}

// Parse reads a whole BDF font. Glyphs without a Unicode encoding are dropped.
func Parse(r io.Reader) (*Font, error) {
	p := &parser{
		scanner: bufio.NewScanner(r),
		font:    &Font{Properties: make(map[string]string)},
	}

	fields, ok := p.next()
	if !ok || fields[0] != "STARTFONT" {
		return nil, errors.New("not a BDF font")
	}

	sawBounds := false
	for {
		fields, ok := p.next()
		if !ok {
			break
		}

		switch fields[0] {
		case "FONT":
			p.font.Name = strings.Join(fields[1:], " ")
		case "FONTBOUNDINGBOX":
			b, err := p.bounds(fields)
			if err != nil {
				return nil, err
			}
			p.font.Bounds = b
			sawBounds = true
		case "STARTPROPERTIES":
			err := p.properties()
			if err != nil {
				return nil, err
			}
		case "STARTCHAR":
			g, err := p.glyph(strings.Join(fields[1:], " "))
			if err != nil {
				return nil, err
			}
			if g.Codepoint >= 0 {
				p.font.Glyphs = append(p.font.Glyphs, g)
			}
		case "ENDFONT":
			return p.finish(sawBounds)
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, p.errorf("missing ENDFONT")
}

func (p *parser) finish(sawBounds bool) (*Font, error) {
	if !sawBounds {
		return nil, errors.New("missing FONTBOUNDINGBOX")
	}
	sort.Slice(p.font.Glyphs, func(i, j int) bool {
		return p.font.Glyphs[i].Codepoint < p.font.Glyphs[j].Codepoint
	})
	return p.font, nil
}

func (p *parser) properties() error {
	for {
		fields, ok := p.next()
		if !ok {
			return p.errorf("missing ENDPROPERTIES")
		}
		if fields[0] == "ENDPROPERTIES" {
			return nil
		}
		value := strings.Join(fields[1:], " ")
		if unquoted, err := strconv.Unquote(value); err == nil {
			value = unquoted
		}
		p.font.Properties[fields[0]] = value
	}
}

func (p *parser) glyph(name string) (*Glyph, error) {
	g := &Glyph{Name: name, Codepoint: -1, Bounds: p.font.Bounds}

	for {
		fields, ok := p.next()
		if !ok {
			return nil, p.errorf("glyph %s: missing ENDCHAR", name)
		}

		switch fields[0] {
		case "ENCODING":
			if len(fields) < 2 {
				return nil, p.errorf("glyph %s: empty ENCODING", name)
			}
			cp, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, p.errorf("glyph %s: %v", name, err)
			}
			g.Codepoint = rune(cp)
		case "BBX":
			b, err := p.bounds(fields)
			if err != nil {
				return nil, err
			}
			g.Bounds = b
		case "BITMAP":
			err := p.bitmap(g)
			if err != nil {
				return nil, err
			}
			return g, nil
		case "ENDCHAR":
			return g, nil
		}
	}
}

func (p *parser) bitmap(g *Glyph) error {
	for {
		fields, ok := p.next()
		if !ok {
			return p.errorf("glyph %s: missing ENDCHAR", g.Name)
		}
		if fields[0] == "ENDCHAR" {
			return nil
		}
		row, err := hex.DecodeString(fields[0])
		if err != nil {
			return p.errorf("glyph %s: bitmap row: %v", g.Name, err)
		}
		g.rows = append(g.rows, row)
	}
}
