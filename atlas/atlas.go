// Package atlas packs the glyphs of a bitmap font into a single GPU image
package atlas

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"

	"github.com/lessflake/kavi/bdf"
	"github.com/lessflake/kavi/vkg"
)

// ErrMissingAscent means the font has no FONT_ASCENT property, without which
// glyphs cannot be placed on a common baseline
var ErrMissingAscent = errors.New("font lacks FONT_ASCENT")

// Format is the format of the atlas image, one byte per pixel
const Format = vk.FormatR8Uint

// Layout returns the smallest power of two width holding count glyphs of
// glyphWidth x glyphHeight, and the smallest power of two height, at most the
// width, holding the rows those glyphs take
func Layout(count, glyphWidth, glyphHeight uint32) (width, height uint32) {
	if count == 0 || glyphWidth == 0 || glyphHeight == 0 {
		return 0, 0
	}

	width = 1
	for (width/glyphWidth)*(width/glyphHeight) < count {
		width *= 2
	}

	perRow := width / glyphWidth
	rows := (count + perRow - 1) / perRow

	height = width
	for height/2 >= rows*glyphHeight {
		height /= 2
	}
	return width, height
}

// Geometry is the size of an atlas and of the tiles in it
type Geometry struct {
	Width       uint32
	Height      uint32
	GlyphWidth  uint32
	GlyphHeight uint32
}

func (g Geometry) PerRow() uint32 {
	return g.Width / g.GlyphWidth
}

// IndexToCoords returns the tile of the i-th glyph
func (g Geometry) IndexToCoords(i uint32) (x, y uint32) {
	return i % g.PerRow(), i / g.PerRow()
}

func (g Geometry) CoordsToIndex(x, y uint32) uint32 {
	return y*g.PerRow() + x
}

// Bitmap is a rasterized atlas, one byte per pixel, row major
type Bitmap struct {
	Geometry
	Pixels []byte
	// Index maps a codepoint to its tile index
	Index map[rune]uint32
}

// Rasterize draws every glyph of font into its tile, in codepoint order. A
// glyph is placed relative to the font's baseline and clipped to its tile.
func Rasterize(font *bdf.Font) (*Bitmap, error) {
	ascent, ok := font.IntProperty("FONT_ASCENT")
	if !ok {
		return nil, errors.WithStack(ErrMissingAscent)
	}
	if len(font.Glyphs) == 0 {
		return nil, errors.New("font has no glyphs")
	}
	if font.Bounds.Width <= 0 || font.Bounds.Height <= 0 {
		return nil, errors.Errorf("font has an empty bounding box %dx%d", font.Bounds.Width, font.Bounds.Height)
	}

	g := Geometry{
		GlyphWidth:  uint32(font.Bounds.Width),
		GlyphHeight: uint32(font.Bounds.Height),
	}
	g.Width, g.Height = Layout(uint32(len(font.Glyphs)), g.GlyphWidth, g.GlyphHeight)

	b := &Bitmap{
		Geometry: g,
		Pixels:   make([]byte, int(g.Width)*int(g.Height)),
		Index:    make(map[rune]uint32, len(font.Glyphs)),
	}

	cw, ch := int(g.GlyphWidth), int(g.GlyphHeight)
	for i, glyph := range font.Glyphs {
		tx, ty := g.IndexToCoords(uint32(i))
		anchorX := glyph.Bounds.X
		anchorY := ascent - glyph.Bounds.Y - glyph.Bounds.Height

		glyph.Pixels(func(px, py int) {
			x, y := anchorX+px, anchorY+py
			if x < 0 || y < 0 || x >= cw || y >= ch {
				return
			}
			x += int(tx) * cw
			y += int(ty) * ch
			b.Pixels[y*int(g.Width)+x] = 0xff
		})

		b.Index[glyph.Codepoint] = uint32(i)
	}

	return b, nil
}

// Atlas is a rasterized font resident on the GPU. It never changes after Build.
type Atlas struct {
	Geometry
	Image *vkg.Image
	View  *vkg.ImageView

	index map[rune]uint32
}

// Build rasterizes font and uploads it, leaving the image in GENERAL layout
// for compute shaders to read
func Build(b *vkg.Backend, font *bdf.Font) (*Atlas, error) {
	bitmap, err := Rasterize(font)
	if err != nil {
		return nil, err
	}

	staging, err := b.CreateStagingBuffer(uint64(len(bitmap.Pixels)))
	if err != nil {
		return nil, errors.Wrap(err, "creating atlas staging buffer")
	}
	defer staging.Destroy()

	err = staging.Write(bitmap.Pixels)
	if err != nil {
		return nil, errors.Wrap(err, "filling atlas staging buffer")
	}

	extent := vk.Extent2D{Width: bitmap.Width, Height: bitmap.Height}
	image, err := b.Device().CreateDestinationImage(extent, Format)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %dx%d atlas image", extent.Width, extent.Height)
	}

	err = b.OneTimeSubmit(func(cb *vkg.CommandBuffer) {
		cb.ImageBarrier(image, vkg.ImageBarrier{
			OldLayout: vk.ImageLayoutUndefined,
			NewLayout: vk.ImageLayoutTransferDstOptimal,
			SrcStage:  vk.PipelineStageTopOfPipeBit,
			DstStage:  vk.PipelineStageTransferBit,
			DstAccess: vk.AccessTransferWriteBit,
		})
		cb.CopyBufferToImage(staging, image)
		cb.ImageBarrier(image, vkg.ImageBarrier{
			OldLayout: vk.ImageLayoutTransferDstOptimal,
			NewLayout: vk.ImageLayoutGeneral,
			SrcStage:  vk.PipelineStageTransferBit,
			DstStage:  vk.PipelineStageComputeShaderBit,
			SrcAccess: vk.AccessTransferWriteBit,
			DstAccess: vk.AccessShaderReadBit,
		})
	})
	if err != nil {
		image.Destroy()
		return nil, errors.Wrap(err, "uploading atlas")
	}

	view, err := image.CreateImageView()
	if err != nil {
		image.Destroy()
		return nil, err
	}

	b.Logger().Debug("glyph atlas built",
		slog.Int("glyphs", len(bitmap.Index)),
		slog.Int("width", int(bitmap.Width)),
		slog.Int("height", int(bitmap.Height)))

	return &Atlas{
		Geometry: bitmap.Geometry,
		Image:    image,
		View:     view,
		index:    bitmap.Index,
	}, nil
}

// Get returns the tile holding r
func (a *Atlas) Get(r rune) (x, y uint32, ok bool) {
	i, ok := a.index[r]
	if !ok {
		return 0, 0, false
	}
	x, y = a.IndexToCoords(i)
	return x, y, true
}

// ImageInfo binds the atlas as a storage image
func (a *Atlas) ImageInfo() vkg.ImageInfo {
	return a.View.ImageInfo()
}

func (a *Atlas) Destroy() {
	a.View.Destroy()
	a.Image.Destroy()
}
