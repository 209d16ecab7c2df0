// Package render draws text with a glyph atlas: a compute pass stamps glyphs
// into a storage image, which a full screen quad copies to the swapchain image
package render

import (
	"encoding/binary"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"

	"github.com/lessflake/kavi/atlas"
	"github.com/lessflake/kavi/shaders"
	"github.com/lessflake/kavi/vkg"
)

// Capacity is how many glyphs fit in the placement buffer
const Capacity = 10000

// TargetFormat is the format of the image glyphs are drawn into
const TargetFormat = vk.FormatB8g8r8a8Unorm

// CharEntry places the atlas tile AtlasX, AtlasY at the text cell PosX, PosY
type CharEntry struct {
	AtlasX uint32
	AtlasY uint32
	PosX   uint32
	PosY   uint32
}

// CharEntrySize is the size of a CharEntry in the placement buffer
const CharEntrySize = 16

// Glyphs looks up the atlas tile of a rune
type Glyphs interface {
	Get(r rune) (x, y uint32, ok bool)
}

// BuildPlacements lays text out on a grid of cells. Runes the atlas lacks take
// no cell, except an unmapped '\n' which starts the next line. A font with a
// glyph for '\n' draws it like any other rune. Past capacity entries the text
// is cut off and truncated is set.
func BuildPlacements(text string, glyphs Glyphs, capacity int) (entries []CharEntry, truncated bool) {
	var x, y uint32
	for _, r := range text {
		ax, ay, ok := glyphs.Get(r)
		if !ok {
			if r == '\n' {
				x = 0
				y++
			}
			continue
		}
		if len(entries) == capacity {
			return entries, true
		}
		entries = append(entries, CharEntry{AtlasX: ax, AtlasY: ay, PosX: x, PosY: y})
		x++
	}
	return entries, false
}

// encodePlacements packs entries into dst as std430 uvec4s
func encodePlacements(dst []byte, entries []CharEntry) {
	for i, e := range entries {
		b := dst[i*CharEntrySize:]
		binary.LittleEndian.PutUint32(b[0:], e.AtlasX)
		binary.LittleEndian.PutUint32(b[4:], e.AtlasY)
		binary.LittleEndian.PutUint32(b[8:], e.PosX)
		binary.LittleEndian.PutUint32(b[12:], e.PosY)
	}
}

// Options configure New, zero values pick the defaults
type Options struct {
	// Profile measures the GPU time of every frame and logs it at debug level
	Profile bool
	// TargetExtent is the size of the image glyphs are drawn into, 1280x720 by default
	TargetExtent vk.Extent2D
	Logger       *slog.Logger
}

// Render owns the pipelines and buffers drawing text onto the backend's swapchain
type Render struct {
	backend *vkg.Backend
	atlas   *atlas.Atlas
	logger  *slog.Logger

	set      *vkg.DescriptorSet
	compute  *vkg.ComputePipeline
	graphics *vkg.GraphicsPipeline

	target     *vkg.Image
	targetView *vkg.ImageView
	placements *vkg.Buffer
	profiler   *vkg.Profiler

	pushConstants []byte
	extent        vk.Extent2D
}

// New builds everything DrawFrame needs on top of backend. The shaders must
// be loaded, and the atlas built on the same backend.
func New(backend *vkg.Backend, set *shaders.Set, a *atlas.Atlas, opts Options) (*Render, error) {
	if a.GlyphWidth > shaders.MaxGlyphWidth || a.GlyphHeight > shaders.MaxGlyphHeight {
		return nil, errors.Errorf("%dx%d glyphs are larger than %dx%d", a.GlyphWidth, a.GlyphHeight,
			shaders.MaxGlyphWidth, shaders.MaxGlyphHeight)
	}

	logger := opts.Logger
	if logger == nil {
		logger = backend.Logger()
	}
	r := &Render{
		backend: backend,
		atlas:   a,
		logger:  logger,
		extent:  backend.Extent(),
	}

	err := r.init(set, opts)
	if err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Render) init(set *shaders.Set, opts Options) error {
	cs := r.backend.RegisterShader(set.Compute)
	vs := r.backend.RegisterShader(set.Vertex)
	fs := r.backend.RegisterShader(set.Fragment)

	var err error
	r.set, err = r.backend.AllocateDescriptorSet()
	if err != nil {
		return errors.Wrap(err, "allocating descriptor set")
	}

	ci, err := r.backend.CreateComputePipeline(cs, shaders.ComputePushConstantBytes)
	if err != nil {
		return err
	}
	r.compute = r.backend.ComputePipeline(ci)

	gi, err := r.backend.CreateGraphicsPipeline(vs, fs, 0)
	if err != nil {
		return err
	}
	r.graphics = r.backend.GraphicsPipeline(gi)

	extent := opts.TargetExtent
	if extent.Width == 0 || extent.Height == 0 {
		extent = vk.Extent2D{Width: 1280, Height: 720}
	}
	r.target, err = r.backend.Device().CreateImage(extent, TargetFormat,
		vk.ImageUsageStorageBit|vk.ImageUsageTransferDstBit, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return errors.Wrap(err, "creating target image")
	}
	err = r.backend.OneTimeSubmit(func(cb *vkg.CommandBuffer) {
		cb.ImageBarrier(r.target, vkg.ImageBarrier{
			OldLayout: vk.ImageLayoutUndefined,
			NewLayout: vk.ImageLayoutGeneral,
			SrcStage:  vk.PipelineStageTopOfPipeBit,
			DstStage:  vk.PipelineStageTransferBit,
			DstAccess: vk.AccessTransferWriteBit,
		})
	})
	if err != nil {
		return errors.Wrap(err, "transitioning target image")
	}
	r.targetView, err = r.target.CreateImageView()
	if err != nil {
		return err
	}

	r.placements, err = r.backend.CreateStorageBuffer(Capacity * CharEntrySize)
	if err != nil {
		return errors.Wrap(err, "creating placement buffer")
	}

	r.set.WriteImages(shaders.BindingTarget, 0, r.targetView)
	r.set.WriteImages(shaders.BindingAtlas, 0, r.atlas)
	r.set.WriteBuffers(shaders.BindingPlacements, 0, r.placements)

	r.pushConstants = make([]byte, shaders.ComputePushConstantBytes)
	binary.LittleEndian.PutUint32(r.pushConstants[0:], r.atlas.GlyphWidth)
	binary.LittleEndian.PutUint32(r.pushConstants[4:], r.atlas.GlyphHeight)

	if opts.Profile {
		r.profiler, err = r.backend.Device().CreateProfiler()
		if err != nil {
			return err
		}
	}

	r.logger.Debug("renderer ready",
		slog.Int("targetWidth", int(extent.Width)),
		slog.Int("targetHeight", int(extent.Height)),
		slog.Bool("profile", opts.Profile))
	return nil
}

// DrawFrame draws text and presents it. Nothing is drawn while the window
// has no area.
func (r *Render) DrawFrame(text string) error {
	if r.minimized() {
		return nil
	}

	frame, image, err := r.backend.BeginFrame()
	if errors.Is(err, vkg.ErrSwapchainStale) {
		r.logger.Debug("swapchain stale, recreating",
			slog.Int("width", int(r.extent.Width)),
			slog.Int("height", int(r.extent.Height)))
		err = r.backend.Resize(r.extent.Width, r.extent.Height)
		if err != nil {
			return err
		}
		frame, image, err = r.backend.BeginFrame()
	}
	if err != nil {
		return err
	}

	entries, truncated := BuildPlacements(text, r.atlas, Capacity)
	if truncated {
		r.logger.Warn("text does not fit the placement buffer, truncating", slog.Int("capacity", Capacity))
	}
	if len(entries) > 0 {
		err = r.placements.MapBytes(uint64(len(entries)*CharEntrySize), func(data []byte) {
			encodePlacements(data, entries)
		})
		if err != nil {
			return errors.Wrap(err, "writing placements")
		}
	}

	err = frame.CommandBuffer.Record(func(cb *vkg.CommandBuffer) {
		r.record(cb, frame.Framebuffer, uint32(len(entries)))
	})
	if err != nil {
		return errors.Wrap(err, "recording frame")
	}

	err = r.backend.DrawFrame(image)
	if err != nil {
		return err
	}

	if r.profiler != nil {
		d, err := r.profiler.PreviousResult()
		if err != nil {
			return err
		}
		r.logger.Debug("frame", slog.Duration("gpu", d), slog.Int("glyphs", len(entries)))
	}
	return nil
}

func (r *Render) record(cb *vkg.CommandBuffer, fb *vkg.Framebuffer, glyphs uint32) {
	if r.profiler != nil {
		r.profiler.Begin(cb)
	}

	cb.ImageBarrier(r.target, vkg.ImageBarrier{
		OldLayout: vk.ImageLayoutGeneral,
		NewLayout: vk.ImageLayoutGeneral,
		SrcStage:  vk.PipelineStageFragmentShaderBit,
		DstStage:  vk.PipelineStageTransferBit,
		SrcAccess: vk.AccessShaderReadBit,
		DstAccess: vk.AccessTransferWriteBit,
	})
	cb.ClearImage(r.target)
	cb.ImageBarrier(r.target, vkg.ImageBarrier{
		OldLayout: vk.ImageLayoutGeneral,
		NewLayout: vk.ImageLayoutGeneral,
		SrcStage:  vk.PipelineStageTransferBit,
		DstStage:  vk.PipelineStageComputeShaderBit,
		SrcAccess: vk.AccessTransferWriteBit,
		DstAccess: vk.AccessShaderWriteBit,
	})

	if glyphs > 0 {
		cb.BindPipeline(r.compute)
		cb.PushConstants(r.compute, vk.ShaderStageComputeBit, r.pushConstants)
		cb.BindDescriptorSet(r.compute, r.set)
		cb.Dispatch(glyphs, 1, 1)
	}

	cb.ImageBarrier(r.target, vkg.ImageBarrier{
		OldLayout: vk.ImageLayoutGeneral,
		NewLayout: vk.ImageLayoutGeneral,
		SrcStage:  vk.PipelineStageComputeShaderBit,
		DstStage:  vk.PipelineStageFragmentShaderBit,
		SrcAccess: vk.AccessShaderWriteBit,
		DstAccess: vk.AccessShaderReadBit,
	})

	cb.WithRenderPass(r.backend.RenderPass(), fb, func(cb *vkg.CommandBuffer) {
		cb.BindPipeline(r.graphics)
		cb.BindDescriptorSet(r.graphics, r.set)
		cb.Draw(6, 1, 0, 0)
	})

	if r.profiler != nil {
		r.profiler.Finish(cb)
	}
}

func (r *Render) minimized() bool {
	return r.extent.Width == 0 || r.extent.Height == 0
}

// Resize recreates the swapchain for a window of width x height. A zero size
// only pauses drawing until the next non zero resize.
func (r *Render) Resize(width, height uint32) error {
	r.extent = vk.Extent2D{Width: width, Height: height}
	if r.minimized() {
		return nil
	}
	return r.backend.Resize(width, height)
}

// Destroy waits for the GPU and releases what New created, the backend and
// atlas stay alive
func (r *Render) Destroy() {
	if d := r.backend.Device(); d != nil {
		err := d.WaitIdle()
		if err != nil {
			r.logger.Error("waiting for device idle", slog.Any("error", err))
		}
	}
	if r.profiler != nil {
		r.profiler.Destroy()
		r.profiler = nil
	}
	if r.placements != nil {
		r.placements.Destroy()
		r.placements = nil
	}
	if r.targetView != nil {
		r.targetView.Destroy()
		r.targetView = nil
	}
	if r.target != nil {
		r.target.Destroy()
		r.target = nil
	}
}
