package vkg

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// InteropMode selects how finished frames reach the screen
type InteropMode int

const (
	// InteropAuto presents through DXGI where the platform and device allow
	// it and falls back to the Vulkan surface otherwise
	InteropAuto InteropMode = iota
	// InteropOn requires the DXGI swapchain
	InteropOn
	// InteropOff always presents through the Vulkan surface
	InteropOff
)

func (m InteropMode) String() string {
	switch m {
	case InteropAuto:
		return "auto"
	case InteropOn:
		return "on"
	case InteropOff:
		return "off"
	}
	return fmt.Sprintf("InteropMode(%d)", int(m))
}

// ParseInteropMode parses "auto", "on" or "off"
func ParseInteropMode(s string) (InteropMode, error) {
	for _, m := range []InteropMode{InteropAuto, InteropOn, InteropOff} {
		if m.String() == s {
			return m, nil
		}
	}
	return InteropAuto, errors.Errorf("unknown interop mode %q", s)
}

// Options configure NewBackend, the zero value is a release build presenting
// however the platform prefers
type Options struct {
	Name    string
	Debug   bool
	Interop InteropMode
	Logger  *slog.Logger
}

// Backend owns the whole Vulkan stack behind a window: instance, surface,
// device, swapchain, render pass, frame ring, descriptors and pipelines
type Backend struct {
	instance  *Instance
	surface   vk.Surface
	device    *Device
	swapchain Swapchain

	renderPass *RenderPass
	fences     []*Fence
	ring       *frameRing

	shaders    ShaderRegistry
	setLayouts []*DescriptorSetLayout
	pool       *DescriptorPool

	computePipelines  []*ComputePipeline
	graphicsPipelines []*GraphicsPipeline

	logger *slog.Logger
}

// NewBackend sets Vulkan up for window. It must be called on the thread
// running the glfw event loop.
func NewBackend(window *glfw.Window, opts Options) (*Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backend{logger: logger}

	err := b.init(window, opts)
	if err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

func (b *Backend) init(window *glfw.Window, opts Options) error {
	err := InitializeWithProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err != nil {
		return err
	}

	app := &App{
		Name:       opts.Name,
		EngineName: "kavi",
		APIVersion: Version{Major: 1, Minor: 2},
	}
	for _, ext := range window.GetRequiredInstanceExtensions() {
		app.EnableExtension(ext)
	}
	if opts.Debug {
		err = app.EnableDebugging()
		if err != nil {
			return withKind(ErrSetup, err)
		}
	}

	b.instance, err = app.CreateInstance()
	if err != nil {
		return err
	}
	if opts.Debug {
		err = b.instance.LogDebugReports(b.logger.With(slog.String("source", "validation")))
		if err != nil {
			return withKind(ErrSetup, err)
		}
	}

	surface, err := window.CreateWindowSurface(b.instance.VKInstance, nil)
	if err != nil {
		return withKind(ErrSetup, err)
	}
	b.surface = vk.SurfaceFromPointer(surface)

	devices, err := b.instance.PhysicalDevices()
	if err != nil {
		return withKind(ErrSetup, err)
	}

	interop := opts.Interop
	if interop != InteropOff && !InteropSupported {
		if interop == InteropOn {
			return errors.WithStack(ErrInteropUnsupported)
		}
		interop = InteropOff
	}

	extensions := RequiredDeviceExtensions
	if interop != InteropOff {
		extensions = append(append([]string{}, RequiredDeviceExtensions...), InteropExtensions...)
	}

	report, err := SelectPhysicalDevice(devices, b.surface, extensions)
	if err != nil && interop == InteropAuto {
		b.logger.Warn("no device supports interop, presenting natively", slog.Any("error", err))
		interop = InteropOff
		extensions = RequiredDeviceExtensions
		report, err = SelectPhysicalDevice(devices, b.surface, extensions)
	}
	if err != nil {
		return err
	}
	b.logger.Info("selected device",
		slog.String("device", report.Device.String()),
		slog.Int("queueFamily", report.QueueFamily.Index))

	b.device, err = report.Device.CreateLogicalDeviceWithOptions(report.QueueFamily, &CreateDeviceOptions{
		EnabledExtensions: extensions,
		Vulkan12Features:  RequiredVulkan12Features,
	})
	if err != nil {
		return withKind(ErrSetup, err)
	}
	b.device.logger = b.logger

	width, height := window.GetFramebufferSize()
	extent := vk.Extent2D{Width: uint32(width), Height: uint32(height)}

	b.swapchain, err = b.createSwapchain(window, interop, extent)
	if err != nil {
		return err
	}

	b.renderPass, err = b.device.CreateRenderPass(b.swapchain.Format())
	if err != nil {
		return withKind(ErrSetup, err)
	}

	fbs, err := b.swapchain.CreateImages(b.renderPass)
	if err != nil {
		return withKind(ErrSetup, err)
	}

	cbs, err := b.device.CommandPool.AllocateBuffers(len(fbs))
	if err != nil {
		destroyFramebuffers(fbs)
		return withKind(ErrSetup, err)
	}

	slots := make([]fenceWaiter, FramesInFlight)
	for i := range slots {
		fence, err := b.device.CreateFence(true)
		if err != nil {
			destroyFramebuffers(fbs)
			return withKind(ErrSetup, err)
		}
		b.fences = append(b.fences, fence)
		slots[i] = fence
	}

	b.ring = newFrameRing(slots, fbs, cbs)

	e := b.swapchain.Extent()
	b.logger.Info("swapchain ready",
		slog.String("kind", fmt.Sprintf("%T", b.swapchain)),
		slog.Int("images", b.swapchain.ImageCount()),
		slog.Int("width", int(e.Width)),
		slog.Int("height", int(e.Height)))
	return nil
}

func (b *Backend) createSwapchain(window *glfw.Window, interop InteropMode, extent vk.Extent2D) (Swapchain, error) {
	if interop != InteropOff {
		s, err := NewInteropSwapchain(b.device, nativeWindow(window), extent)
		if err == nil {
			return s, nil
		}
		if interop == InteropOn {
			return nil, err
		}
		b.logger.Warn("interop swapchain unavailable, presenting natively", slog.Any("error", err))
	}
	return NewNativeSwapchain(b.device, b.surface, extent)
}

func (b *Backend) Device() *Device {
	return b.device
}

func (b *Backend) Logger() *slog.Logger {
	return b.logger
}

// Extent is the current swapchain extent
func (b *Backend) Extent() vk.Extent2D {
	return b.swapchain.Extent()
}

func (b *Backend) RenderPass() *RenderPass {
	return b.renderPass
}

// RegisterShader adds s to the shaders the next AllocateDescriptorSet lays out
func (b *Backend) RegisterShader(s *ShaderMetadata) ShaderHandle {
	return b.shaders.Register(s)
}

// AllocateDescriptorSet merges the bindings of every registered shader,
// replaces the descriptor layouts and pool and allocates set 0
func (b *Backend) AllocateDescriptorSet() (*DescriptorSet, error) {
	plan, err := MergeDescriptorLayouts(b.shaders.Shaders())
	if err != nil {
		return nil, err
	}
	if plan.SetCount == 0 {
		return nil, errors.New("registered shaders declare no descriptors")
	}

	b.destroyDescriptors()

	b.setLayouts, err = b.device.CreateDescriptorSetLayouts(plan)
	if err != nil {
		return nil, err
	}

	b.pool, err = b.device.CreateDescriptorPool(plan.PoolSizes, plan.SetCount)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("descriptor layouts rebuilt",
		slog.Int("shaders", b.shaders.Len()),
		slog.Int("sets", int(plan.SetCount)),
		slog.Int("bindings", len(plan.Bindings)))

	return b.pool.Allocate(b.setLayouts[0])
}

func (b *Backend) destroyDescriptors() {
	if b.pool != nil {
		b.pool.Destroy()
		b.pool = nil
	}
	for _, l := range b.setLayouts {
		l.Destroy()
	}
	b.setLayouts = nil
}

func (b *Backend) shader(h ShaderHandle) (*ShaderMetadata, error) {
	s, ok := b.shaders.Get(h)
	if !ok {
		return nil, errors.Wrapf(ErrPipelineCreation, "unknown shader handle %d", h)
	}
	if b.setLayouts == nil {
		return nil, errors.Wrap(ErrPipelineCreation, "descriptor layouts not built, allocate a descriptor set first")
	}
	return s, nil
}

// CreateComputePipeline builds a pipeline from the compute shader h and
// returns its index
func (b *Backend) CreateComputePipeline(h ShaderHandle, pushConstantBytes uint32) (int, error) {
	s, err := b.shader(h)
	if err != nil {
		return 0, err
	}
	p, err := b.device.CreateComputePipeline(s, b.setLayouts, pushConstantBytes)
	if err != nil {
		return 0, err
	}
	b.computePipelines = append(b.computePipelines, p)
	return len(b.computePipelines) - 1, nil
}

// CreateGraphicsPipeline builds a pipeline drawing a full screen pass with
// shaders vs and fs and returns its index
func (b *Backend) CreateGraphicsPipeline(vs, fs ShaderHandle, pushConstantBytes uint32) (int, error) {
	v, err := b.shader(vs)
	if err != nil {
		return 0, err
	}
	f, err := b.shader(fs)
	if err != nil {
		return 0, err
	}
	p, err := b.device.CreateGraphicsPipeline(v, f, b.setLayouts, pushConstantBytes, b.renderPass, b.swapchain.Extent())
	if err != nil {
		return 0, err
	}
	b.graphicsPipelines = append(b.graphicsPipelines, p)
	return len(b.graphicsPipelines) - 1, nil
}

func (b *Backend) ComputePipeline(i int) *ComputePipeline {
	return b.computePipelines[i]
}

func (b *Backend) GraphicsPipeline(i int) *GraphicsPipeline {
	return b.graphicsPipelines[i]
}

// BeginFrame waits until the next frame slot is free and acquires an image.
// ErrSwapchainStale means the caller should Resize and try again.
func (b *Backend) BeginFrame() (*Frame, SwapchainImage, error) {
	return b.ring.begin(b.swapchain.AcquireNextImage)
}

// DrawFrame submits the command buffer recorded for image and presents it
func (b *Backend) DrawFrame(image SwapchainImage) error {
	frame, err := b.ring.frame(image)
	if err != nil {
		return err
	}
	fence := b.fences[b.ring.slot]

	err = fence.Reset()
	if err != nil {
		return err
	}

	err = b.device.Queue.Submit(SubmitInfo{
		Buffers:       []*CommandBuffer{frame.CommandBuffer},
		Wait:          []vk.Semaphore{image.AcquireSemaphore},
		WaitStages:    []vk.PipelineStageFlagBits{vk.PipelineStageColorAttachmentOutputBit},
		Signal:        []vk.Semaphore{image.RenderFinishedSemaphore},
		TimelineValue: image.TimelineValue,
	}, fence)
	if err != nil {
		return errors.Wrapf(err, "submitting image %d", image.Index)
	}

	err = b.swapchain.Present(image)
	if err != nil {
		return errors.Wrapf(err, "presenting image %d", image.Index)
	}

	b.ring.advance()
	return nil
}

// Resize recreates the swapchain, its framebuffers and every graphics pipeline
// for the new window size. Frames keep their command buffers and fences.
func (b *Backend) Resize(width, height uint32) error {
	err := b.device.WaitIdle()
	if err != nil {
		return withKind(ErrResizeFailure, err)
	}

	destroyFramebuffers(b.ring.dropFramebuffers())

	err = b.swapchain.Recreate(vk.Extent2D{Width: width, Height: height})
	if err != nil {
		return withKindf(ErrResizeFailure, err, "recreating swapchain")
	}
	extent := b.swapchain.Extent()

	fbs, err := b.swapchain.CreateImages(b.renderPass)
	if err != nil {
		return withKindf(ErrResizeFailure, err, "creating framebuffers")
	}

	for _, p := range b.graphicsPipelines {
		err = p.Rebuild(extent)
		if err != nil {
			destroyFramebuffers(fbs)
			return withKind(ErrResizeFailure, err)
		}
	}

	err = b.ring.rebuild(fbs, b.device.CommandPool.AllocateBuffer, b.device.CommandPool.FreeBuffer)
	if err != nil {
		destroyFramebuffers(fbs)
		return withKindf(ErrResizeFailure, err, "allocating command buffers")
	}

	b.logger.Debug("resized",
		slog.Int("width", int(extent.Width)),
		slog.Int("height", int(extent.Height)),
		slog.Int("images", len(fbs)))
	return nil
}

// OneTimeSubmit records fn into a throwaway command buffer and waits for it to execute
func (b *Backend) OneTimeSubmit(fn func(cb *CommandBuffer)) error {
	return b.device.OneTimeSubmit(fn)
}

// CreateStorageImage creates a device local image usable as a storage image
func (b *Backend) CreateStorageImage(extent vk.Extent2D, format vk.Format) (*Image, error) {
	return b.device.CreateStorageImage(extent, format)
}

// CreateStorageBuffer creates a host visible, coherent storage buffer
func (b *Backend) CreateStorageBuffer(sizeInBytes uint64) (*Buffer, error) {
	return b.device.CreateStorageBuffer(sizeInBytes)
}

func (b *Backend) CreateStagingBuffer(sizeInBytes uint64) (*Buffer, error) {
	return b.device.CreateStagingBuffer(sizeInBytes)
}

// Destroy waits for the GPU and releases everything in reverse creation order
func (b *Backend) Destroy() {
	if b.device != nil {
		err := b.device.WaitIdle()
		if err != nil {
			b.logger.Error("waiting for device idle", slog.Any("error", err))
		}
	}

	for _, p := range b.graphicsPipelines {
		p.Destroy()
	}
	b.graphicsPipelines = nil
	for _, p := range b.computePipelines {
		p.Destroy()
	}
	b.computePipelines = nil

	b.destroyDescriptors()

	if b.ring != nil {
		destroyFramebuffers(b.ring.dropFramebuffers())
		b.device.CommandPool.FreeBuffers(b.ring.commandBuffers())
		b.ring = nil
	}
	for _, f := range b.fences {
		f.Destroy()
	}
	b.fences = nil

	if b.renderPass != nil {
		b.renderPass.Destroy()
		b.renderPass = nil
	}
	if b.swapchain != nil {
		b.swapchain.Destroy()
		b.swapchain = nil
	}
	if b.device != nil {
		b.device.Destroy()
		b.device = nil
	}
	if b.instance != nil {
		if b.surface != vk.NullSurface {
			vk.DestroySurface(b.instance.VKInstance, b.surface, nil)
			b.surface = vk.NullSurface
		}
		b.instance.Destroy()
		b.instance = nil
	}
}
