package vkg

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// foreignSwapchain is the presentation side of an interop swapchain, a DXGI
// swapchain on Windows
type foreignSwapchain interface {
	BufferCount() int
	CurrentBackBufferIndex() uint32
	// ShareBuffer returns a shared NT handle to back buffer i. The buffer is
	// referenced until ReleaseBuffers.
	ShareBuffer(i int) (uintptr, error)
	Present() error
	ReleaseBuffers()
	ResizeBuffers(extent vk.Extent2D) error
	Destroy()
}

// imageImporter turns shared handles into Vulkan images backed by the
// foreign memory
type imageImporter interface {
	ImportImage(handle uintptr, extent vk.Extent2D, format vk.Format) (*Image, error)
	CloseHandle(handle uintptr) error
}

type timeline interface {
	Signal(value uint64) error
	Wait(value uint64) error
	Handle() vk.Semaphore
	Destroy()
}

// InteropFormat is the format of every interop back buffer
const InteropFormat = vk.FormatB8g8r8a8Unorm

// InteropSwapchain renders with Vulkan into images imported from a foreign
// swapchain and presents with the foreign API. Frames are ordered through two
// timeline semaphores counting presented frames.
type InteropSwapchain struct {
	foreign  foreignSwapchain
	importer imageImporter

	acquire        timeline
	renderFinished timeline
	counter        uint64

	extent  vk.Extent2D
	handles []uintptr

	waitIdle          func() error
	createFramebuffer func(rp *RenderPass, image *Image) (*Framebuffer, error)
}

func newInteropSwapchain(d *Device, foreign foreignSwapchain, importer imageImporter, extent vk.Extent2D) (*InteropSwapchain, error) {
	acquire, err := d.CreateTimelineSemaphore(0)
	if err != nil {
		return nil, err
	}
	finished, err := d.CreateTimelineSemaphore(0)
	if err != nil {
		acquire.Destroy()
		return nil, err
	}

	return &InteropSwapchain{
		foreign:           foreign,
		importer:          importer,
		acquire:           acquire,
		renderFinished:    finished,
		extent:            extent,
		waitIdle:          d.WaitIdle,
		createFramebuffer: d.CreateFramebuffer,
	}, nil
}

// AcquireNextImage picks the current back buffer and signals the acquire
// semaphore from the host, the buffer is ready as soon as the previous present returned
func (s *InteropSwapchain) AcquireNextImage() (SwapchainImage, error) {
	index := s.foreign.CurrentBackBufferIndex()

	s.counter++
	err := s.acquire.Signal(s.counter)
	if err != nil {
		return SwapchainImage{}, errors.Wrapf(err, "signaling acquire at %d", s.counter)
	}

	return SwapchainImage{
		Index:                   index,
		AcquireSemaphore:        s.acquire.Handle(),
		RenderFinishedSemaphore: s.renderFinished.Handle(),
		TimelineValue:           s.counter,
	}, nil
}

// Present waits for rendering of image to finish and presents without vsync
func (s *InteropSwapchain) Present(image SwapchainImage) error {
	err := s.renderFinished.Wait(image.TimelineValue)
	if err != nil {
		return errors.Wrapf(err, "waiting for frame %d", image.TimelineValue)
	}
	return s.foreign.Present()
}

// CreateImages imports every back buffer and wraps it in a framebuffer of rp
func (s *InteropSwapchain) CreateImages(rp *RenderPass) ([]*Framebuffer, error) {
	n := s.foreign.BufferCount()
	ret := make([]*Framebuffer, 0, n)

	for i := 0; i < n; i++ {
		handle, err := s.foreign.ShareBuffer(i)
		if err != nil {
			destroyFramebuffers(ret)
			return nil, errors.Wrapf(err, "sharing back buffer %d", i)
		}
		s.handles = append(s.handles, handle)

		image, err := s.importer.ImportImage(handle, s.extent, InteropFormat)
		if err != nil {
			destroyFramebuffers(ret)
			return nil, errors.Wrapf(err, "importing back buffer %d", i)
		}

		fb, err := s.createFramebuffer(rp, image)
		if err != nil {
			image.Destroy()
			destroyFramebuffers(ret)
			return nil, err
		}
		ret = append(ret, fb)
	}
	return ret, nil
}

// Recreate drops every reference to the back buffers before resizing them,
// the foreign swapchain refuses to resize while any is alive
func (s *InteropSwapchain) Recreate(extent vk.Extent2D) error {
	err := s.waitIdle()
	if err != nil {
		return err
	}

	s.closeHandles()
	s.foreign.ReleaseBuffers()

	err = s.foreign.ResizeBuffers(extent)
	if err != nil {
		return errors.Wrapf(err, "resizing back buffers to %dx%d", extent.Width, extent.Height)
	}
	s.extent = extent
	return nil
}

func (s *InteropSwapchain) closeHandles() {
	for _, h := range s.handles {
		// a handle that fails to close is leaked, nothing else refers to it
		_ = s.importer.CloseHandle(h)
	}
	s.handles = nil
}

func (s *InteropSwapchain) Extent() vk.Extent2D { return s.extent }
func (s *InteropSwapchain) Format() vk.Format   { return InteropFormat }
func (s *InteropSwapchain) ImageCount() int     { return s.foreign.BufferCount() }

func (s *InteropSwapchain) Destroy() {
	s.closeHandles()
	s.foreign.ReleaseBuffers()
	s.foreign.Destroy()
	s.acquire.Destroy()
	s.renderFinished.Destroy()
}
