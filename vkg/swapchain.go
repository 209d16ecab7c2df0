package vkg

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SwapchainImage is an acquired image: which framebuffer to render into, what
// the submit waits on and what it signals for presentation. TimelineValue is
// non zero when both semaphores are timeline semaphores.
type SwapchainImage struct {
	Index                   uint32
	AcquireSemaphore        vk.Semaphore
	RenderFinishedSemaphore vk.Semaphore
	TimelineValue           uint64
}

// Swapchain is where finished frames go. Implementations present through the
// Vulkan surface or through a foreign API sharing memory with Vulkan.
type Swapchain interface {
	AcquireNextImage() (SwapchainImage, error)
	Present(image SwapchainImage) error
	// Recreate resizes the swapchain, framebuffers created from it must have
	// been destroyed and the device must be idle
	Recreate(extent vk.Extent2D) error
	CreateImages(rp *RenderPass) ([]*Framebuffer, error)
	Extent() vk.Extent2D
	Format() vk.Format
	ImageCount() int
	Destroy()
}

// NativeSwapchain presents through VK_KHR_swapchain
type NativeSwapchain struct {
	Device      *Device
	VKSwapchain vk.Swapchain

	surface     vk.Surface
	extent      vk.Extent2D
	format      vk.SurfaceFormat
	presentMode vk.PresentMode
	minImages   uint32
	imageCount  int

	acquireSemaphores        []*Semaphore
	renderFinishedSemaphores []*Semaphore
	nextSemaphore            int
	// acquire semaphores signaled by an acquire that was then abandoned
	abandoned []int
}

// imageCount asks for one image more than the minimum, within the surface maximum
func swapchainImageCount(minCount, maxCount uint32) uint32 {
	n := minCount + 1
	if maxCount > 0 && n > maxCount {
		n = maxCount
	}
	return n
}

// swapchainExtent uses the surface's extent when it dictates one, otherwise
// extent clamped to the supported range
func swapchainExtent(current, minExtent, maxExtent, extent vk.Extent2D) vk.Extent2D {
	if current.Width != vk.MaxUint32 {
		return current
	}
	clamp := func(v, lo, hi uint32) uint32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return vk.Extent2D{
		Width:  clamp(extent.Width, minExtent.Width, maxExtent.Width),
		Height: clamp(extent.Height, minExtent.Height, maxExtent.Height),
	}
}

// NewNativeSwapchain creates a FIFO swapchain of B8G8R8A8_UNORM images
func NewNativeSwapchain(d *Device, surface vk.Surface, extent vk.Extent2D) (*NativeSwapchain, error) {
	formats, err := d.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}
	formats = formats.Filter(func(f vk.SurfaceFormat) bool {
		return f.Format == vk.FormatB8g8r8a8Unorm && f.ColorSpace == vk.ColorSpaceSrgbNonlinear
	})
	if len(formats) == 0 {
		return nil, errors.Wrap(ErrSetup, "surface does not support B8G8R8A8_UNORM")
	}

	caps, err := d.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}

	s := &NativeSwapchain{
		Device:      d,
		surface:     surface,
		format:      formats[0],
		presentMode: vk.PresentModeFifo,
		minImages:   swapchainImageCount(caps.MinImageCount, caps.MaxImageCount),
	}

	err = s.create(caps, extent, vk.NullSwapchain)
	if err != nil {
		return nil, err
	}

	for i := uint32(0); i < s.minImages; i++ {
		acquire, err := d.CreateSemaphore()
		if err != nil {
			s.Destroy()
			return nil, err
		}
		s.acquireSemaphores = append(s.acquireSemaphores, acquire)

		finished, err := d.CreateSemaphore()
		if err != nil {
			s.Destroy()
			return nil, err
		}
		s.renderFinishedSemaphores = append(s.renderFinishedSemaphores, finished)
	}

	return s, nil
}

func (s *NativeSwapchain) create(caps *vk.SurfaceCapabilities, extent vk.Extent2D, old vk.Swapchain) error {
	extent = swapchainExtent(caps.CurrentExtent, caps.MinImageExtent, caps.MaxImageExtent, extent)

	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          s.surface,
		MinImageCount:    s.minImages,
		ImageFormat:      s.format.Format,
		ImageColorSpace:  s.format.ColorSpace,
		ImageExtent:      extent,
		PresentMode:      s.presentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageStorageBit),
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     old,
	}

	var swapchain vk.Swapchain
	err := vkError(vk.CreateSwapchain(s.Device.VKDevice, createInfo, nil, &swapchain))
	if err != nil {
		return errors.Wrapf(err, "creating %dx%d swapchain", extent.Width, extent.Height)
	}

	var count uint32
	err = vkError(vk.GetSwapchainImages(s.Device.VKDevice, swapchain, &count, nil))
	if err != nil {
		vk.DestroySwapchain(s.Device.VKDevice, swapchain, nil)
		return err
	}

	s.VKSwapchain = swapchain
	s.extent = extent
	s.imageCount = int(count)
	return nil
}

func (s *NativeSwapchain) AcquireNextImage() (SwapchainImage, error) {
	i := s.nextSemaphore
	acquire := s.acquireSemaphores[i]
	finished := s.renderFinishedSemaphores[i]

	var index uint32
	res := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, vk.MaxUint64, acquire.VKSemaphore, vk.NullFence, &index)
	switch res {
	case vk.Success:
	case vk.Suboptimal:
		s.abandoned = append(s.abandoned, i)
		return SwapchainImage{}, ErrSwapchainStale
	case vk.ErrorOutOfDate:
		return SwapchainImage{}, ErrSwapchainStale
	default:
		return SwapchainImage{}, vkError(res)
	}

	s.nextSemaphore = (s.nextSemaphore + 1) % len(s.acquireSemaphores)

	return SwapchainImage{
		Index:                   index,
		AcquireSemaphore:        acquire.VKSemaphore,
		RenderFinishedSemaphore: finished.VKSemaphore,
	}, nil
}

// Present queues the image, an out of date or suboptimal surface is picked up
// by the next acquire
func (s *NativeSwapchain) Present(image SwapchainImage) error {
	res := s.Device.Queue.Present(s.VKSwapchain, image.Index, image.RenderFinishedSemaphore)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal {
		return nil
	}
	return vkError(res)
}

// Recreate replaces the swapchain with one of the same image count, format and
// present mode. The semaphores carry over.
func (s *NativeSwapchain) Recreate(extent vk.Extent2D) error {
	caps, err := s.Device.PhysicalDevice.GetSurfaceCapabilities(s.surface)
	if err != nil {
		return err
	}

	// a signaled binary semaphore cannot be handed to another acquire
	for _, i := range s.abandoned {
		fresh, err := s.Device.CreateSemaphore()
		if err != nil {
			return err
		}
		s.acquireSemaphores[i].Destroy()
		s.acquireSemaphores[i] = fresh
	}
	s.abandoned = nil

	old := s.VKSwapchain
	err = s.create(caps, extent, old)
	if err != nil {
		return err
	}
	vk.DestroySwapchain(s.Device.VKDevice, old, nil)
	return nil
}

// CreateImages wraps every swapchain image in a framebuffer of rp
func (s *NativeSwapchain) CreateImages(rp *RenderPass) ([]*Framebuffer, error) {
	var count uint32
	err := vkError(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &count, nil))
	if err != nil {
		return nil, err
	}

	images := make([]vk.Image, count)
	err = vkError(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &count, images))
	if err != nil {
		return nil, err
	}

	ret := make([]*Framebuffer, 0, count)
	for _, image := range images {
		fb, err := s.Device.CreateFramebuffer(rp, s.Device.wrapImage(image, s.format.Format, s.extent))
		if err != nil {
			destroyFramebuffers(ret)
			return nil, err
		}
		ret = append(ret, fb)
	}
	return ret, nil
}

func (s *NativeSwapchain) Extent() vk.Extent2D { return s.extent }
func (s *NativeSwapchain) Format() vk.Format   { return s.format.Format }
func (s *NativeSwapchain) ImageCount() int     { return s.imageCount }

func (s *NativeSwapchain) Destroy() {
	for _, sem := range s.acquireSemaphores {
		sem.Destroy()
	}
	for _, sem := range s.renderFinishedSemaphores {
		sem.Destroy()
	}
	s.acquireSemaphores = nil
	s.renderFinishedSemaphores = nil
	if s.VKSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
		s.VKSwapchain = vk.NullSwapchain
	}
}
