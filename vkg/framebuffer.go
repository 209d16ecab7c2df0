package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// Framebuffer is a swapchain image, its view and the framebuffer rendering into it
type Framebuffer struct {
	Device        *Device
	VKFramebuffer vk.Framebuffer
	Image         *Image
	View          *ImageView
	Extent        vk.Extent2D
}

// CreateFramebuffer creates a view of image and a framebuffer of rp around it.
// The framebuffer takes ownership of image.
func (d *Device) CreateFramebuffer(rp *RenderPass, image *Image) (*Framebuffer, error) {
	view, err := image.CreateImageView()
	if err != nil {
		return nil, err
	}

	fbCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.VKRenderPass,
		Layers:          1,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view.VKImageView},
		Width:           image.Extent.Width,
		Height:          image.Extent.Height,
	}

	var framebuffer vk.Framebuffer
	err = vkError(vk.CreateFramebuffer(d.VKDevice, &fbCreateInfo, nil, &framebuffer))
	if err != nil {
		view.Destroy()
		return nil, err
	}

	return &Framebuffer{
		Device:        d,
		VKFramebuffer: framebuffer,
		Image:         image,
		View:          view,
		Extent:        image.Extent,
	}, nil
}

// Destroy releases the framebuffer, the view and the image. Swapchain owned
// images are left to the swapchain.
func (f *Framebuffer) Destroy() {
	vk.DestroyFramebuffer(f.Device.VKDevice, f.VKFramebuffer, nil)
	f.View.Destroy()
	f.Image.Destroy()
}

func destroyFramebuffers(fbs []*Framebuffer) {
	for _, fb := range fbs {
		if fb == nil {
			continue
		}
		fb.Destroy()
	}
}
