package vkg

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Image is a 2D image. Images created through CreateImage own their memory;
// images wrapping swapchain handles have no memory and never destroy the handle.
type Image struct {
	Device   *Device
	VKImage  vk.Image
	VKFormat vk.Format
	Extent   vk.Extent2D
	Usage    vk.ImageUsageFlagBits
	Memory   *DeviceMemory

	owned bool
}

func (i *Image) GetMemoryRequirements() vk.MemoryRequirements {
	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(i.Device.VKDevice, i.VKImage, &memRequirements)
	return memRequirements
}

func imageCreateInfo(extent vk.Extent2D, format vk.Format, usage vk.ImageUsageFlagBits) vk.ImageCreateInfo {
	var imageInfo = vk.ImageCreateInfo{}
	imageInfo.SType = vk.StructureTypeImageCreateInfo
	imageInfo.ImageType = vk.ImageType2d
	imageInfo.Extent.Width = extent.Width
	imageInfo.Extent.Height = extent.Height
	imageInfo.Extent.Depth = 1
	imageInfo.MipLevels = 1
	imageInfo.ArrayLayers = 1
	imageInfo.Format = format
	imageInfo.Tiling = vk.ImageTilingOptimal
	imageInfo.InitialLayout = vk.ImageLayoutUndefined
	imageInfo.Usage = vk.ImageUsageFlags(usage)
	imageInfo.Samples = vk.SampleCount1Bit
	imageInfo.SharingMode = vk.SharingModeExclusive
	return imageInfo
}

// CreateImage creates an optimally tiled image and binds it to freshly allocated
// memory with the given properties
func (d *Device) CreateImage(extent vk.Extent2D, format vk.Format, usage vk.ImageUsageFlagBits, props vk.MemoryPropertyFlagBits) (*Image, error) {
	imageInfo := imageCreateInfo(extent, format, usage)

	var image vk.Image

	err := vkError(vk.CreateImage(d.VKDevice, &imageInfo, nil, &image))
	if err != nil {
		return nil, err
	}

	var ret Image

	ret.Device = d
	ret.VKImage = image
	ret.VKFormat = format
	ret.Extent = extent
	ret.Usage = usage
	ret.owned = true

	mr := ret.GetMemoryRequirements()
	mr.Deref()

	mem, err := d.Allocate(uint64(mr.Size), mr.MemoryTypeBits, props)
	if err != nil {
		vk.DestroyImage(d.VKDevice, image, nil)
		return nil, err
	}

	err = vkError(vk.BindImageMemory(d.VKDevice, image, mem.VKDeviceMemory, 0))
	if err != nil {
		mem.Destroy()
		vk.DestroyImage(d.VKDevice, image, nil)
		return nil, errors.Wrap(err, "binding image memory")
	}
	ret.Memory = mem

	return &ret, nil
}

// CreateStorageImage creates a device local image usable as a storage image in shaders
func (d *Device) CreateStorageImage(extent vk.Extent2D, format vk.Format) (*Image, error) {
	return d.CreateImage(extent, format, vk.ImageUsageStorageBit, vk.MemoryPropertyDeviceLocalBit)
}

// CreateDestinationImage creates a device local image which is filled through a
// buffer copy and then read from shaders as a storage image
func (d *Device) CreateDestinationImage(extent vk.Extent2D, format vk.Format) (*Image, error) {
	return d.CreateImage(extent, format, vk.ImageUsageTransferDstBit|vk.ImageUsageStorageBit, vk.MemoryPropertyDeviceLocalBit)
}

// wrapImage wraps an image handle owned by someone else (a swapchain)
func (d *Device) wrapImage(image vk.Image, format vk.Format, extent vk.Extent2D) *Image {
	return &Image{
		Device:   d,
		VKImage:  image,
		VKFormat: format,
		Extent:   extent,
	}
}

// Destroy frees the memory and then the handle, images not created by this
// package are left alone
func (i *Image) Destroy() {
	if !i.owned {
		return
	}
	if i.Memory != nil {
		i.Memory.Destroy()
		i.Memory = nil
	}
	vk.DestroyImage(i.Device.VKDevice, i.VKImage, nil)
}

// ImageBarrier describes a layout transition of a whole color image
type ImageBarrier struct {
	OldLayout vk.ImageLayout
	NewLayout vk.ImageLayout
	SrcStage  vk.PipelineStageFlagBits
	DstStage  vk.PipelineStageFlagBits
	SrcAccess vk.AccessFlagBits
	DstAccess vk.AccessFlagBits
}

func (cb *CommandBuffer) ImageBarrier(i *Image, b ImageBarrier) {
	var barrier = vk.ImageMemoryBarrier{}
	barrier.SType = vk.StructureTypeImageMemoryBarrier
	barrier.OldLayout = b.OldLayout
	barrier.NewLayout = b.NewLayout
	barrier.SrcQueueFamilyIndex = vk.QueueFamilyIgnored
	barrier.DstQueueFamilyIndex = vk.QueueFamilyIgnored
	barrier.Image = i.VKImage
	barrier.SubresourceRange.AspectMask = vk.ImageAspectFlags(vk.ImageAspectColorBit)
	barrier.SubresourceRange.BaseMipLevel = 0
	barrier.SubresourceRange.LevelCount = 1
	barrier.SubresourceRange.BaseArrayLayer = 0
	barrier.SubresourceRange.LayerCount = 1
	barrier.SrcAccessMask = vk.AccessFlags(b.SrcAccess)
	barrier.DstAccessMask = vk.AccessFlags(b.DstAccess)

	vk.CmdPipelineBarrier(cb.VK(), vk.PipelineStageFlags(b.SrcStage), vk.PipelineStageFlags(b.DstStage), 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// CopyBufferToImage copies a tightly packed buffer into the whole image, which
// must be in TRANSFER_DST_OPTIMAL layout
func (cb *CommandBuffer) CopyBufferToImage(src *Buffer, dst *Image) {
	vk.CmdCopyBufferToImage(cb.VK(), src.VKBuffer, dst.VKImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{
		{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: vk.Offset3D{},
			ImageExtent: vk.Extent3D{
				Width: dst.Extent.Width, Height: dst.Extent.Height, Depth: 1,
			},
		},
	})
}

// ClearImage clears the whole image, in GENERAL layout, to zero
func (cb *CommandBuffer) ClearImage(i *Image) {
	var color vk.ClearColorValue
	vk.CmdClearColorImage(cb.VK(), i.VKImage, vk.ImageLayoutGeneral, &color, 1, []vk.ImageSubresourceRange{{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LevelCount: 1,
		LayerCount: 1,
	}})
}
