//go:build windows

package vkg

/*
#define VK_USE_PLATFORM_WIN32_KHR 1
#include <windows.h>
#include <vulkan/vulkan.h>
#include <stdlib.h>

static VkResult kaviGetMemoryWin32HandleProperties(VkDevice device, HANDLE handle, uint32_t *memoryTypeBits) {
	PFN_vkGetMemoryWin32HandlePropertiesKHR fn =
		(PFN_vkGetMemoryWin32HandlePropertiesKHR)vkGetDeviceProcAddr(device, "vkGetMemoryWin32HandlePropertiesKHR");
	if (fn == NULL) {
		return VK_ERROR_EXTENSION_NOT_PRESENT;
	}
	VkMemoryWin32HandlePropertiesKHR props = {0};
	props.sType = VK_STRUCTURE_TYPE_MEMORY_WIN32_HANDLE_PROPERTIES_KHR;
	VkResult res = fn(device, VK_EXTERNAL_MEMORY_HANDLE_TYPE_D3D12_RESOURCE_BIT, handle, &props);
	*memoryTypeBits = props.memoryTypeBits;
	return res;
}
*/
import "C"

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/sys/windows"
)

// win32Importer imports D3D12 resources shared through NT handles
type win32Importer struct {
	device *Device
}

func (w *win32Importer) ImportImage(handle uintptr, extent vk.Extent2D, format vk.Format) (*Image, error) {
	d := w.device

	var chain cChain
	defer chain.free()

	external := (*C.VkExternalMemoryImageCreateInfo)(chain.alloc(C.sizeof_VkExternalMemoryImageCreateInfo))
	external.sType = C.VK_STRUCTURE_TYPE_EXTERNAL_MEMORY_IMAGE_CREATE_INFO
	external.handleTypes = C.VK_EXTERNAL_MEMORY_HANDLE_TYPE_D3D12_RESOURCE_BIT

	imageInfo := imageCreateInfo(extent, format, vk.ImageUsageColorAttachmentBit)
	imageInfo.PNext = unsafe.Pointer(external)

	var image vk.Image
	err := vkError(vk.CreateImage(d.VKDevice, &imageInfo, nil, &image))
	if err != nil {
		return nil, err
	}

	ret := &Image{
		Device:   d,
		VKImage:  image,
		VKFormat: format,
		Extent:   extent,
		Usage:    vk.ImageUsageColorAttachmentBit,
		owned:    true,
	}

	mr := ret.GetMemoryRequirements()
	mr.Deref()

	var typeBits C.uint32_t
	err = vkError(vk.Result(C.kaviGetMemoryWin32HandleProperties(cDevice(d.VKDevice), C.HANDLE(unsafe.Pointer(handle)), &typeBits)))
	if err != nil {
		ret.Destroy()
		return nil, errors.Wrap(err, "querying shared handle memory")
	}

	typeIndex, err := d.PhysicalDevice.FindMemoryType(uint32(typeBits), vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		ret.Destroy()
		return nil, err
	}

	dedicated := (*C.VkMemoryDedicatedAllocateInfo)(chain.alloc(C.sizeof_VkMemoryDedicatedAllocateInfo))
	dedicated.sType = C.VK_STRUCTURE_TYPE_MEMORY_DEDICATED_ALLOCATE_INFO
	dedicated.image = C.VkImage(unsafe.Pointer(image))

	importInfo := (*C.VkImportMemoryWin32HandleInfoKHR)(chain.alloc(C.sizeof_VkImportMemoryWin32HandleInfoKHR))
	importInfo.sType = C.VK_STRUCTURE_TYPE_IMPORT_MEMORY_WIN32_HANDLE_INFO_KHR
	importInfo.pNext = unsafe.Pointer(dedicated)
	importInfo.handleType = C.VK_EXTERNAL_MEMORY_HANDLE_TYPE_D3D12_RESOURCE_BIT
	importInfo.handle = C.HANDLE(unsafe.Pointer(handle))

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		PNext:           unsafe.Pointer(importInfo),
		AllocationSize:  mr.Size,
		MemoryTypeIndex: typeIndex,
	}

	var memory vk.DeviceMemory
	err = vkError(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &memory))
	if err != nil {
		ret.Destroy()
		return nil, errors.Wrap(err, "importing shared memory")
	}
	ret.Memory = &DeviceMemory{Device: d, VKDeviceMemory: memory, Size: uint64(mr.Size)}

	err = vkError(vk.BindImageMemory(d.VKDevice, image, memory, 0))
	if err != nil {
		ret.Destroy()
		return nil, errors.Wrap(err, "binding imported memory")
	}

	return ret, nil
}

func (w *win32Importer) CloseHandle(handle uintptr) error {
	return windows.CloseHandle(windows.Handle(handle))
}
