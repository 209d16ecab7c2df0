package vkg

/*
#cgo linux LDFLAGS: -lvulkan
#cgo windows LDFLAGS: -lvulkan-1
#cgo darwin LDFLAGS: -lvulkan

#include <vulkan/vulkan.h>
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// The vulkan-go bindings stop at Vulkan 1.0 plus a handful of KHR extensions,
// so feature chains, timeline semaphores and device IDs go through the C API
// directly. Handles are pointers on both sides and convert through
// unsafe.Pointer.

func cDevice(d vk.Device) C.VkDevice {
	return C.VkDevice(unsafe.Pointer(d))
}

func cPhysicalDevice(p vk.PhysicalDevice) C.VkPhysicalDevice {
	return C.VkPhysicalDevice(unsafe.Pointer(p))
}

func cSemaphore(s vk.Semaphore) C.VkSemaphore {
	return C.VkSemaphore(unsafe.Pointer(s))
}

// Vulkan12Features are the Vulkan 1.2 features this package relies on
type Vulkan12Features struct {
	TimelineSemaphore bool
	VulkanMemoryModel bool
}

func (p *PhysicalDevice) Vulkan12Features() Vulkan12Features {
	f12 := (*C.VkPhysicalDeviceVulkan12Features)(C.calloc(1, C.sizeof_VkPhysicalDeviceVulkan12Features))
	defer C.free(unsafe.Pointer(f12))
	f12.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_VULKAN_1_2_FEATURES

	f2 := (*C.VkPhysicalDeviceFeatures2)(C.calloc(1, C.sizeof_VkPhysicalDeviceFeatures2))
	defer C.free(unsafe.Pointer(f2))
	f2.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_FEATURES_2
	f2.pNext = unsafe.Pointer(f12)

	C.vkGetPhysicalDeviceFeatures2(cPhysicalDevice(p.VKPhysicalDevice), f2)

	return Vulkan12Features{
		TimelineSemaphore: f12.timelineSemaphore == C.VK_TRUE,
		VulkanMemoryModel: f12.vulkanMemoryModel == C.VK_TRUE,
	}
}

// LUID returns the locally unique identifier of the device, which is only
// meaningful on Windows
func (p *PhysicalDevice) LUID() ([8]byte, bool) {
	var luid [8]byte

	id := (*C.VkPhysicalDeviceIDProperties)(C.calloc(1, C.sizeof_VkPhysicalDeviceIDProperties))
	defer C.free(unsafe.Pointer(id))
	id.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_ID_PROPERTIES

	p2 := (*C.VkPhysicalDeviceProperties2)(C.calloc(1, C.sizeof_VkPhysicalDeviceProperties2))
	defer C.free(unsafe.Pointer(p2))
	p2.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_PROPERTIES_2
	p2.pNext = unsafe.Pointer(id)

	C.vkGetPhysicalDeviceProperties2(cPhysicalDevice(p.VKPhysicalDevice), p2)

	for i := range luid {
		luid[i] = byte(id.deviceLUID[i])
	}
	return luid, id.deviceLUIDValid == C.VK_TRUE
}

// cChain is C allocated memory hung off a pNext pointer, freed once the
// create/submit call that reads it has returned
type cChain struct {
	ptrs []unsafe.Pointer
}

func (c *cChain) alloc(size C.size_t) unsafe.Pointer {
	p := C.calloc(1, size)
	c.ptrs = append(c.ptrs, p)
	return p
}

func (c *cChain) free() {
	for _, p := range c.ptrs {
		C.free(p)
	}
	c.ptrs = nil
}

func (c *cChain) vulkan12Features(f Vulkan12Features) unsafe.Pointer {
	f12 := (*C.VkPhysicalDeviceVulkan12Features)(c.alloc(C.sizeof_VkPhysicalDeviceVulkan12Features))
	f12.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_VULKAN_1_2_FEATURES
	if f.TimelineSemaphore {
		f12.timelineSemaphore = C.VK_TRUE
	}
	if f.VulkanMemoryModel {
		f12.vulkanMemoryModel = C.VK_TRUE
	}
	return unsafe.Pointer(f12)
}

func (c *cChain) uint64s(values []uint64) *C.uint64_t {
	if len(values) == 0 {
		return nil
	}
	p := c.alloc(C.size_t(8 * len(values)))
	dst := unsafe.Slice((*C.uint64_t)(p), len(values))
	for i, v := range values {
		dst[i] = C.uint64_t(v)
	}
	return (*C.uint64_t)(p)
}

func (c *cChain) timelineSubmitInfo(wait, signal []uint64) unsafe.Pointer {
	info := (*C.VkTimelineSemaphoreSubmitInfo)(c.alloc(C.sizeof_VkTimelineSemaphoreSubmitInfo))
	info.sType = C.VK_STRUCTURE_TYPE_TIMELINE_SEMAPHORE_SUBMIT_INFO
	info.waitSemaphoreValueCount = C.uint32_t(len(wait))
	info.pWaitSemaphoreValues = c.uint64s(wait)
	info.signalSemaphoreValueCount = C.uint32_t(len(signal))
	info.pSignalSemaphoreValues = c.uint64s(signal)
	return unsafe.Pointer(info)
}

func (c *cChain) semaphoreTypeInfo(initial uint64) unsafe.Pointer {
	info := (*C.VkSemaphoreTypeCreateInfo)(c.alloc(C.sizeof_VkSemaphoreTypeCreateInfo))
	info.sType = C.VK_STRUCTURE_TYPE_SEMAPHORE_TYPE_CREATE_INFO
	info.semaphoreType = C.VK_SEMAPHORE_TYPE_TIMELINE
	info.initialValue = C.uint64_t(initial)
	return unsafe.Pointer(info)
}

func signalSemaphore(d vk.Device, s vk.Semaphore, value uint64) vk.Result {
	info := (*C.VkSemaphoreSignalInfo)(C.calloc(1, C.sizeof_VkSemaphoreSignalInfo))
	defer C.free(unsafe.Pointer(info))
	info.sType = C.VK_STRUCTURE_TYPE_SEMAPHORE_SIGNAL_INFO
	info.semaphore = cSemaphore(s)
	info.value = C.uint64_t(value)

	return vk.Result(C.vkSignalSemaphore(cDevice(d), info))
}

func waitSemaphore(d vk.Device, s vk.Semaphore, value uint64, timeout uint64) vk.Result {
	var c cChain
	defer c.free()

	sems := (*C.VkSemaphore)(c.alloc(C.size_t(unsafe.Sizeof(C.VkSemaphore(nil)))))
	*sems = cSemaphore(s)

	info := (*C.VkSemaphoreWaitInfo)(c.alloc(C.sizeof_VkSemaphoreWaitInfo))
	info.sType = C.VK_STRUCTURE_TYPE_SEMAPHORE_WAIT_INFO
	info.semaphoreCount = 1
	info.pSemaphores = sems
	info.pValues = c.uint64s([]uint64{value})

	return vk.Result(C.vkWaitSemaphores(cDevice(d), info, C.uint64_t(timeout)))
}
