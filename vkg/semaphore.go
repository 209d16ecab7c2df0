package vkg

import (
	"math"

	vk "github.com/vulkan-go/vulkan"
)

type Semaphore struct {
	Device      *Device
	VKSemaphore vk.Semaphore
}

// CreateSemaphore creates a binary semaphore
func (d *Device) CreateSemaphore() (*Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var sema vk.Semaphore

	err := vkError(vk.CreateSemaphore(d.VKDevice, &semaphoreCreateInfo, nil, &sema))
	if err != nil {
		return nil, err
	}

	return &Semaphore{Device: d, VKSemaphore: sema}, nil
}

// CreateTimelineSemaphore creates a timeline semaphore starting at initial
func (d *Device) CreateTimelineSemaphore(initial uint64) (*TimelineSemaphore, error) {
	var chain cChain
	defer chain.free()

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
		PNext: chain.semaphoreTypeInfo(initial),
	}

	var sema vk.Semaphore

	err := vkError(vk.CreateSemaphore(d.VKDevice, &semaphoreCreateInfo, nil, &sema))
	if err != nil {
		return nil, err
	}

	return &TimelineSemaphore{Semaphore{Device: d, VKSemaphore: sema}}, nil
}

func (s *Semaphore) Handle() vk.Semaphore {
	return s.VKSemaphore
}

func (s *Semaphore) Destroy() {
	vk.DestroySemaphore(s.Device.VKDevice, s.VKSemaphore, nil)
}

// TimelineSemaphore is signaled and waited on with monotonically increasing values
type TimelineSemaphore struct {
	Semaphore
}

// Signal sets the semaphore's value from the host
func (t *TimelineSemaphore) Signal(value uint64) error {
	return vkError(signalSemaphore(t.Device.VKDevice, t.VKSemaphore, value))
}

// Wait blocks until the semaphore reaches value
func (t *TimelineSemaphore) Wait(value uint64) error {
	return vkError(waitSemaphore(t.Device.VKDevice, t.VKSemaphore, value, math.MaxUint64))
}
