package vkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestSwapchainImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), swapchainImageCount(2, 8))
	assert.Equal(t, uint32(3), swapchainImageCount(2, 0), "zero max means unbounded")
	assert.Equal(t, uint32(3), swapchainImageCount(3, 3))
}

func TestSwapchainExtent(t *testing.T) {
	lo := vk.Extent2D{Width: 1, Height: 1}
	hi := vk.Extent2D{Width: 4096, Height: 2048}

	fixed := vk.Extent2D{Width: 800, Height: 600}
	assert.Equal(t, fixed, swapchainExtent(fixed, lo, hi, vk.Extent2D{Width: 1024, Height: 768}))

	free := vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768},
		swapchainExtent(free, lo, hi, vk.Extent2D{Width: 1024, Height: 768}))
	assert.Equal(t, vk.Extent2D{Width: 4096, Height: 1},
		swapchainExtent(free, lo, hi, vk.Extent2D{Width: 5000, Height: 0}))
}
