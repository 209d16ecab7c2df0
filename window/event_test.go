package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vulkan-go/glfw/v3.3/glfw"
)

func TestModifiersFromGLFW(t *testing.T) {
	assert.Equal(t, Modifiers(0), modifiersFromGLFW(0))
	assert.Equal(t, ModShift|ModAlt, modifiersFromGLFW(glfw.ModShift|glfw.ModAlt))
	assert.Equal(t, ModControl|ModSuper, modifiersFromGLFW(glfw.ModControl|glfw.ModSuper))
}

func TestBothEnterKeys(t *testing.T) {
	assert.Equal(t, KeyEnter, glfwKeys[glfw.KeyEnter])
	assert.Equal(t, KeyEnter, glfwKeys[glfw.KeyKPEnter])
	_, ok := glfwKeys[glfw.KeyA]
	assert.False(t, ok, "letters arrive as characters")
}
