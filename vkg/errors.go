package vkg

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrSetup is returned when the instance, device, surface or a required
	// extension/feature cannot be set up. Fatal at startup.
	ErrSetup = errors.New("vulkan setup failed")

	// ErrPipelineCreation is returned when the driver rejects shader bytecode
	// or a pipeline layout.
	ErrPipelineCreation = errors.New("pipeline creation failed")

	// ErrConflictingDescriptor is matched by every *ConflictingDescriptorError.
	ErrConflictingDescriptor = errors.New("conflicting descriptor declarations")

	// ErrSwapchainStale means the surface no longer matches the swapchain,
	// recreate it and try again.
	ErrSwapchainStale = errors.New("swapchain is stale")

	// ErrResizeFailure wraps any failure while rebuilding swapchain dependent
	// objects during a resize.
	ErrResizeFailure = errors.New("resize failed")

	// ErrInteropUnsupported is returned by NewInteropSwapchain on platforms
	// without a DXGI presentation path.
	ErrInteropUnsupported = errors.New("interop swapchain unsupported on this platform")
)

// ConflictingDescriptorError names a (set, binding) that two shaders declare
// with a different descriptor kind or count.
type ConflictingDescriptorError struct {
	Set     uint32
	Binding uint32
}

func (c *ConflictingDescriptorError) Error() string {
	return fmt.Sprintf("%v at set %d binding %d", ErrConflictingDescriptor, c.Set, c.Binding)
}

func (c *ConflictingDescriptorError) Is(target error) bool {
	return target == ErrConflictingDescriptor
}

// vkError converts a failed vk.Result into an error carrying a stack trace
func vkError(res vk.Result) error {
	err := vk.Error(res)
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

// kindError tags cause with one of the sentinels above. errors.Is matches the
// sentinel while errors.As still reaches the cause.
type kindError struct {
	kind  error
	msg   string
	cause error
}

func (k *kindError) Error() string {
	if k.msg == "" {
		return fmt.Sprintf("%v: %v", k.kind, k.cause)
	}
	return fmt.Sprintf("%v: %s: %v", k.kind, k.msg, k.cause)
}

func (k *kindError) Unwrap() error { return k.cause }

func (k *kindError) Is(target error) bool {
	return target == k.kind
}

func withKind(kind, cause error) error {
	return errors.WithStack(&kindError{kind: kind, cause: cause})
}

func withKindf(kind, cause error, format string, args ...interface{}) error {
	return errors.WithStack(&kindError{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause})
}
