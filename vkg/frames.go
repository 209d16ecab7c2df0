package vkg

import (
	"github.com/pkg/errors"
)

// FramesInFlight is how many frames the CPU may record ahead of the GPU
const FramesInFlight = 1

type fenceWaiter interface {
	Wait() error
	Reset() error
}

// Frame is everything needed to render into one swapchain image
type Frame struct {
	Framebuffer   *Framebuffer
	CommandBuffer *CommandBuffer

	// the slot fence of the last submit rendering into this image
	inFlight fenceWaiter
}

// frameRing pairs swapchain images with command buffers, and guards both
// against reuse while the GPU still works on them
type frameRing struct {
	frames []*Frame
	slots  []fenceWaiter
	slot   int
}

func newFrameRing(slots []fenceWaiter, fbs []*Framebuffer, cbs []*CommandBuffer) *frameRing {
	r := &frameRing{slots: slots}
	for i, fb := range fbs {
		r.frames = append(r.frames, &Frame{Framebuffer: fb, CommandBuffer: cbs[i]})
	}
	return r
}

// begin waits until the current slot is free, acquires an image and waits
// until no earlier submit renders into it
func (r *frameRing) begin(acquire func() (SwapchainImage, error)) (*Frame, SwapchainImage, error) {
	fence := r.slots[r.slot]
	err := fence.Wait()
	if err != nil {
		return nil, SwapchainImage{}, errors.Wrapf(err, "waiting on frame slot %d", r.slot)
	}

	image, err := acquire()
	if err != nil {
		return nil, SwapchainImage{}, err
	}
	if int(image.Index) >= len(r.frames) {
		return nil, SwapchainImage{}, errors.Errorf("acquired image %d of %d", image.Index, len(r.frames))
	}

	frame := r.frames[image.Index]
	if frame.inFlight != nil {
		err = frame.inFlight.Wait()
		if err != nil {
			return nil, SwapchainImage{}, errors.Wrapf(err, "waiting on image %d", image.Index)
		}
	}
	frame.inFlight = fence

	return frame, image, nil
}

func (r *frameRing) frame(image SwapchainImage) (*Frame, error) {
	if int(image.Index) >= len(r.frames) {
		return nil, errors.Errorf("no frame for image %d", image.Index)
	}
	return r.frames[image.Index], nil
}

func (r *frameRing) advance() {
	r.slot = (r.slot + 1) % len(r.slots)
}

// rebuild replaces the framebuffers after a resize. Command buffers and in
// flight fences stay with the frame of the same index, images without one get
// a new command buffer and surplus command buffers are freed.
func (r *frameRing) rebuild(fbs []*Framebuffer, allocate func() (*CommandBuffer, error), free func(*CommandBuffer)) error {
	frames := make([]*Frame, len(fbs))
	var fresh []*CommandBuffer
	for i, fb := range fbs {
		if i < len(r.frames) {
			old := r.frames[i]
			frames[i] = &Frame{Framebuffer: fb, CommandBuffer: old.CommandBuffer, inFlight: old.inFlight}
			continue
		}
		cb, err := allocate()
		if err != nil {
			for _, c := range fresh {
				free(c)
			}
			return err
		}
		fresh = append(fresh, cb)
		frames[i] = &Frame{Framebuffer: fb, CommandBuffer: cb}
	}
	for i := len(fbs); i < len(r.frames); i++ {
		free(r.frames[i].CommandBuffer)
	}
	r.frames = frames
	return nil
}

func (r *frameRing) framebuffers() []*Framebuffer {
	ret := make([]*Framebuffer, len(r.frames))
	for i, f := range r.frames {
		ret[i] = f.Framebuffer
	}
	return ret
}

// dropFramebuffers hands the framebuffers to the caller to destroy, leaving
// none behind until the next rebuild
func (r *frameRing) dropFramebuffers() []*Framebuffer {
	fbs := r.framebuffers()
	for _, f := range r.frames {
		f.Framebuffer = nil
	}
	return fbs
}

func (r *frameRing) commandBuffers() []*CommandBuffer {
	ret := make([]*CommandBuffer, len(r.frames))
	for i, f := range r.frames {
		ret[i] = f.CommandBuffer
	}
	return ret
}
