package vkg

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

type callLog []string

func (l *callLog) add(format string, args ...interface{}) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

type fakeForeign struct {
	log       *callLog
	buffers   int
	current   uint32
	resizeErr error
}

func (f *fakeForeign) BufferCount() int               { return f.buffers }
func (f *fakeForeign) CurrentBackBufferIndex() uint32 { return f.current }

func (f *fakeForeign) ShareBuffer(i int) (uintptr, error) {
	f.log.add("share %d", i)
	return uintptr(100 + i), nil
}

func (f *fakeForeign) Present() error {
	f.log.add("present")
	f.current = (f.current + 1) % uint32(f.buffers)
	return nil
}

func (f *fakeForeign) ReleaseBuffers() { f.log.add("release") }

func (f *fakeForeign) ResizeBuffers(extent vk.Extent2D) error {
	f.log.add("resize %dx%d", extent.Width, extent.Height)
	return f.resizeErr
}

func (f *fakeForeign) Destroy() { f.log.add("destroy foreign") }

type fakeImporter struct {
	log *callLog
}

func (f *fakeImporter) ImportImage(handle uintptr, extent vk.Extent2D, format vk.Format) (*Image, error) {
	f.log.add("import %d", handle)
	return &Image{Extent: extent, VKFormat: format}, nil
}

func (f *fakeImporter) CloseHandle(handle uintptr) error {
	f.log.add("close %d", handle)
	return nil
}

type fakeTimeline struct {
	log     *callLog
	name    string
	value   uint64
	waitErr error
}

func (f *fakeTimeline) Signal(value uint64) error {
	f.log.add("signal %s %d", f.name, value)
	f.value = value
	return nil
}

func (f *fakeTimeline) Wait(value uint64) error {
	f.log.add("wait %s %d", f.name, value)
	return f.waitErr
}

func (f *fakeTimeline) Handle() vk.Semaphore { return vk.NullSemaphore }
func (f *fakeTimeline) Destroy()             { f.log.add("destroy %s", f.name) }

func newFakeInterop(log *callLog) (*InteropSwapchain, *fakeForeign) {
	foreign := &fakeForeign{log: log, buffers: 3}
	s := &InteropSwapchain{
		foreign:        foreign,
		importer:       &fakeImporter{log: log},
		acquire:        &fakeTimeline{log: log, name: "acquire"},
		renderFinished: &fakeTimeline{log: log, name: "finished"},
		extent:         vk.Extent2D{Width: 640, Height: 480},
		waitIdle: func() error {
			log.add("wait idle")
			return nil
		},
		createFramebuffer: func(rp *RenderPass, image *Image) (*Framebuffer, error) {
			return &Framebuffer{Image: image, Extent: image.Extent}, nil
		},
	}
	return s, foreign
}

func TestInteropAcquireAndPresent(t *testing.T) {
	var log callLog
	s, _ := newFakeInterop(&log)

	for frame := uint64(1); frame <= 4; frame++ {
		image, err := s.AcquireNextImage()
		require.NoError(t, err)
		assert.Equal(t, frame, image.TimelineValue)
		assert.Equal(t, uint32((frame-1)%3), image.Index)

		require.NoError(t, s.Present(image))
	}

	assert.Equal(t, callLog{
		"signal acquire 1", "wait finished 1", "present",
		"signal acquire 2", "wait finished 2", "present",
		"signal acquire 3", "wait finished 3", "present",
		"signal acquire 4", "wait finished 4", "present",
	}, log)
}

func TestInteropPresentWaitFailure(t *testing.T) {
	var log callLog
	s, _ := newFakeInterop(&log)
	s.renderFinished.(*fakeTimeline).waitErr = errors.New("device lost")

	image, err := s.AcquireNextImage()
	require.NoError(t, err)

	err = s.Present(image)
	require.Error(t, err)
	assert.NotContains(t, log, "present")
}

func TestInteropCreateImages(t *testing.T) {
	var log callLog
	s, _ := newFakeInterop(&log)

	fbs, err := s.CreateImages(nil)
	require.NoError(t, err)
	require.Len(t, fbs, 3)
	for _, fb := range fbs {
		assert.Equal(t, InteropFormat, fb.Image.VKFormat)
		assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, fb.Extent)
	}

	assert.Equal(t, callLog{
		"share 0", "import 100",
		"share 1", "import 101",
		"share 2", "import 102",
	}, log)
	assert.Equal(t, []uintptr{100, 101, 102}, s.handles)
}

func TestInteropRecreate(t *testing.T) {
	var log callLog
	s, _ := newFakeInterop(&log)

	_, err := s.CreateImages(nil)
	require.NoError(t, err)
	log = nil

	require.NoError(t, s.Recreate(vk.Extent2D{Width: 800, Height: 600}))

	assert.Equal(t, callLog{
		"wait idle",
		"close 100", "close 101", "close 102",
		"release",
		"resize 800x600",
	}, log)
	assert.Empty(t, s.handles)
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, s.Extent())

	// the counter keeps counting across a resize
	s.counter = 7
	image, err := s.AcquireNextImage()
	require.NoError(t, err)
	assert.Equal(t, uint64(8), image.TimelineValue)
}

func TestInteropRecreateFailure(t *testing.T) {
	var log callLog
	s, foreign := newFakeInterop(&log)
	foreign.resizeErr = errors.New("still referenced")

	err := s.Recreate(vk.Extent2D{Width: 800, Height: 600})
	require.Error(t, err)
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, s.Extent())
}

func TestInteropDestroy(t *testing.T) {
	var log callLog
	s, _ := newFakeInterop(&log)

	_, err := s.CreateImages(nil)
	require.NoError(t, err)
	log = nil

	s.Destroy()
	assert.Equal(t, callLog{
		"close 100", "close 101", "close 102",
		"release",
		"destroy foreign",
		"destroy acquire",
		"destroy finished",
	}, log)
}
