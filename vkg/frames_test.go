package vkg

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFence struct {
	mu       sync.Mutex
	signaled chan struct{}
}

func newFakeFence(signaled bool) *fakeFence {
	f := &fakeFence{signaled: make(chan struct{})}
	if signaled {
		close(f.signaled)
	}
	return f
}

func (f *fakeFence) Wait() error {
	f.mu.Lock()
	ch := f.signaled
	f.mu.Unlock()
	<-ch
	return nil
}

func (f *fakeFence) Reset() error {
	f.mu.Lock()
	f.signaled = make(chan struct{})
	f.mu.Unlock()
	return nil
}

func (f *fakeFence) signal() {
	f.mu.Lock()
	close(f.signaled)
	f.mu.Unlock()
}

func testRing(slots []fenceWaiter, images int) *frameRing {
	fbs := make([]*Framebuffer, images)
	cbs := make([]*CommandBuffer, images)
	for i := range fbs {
		fbs[i] = &Framebuffer{}
		cbs[i] = &CommandBuffer{}
	}
	return newFrameRing(slots, fbs, cbs)
}

func acquireIndex(i uint32) func() (SwapchainImage, error) {
	return func() (SwapchainImage, error) {
		return SwapchainImage{Index: i}, nil
	}
}

// submit stands in for DrawFrame: the slot fence is unsignaled until the GPU finishes
func submit(r *frameRing) {
	_ = r.slots[r.slot].Reset()
	r.advance()
}

func beginAsync(r *frameRing, index uint32) <-chan error {
	done := make(chan error, 1)
	go func() {
		_, _, err := r.begin(acquireIndex(index))
		done <- err
	}()
	return done
}

func assertBlocked(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		t.Fatalf("begin returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func assertDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("begin did not return")
	}
}

func TestFrameRingBlocksOnSlotFence(t *testing.T) {
	fence := newFakeFence(true)
	r := testRing([]fenceWaiter{fence}, 3)

	frame, image, err := r.begin(acquireIndex(0))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), image.Index)
	assert.Same(t, r.frames[0], frame)
	submit(r)

	done := beginAsync(r, 1)
	assertBlocked(t, done)

	fence.signal()
	assertDone(t, done)
}

func TestFrameRingBlocksOnImageInFlight(t *testing.T) {
	a, b := newFakeFence(true), newFakeFence(true)
	r := testRing([]fenceWaiter{a, b}, 2)

	_, _, err := r.begin(acquireIndex(0))
	require.NoError(t, err)
	submit(r)

	// slot b is free but image 0 is still being rendered under fence a
	done := beginAsync(r, 0)
	assertBlocked(t, done)

	a.signal()
	assertDone(t, done)
	assert.Same(t, b, r.frames[0].inFlight)
}

func TestFrameRingAcquireFailure(t *testing.T) {
	r := testRing([]fenceWaiter{newFakeFence(true)}, 2)

	_, _, err := r.begin(func() (SwapchainImage, error) {
		return SwapchainImage{}, ErrSwapchainStale
	})
	assert.True(t, errors.Is(err, ErrSwapchainStale))
	assert.Nil(t, r.frames[0].inFlight)
	assert.Nil(t, r.frames[1].inFlight)

	_, _, err = r.begin(acquireIndex(2))
	assert.Error(t, err)
}

func TestFrameRingRebuild(t *testing.T) {
	fence := newFakeFence(true)
	r := testRing([]fenceWaiter{fence}, 3)
	_, _, err := r.begin(acquireIndex(1))
	require.NoError(t, err)

	cbs := r.commandBuffers()

	var allocated, freed []*CommandBuffer
	allocate := func() (*CommandBuffer, error) {
		cb := &CommandBuffer{}
		allocated = append(allocated, cb)
		return cb, nil
	}
	free := func(cb *CommandBuffer) {
		freed = append(freed, cb)
	}

	t.Run("same count", func(t *testing.T) {
		fbs := []*Framebuffer{{}, {}, {}}
		require.NoError(t, r.rebuild(fbs, allocate, free))

		assert.Equal(t, fbs, r.framebuffers())
		assert.Equal(t, cbs, r.commandBuffers())
		assert.Same(t, fence, r.frames[1].inFlight)
		assert.Empty(t, allocated)
		assert.Empty(t, freed)
	})

	t.Run("more images", func(t *testing.T) {
		fbs := []*Framebuffer{{}, {}, {}, {}}
		require.NoError(t, r.rebuild(fbs, allocate, free))

		require.Len(t, allocated, 1)
		assert.Equal(t, append(cbs, allocated[0]), r.commandBuffers())
		assert.Nil(t, r.frames[3].inFlight)
		assert.Same(t, fence, r.frames[1].inFlight)
	})

	t.Run("fewer images", func(t *testing.T) {
		fbs := []*Framebuffer{{}, {}}
		require.NoError(t, r.rebuild(fbs, allocate, free))

		assert.Equal(t, cbs[:2], r.commandBuffers())
		assert.Equal(t, []*CommandBuffer{cbs[2], allocated[0]}, freed)
	})
}

func TestFrameRingRebuildAllocationFailure(t *testing.T) {
	r := testRing([]fenceWaiter{newFakeFence(true)}, 1)
	before := r.commandBuffers()

	var freed []*CommandBuffer
	calls := 0
	allocate := func() (*CommandBuffer, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("out of memory")
		}
		return &CommandBuffer{}, nil
	}

	err := r.rebuild([]*Framebuffer{{}, {}, {}}, allocate, func(cb *CommandBuffer) {
		freed = append(freed, cb)
	})
	require.Error(t, err)
	assert.Len(t, freed, 1)
	assert.Equal(t, before, r.commandBuffers())
}

func TestFrameRingDropFramebuffersOnce(t *testing.T) {
	r := testRing([]fenceWaiter{newFakeFence(true)}, 2)
	fbs := r.framebuffers()

	dropped := r.dropFramebuffers()
	assert.Equal(t, fbs, dropped)
	assert.Equal(t, []*Framebuffer{nil, nil}, r.framebuffers())

	// a resize failing after the drop leaves nothing for Destroy to release twice
	again := r.dropFramebuffers()
	assert.Equal(t, []*Framebuffer{nil, nil}, again)
	assert.NotPanics(t, func() { destroyFramebuffers(again) })

	fresh := []*Framebuffer{{}, {}}
	require.NoError(t, r.rebuild(fresh, nil, nil))
	assert.Equal(t, fresh, r.framebuffers())
}
