//go:build windows

package vkg

import (
	"encoding/binary"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/sys/windows"
)

var (
	dxgiDLL  = windows.NewLazySystemDLL("dxgi.dll")
	d3d12DLL = windows.NewLazySystemDLL("d3d12.dll")

	procCreateDXGIFactory2 = dxgiDLL.NewProc("CreateDXGIFactory2")
	procD3D12CreateDevice  = d3d12DLL.NewProc("D3D12CreateDevice")
)

var (
	iidIDXGIFactory4      = windows.GUID{Data1: 0x1bc6ea02, Data2: 0xef36, Data3: 0x464f, Data4: [8]byte{0xbf, 0x0c, 0x21, 0xca, 0x39, 0xe5, 0x16, 0x8a}}
	iidIDXGIAdapter1      = windows.GUID{Data1: 0x29038f61, Data2: 0x3839, Data3: 0x4626, Data4: [8]byte{0x91, 0xfd, 0x08, 0x68, 0x79, 0x01, 0x1a, 0x05}}
	iidIDXGISwapChain3    = windows.GUID{Data1: 0x94d99bdb, Data2: 0xf1f8, Data3: 0x4ab0, Data4: [8]byte{0xb2, 0x36, 0x7d, 0xa0, 0x17, 0x0e, 0xda, 0xb1}}
	iidID3D12Device       = windows.GUID{Data1: 0x189819f1, Data2: 0x1db6, Data3: 0x4b57, Data4: [8]byte{0xbe, 0x54, 0x18, 0x21, 0x33, 0x9b, 0x85, 0xf7}}
	iidID3D12CommandQueue = windows.GUID{Data1: 0x0ec870a6, Data2: 0x5d7e, Data3: 0x4c22, Data4: [8]byte{0x8c, 0xfc, 0x5b, 0xaa, 0xe0, 0x76, 0x16, 0xed}}
	iidID3D12Resource     = windows.GUID{Data1: 0x696442be, Data2: 0xa72e, Data3: 0x4059, Data4: [8]byte{0xbc, 0x79, 0x5b, 0x5c, 0x98, 0x04, 0x0f, 0xad}}
)

// vtable slots, counted through the inheritance chain from IUnknown
const (
	vtblQueryInterface = 0
	vtblRelease        = 2

	vtblFactoryMakeWindowAssociation  = 8
	vtblFactoryCreateSwapChainForHwnd = 15
	vtblFactoryEnumAdapterByLuid      = 26

	vtblSwapChainPresent                   = 8
	vtblSwapChainGetBuffer                 = 9
	vtblSwapChainResizeBuffers             = 13
	vtblSwapChainGetCurrentBackBufferIndex = 36

	vtblDeviceCreateCommandQueue = 8
	vtblDeviceCreateSharedHandle = 31
)

const (
	dxgiFormatUnknown       = 0
	dxgiFormatB8G8R8A8Unorm = 87

	dxgiUsageRenderTargetOutput  = 0x20
	dxgiScalingNone              = 1
	dxgiSwapEffectFlipSequential = 3
	dxgiAlphaModeIgnore          = 3

	dxgiSwapChainFlagFrameLatencyWaitable = 64
	dxgiSwapChainFlagAllowTearing         = 2048
	dxgiSwapChainFlags                    = dxgiSwapChainFlagFrameLatencyWaitable | dxgiSwapChainFlagAllowTearing

	dxgiPresentAllowTearing = 0x200

	dxgiMWANoWindowChanges = 1
	dxgiMWANoAltEnter      = 2

	d3dFeatureLevel11_0 = 0xb000
	genericAll          = 0x10000000

	dxgiBufferCount = 3
)

type dxgiSwapChainDesc1 struct {
	Width       uint32
	Height      uint32
	Format      uint32
	Stereo      int32
	SampleCount uint32
	SampleQual  uint32
	BufferUsage uint32
	BufferCount uint32
	Scaling     uint32
	SwapEffect  uint32
	AlphaMode   uint32
	Flags       uint32
}

type d3d12CommandQueueDesc struct {
	Type     int32
	Priority int32
	Flags    uint32
	NodeMask uint32
}

// comObject is a pointer to a COM interface
type comObject uintptr

func (o comObject) call(slot int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(o))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	r, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(o)}, args...)...)
	return r
}

func (o comObject) release() {
	if o != 0 {
		o.call(vtblRelease)
	}
}

func (o comObject) queryInterface(iid *windows.GUID) (comObject, error) {
	var out comObject
	err := hresult(o.call(vtblQueryInterface, uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out))), "QueryInterface")
	return out, err
}

func hresult(r uintptr, op string) error {
	if int32(r) < 0 {
		return errors.Errorf("%s failed: HRESULT 0x%08x", op, uint32(r))
	}
	return nil
}

// dxgiSwapchain is a flip model DXGI swapchain presenting from a D3D12
// queue on the same adapter as the Vulkan device
type dxgiSwapchain struct {
	factory   comObject
	device    comObject
	queue     comObject
	swapchain comObject
	buffers   []comObject
}

func newDXGISwapchain(luid [8]byte, hwnd uintptr, extent vk.Extent2D) (s *dxgiSwapchain, err error) {
	s = &dxgiSwapchain{}
	defer func() {
		if err != nil {
			s.Destroy()
		}
	}()

	r, _, _ := procCreateDXGIFactory2.Call(0, uintptr(unsafe.Pointer(&iidIDXGIFactory4)), uintptr(unsafe.Pointer(&s.factory)))
	if err = hresult(r, "CreateDXGIFactory2"); err != nil {
		return nil, err
	}

	var adapter comObject
	packed := uintptr(binary.LittleEndian.Uint64(luid[:]))
	err = hresult(s.factory.call(vtblFactoryEnumAdapterByLuid, packed,
		uintptr(unsafe.Pointer(&iidIDXGIAdapter1)), uintptr(unsafe.Pointer(&adapter))), "EnumAdapterByLuid")
	if err != nil {
		return nil, err
	}
	defer adapter.release()

	r, _, _ = procD3D12CreateDevice.Call(uintptr(adapter), d3dFeatureLevel11_0,
		uintptr(unsafe.Pointer(&iidID3D12Device)), uintptr(unsafe.Pointer(&s.device)))
	if err = hresult(r, "D3D12CreateDevice"); err != nil {
		return nil, err
	}

	queueDesc := d3d12CommandQueueDesc{}
	err = hresult(s.device.call(vtblDeviceCreateCommandQueue, uintptr(unsafe.Pointer(&queueDesc)),
		uintptr(unsafe.Pointer(&iidID3D12CommandQueue)), uintptr(unsafe.Pointer(&s.queue))), "CreateCommandQueue")
	if err != nil {
		return nil, err
	}

	desc := dxgiSwapChainDesc1{
		Width:       extent.Width,
		Height:      extent.Height,
		Format:      dxgiFormatB8G8R8A8Unorm,
		SampleCount: 1,
		BufferUsage: dxgiUsageRenderTargetOutput,
		BufferCount: dxgiBufferCount,
		Scaling:     dxgiScalingNone,
		SwapEffect:  dxgiSwapEffectFlipSequential,
		AlphaMode:   dxgiAlphaModeIgnore,
		Flags:       dxgiSwapChainFlags,
	}

	var swapchain1 comObject
	err = hresult(s.factory.call(vtblFactoryCreateSwapChainForHwnd, uintptr(s.queue), hwnd,
		uintptr(unsafe.Pointer(&desc)), 0, 0, uintptr(unsafe.Pointer(&swapchain1))), "CreateSwapChainForHwnd")
	if err != nil {
		return nil, err
	}
	defer swapchain1.release()

	s.swapchain, err = swapchain1.queryInterface(&iidIDXGISwapChain3)
	if err != nil {
		return nil, err
	}

	// fullscreen is handled by the window, not by DXGI
	s.factory.call(vtblFactoryMakeWindowAssociation, hwnd, dxgiMWANoWindowChanges|dxgiMWANoAltEnter)

	return s, nil
}

func (s *dxgiSwapchain) BufferCount() int {
	return dxgiBufferCount
}

func (s *dxgiSwapchain) CurrentBackBufferIndex() uint32 {
	return uint32(s.swapchain.call(vtblSwapChainGetCurrentBackBufferIndex))
}

func (s *dxgiSwapchain) ShareBuffer(i int) (uintptr, error) {
	var buffer comObject
	err := hresult(s.swapchain.call(vtblSwapChainGetBuffer, uintptr(i),
		uintptr(unsafe.Pointer(&iidID3D12Resource)), uintptr(unsafe.Pointer(&buffer))), "GetBuffer")
	if err != nil {
		return 0, err
	}
	s.buffers = append(s.buffers, buffer)

	var handle uintptr
	err = hresult(s.device.call(vtblDeviceCreateSharedHandle, uintptr(buffer), 0, genericAll, 0,
		uintptr(unsafe.Pointer(&handle))), "CreateSharedHandle")
	if err != nil {
		return 0, err
	}
	return handle, nil
}

func (s *dxgiSwapchain) Present() error {
	return hresult(s.swapchain.call(vtblSwapChainPresent, 0, dxgiPresentAllowTearing), "Present")
}

func (s *dxgiSwapchain) ReleaseBuffers() {
	for _, b := range s.buffers {
		b.release()
	}
	s.buffers = nil
}

func (s *dxgiSwapchain) ResizeBuffers(extent vk.Extent2D) error {
	return hresult(s.swapchain.call(vtblSwapChainResizeBuffers, 0, uintptr(extent.Width), uintptr(extent.Height),
		dxgiFormatUnknown, dxgiSwapChainFlags), "ResizeBuffers")
}

func (s *dxgiSwapchain) Destroy() {
	s.ReleaseBuffers()
	s.swapchain.release()
	s.queue.release()
	s.device.release()
	s.factory.release()
	*s = dxgiSwapchain{}
}
