package vkg

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ProfilerQueryCount is the size of the timestamp query pool
const ProfilerQueryCount = 2048

// Profiler measures how long the GPU spends on a command buffer with a pair of
// timestamps, read back one frame later
type Profiler struct {
	Device      *Device
	VKQueryPool vk.QueryPool
	Results     *Buffer

	period float32
}

func (d *Device) CreateProfiler() (*Profiler, error) {
	createInfo := vk.QueryPoolCreateInfo{
		SType:      vk.StructureTypeQueryPoolCreateInfo,
		QueryType:  vk.QueryTypeTimestamp,
		QueryCount: ProfilerQueryCount,
	}

	var pool vk.QueryPool
	err := vkError(vk.CreateQueryPool(d.VKDevice, &createInfo, nil, &pool))
	if err != nil {
		return nil, errors.Wrap(err, "creating timestamp query pool")
	}

	results, err := d.CreateBuffer(2*8, vk.BufferUsageTransferDstBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vk.DestroyQueryPool(d.VKDevice, pool, nil)
		return nil, err
	}

	return &Profiler{
		Device:      d,
		VKQueryPool: pool,
		Results:     results,
		period:      d.PhysicalDevice.TimestampPeriod(),
	}, nil
}

// Begin resets the queries and stamps the top of the pipe, record it first
func (p *Profiler) Begin(cb *CommandBuffer) {
	vk.CmdResetQueryPool(cb.VKCommandBuffer, p.VKQueryPool, 0, ProfilerQueryCount)
	vk.CmdWriteTimestamp(cb.VKCommandBuffer, vk.PipelineStageTopOfPipeBit, p.VKQueryPool, 0)
}

// Finish stamps the bottom of the pipe and copies both timestamps to the
// results buffer, record it last
func (p *Profiler) Finish(cb *CommandBuffer) {
	vk.CmdWriteTimestamp(cb.VKCommandBuffer, vk.PipelineStageBottomOfPipeBit, p.VKQueryPool, 1)
	vk.CmdCopyQueryPoolResults(cb.VKCommandBuffer, p.VKQueryPool, 0, 2, p.Results.VKBuffer, 0, 8,
		vk.QueryResultFlags(vk.QueryResult64Bit|vk.QueryResultWaitBit))
}

// PreviousResult is the GPU time of the last command buffer that completed
// with Begin and Finish recorded
func (p *Profiler) PreviousResult() (time.Duration, error) {
	var start, end uint64
	err := p.Results.MapBytes(2*8, func(data []byte) {
		start = binary.LittleEndian.Uint64(data[0:8])
		end = binary.LittleEndian.Uint64(data[8:16])
	})
	if err != nil {
		return 0, err
	}
	return timestampDuration(start, end, p.period), nil
}

func (p *Profiler) Destroy() {
	p.Results.Destroy()
	vk.DestroyQueryPool(p.Device.VKDevice, p.VKQueryPool, nil)
}

// timestampDuration converts a tick interval to time, period being
// nanoseconds per tick
func timestampDuration(start, end uint64, period float32) time.Duration {
	if end < start {
		return 0
	}
	return time.Duration(float64(end-start) * float64(period))
}
