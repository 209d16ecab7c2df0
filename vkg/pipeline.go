package vkg

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Pipeline is a compute or graphics pipeline which can be bound to a command buffer
type Pipeline interface {
	BindPoint() vk.PipelineBindPoint
	Handle() vk.Pipeline
	Layout() *PipelineLayout
	Destroy()
}

func pipelineError(err error, format string, args ...interface{}) error {
	return withKindf(ErrPipelineCreation, err, format, args...)
}

// ComputePipeline owns its pipeline, layout and shader module
type ComputePipeline struct {
	Device            *Device
	VKPipeline        vk.Pipeline
	PipelineLayout    *PipelineLayout
	Modules           []*ShaderModule
	PushConstantBytes uint32
}

// CreateComputePipeline builds a single stage pipeline from s. A push constant
// range is only declared when pushConstantBytes is non zero.
func (d *Device) CreateComputePipeline(s *ShaderMetadata, layouts []*DescriptorSetLayout, pushConstantBytes uint32) (*ComputePipeline, error) {
	if s.Stage != vk.ShaderStageComputeBit {
		return nil, errors.Wrapf(ErrPipelineCreation, "shader %s is not a compute shader", s.Name)
	}

	module, err := d.CreateShaderModule(s.Name, s.Code)
	if err != nil {
		return nil, pipelineError(err, "compute shader %s", s.Name)
	}

	layout, err := d.CreatePipelineLayout(layouts, pushConstantRanges(vk.ShaderStageComputeBit, pushConstantBytes))
	if err != nil {
		module.Destroy()
		return nil, pipelineError(err, "compute pipeline layout")
	}

	var pipelineCreateInfo = vk.ComputePipelineCreateInfo{}
	pipelineCreateInfo.SType = vk.StructureTypeComputePipelineCreateInfo
	pipelineCreateInfo.Stage = module.VKPipelineShaderStageCreateInfo(vk.ShaderStageComputeBit, s.Entry)
	pipelineCreateInfo.Layout = layout.VKPipelineLayout

	pipelines := make([]vk.Pipeline, 1)
	err = vkError(vk.CreateComputePipelines(d.VKDevice, vk.PipelineCache(vk.NullHandle), 1,
		[]vk.ComputePipelineCreateInfo{pipelineCreateInfo}, nil, pipelines))
	if err != nil {
		layout.Destroy()
		module.Destroy()
		return nil, pipelineError(err, "compute pipeline %s", s.Name)
	}

	return &ComputePipeline{
		Device:            d,
		VKPipeline:        pipelines[0],
		PipelineLayout:    layout,
		Modules:           []*ShaderModule{module},
		PushConstantBytes: pushConstantBytes,
	}, nil
}

func (c *ComputePipeline) BindPoint() vk.PipelineBindPoint { return vk.PipelineBindPointCompute }
func (c *ComputePipeline) Handle() vk.Pipeline            { return c.VKPipeline }
func (c *ComputePipeline) Layout() *PipelineLayout        { return c.PipelineLayout }

// Destroy releases the pipeline, then its layout, then its modules
func (c *ComputePipeline) Destroy() {
	vk.DestroyPipeline(c.Device.VKDevice, c.VKPipeline, nil)
	c.PipelineLayout.Destroy()
	for _, m := range c.Modules {
		m.Destroy()
	}
}

// GraphicsPipeline owns its pipeline, layout and shader modules. The viewport is
// baked in, so it is rebuilt whenever the swapchain extent changes.
type GraphicsPipeline struct {
	Device            *Device
	VKPipeline        vk.Pipeline
	PipelineLayout    *PipelineLayout
	Modules           []*ShaderModule
	PushConstantBytes uint32
	Config            *GraphicsPipelineConfig
}

// CreateGraphicsPipeline builds a vertex + fragment pipeline drawing into rp
func (d *Device) CreateGraphicsPipeline(vs, fs *ShaderMetadata, layouts []*DescriptorSetLayout, pushConstantBytes uint32, rp *RenderPass, extent vk.Extent2D) (*GraphicsPipeline, error) {
	if vs.Stage != vk.ShaderStageVertexBit || fs.Stage != vk.ShaderStageFragmentBit {
		return nil, errors.Wrapf(ErrPipelineCreation, "shaders %s and %s are not a vertex and fragment pair", vs.Name, fs.Name)
	}

	ret := &GraphicsPipeline{Device: d, PushConstantBytes: pushConstantBytes}

	for _, s := range []*ShaderMetadata{vs, fs} {
		module, err := d.CreateShaderModule(s.Name, s.Code)
		if err != nil {
			ret.destroyModules()
			return nil, pipelineError(err, "shader %s", s.Name)
		}
		ret.Modules = append(ret.Modules, module)
	}

	layout, err := d.CreatePipelineLayout(layouts,
		pushConstantRanges(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit, pushConstantBytes))
	if err != nil {
		ret.destroyModules()
		return nil, pipelineError(err, "graphics pipeline layout")
	}
	ret.PipelineLayout = layout

	cfg := d.CreateGraphicsPipelineConfig()
	cfg.PipelineLayout = layout
	cfg.RenderPass = rp
	cfg.ShaderStages = []vk.PipelineShaderStageCreateInfo{
		ret.Modules[0].VKPipelineShaderStageCreateInfo(vk.ShaderStageVertexBit, vs.Entry),
		ret.Modules[1].VKPipelineShaderStageCreateInfo(vk.ShaderStageFragmentBit, fs.Entry),
	}
	ret.Config = cfg

	err = ret.Rebuild(extent)
	if err != nil {
		layout.Destroy()
		ret.destroyModules()
		return nil, err
	}
	return ret, nil
}

// Rebuild replaces the pipeline with one for extent, keeping layout and modules
func (g *GraphicsPipeline) Rebuild(extent vk.Extent2D) error {
	info := g.Config.VKGraphicsPipelineCreateInfo(extent)

	pipelines := make([]vk.Pipeline, 1)
	err := vkError(vk.CreateGraphicsPipelines(g.Device.VKDevice, vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{info}, nil, pipelines))
	if err != nil {
		return pipelineError(err, "graphics pipeline at %dx%d", extent.Width, extent.Height)
	}

	if g.VKPipeline != vk.NullPipeline {
		vk.DestroyPipeline(g.Device.VKDevice, g.VKPipeline, nil)
	}
	g.VKPipeline = pipelines[0]
	return nil
}

func (g *GraphicsPipeline) BindPoint() vk.PipelineBindPoint { return vk.PipelineBindPointGraphics }
func (g *GraphicsPipeline) Handle() vk.Pipeline            { return g.VKPipeline }
func (g *GraphicsPipeline) Layout() *PipelineLayout        { return g.PipelineLayout }

func (g *GraphicsPipeline) destroyModules() {
	for _, m := range g.Modules {
		m.Destroy()
	}
	g.Modules = nil
}

// Destroy releases the pipeline, then its layout, then its modules
func (g *GraphicsPipeline) Destroy() {
	vk.DestroyPipeline(g.Device.VKDevice, g.VKPipeline, nil)
	g.PipelineLayout.Destroy()
	g.destroyModules()
}
