// Package shaders declares the shaders kavi renders with and loads their SPIR-V
package shaders

//go:generate glslc -O glsl/glyphs.comp -o glyphs.comp.spv
//go:generate glslc -O glsl/quad.vert -o quad.vert.spv
//go:generate glslc -O glsl/quad.frag -o quad.frag.spv

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/lessflake/kavi/vkg"
)

const (
	ComputeFile  = "glyphs.comp.spv"
	VertexFile   = "quad.vert.spv"
	FragmentFile = "quad.frag.spv"
)

// Descriptor bindings shared by the shaders, all in set 0
const (
	BindingTarget     = 0
	BindingAtlas      = 1
	BindingPlacements = 2
)

// The compute shader runs a 16x16 workgroup per glyph, larger glyphs would be cut off
const (
	MaxGlyphWidth  = 16
	MaxGlyphHeight = 16
)

// ComputePushConstantBytes is the size of the glyph size push constant, two uint32
const ComputePushConstantBytes = 8

const spirvMagic = 0x07230203

// Set is every shader the renderer needs
type Set struct {
	Compute  *vkg.ShaderMetadata
	Vertex   *vkg.ShaderMetadata
	Fragment *vkg.ShaderMetadata
}

func (s *Set) All() []*vkg.ShaderMetadata {
	return []*vkg.ShaderMetadata{s.Compute, s.Vertex, s.Fragment}
}

// Metadata returns the declarations of every shader, without code
func Metadata() *Set {
	return &Set{
		Compute: &vkg.ShaderMetadata{
			Name:  ComputeFile,
			Entry: "main",
			Stage: vk.ShaderStageComputeBit,
			Bindings: []vkg.DescriptorBinding{
				{Set: 0, Binding: BindingTarget, Kind: vk.DescriptorTypeStorageImage, Count: 1},
				{Set: 0, Binding: BindingAtlas, Kind: vk.DescriptorTypeStorageImage, Count: 1},
				{Set: 0, Binding: BindingPlacements, Kind: vk.DescriptorTypeStorageBuffer, Count: 1},
			},
		},
		Vertex: &vkg.ShaderMetadata{
			Name:  VertexFile,
			Entry: "main",
			Stage: vk.ShaderStageVertexBit,
		},
		Fragment: &vkg.ShaderMetadata{
			Name:  FragmentFile,
			Entry: "main",
			Stage: vk.ShaderStageFragmentBit,
			Bindings: []vkg.DescriptorBinding{
				{Set: 0, Binding: BindingTarget, Kind: vk.DescriptorTypeStorageImage, Count: 1},
			},
		},
	}
}

// Load reads the SPIR-V of every shader from dir
func Load(dir string) (*Set, error) {
	set := Metadata()
	for _, s := range set.All() {
		code, err := os.ReadFile(filepath.Join(dir, s.Name))
		if err != nil {
			return nil, errors.Wrapf(err, "loading shader %s", s.Name)
		}
		err = validate(code)
		if err != nil {
			return nil, errors.Wrapf(err, "loading shader %s", s.Name)
		}
		s.Code = code
	}
	return set, nil
}

func validate(code []byte) error {
	if len(code) < 20 || len(code)%4 != 0 {
		return errors.Errorf("%d bytes is not a SPIR-V module", len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != spirvMagic {
		return errors.Errorf("bad SPIR-V magic %#08x", magic)
	}
	return nil
}
