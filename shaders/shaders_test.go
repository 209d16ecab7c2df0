package shaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"github.com/lessflake/kavi/vkg"
)

func module(words int) []byte {
	code := make([]byte, 4*words)
	binary.LittleEndian.PutUint32(code, spirvMagic)
	return code
}

func writeShaders(t *testing.T, dir string, code []byte) {
	for _, name := range []string{ComputeFile, VertexFile, FragmentFile} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), code, 0o644))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeShaders(t, dir, module(5))

	set, err := Load(dir)
	require.NoError(t, err)
	for _, s := range set.All() {
		assert.Len(t, s.Code, 20, s.Name)
		assert.Equal(t, "main", s.Entry)
	}
	assert.Equal(t, vk.ShaderStageComputeBit, set.Compute.Stage)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.Error(t, err)
	})
	t.Run("bad magic", func(t *testing.T) {
		dir := t.TempDir()
		writeShaders(t, dir, make([]byte, 20))
		_, err := Load(dir)
		assert.ErrorContains(t, err, "magic")
	})
	t.Run("truncated", func(t *testing.T) {
		dir := t.TempDir()
		writeShaders(t, dir, module(5)[:18])
		_, err := Load(dir)
		assert.Error(t, err)
	})
}

func TestMetadataMerges(t *testing.T) {
	plan, err := vkg.MergeDescriptorLayouts(Metadata().All())
	require.NoError(t, err)

	assert.Equal(t, uint32(1), plan.SetCount)
	require.Len(t, plan.Bindings, 3)

	target := plan.Bindings[0]
	assert.Equal(t, uint32(BindingTarget), target.Binding)
	assert.Equal(t, vk.ShaderStageComputeBit|vk.ShaderStageFragmentBit, target.Stages)

	assert.Equal(t, []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeStorageImage, DescriptorCount: 2},
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: 1},
	}, plan.PoolSizes)
}

// The target image has a fixed size, so every access to it is bounded by
// imageSize instead of trusting the window extent or the text length.
func TestTargetAccessIsBounded(t *testing.T) {
	for _, tc := range []struct {
		file   string
		guard  string
		access string
	}{
		{"quad.frag", "any(greaterThanEqual(coord, imageSize(image)))", "imageLoad(image, coord)"},
		{"glyphs.comp", "any(greaterThanEqual(dst, imageSize(fb)))", "imageStore(fb, dst"},
	} {
		src, err := os.ReadFile(filepath.Join("glsl", tc.file))
		require.NoError(t, err)
		code := string(src)

		guard := strings.Index(code, tc.guard)
		access := strings.Index(code, tc.access)
		require.NotEqual(t, -1, guard, tc.file)
		require.NotEqual(t, -1, access, tc.file)
		assert.Less(t, guard, access, "%s touches the target before checking its bounds", tc.file)
	}
}
