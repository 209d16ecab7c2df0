package vkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInteropMode(t *testing.T) {
	for _, m := range []InteropMode{InteropAuto, InteropOn, InteropOff} {
		parsed, err := ParseInteropMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	_, err := ParseInteropMode("sometimes")
	assert.Error(t, err)
	assert.Equal(t, "InteropMode(7)", InteropMode(7).String())
}
