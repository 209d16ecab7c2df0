package vkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestampDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Nanosecond, timestampDuration(1000, 2500, 1))
	assert.Equal(t, 10*time.Microsecond, timestampDuration(0, 250, 40))
	assert.Equal(t, time.Duration(83), timestampDuration(100, 200, 0.83333))
	assert.Zero(t, timestampDuration(200, 100, 1), "a counter that wrapped reads as zero")
}
