package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenMask(t *testing.T) {
	mask := GenMask(1, 4, 16)
	assert.Equal(t, int64(21), mask)
	assert.True(t, TestMask(4, mask))
	assert.False(t, TestMask(2, mask))
	assert.Equal(t, int64(0), GenMask())
}
