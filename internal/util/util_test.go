package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeRange(t *testing.T) {
	assert.Equal(t, []int64{0, 1, 2}, MakeRange(3))
	assert.Empty(t, MakeRange(0))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, int64(0), CeilDiv(0, 3))
	assert.Equal(t, int64(6), CeilDiv(16, 3))
	assert.Equal(t, int64(8), CeilDiv(24, 3))
	assert.Equal(t, int64(9), CeilDiv(25, 3))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(0, 3, -4))
	assert.Equal(t, 3, Clamp(0, 3, 9))
	assert.Equal(t, 2, Clamp(0, 3, 2))
}
