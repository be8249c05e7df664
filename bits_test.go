package steg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteToBits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00000000", ByteToBits(0))
	assert.Equal(t, "01000001", ByteToBits('A'))
	assert.Equal(t, "11111110", ByteToBits(0xFE))
	assert.Equal(t, "11111111", ByteToBits(0xFF))
}

func TestBitsToByte_InvertsByteToBits(t *testing.T) {
	t.Parallel()

	for i := 0; i < 256; i++ {
		b := byte(i)
		got, err := BitsToByte(ByteToBits(b))
		require.NoError(t, err)
		require.Equal(t, b, got)
	}
}

func TestBitsToByte_Invalid(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "0101", "010101011", "0101010x", "22222222"} {
		_, err := BitsToByte(s)
		var formatErr *InvalidFormatError
		assert.ErrorAs(t, err, &formatErr, "input %q", s)
	}
}

func TestNewBitStream(t *testing.T) {
	t.Parallel()

	t.Run("empty payload is just the terminator", func(t *testing.T) {
		assert.Equal(t, "1111111111111110", bitString(newBitStream(nil)))
	})

	t.Run("payload bits come first, MSB first", func(t *testing.T) {
		assert.Equal(t, "01000001"+"01000010"+"1111111111111110", bitString(newBitStream([]byte("AB"))))
	})
}

func TestBitAccumulator(t *testing.T) {
	t.Parallel()

	var acc bitAccumulator
	stream := newBitStream([]byte("Hi"))
	for i, bit := range stream {
		done := acc.push(bit)
		if i < len(stream)-1 {
			require.False(t, done, "terminator reported early at bit %d", i)
		} else {
			require.True(t, done)
		}
	}

	got, err := acc.payload(true)
	require.NoError(t, err)
	assert.Equal(t, []byte("Hi"), got)
}

func bitString(bits []uint8) string {
	s := make([]byte, len(bits))
	for i, b := range bits {
		s[i] = '0' + b
	}
	return string(s)
}
