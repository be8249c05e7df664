package steg

import (
	"fmt"
	"sync"

	"github.com/zedseven/bch"
	"github.com/zedseven/stegmsg/internal/util"
)

const (
	// eccCodeLength is the length of every BCH codeword written to the image. It is a full 2^6-1 code,
	// so every error location the decoder reports falls inside the block.
	eccCodeLength = 63
	// MaxCorrectableErrorsLimit is the largest per-block correction strength Options accepts.
	MaxCorrectableErrorsLimit = 15
)

// UnrecoverableBlockError is returned when an error-corrected block holds more flipped bits than it can repair.
type UnrecoverableBlockError struct {
	Block      int64
	InnerError error
}

func (e *UnrecoverableBlockError) Error() string {
	return fmt.Sprintf("Block %d of the hidden data is too damaged to recover. Inner error: %v", e.Block, e.InnerError)
}

func (e *UnrecoverableBlockError) Unwrap() error {
	return e.InnerError
}

var (
	eccConfigsMu sync.Mutex
	eccConfigs   = make(map[int]*bch.EncodingConfig)
)

// eccCoder splits a bit stream into BCH codewords and back.
type eccCoder struct {
	config *bch.EncodingConfig
}

func newECCCoder(maxErrors int) (*eccCoder, error) {
	if maxErrors < 1 || maxErrors > MaxCorrectableErrorsLimit {
		return nil, &InvalidFormatError{fmt.Sprintf("The correctable error count must be within 1-%d: Provided %d.",
			MaxCorrectableErrorsLimit, maxErrors)}
	}

	eccConfigsMu.Lock()
	defer eccConfigsMu.Unlock()
	config, ok := eccConfigs[maxErrors]
	if !ok {
		var err error
		if config, err = bch.CreateConfig(eccCodeLength, maxErrors); err != nil {
			return nil, fmt.Errorf("set up a %d-error BCH code: %w", maxErrors, err)
		}
		eccConfigs[maxErrors] = config
	}
	return &eccCoder{config}, nil
}

// dataBits is the number of stream bits carried by one codeword.
func (c *eccCoder) dataBits() int {
	return c.config.StorageBits
}

// encodedLen is the number of slots n stream bits take up once encoded. The last block is zero-padded.
func (c *eccCoder) encodedLen(n int64) int64 {
	return util.CeilDiv(n, int64(c.dataBits())) * eccCodeLength
}

func (c *eccCoder) encode(bits []uint8) ([]uint8, error) {
	k := c.dataBits()
	out := make([]uint8, 0, c.encodedLen(int64(len(bits))))
	for start := 0; start < len(bits); start += k {
		block := bits[start:min(start+k, len(bits))]
		code, err := bch.EncodeWithConfig(c.config, &block)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
	}
	return out, nil
}

// decode repairs one codeword and returns its data bits.
func (c *eccCoder) decode(code []uint8) ([]uint8, error) {
	if !bch.IsDataCorrupted(c.config, code) {
		return code[eccCodeLength-c.dataBits():], nil
	}
	buf := append([]uint8(nil), code...)
	data, _, err := bch.Decode(c.config, &buf)
	if err != nil {
		return nil, err
	}
	return data, nil
}
