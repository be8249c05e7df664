// Package steg hides byte payloads in the least-significant bits of image pixels and digs them back out.
package steg

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"

	"github.com/zedseven/stegmsg/internal/algos"
)

const (
	bitsPerByte    uint8 = 8
	usableChannels       = 3 // R, G, B. Alpha and anything past it never carry data.
	VersionMax     uint8 = 1
	VersionMid     uint8 = 0
	VersionMin     uint8 = 0
)

// Algo selects the order in which channel slots are visited.
type Algo = algos.Algo

const (
	// AlgoSequential visits pixels in row-major order, R, G then B within each pixel.
	AlgoSequential = algos.AlgoSequential
	// AlgoPattern visits every slot once in an order derived from a shared pattern file.
	AlgoPattern = algos.AlgoPattern
)

// Options tunes Embed and Extract. The zero value is the plain row-major scheme.
type Options struct {
	// Algorithm is the slot order. AlgoUnknown (the zero value) means AlgoSequential.
	Algorithm Algo
	// Seed feeds AlgoPattern. Ignored otherwise.
	Seed int64
	// Strict makes Extract fail when the recovered bit count isn't a multiple of 8.
	Strict bool
	// MaxCorrectableErrors wraps the bit stream in BCH codewords that can each repair this many flipped bits.
	// Zero writes the bare stream.
	MaxCorrectableErrors int
}

func (o Options) algorithm() Algo {
	if o.Algorithm == algos.AlgoUnknown {
		return AlgoSequential
	}
	return o.Algorithm
}

func (o Options) coder() (*eccCoder, error) {
	if o.MaxCorrectableErrors == 0 {
		return nil, nil
	}
	return newECCCoder(o.MaxCorrectableErrors)
}

// resolveOptions picks the slot order for Hide and Dig. An unset algo means AlgoPattern when a pattern file
// is given and AlgoSequential otherwise.
func resolveOptions(algo Algo, patternPath string, outputLevel OutputLevel) (Options, error) {
	if algo == algos.AlgoUnknown {
		algo = AlgoSequential
		if len(patternPath) > 0 {
			algo = AlgoPattern
		}
	}

	opts := Options{Algorithm: algo}
	switch algo {
	case AlgoSequential:
		if len(patternPath) > 0 {
			return opts, &InvalidFormatError{"A pattern file was given but the sequential algorithm was selected."}
		}
	case AlgoPattern:
		if len(patternPath) <= 0 {
			return opts, &InvalidFormatError{"The pattern algorithm needs a pattern file."}
		}
		printlnLvl(outputLevel, OutputSteps, "Loading up the pattern key...")
		seed, err := HashPatternFile(patternPath)
		if err != nil {
			return opts, err
		}
		opts.Seed = seed
		printlnLvl(outputLevel, OutputInfo, "Pattern hash:", seed)
	default:
		return opts, &algos.UnknownAlgoError{Algorithm: algo}
	}
	return opts, nil
}

// Error types

type unknownColourModelError struct{}

func (e unknownColourModelError) Error() string {
	return "The colour model of the provided Image is unknown."
}

// InvalidFormatError is returned when a configuration value is missing or out of range.
type InvalidFormatError struct {
	ErrorDesc string
}

func (e *InvalidFormatError) Error() string {
	if len(e.ErrorDesc) > 0 {
		return e.ErrorDesc
	}
	return "The provided data is of an invalid format."
}

// CapacityExceededError is returned when the payload plus terminator does not fit in the grid.
// The grid is never modified when this is returned.
type CapacityExceededError struct {
	Required   int64
	Available  int64
	InnerError error
}

func (e *CapacityExceededError) Error() string {
	ret := "There is not enough space available to store the payload within the provided image."
	if e.Required > 0 || e.Available > 0 {
		ret = fmt.Sprintf("%v %d bits are required but only %d channel slots are available.", ret, e.Required, e.Available)
	}
	if e.InnerError != nil {
		return fmt.Sprintf("%v Inner error: %v", ret, e.InnerError.Error())
	}
	return ret
}

func (e *CapacityExceededError) Unwrap() error {
	return e.InnerError
}

// NoHiddenMessageError is returned when the whole grid was scanned without meeting the terminator.
type NoHiddenMessageError struct{}

func (e *NoHiddenMessageError) Error() string {
	return "No hidden message was found in the provided image."
}

// MalformedRecoveredBytesError is returned by a strict extraction when bits are left over after byte packing.
type MalformedRecoveredBytesError struct {
	TrailingBits int
}

func (e *MalformedRecoveredBytesError) Error() string {
	return fmt.Sprintf("The recovered data ends with %d bits that do not form a whole byte.", e.TrailingBits)
}

// Library methods

// Version returns the library version as a dotted string.
func Version() string {
	return fmt.Sprintf("%02d.%02d.%02d", VersionMax, VersionMid, VersionMin)
}

// Shared methods

// HashPatternFile hashes the file at patternPath into the seed used by AlgoPattern.
func HashPatternFile(patternPath string) (int64, error) {
	f, err := os.Open(patternPath)
	if err != nil {
		return -1, fmt.Errorf("open pattern file %s: %w", patternPath, err)
	}
	defer f.Close()

	h := fnv.New64()
	if _, err := io.Copy(h, f); err != nil {
		return -1, fmt.Errorf("read pattern file %s: %w", patternPath, err)
	}

	return int64(h.Sum64()), nil
}

// slotToPC maps a channel slot to its pixel index and channel (0 = R, 1 = G, 2 = B).
func slotToPC(slot int64) (pix int64, channel int) {
	pix = slot / usableChannels
	channel = int(slot % usableChannels)
	return
}
