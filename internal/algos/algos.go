// Package algos provides the channel-slot addressing orders used when writing and reading hidden bits.
package algos

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/zedseven/stegmsg/internal/util"
)

// Algorithm definitions

// Algo defines a supported addressing order.
type Algo int

// IsValid simply determines whether a given algorithm is valid.
func (algo Algo) IsValid() bool {
	return algo > AlgoUnknown && algo <= maxAlgoVal
}

// String returns the name of the algorithm, or "<unknown>" if unknown.
func (algo Algo) String() string {
	switch algo {
	case AlgoSequential:
		return "sequential"
	case AlgoPattern:
		return "pattern"
	default:
		return "<unknown>"
	}
}

const (
	AlgoUnknown    Algo = iota     // An unknown algorithm type.
	AlgoSequential                 // Visits slots in row-major pixel order, R, G, B within each pixel.
	AlgoPattern                    // Visits every slot exactly once in a seeded pseudo-random order.
	maxAlgoVal     Algo = iota - 1 // The maximum algorithm value, used for validity checking.
)

// Error types

// UnknownAlgoError is returned when an unknown algorithm type is provided.
type UnknownAlgoError struct {
	Algorithm Algo
}

func (e *UnknownAlgoError) Error() string {
	return fmt.Sprintf("The specified algorithm (%d) does not exist.", e.Algorithm)
}

// EmptyPoolError is returned when an addressor is called but its pool of available slots is empty.
type EmptyPoolError struct{}

func (e *EmptyPoolError) Error() string {
	return "The pool of channel slots is empty."
}

// Addressor hands out channel slot indices, one per call, until the pool runs dry.
type Addressor func() (int64, error)

// Algorithm closures

// SequentialAddressor returns slots 0, 1, ..., slots - 1 in order.
func SequentialAddressor(slots int64) Addressor {
	pos := int64(-1)
	return func() (int64, error) {
		pos++
		if pos >= slots {
			return -1, &EmptyPoolError{}
		}
		return pos, nil
	}
}

// PatternAddressor returns every slot in [0, slots) exactly once, in an order fixed by seed.
// Two addressors built with the same seed and slot count yield the same sequence.
func PatternAddressor(seed, slots int64) Addressor {
	poolSize := slots
	var pool []int64
	rng := rand.New(rand.NewSource(seed))
	// Fisher-Yates, drawn lazily so short payloads don't pay for a full shuffle up front
	return func() (int64, error) {
		if poolSize <= 0 {
			return -1, &EmptyPoolError{}
		}
		if pool == nil {
			pool = util.MakeRange(slots)
		}

		j := rng.Int63n(poolSize)
		poolSize--

		p := pool[j]
		pool[j] = pool[poolSize]
		pool = pool[:poolSize]

		return p, nil
	}
}

// Algorithm type interfacing methods

// AlgoAddressor builds the addressor for algo at runtime.
func AlgoAddressor(algo Algo, seed, slots int64) (Addressor, error) {
	switch algo {
	case AlgoSequential:
		return SequentialAddressor(slots), nil
	case AlgoPattern:
		return PatternAddressor(seed, slots), nil
	default:
		return nil, &UnknownAlgoError{algo}
	}
}

// StringToAlgo parses a string into an algorithm type, or AlgoUnknown if the string is not recognized.
func StringToAlgo(str string) Algo {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "sequential", "":
		return AlgoSequential
	case "pattern":
		return AlgoPattern
	default:
		return AlgoUnknown
	}
}
