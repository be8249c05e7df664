package steg

import (
	"fmt"
	"strconv"

	"github.com/zedseven/binmani"
)

const (
	// Terminator marks the end of the hidden payload: 1111111111111110.
	// It is not escaped, so a payload whose bits contain it on any alignment is cut short on extraction.
	Terminator uint16 = 0xFFFE
	// TerminatorBits is the width of Terminator.
	TerminatorBits = 16
)

var terminatorBits = bytesToBits([]byte{byte(Terminator >> bitsPerByte), byte(Terminator & 0xff)})

// ByteToBits renders b as eight '0'/'1' characters, most-significant bit first.
func ByteToBits(b byte) string {
	return fmt.Sprintf("%08b", b)
}

// BitsToByte parses eight '0'/'1' characters, most-significant bit first.
func BitsToByte(s string) (byte, error) {
	if len(s) != int(bitsPerByte) {
		return 0, &InvalidFormatError{fmt.Sprintf("A byte needs exactly %d bits: Provided %d.", bitsPerByte, len(s))}
	}
	v, err := strconv.ParseUint(s, 2, 8)
	if err != nil {
		return 0, &InvalidFormatError{fmt.Sprintf("%q is not a binary byte.", s)}
	}
	return byte(v), nil
}

func bytesToBits(b []byte) []uint8 {
	if len(b) == 0 {
		return nil
	}
	if bits := binmani.BytesToBits(&b); bits != nil {
		return *bits
	}
	return nil
}

// newBitStream is the payload's bits, MSB first per byte, followed by the terminator.
func newBitStream(payload []byte) []uint8 {
	bits := make([]uint8, 0, len(payload)*int(bitsPerByte)+TerminatorBits)
	bits = append(bits, bytesToBits(payload)...)
	return append(bits, terminatorBits...)
}

// bitAccumulator packs bits into bytes as they are read and watches the last 16 for the terminator.
type bitAccumulator struct {
	window uint16
	count  int64
	cur    byte
	out    []byte
}

// push appends one bit and reports whether the terminator has just been completed.
func (a *bitAccumulator) push(bit uint8) bool {
	a.window = a.window<<1 | uint16(bit&1)
	a.cur = a.cur<<1 | bit&1
	a.count++
	if a.count%int64(bitsPerByte) == 0 {
		a.out = append(a.out, a.cur)
		a.cur = 0
	}
	return a.count >= TerminatorBits && a.window == Terminator
}

// payload drops the terminator and returns the whole bytes before it.
func (a *bitAccumulator) payload(strict bool) ([]byte, error) {
	n := a.count - TerminatorBits
	if rem := n % int64(bitsPerByte); rem != 0 && strict {
		return nil, &MalformedRecoveredBytesError{TrailingBits: int(rem)}
	}
	return append([]byte{}, a.out[:n/int64(bitsPerByte)]...), nil
}
