package steg

import "fmt"

// PixelGrid is a width x height raster held in one flat slice.
// Channel ch of the pixel at (row, col) lives at Pix[(row*Width+col)*Channels+ch].
// Channels 0, 1 and 2 are red, green and blue; any further channel (alpha) is carried but never used.
type PixelGrid struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint16
}

// NewPixelGrid allocates a zeroed grid.
func NewPixelGrid(width, height, channels int) (*PixelGrid, error) {
	if width < 0 || height < 0 {
		return nil, &InvalidFormatError{fmt.Sprintf("Grid dimensions must be non-negative: Provided %dx%d.", width, height)}
	}
	if channels < usableChannels {
		return nil, &InvalidFormatError{fmt.Sprintf("A pixel needs at least %d channels: Provided %d.", usableChannels, channels)}
	}
	return &PixelGrid{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint16, width*height*channels),
	}, nil
}

func (g *PixelGrid) offset(row, col, ch int) int {
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width || ch < 0 || ch >= g.Channels {
		panic(fmt.Sprintf("steg: pixel (%d, %d) channel %d out of range for %dx%dx%d grid",
			row, col, ch, g.Width, g.Height, g.Channels))
	}
	return (row*g.Width+col)*g.Channels + ch
}

// At returns the value of one channel.
func (g *PixelGrid) At(row, col, ch int) uint16 {
	return g.Pix[g.offset(row, col, ch)]
}

// Set overwrites the value of one channel.
func (g *PixelGrid) Set(row, col, ch int, v uint16) {
	g.Pix[g.offset(row, col, ch)] = v
}

// Capacity is the number of bits the grid can hold, terminator included.
func (g *PixelGrid) Capacity() int64 {
	return int64(g.Width) * int64(g.Height) * usableChannels
}

// Clone returns a deep copy.
func (g *PixelGrid) Clone() *PixelGrid {
	c := *g
	c.Pix = append([]uint16(nil), g.Pix...)
	return &c
}

// opaque reports whether every alpha value equals full. A grid with no alpha channel is opaque.
func (g *PixelGrid) opaque(full uint16) bool {
	if g.Channels <= usableChannels {
		return true
	}
	for i := usableChannels; i < len(g.Pix); i += g.Channels {
		if g.Pix[i] != full {
			return false
		}
	}
	return true
}

func (g *PixelGrid) validate() error {
	if g == nil {
		return &InvalidFormatError{"The pixel grid is nil."}
	}
	if g.Width < 0 || g.Height < 0 || g.Channels < usableChannels {
		return &InvalidFormatError{fmt.Sprintf("The pixel grid shape %dx%dx%d is invalid.", g.Width, g.Height, g.Channels)}
	}
	if len(g.Pix) != g.Width*g.Height*g.Channels {
		return &InvalidFormatError{fmt.Sprintf("The pixel grid holds %d values but its shape needs %d.",
			len(g.Pix), g.Width*g.Height*g.Channels)}
	}
	return nil
}

// slotIndex maps a channel slot to its position in Pix.
func (g *PixelGrid) slotIndex(slot int64) int {
	p, c := slotToPC(slot)
	return int(p)*g.Channels + c
}
