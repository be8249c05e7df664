package steg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNGFile(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func testNRGBA(w, h int, opaque bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if !opaque {
				a = uint8(100 + (x+y)%100)
			}
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x ^ y), A: a})
		}
	}
	return img
}

func TestReadPixels_NRGBA(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testNRGBA(5, 3, false)))

	grid, info, err := readPixels(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", info.Source)
	assert.Equal(t, nrgbaFormat, info.Format)
	assert.Equal(t, 5, grid.Width)
	assert.Equal(t, 3, grid.Height)
	assert.Equal(t, 4, grid.Channels)

	assert.Equal(t, uint16(4*7), grid.At(2, 4, 0))
	assert.Equal(t, uint16(2*13), grid.At(2, 4, 1))
	assert.Equal(t, uint16(4^2), grid.At(2, 4, 2))
	assert.Equal(t, uint16(106), grid.At(2, 4, 3))
}

func TestReadPixels_GrayIsWidened(t *testing.T) {
	t.Parallel()

	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 1, color.Gray{Y: 42})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	grid, info, err := readPixels(&buf)
	require.NoError(t, err)
	assert.Equal(t, color.GrayModel, info.Original)
	assert.Equal(t, nrgbaFormat, info.Format)
	for ch, want := range []uint16{42, 42, 42, 255} {
		assert.Equal(t, want, grid.At(1, 1, ch))
	}
}

func TestReadPixels_Garbage(t *testing.T) {
	t.Parallel()

	_, _, err := readPixels(bytes.NewReader([]byte("definitely not an image")))
	assert.Error(t, err)
}

func TestWriteImage_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		ext     string
		opaque  bool
		refused bool
	}{
		{"png with alpha", ".png", false, false},
		{"png opaque", ".png", true, false},
		{"bmp", ".bmp", true, false},
		{"bmp with alpha", ".bmp", false, true},
		{"tiff with alpha", ".tiff", false, false},
		{"tif opaque", ".tif", true, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			cover := filepath.Join(dir, "cover.png")
			writePNGFile(t, cover, testNRGBA(9, 7, tc.opaque))

			grid, info, err := loadImage(cover, OutputNothing)
			require.NoError(t, err)
			require.NoError(t, Embed(grid, []byte("lossless")))

			out := filepath.Join(dir, "out"+tc.ext)
			if tc.refused {
				var unsupported *UnsupportedFormatError
				require.ErrorAs(t, writeImage(grid, info, out, OutputNothing), &unsupported)
				assert.NoFileExists(t, out)
				return
			}
			require.NoError(t, writeImage(grid, info, out, OutputNothing))

			reloaded, _, err := loadImage(out, OutputNothing)
			require.NoError(t, err)
			if diff := cmp.Diff(grid.Pix, reloaded.Pix); diff != "" {
				t.Fatalf("pixels changed on disk (-want +got):\n%s", diff)
			}

			got, err := Extract(reloaded)
			require.NoError(t, err)
			assert.Equal(t, []byte("lossless"), got)
		})
	}
}

func TestWriteImage_SixteenBit(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA64(image.Rect(0, 0, 6, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			img.SetNRGBA64(x, y, color.NRGBA64{R: uint16(x * 4099), G: uint16(y * 257), B: 0x1234, A: 0xFFFF})
		}
	}
	dir := t.TempDir()
	cover := filepath.Join(dir, "deep.png")
	writePNGFile(t, cover, img)

	grid, info, err := loadImage(cover, OutputNothing)
	require.NoError(t, err)
	require.Equal(t, nrgba64Format, info.Format)
	assert.Equal(t, uint16(2*4099), grid.At(0, 2, 0))
	assert.Equal(t, uint16(0x1234), grid.At(5, 5, 2))

	require.NoError(t, Embed(grid, []byte("deep")))
	out := filepath.Join(dir, "out.png")
	require.NoError(t, writeImage(grid, info, out, OutputNothing))

	reloaded, _, err := loadImage(out, OutputNothing)
	require.NoError(t, err)
	assert.Equal(t, grid.Pix, reloaded.Pix)

	var unsupported *UnsupportedFormatError
	assert.ErrorAs(t, writeImage(grid, info, filepath.Join(dir, "out.bmp"), OutputNothing), &unsupported)
}

func TestWriteImage_RejectsLossyFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	grid, err := NewPixelGrid(2, 2, 4)
	require.NoError(t, err)
	info := imgInfo{W: 2, H: 2, Format: nrgbaFormat}

	for _, name := range []string{"out.jpg", "out.jpeg", "out.gif", "out"} {
		path := filepath.Join(dir, name)
		var unsupported *UnsupportedFormatError
		assert.ErrorAs(t, writeImage(grid, info, path, OutputNothing), &unsupported, name)
		assert.NoFileExists(t, path)
	}
}

func TestGridToImage_ShapeMismatch(t *testing.T) {
	t.Parallel()

	grid, err := NewPixelGrid(2, 2, 3)
	require.NoError(t, err)

	_, err = gridToImage(grid, imgInfo{W: 2, H: 2, Format: nrgbaFormat})
	var formatErr *InvalidFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestLoadImage_Missing(t *testing.T) {
	t.Parallel()

	_, _, err := loadImage(filepath.Join(t.TempDir(), "nope.png"), OutputNothing)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
