package steg

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Shared types

type fmtInfo struct {
	Model          color.Model
	ChannelsPerPix uint8
	BitsPerChannel uint8
}

func (info *fmtInfo) bytesPerChannel() int {
	return int(info.BitsPerChannel / bitsPerByte)
}

func (info *fmtInfo) String() string {
	return fmt.Sprintf("{%v %d %d}", colourModelToStr(info.Model), info.ChannelsPerPix, info.BitsPerChannel)
}

type imgInfo struct {
	W, H int
	// Source is the name of the decoder that read the image, e.g. "png".
	Source string
	// Original is the colour model before normalisation.
	Original color.Model
	Format   fmtInfo
}

var (
	nrgbaFormat   = fmtInfo{color.NRGBAModel, 4, 8}
	nrgba64Format = fmtInfo{color.NRGBA64Model, 4, 16}
)

// UnsupportedFormatError is returned when an output path names a format that can't hold the image losslessly.
type UnsupportedFormatError struct {
	Ext    string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	if len(e.Reason) > 0 {
		return fmt.Sprintf("Cannot write a %q image: %v", e.Ext, e.Reason)
	}
	return fmt.Sprintf("Cannot write a %q image: only .png, .bmp, .tif and .tiff preserve every bit.", e.Ext)
}

// Primary methods

func loadImage(imgPath string, outputLevel OutputLevel) (*PixelGrid, imgInfo, error) {
	imgFile, err := os.Open(imgPath)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, "Unable to open the image!", err.Error())
		return nil, imgInfo{}, fmt.Errorf("open %s: %w", imgPath, err)
	}
	defer imgFile.Close()

	grid, info, err := readPixels(imgFile)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, "The image couldn't be decoded:", err.Error())
		return nil, imgInfo{}, err
	}

	return grid, info, nil
}

func writeImage(grid *PixelGrid, info imgInfo, outPath string, outputLevel OutputLevel) (err error) {
	img, err := gridToImage(grid, info)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(outPath))
	if err := checkOutputFormat(ext, grid, info.Format); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("There was an error creating the file '%v'.", outPath))
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", outPath, cerr)
		}
	}()

	if err = encodeImage(f, img, ext); err != nil {
		printlnLvl(outputLevel, OutputSteps, "There was an error encoding the image to the new file.")
		return err
	}

	return nil
}

// Helper functions

func readPixels(r io.Reader) (*PixelGrid, imgInfo, error) {
	img, source, err := image.Decode(r)
	if err != nil {
		return nil, imgInfo{}, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	info := imgInfo{W: b.Dx(), H: b.Dy(), Source: source, Original: img.ColorModel()}

	// Everything is brought to straight-alpha RGBA at 8 or 16 bits, so the alpha channel rides along untouched.
	switch simg := img.(type) {
	case *image.NRGBA:
		info.Format = nrgbaFormat
		return pixToGrid(simg.Pix, simg.Stride, simg.PixOffset(b.Min.X, b.Min.Y), info), info, nil
	case *image.NRGBA64:
		info.Format = nrgba64Format
		return pixToGrid(simg.Pix, simg.Stride, simg.PixOffset(b.Min.X, b.Min.Y), info), info, nil
	case *image.RGBA64, *image.Gray16, *image.Alpha16:
		info.Format = nrgba64Format
		dst := image.NewNRGBA64(image.Rect(0, 0, info.W, info.H))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return pixToGrid(dst.Pix, dst.Stride, 0, info), info, nil
	case *image.RGBA, *image.Gray, *image.Alpha, *image.Paletted, *image.CMYK, *image.YCbCr, *image.NYCbCrA:
		info.Format = nrgbaFormat
		dst := image.NewNRGBA(image.Rect(0, 0, info.W, info.H))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return pixToGrid(dst.Pix, dst.Stride, 0, info), info, nil
	default:
		return nil, info, unknownColourModelError{}
	}
}

// pixToGrid unpacks a raw Pix array. Multi-byte channel values are stored big-endian across consecutive indices.
func pixToGrid(pix []uint8, stride, start int, info imgInfo) *PixelGrid {
	bpc := info.Format.bytesPerChannel()
	cpp := int(info.Format.ChannelsPerPix)
	rowValues := info.W * cpp

	grid := &PixelGrid{Width: info.W, Height: info.H, Channels: cpp, Pix: make([]uint16, rowValues*info.H)}
	for y := 0; y < info.H; y++ {
		row := pix[start+y*stride:]
		for x := 0; x < rowValues; x++ {
			var v uint16
			for k := 0; k < bpc; k++ {
				v = v<<bitsPerByte | uint16(row[x*bpc+k])
			}
			grid.Pix[y*rowValues+x] = v
		}
	}
	return grid
}

func gridToImage(grid *PixelGrid, info imgInfo) (image.Image, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	if grid.Channels != int(info.Format.ChannelsPerPix) || grid.Width != info.W || grid.Height != info.H {
		return nil, &InvalidFormatError{fmt.Sprintf("The pixel grid (%dx%dx%d) does not match the image format %v.",
			grid.Width, grid.Height, grid.Channels, &info.Format)}
	}

	rect := image.Rect(0, 0, grid.Width, grid.Height)
	switch info.Format.Model {
	case color.NRGBAModel:
		img := image.NewNRGBA(rect)
		updatePixWithGrid(img.Pix, img.Stride, grid, info.Format)
		return img, nil
	case color.NRGBA64Model:
		img := image.NewNRGBA64(rect)
		updatePixWithGrid(img.Pix, img.Stride, grid, info.Format)
		return img, nil
	default:
		return nil, unknownColourModelError{}
	}
}

func updatePixWithGrid(pix []uint8, stride int, grid *PixelGrid, format fmtInfo) {
	bpc := format.bytesPerChannel()
	rowValues := grid.Width * grid.Channels
	for y := 0; y < grid.Height; y++ {
		row := pix[y*stride:]
		for x := 0; x < rowValues; x++ {
			v := grid.Pix[y*rowValues+x]
			for k := 0; k < bpc; k++ {
				row[x*bpc+k] = uint8(v >> (uint(bpc-1-k) * uint(bitsPerByte)))
			}
		}
	}
}

func checkOutputFormat(ext string, grid *PixelGrid, format fmtInfo) error {
	switch ext {
	case ".png", ".tif", ".tiff":
		return nil
	case ".bmp":
		if format.BitsPerChannel > bitsPerByte {
			return &UnsupportedFormatError{Ext: ext, Reason: "BMP holds at most 8 bits per channel."}
		}
		// the bmp encoder drops alpha
		if !grid.opaque(0xff) {
			return &UnsupportedFormatError{Ext: ext, Reason: "BMP can't hold the image's transparency."}
		}
		return nil
	default:
		return &UnsupportedFormatError{Ext: ext}
	}
}

func encodeImage(w io.Writer, img image.Image, ext string) error {
	var err error
	switch ext {
	case ".png":
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		err = encoder.Encode(w, img)
	case ".bmp":
		err = bmp.Encode(w, img)
	case ".tif", ".tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return &UnsupportedFormatError{Ext: ext}
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	return nil
}

func colourModelToStr(model color.Model) string {
	switch model {
	case color.Alpha16Model:
		return "Alpha16"
	case color.AlphaModel:
		return "Alpha"
	case color.CMYKModel:
		return "CMYK"
	case color.Gray16Model:
		return "Gray16"
	case color.GrayModel:
		return "Gray"
	case color.NRGBA64Model:
		return "NRGBA64"
	case color.NRGBAModel:
		return "NRGBA"
	case color.RGBA64Model:
		return "RGBA64"
	case color.RGBAModel:
		return "RGBA"
	case color.NYCbCrAModel:
		return "NYCbCrA"
	case color.YCbCrModel:
		return "YCbCr"
	default:
		if _, ok := model.(color.Palette); ok {
			return "Paletted"
		}
		return "<Unknown>"
	}
}
