package steg

import (
	"fmt"
	"os"

	"github.com/zedseven/stegmsg/internal/algos"
)

// Extract reads the least-significant bit of each R, G and B value in row-major order until the
// last 16 bits read equal Terminator, and returns the bytes before it. A trailing group of fewer
// than 8 bits is dropped. If the grid runs out first, a *NoHiddenMessageError is returned.
func Extract(grid *PixelGrid) ([]byte, error) {
	return ExtractWith(grid, Options{})
}

// ExtractWith is Extract with a configurable slot order and optional error correction.
// opts must match the ones used to embed.
func ExtractWith(grid *PixelGrid, opts Options) ([]byte, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	algo := opts.algorithm()
	if !algo.IsValid() {
		return nil, &algos.UnknownAlgoError{Algorithm: algo}
	}
	ecc, err := opts.coder()
	if err != nil {
		return nil, err
	}

	next, err := algos.AlgoAddressor(algo, opts.Seed, grid.Capacity())
	if err != nil {
		return nil, err
	}
	readBit := func() (uint8, error) {
		slot, err := next()
		if err != nil {
			return 0, &NoHiddenMessageError{}
		}
		return uint8(grid.Pix[grid.slotIndex(slot)] & 1), nil
	}

	var acc bitAccumulator
	if ecc == nil {
		for {
			bit, err := readBit()
			if err != nil {
				return nil, err
			}
			if acc.push(bit) {
				return acc.payload(opts.Strict)
			}
		}
	}

	code := make([]uint8, eccCodeLength)
	for block := int64(0); ; block++ {
		for i := range code {
			if code[i], err = readBit(); err != nil {
				return nil, err
			}
		}
		data, err := ecc.decode(code)
		if err != nil {
			return nil, &UnrecoverableBlockError{Block: block, InnerError: err}
		}
		for _, bit := range data {
			if acc.push(bit) {
				return acc.payload(opts.Strict)
			}
		}
	}
}

// DigConfig stores the configuration options for the Dig operation.
type DigConfig struct {
	ImagePath            string      // The path on disk to the image holding the payload.
	OutPath              string      // Where to write the payload. Left unwritten when empty.
	PatternPath          string      // The pattern file used when hiding, if any.
	Algorithm            Algo        // The slot order used when hiding. Inferred from PatternPath when unset.
	MaxCorrectableErrors int         // The error correction strength used when hiding.
	Key                  string      // The Fernet key to decrypt with. The payload is returned as-is when empty.
	Strict               bool        // Fail instead of dropping a trailing partial byte.
	OutputLevel          OutputLevel // The amount of output to provide.
}

// Dig extracts the payload hidden in the image at config.ImagePath, decrypting it when a key is given.
// The configuration must match the one used in hiding in order to extract successfully.
func Dig(config DigConfig) ([]byte, error) {
	if len(config.ImagePath) <= 0 {
		return nil, &InvalidFormatError{"ImagePath is empty."}
	}

	printlnLvl(config.OutputLevel, OutputDebug, "This tool has been set to display debug output.")

	var c Cipher
	if len(config.Key) > 0 {
		fc, err := NewFernetCipher(config.Key)
		if err != nil {
			return nil, err
		}
		c = fc
	}

	printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Loading the image from '%v'...", config.ImagePath))
	grid, info, err := loadImage(config.ImagePath, config.OutputLevel)
	if err != nil {
		printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Unable to load the image at '%v'!", config.ImagePath))
		return nil, err
	}

	printlnLvl(config.OutputLevel, OutputInfo,
		fmt.Sprintf("Image info:\n\tDimensions: %dx%dpx\n\tDecoded as: %v (%v)\n\tMaximum readable bits: %d",
			info.W, info.H, info.Source, colourModelToStr(info.Original), grid.Capacity()))

	opts, err := resolveOptions(config.Algorithm, config.PatternPath, config.OutputLevel)
	if err != nil {
		return nil, err
	}
	opts.Strict = config.Strict
	opts.MaxCorrectableErrors = config.MaxCorrectableErrors

	printlnLvl(config.OutputLevel, OutputSteps, "Reading the payload from the image...")
	payload, err := ExtractWith(grid, opts)
	if err != nil {
		return nil, err
	}
	printlnLvl(config.OutputLevel, OutputInfo, fmt.Sprintf("Recovered payload size: %d B", len(payload)))

	if c != nil {
		printlnLvl(config.OutputLevel, OutputSteps, "Decrypting the payload...")
		if payload, err = c.Decrypt(payload); err != nil {
			return nil, err
		}
	}

	if len(config.OutPath) > 0 {
		printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Writing to the output file at '%v'...", config.OutPath))
		if err = os.WriteFile(config.OutPath, payload, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", config.OutPath, err)
		}
	}

	printlnLvl(config.OutputLevel, OutputSteps, "All done! c:")

	return payload, nil
}
