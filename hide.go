package steg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zedseven/binmani"
	"github.com/zedseven/stegmsg/internal/algos"
	"github.com/zedseven/stegmsg/internal/util"
)

const otpLength = 6

// Embed hides payload in grid, one bit in the least-significant bit of each R, G and B value,
// walking pixels in row-major order. The payload is followed by Terminator.
//
// If payload plus terminator needs more bits than grid.Capacity(), a *CapacityExceededError
// is returned and grid is left untouched. Only the first ceil((8*len(payload)+16)/3) pixels change.
func Embed(grid *PixelGrid, payload []byte) error {
	return EmbedWith(grid, payload, Options{})
}

// EmbedWith is Embed with a configurable slot order and optional error correction.
func EmbedWith(grid *PixelGrid, payload []byte, opts Options) error {
	_, err := embed(grid, payload, opts)
	return err
}

// embed returns the number of channel slots written.
func embed(grid *PixelGrid, payload []byte, opts Options) (int64, error) {
	if err := grid.validate(); err != nil {
		return 0, err
	}
	algo := opts.algorithm()
	if !algo.IsValid() {
		return 0, &algos.UnknownAlgoError{Algorithm: algo}
	}
	ecc, err := opts.coder()
	if err != nil {
		return 0, err
	}

	writeBits := newBitStream(payload)
	required := int64(len(writeBits))
	if ecc != nil {
		required = ecc.encodedLen(required)
	}
	available := grid.Capacity()
	if required > available {
		return 0, &CapacityExceededError{Required: required, Available: available}
	}
	if ecc != nil {
		if writeBits, err = ecc.encode(writeBits); err != nil {
			return 0, err
		}
	}

	next, err := algos.AlgoAddressor(algo, opts.Seed, available)
	if err != nil {
		return 0, err
	}

	for _, bit := range writeBits {
		slot, err := next()
		if err != nil {
			return 0, &CapacityExceededError{Required: required, Available: available, InnerError: err}
		}
		i := grid.slotIndex(slot)
		grid.Pix[i] = binmani.WriteTo(grid.Pix[i], 0, 1, uint16(bit))
	}

	return int64(len(writeBits)), nil
}

// HideConfig stores the configuration options for the Hide operation.
type HideConfig struct {
	// ImagePath is the path on disk to the cover image.
	ImagePath string
	// FilePath is the path on disk to the file to hide. Takes precedence over Message.
	FilePath string
	// Message is hidden when FilePath is empty.
	Message []byte
	// OutPath is where the result is written. Defaults to "<image>_encrypted.png" beside the cover.
	OutPath string
	// PatternPath seeds AlgoPattern with this file's contents.
	PatternPath string
	// Algorithm is the slot order. Left unset, it is AlgoPattern when PatternPath is given and AlgoSequential otherwise.
	Algorithm Algo
	// MaxCorrectableErrors turns on BCH error correction at this strength per block.
	MaxCorrectableErrors int
	// Encrypt wraps the payload in a Fernet token under a freshly generated key.
	Encrypt bool
	// Recipient receives the key and one-time code through Mailer. Requires Encrypt.
	Recipient string
	// Mailer delivers the key to Recipient.
	Mailer KeyDeliverer
}

// HideResult describes what Hide wrote.
type HideResult struct {
	OutPath      string
	PayloadBytes int
	// Key and OTP are empty unless the payload was encrypted.
	Key string
	OTP string
	// Delivered is set once the key has been handed to the Mailer.
	Delivered bool
}

func (config *HideConfig) validate() error {
	if len(config.ImagePath) <= 0 {
		return &InvalidFormatError{"ImagePath is empty."}
	}
	if len(config.FilePath) <= 0 && len(config.Message) <= 0 {
		return &InvalidFormatError{"Either FilePath or Message must be provided."}
	}
	if config.MaxCorrectableErrors < 0 || config.MaxCorrectableErrors > MaxCorrectableErrorsLimit {
		return &InvalidFormatError{fmt.Sprintf("MaxCorrectableErrors must be within 0-%d.", MaxCorrectableErrorsLimit)}
	}
	if len(config.Recipient) > 0 {
		if !config.Encrypt {
			return &InvalidFormatError{"A Recipient was given but the payload is not encrypted, so there is no key to send."}
		}
		if config.Mailer == nil {
			return &InvalidFormatError{"A Recipient was given without a Mailer."}
		}
	}
	return nil
}

// DefaultOutPath is where Hide writes when no OutPath is given.
func DefaultOutPath(imagePath string) string {
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	return filepath.Join(filepath.Dir(imagePath), base+"_encrypted.png")
}

// Hide loads a cover image, hides a file or message in it (optionally encrypted) and saves the result
// to a new lossless image. When a Recipient is configured the key and a one-time code are delivered to it.
func Hide(ctx context.Context, config *HideConfig, outputLevel OutputLevel) (*HideResult, error) {
	if config == nil {
		return nil, &InvalidFormatError{"HideConfig is nil."}
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	outPath := config.OutPath
	if len(outPath) <= 0 {
		outPath = DefaultOutPath(config.ImagePath)
	}

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Steg v%v.", Version()))
	printlnLvl(outputLevel, OutputDebug, "This tool has been set to display debug output.")

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Loading the image from '%v'...", config.ImagePath))
	grid, info, err := loadImage(config.ImagePath, outputLevel)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Unable to load the image at '%v'!", config.ImagePath))
		return nil, err
	}

	printlnLvl(outputLevel, OutputInfo,
		fmt.Sprintf("Image info:\n\tDimensions: %dx%dpx\n\tDecoded as: %v (%v)\n\tWorking format: %v\n\tCapacity: %d bits",
			info.W, info.H, info.Source, colourModelToStr(info.Original), &info.Format, grid.Capacity()))

	payload := config.Message
	if len(config.FilePath) > 0 {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Reading the file at '%v'...", config.FilePath))
		payload, err = os.ReadFile(config.FilePath)
		if err != nil {
			printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Unable to read the file at '%v'.", config.FilePath))
			return nil, fmt.Errorf("read %s: %w", config.FilePath, err)
		}
	}

	opts, err := resolveOptions(config.Algorithm, config.PatternPath, outputLevel)
	if err != nil {
		return nil, err
	}
	opts.MaxCorrectableErrors = config.MaxCorrectableErrors

	result := &HideResult{OutPath: outPath}
	if config.Encrypt {
		printlnLvl(outputLevel, OutputSteps, "Encrypting the payload...")
		if result.Key, err = GenerateKey(); err != nil {
			return nil, err
		}
		c, err := NewFernetCipher(result.Key)
		if err != nil {
			return nil, err
		}
		if payload, err = c.Encrypt(payload); err != nil {
			return nil, err
		}
		if result.OTP, err = GenerateOTP(otpLength); err != nil {
			return nil, err
		}
	}
	result.PayloadBytes = len(payload)

	printlnLvl(outputLevel, OutputInfo, fmt.Sprintf("Payload size: %d B", len(payload)))
	if outputLevel >= OutputDebug {
		for _, v := range payload {
			printlnLvl(outputLevel, OutputDebug, ByteToBits(v))
		}
	}

	if opts.MaxCorrectableErrors > 0 {
		printlnLvl(outputLevel, OutputSteps, "Encoding the payload into the image with error correction...")
	} else {
		printlnLvl(outputLevel, OutputSteps, "Encoding the payload into the image...")
	}
	written, err := embed(grid, payload, opts)
	if err != nil {
		return nil, err
	}
	printlnLvl(outputLevel, OutputInfo, fmt.Sprintf("Channel slots written: %d (%d of %d pixels)",
		written, util.CeilDiv(written, usableChannels), grid.Width*grid.Height))

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Writing the encoded image to '%v' now...", outPath))
	if err = writeImage(grid, info, outPath, outputLevel); err != nil {
		printlnLvl(outputLevel, OutputSteps, "An error occurred while writing to the final image.")
		return nil, err
	}

	if len(config.Recipient) > 0 {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Sending the decryption key to '%v'...", config.Recipient))
		if err = config.Mailer.DeliverKey(ctx, config.Recipient, result.Key, result.OTP); err != nil {
			return result, err
		}
		result.Delivered = true
	}

	printlnLvl(outputLevel, OutputSteps, "All done! c:")

	return result, nil
}
