package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	steg "github.com/zedseven/stegmsg"
	"github.com/zedseven/stegmsg/internal/algos"
	"github.com/zedseven/stegmsg/internal/util"
)

const credentialEnv = "STEG_SMTP_CREDENTIAL"

// Program entry point

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args and carries out one hide or dig. Progress goes to stderr so a payload dug to stdout stays clean.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("steg", flag.ContinueOnError)
	flags.SetOutput(stderr)

	digToggle := flags.Bool("dig", false, "Whether to extract a payload instead of hiding it")
	imgPath := flags.String("img", "", "The filepath to the image on disk")
	filePath := flags.String("file", "", "The filepath to the file to hide")
	message := flags.String("msg", "", "A message to hide, used when -file is not given")
	outPath := flags.String("out", "", "The filepath to write the steg image (hide) or the payload (dig) to")
	patternPath := flags.String("pattern", "", "The filepath to the file used for the pattern hash; scatters the bits instead of writing them in order")
	algoName := flags.String("algo", "", "The slot order: sequential or pattern (defaults to pattern when -pattern is given)")
	ecc := flags.Int("ecc", 0, fmt.Sprintf("The number of flipped bits each 63-bit block can repair (0 disables, at most %d)", steg.MaxCorrectableErrorsLimit))
	encrypt := flags.Bool("encrypt", false, "Whether to encrypt the payload with a freshly generated key before hiding it")
	key := flags.String("key", "", "The decryption key to apply to the dug-out payload")
	strict := flags.Bool("strict", false, "Whether to fail when the dug-out bits don't end on a byte boundary")
	email := flags.String("email", "", "The address to send the decryption key and one-time code to")
	from := flags.String("from", "", "The sender address for -email; the credential is read from $"+credentialEnv)
	smtpHost := flags.String("smtp-host", steg.DefaultMailConfig().SMTPHost, "The SMTP server used for -email")
	smtpPort := flags.Int("smtp-port", steg.DefaultMailConfig().SMTPPort, "The SMTP submission port used for -email")
	verbosity := flags.Int("v", int(steg.OutputSteps), "The amount of output: 0 nothing, 1 steps, 2 info, 3 debug")
	version := flags.Bool("version", false, "Print the version and exit")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *version {
		fmt.Fprintln(stdout, steg.Version())
		return 0
	}
	if len(*imgPath) <= 0 || (!*digToggle && len(*filePath) <= 0 && len(*message) <= 0) {
		flags.PrintDefaults()
		return 2
	}

	var algo steg.Algo
	if len(*algoName) > 0 {
		if algo = algos.StringToAlgo(*algoName); !algo.IsValid() {
			fmt.Fprintf(stderr, "Unknown -algo %q.\n", *algoName)
			flags.PrintDefaults()
			return 2
		}
	}

	steg.Output = stderr
	outputLevel := steg.OutputLevel(util.Clamp(int(steg.OutputNothing), int(steg.OutputDebug), *verbosity))

	var err error
	if *digToggle {
		err = dig(stdout, steg.DigConfig{
			ImagePath:            *imgPath,
			OutPath:              *outPath,
			PatternPath:          *patternPath,
			Algorithm:            algo,
			MaxCorrectableErrors: *ecc,
			Key:                  *key,
			Strict:               *strict,
			OutputLevel:          outputLevel,
		})
	} else {
		config := &steg.HideConfig{
			ImagePath:            *imgPath,
			FilePath:             *filePath,
			Message:              []byte(*message),
			OutPath:              *outPath,
			PatternPath:          *patternPath,
			Algorithm:            algo,
			MaxCorrectableErrors: *ecc,
			Encrypt:              *encrypt,
			Recipient:            *email,
		}
		if len(*email) > 0 {
			mailer, merr := steg.NewSMTPMailer(steg.MailConfig{
				SenderAddress:    *from,
				SenderCredential: os.Getenv(credentialEnv),
				SMTPHost:         *smtpHost,
				SMTPPort:         *smtpPort,
			})
			if merr != nil {
				return fail(stderr, merr)
			}
			config.Mailer = mailer
		}
		err = hide(ctx, stdout, config, outputLevel)
	}
	if err != nil {
		return fail(stderr, err)
	}
	return 0
}

func hide(ctx context.Context, stdout io.Writer, config *steg.HideConfig, outputLevel steg.OutputLevel) error {
	result, err := steg.Hide(ctx, config, outputLevel)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s (%d B hidden)\n", result.OutPath, result.PayloadBytes)
	if len(result.Key) > 0 && !result.Delivered {
		fmt.Fprintln(stdout, "Decryption key:", result.Key)
		fmt.Fprintln(stdout, "OTP:", result.OTP)
	}
	return nil
}

func dig(stdout io.Writer, config steg.DigConfig) error {
	payload, err := steg.Dig(config)
	if err != nil {
		return err
	}
	if len(config.OutPath) <= 0 {
		_, err = stdout.Write(payload)
		return err
	}
	return nil
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}
