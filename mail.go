package steg

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

const (
	defaultSMTPHost = "smtp.gmail.com"
	defaultSMTPPort = 587
	keyMailSubject  = "Steganography Decryption Key"
)

// MailConfig identifies the account key mails are sent from.
type MailConfig struct {
	SenderAddress    string
	SenderCredential string
	SMTPHost         string
	SMTPPort         int
}

// DefaultMailConfig returns a config pointing at Gmail's submission port, with no sender set.
func DefaultMailConfig() MailConfig {
	return MailConfig{SMTPHost: defaultSMTPHost, SMTPPort: defaultSMTPPort}
}

// Validate reports the first missing or out-of-range field.
func (c MailConfig) Validate() error {
	if len(c.SenderAddress) <= 0 {
		return &InvalidFormatError{"SenderAddress is empty."}
	}
	if len(c.SenderCredential) <= 0 {
		return &InvalidFormatError{"SenderCredential is empty."}
	}
	if len(c.SMTPHost) <= 0 {
		return &InvalidFormatError{"SMTPHost is empty."}
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return &InvalidFormatError{fmt.Sprintf("SMTPPort is outside the allowed range of 1-65535: Provided %d.", c.SMTPPort)}
	}
	return nil
}

// KeyDeliverer sends a decryption key and one-time code to a recipient out of band.
type KeyDeliverer interface {
	DeliverKey(ctx context.Context, recipient, key, otp string) error
}

// SMTPMailer delivers keys by e-mail.
type SMTPMailer struct {
	config MailConfig
}

// NewSMTPMailer validates config and returns a mailer using it.
func NewSMTPMailer(config MailConfig) (*SMTPMailer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SMTPMailer{config: config}, nil
}

// DeliverKey dials the SMTP server, authenticates over STARTTLS and sends one message.
func (m *SMTPMailer) DeliverKey(ctx context.Context, recipient, key, otp string) error {
	msg, err := m.newMessage(recipient, key, otp)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.config.SMTPHost,
		mail.WithPort(m.config.SMTPPort),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.config.SenderAddress),
		mail.WithPassword(m.config.SenderCredential),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) newMessage(recipient, key, otp string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.config.SenderAddress); err != nil {
		return nil, fmt.Errorf("set sender %q: %w", m.config.SenderAddress, err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("set recipient %q: %w", recipient, err)
	}
	msg.Subject(keyMailSubject)
	msg.SetBodyString(mail.TypeTextPlain, keyMailBody(key, otp))
	return msg, nil
}

func keyMailBody(key, otp string) string {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	b.WriteString("Here is your decryption key and OTP for the steganography image:\n\n")
	fmt.Fprintf(&b, "Decryption Key: %s\n", key)
	fmt.Fprintf(&b, "OTP: %s\n\n", otp)
	b.WriteString("Please keep this information secure and do not share it with anyone.\n\n")
	b.WriteString("Best regards,\nImage Steganography App\n")
	return b.String()
}
