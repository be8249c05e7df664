package steg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func validMailConfig() MailConfig {
	c := DefaultMailConfig()
	c.SenderAddress = "steg@example.com"
	c.SenderCredential = "app-password"
	return c
}

func TestDefaultMailConfig(t *testing.T) {
	t.Parallel()

	c := DefaultMailConfig()
	assert.Equal(t, "smtp.gmail.com", c.SMTPHost)
	assert.Equal(t, 587, c.SMTPPort)
	assert.Error(t, c.Validate())
}

func TestMailConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validMailConfig().Validate())

	cases := map[string]func(*MailConfig){
		"no sender":     func(c *MailConfig) { c.SenderAddress = "" },
		"no credential": func(c *MailConfig) { c.SenderCredential = "" },
		"no host":       func(c *MailConfig) { c.SMTPHost = "" },
		"zero port":     func(c *MailConfig) { c.SMTPPort = 0 },
		"huge port":     func(c *MailConfig) { c.SMTPPort = 70000 },
	}
	for name, mutate := range cases {
		c := validMailConfig()
		mutate(&c)
		var formatErr *InvalidFormatError
		assert.ErrorAs(t, c.Validate(), &formatErr, name)

		_, err := NewSMTPMailer(c)
		assert.ErrorAs(t, err, &formatErr, name)
	}
}

func TestSMTPMailer_Message(t *testing.T) {
	t.Parallel()

	m, err := NewSMTPMailer(validMailConfig())
	require.NoError(t, err)

	msg, err := m.newMessage("agent@example.com", "KEY123", "OTP456")
	require.NoError(t, err)

	assert.Equal(t, []string{keyMailSubject}, msg.GetGenHeader(mail.HeaderSubject))
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"<agent@example.com>"}, rcpts)

	_, err = m.newMessage("not an address", "k", "o")
	assert.Error(t, err)
}

func TestKeyMailBody(t *testing.T) {
	t.Parallel()

	body := keyMailBody("KEY123", "OTP456")
	assert.Contains(t, body, "Decryption Key: KEY123\n")
	assert.Contains(t, body, "OTP: OTP456\n")
}
