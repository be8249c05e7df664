package steg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFernetCipher_RoundTrip(t *testing.T) {
	t.Parallel()

	key, err := GenerateKey()
	require.NoError(t, err)

	c, err := NewFernetCipher(key)
	require.NoError(t, err)

	tok, err := c.Encrypt([]byte("attack at dawn"))
	require.NoError(t, err)
	assert.NotContains(t, string(tok), "attack")

	msg, err := c.Decrypt(tok)
	require.NoError(t, err)
	assert.Equal(t, "attack at dawn", string(msg))
}

func TestFernetCipher_Tampered(t *testing.T) {
	t.Parallel()

	key, err := GenerateKey()
	require.NoError(t, err)
	c, err := NewFernetCipher(key)
	require.NoError(t, err)

	tok, err := c.Encrypt([]byte("payload"))
	require.NoError(t, err)

	tampered := append([]byte{}, tok...)
	tampered[len(tampered)/2] ^= 0x01

	_, err = c.Decrypt(tampered)
	var decErr *DecryptionError
	assert.ErrorAs(t, err, &decErr)
}

func TestNewFernetCipher_BadKey(t *testing.T) {
	t.Parallel()

	for _, k := range []string{"", "short", strings.Repeat("z", 44)} {
		_, err := NewFernetCipher(k)
		var formatErr *InvalidFormatError
		assert.ErrorAs(t, err, &formatErr, "key %q", k)
	}
}

func TestGenerateKey_Unique(t *testing.T) {
	t.Parallel()

	a, err := GenerateKey()
	require.NoError(t, err)
	b, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 44)
}

func TestGenerateOTP(t *testing.T) {
	t.Parallel()

	otp, err := GenerateOTP(otpLength)
	require.NoError(t, err)
	assert.Len(t, otp, otpLength)
	for _, r := range otp {
		assert.Contains(t, otpAlphabet, string(r))
	}

	_, err = GenerateOTP(0)
	var formatErr *InvalidFormatError
	assert.ErrorAs(t, err, &formatErr)
}
