package steg

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/fernet/fernet-go"
)

const otpAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Cipher encrypts a payload before it is hidden and decrypts it after it is dug out.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// DecryptionError is returned when a token fails verification under the supplied key.
type DecryptionError struct{}

func (e *DecryptionError) Error() string {
	return "Invalid key or corrupted message."
}

// FernetCipher is a Cipher producing Fernet tokens.
type FernetCipher struct {
	key *fernet.Key
}

// NewFernetCipher builds a FernetCipher from an encoded key (URL-safe or standard base64, or hex).
func NewFernetCipher(encodedKey string) (*FernetCipher, error) {
	k, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, &InvalidFormatError{fmt.Sprintf("The decryption key is not valid: %v", err)}
	}
	return &FernetCipher{key: k}, nil
}

// Encrypt returns a signed Fernet token for plaintext.
func (c *FernetCipher) Encrypt(plaintext []byte) ([]byte, error) {
	tok, err := fernet.EncryptAndSign(plaintext, c.key)
	if err != nil {
		return nil, fmt.Errorf("fernet encrypt: %w", err)
	}
	return tok, nil
}

// Decrypt verifies the token and returns its plaintext. Tokens never expire.
func (c *FernetCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	msg := fernet.VerifyAndDecrypt(ciphertext, 0, []*fernet.Key{c.key})
	if msg == nil {
		return nil, &DecryptionError{}
	}
	return msg, nil
}

// GenerateKey returns a fresh Fernet key in URL-safe base64.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return k.Encode(), nil
}

// GenerateOTP returns n characters drawn uniformly from A-Z and 0-9.
func GenerateOTP(n int) (string, error) {
	if n <= 0 {
		return "", &InvalidFormatError{fmt.Sprintf("OTP length must be positive: Provided %d.", n)}
	}
	limit := big.NewInt(int64(len(otpAlphabet)))
	otp := make([]byte, n)
	for i := range otp {
		j, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		otp[i] = otpAlphabet[j.Int64()]
	}
	return string(otp), nil
}
