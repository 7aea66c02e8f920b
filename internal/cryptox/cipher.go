package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/credvault/internal/common"
)

// envelopeSeparator joins the hex-encoded IV and ciphertext halves of an
// envelope. The format is "ivHex:cipherHex".
const envelopeSeparator = ":"

// Cipher encrypts and decrypts PII fields (username, email, phone) for
// storage. The configured secret is digested to a fixed 32-byte AES-256 key;
// the raw secret is never used as key material directly.
//
// Every Encrypt call draws a fresh random IV, so equal plaintexts produce
// different envelopes. That is deliberate: ciphertext cannot be used for
// equality lookup, which is what Tokenizer exists for.
type Cipher struct {
	key []byte
}

// NewCipher derives the AES key from secret. An empty secret is rejected
// with common.ErrorConfiguration; the cipher never degrades to a plaintext
// pass-through.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: encryption secret is not set", common.ErrorConfiguration)
	}
	key := sha256.Sum256([]byte(secret))
	return &Cipher{key: key[:]}, nil
}

// Encrypt encrypts plaintext with AES-256-CBC under a fresh random IV and
// returns the envelope "ivHex:cipherHex".
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("iv generation: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	padded := padPKCS7([]byte(plaintext), aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	return hex.EncodeToString(iv) + envelopeSeparator + hex.EncodeToString(encrypted), nil
}

// Decrypt reverses Encrypt. A malformed envelope (missing separator, bad
// hex, wrong block length) or a padding check failure yields
// common.ErrorDecryptionFailed; the underlying cause is wrapped for
// operator logs but callers should match the sentinel.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	ivHex, cipherHex, found := strings.Cut(envelope, envelopeSeparator)
	if !found || ivHex == "" || cipherHex == "" {
		return "", fmt.Errorf("%w: invalid envelope format", common.ErrorDecryptionFailed)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: invalid iv", common.ErrorDecryptionFailed)
	}

	encrypted, err := hex.DecodeString(cipherHex)
	if err != nil || len(encrypted) == 0 || len(encrypted)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: invalid ciphertext", common.ErrorDecryptionFailed)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	padded := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, encrypted)

	plaintext, err := unpadPKCS7(padded, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorDecryptionFailed, err)
	}

	return string(plaintext), nil
}

// padPKCS7 appends PKCS#7 padding up to blockSize.
func padPKCS7(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpadPKCS7 strips and validates PKCS#7 padding.
func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-n], nil
}
