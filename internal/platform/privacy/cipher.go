package privacy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// DecryptionError is returned by Cipher.Decrypt when a value cannot be
// decrypted: malformed base64, truncated payload, or authentication failure
// (wrong key or tampered ciphertext). Callers that need soft-failure
// semantics should check for it with errors.As and fall back to the
// original value.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("privacy decrypt: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("privacy decrypt: %s", e.Reason)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// Cipher provides AES-256-GCM field-level encryption and decryption for
// sensitive patient data. Ciphertext is base64(nonce || sealed payload).
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher with the given 32-byte AES-256 key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("privacy cipher: key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("privacy cipher: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("privacy cipher: create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt encrypts the plaintext string and returns a base64-encoded
// ciphertext with the nonce prepended. Empty input is a no-op: it returns
// the empty string with no error.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	encrypted, err := c.EncryptBytes([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// Decrypt decodes the base64 ciphertext, extracts the prepended nonce, and
// decrypts. Empty input returns empty. Failures return a *DecryptionError.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", &DecryptionError{Reason: "base64 decode", Err: err}
	}

	plaintext, err := c.DecryptBytes(data)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptBytes encrypts the data and returns the nonce prepended to the
// ciphertext.
func (c *Cipher) EncryptBytes(data []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("privacy encrypt: generate nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, so the result is nonce + ciphertext.
	return c.aead.Seal(nonce, nonce, data, nil), nil
}

// DecryptBytes extracts the nonce from the front of data and decrypts the
// remainder.
func (c *Cipher) DecryptBytes(data []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return nil, &DecryptionError{Reason: "ciphertext too short"}
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, &DecryptionError{Reason: "open", Err: err}
	}
	return plaintext, nil
}

// IsEncrypted reports whether value looks like output of Encrypt: strict
// standard base64 whose decoded length is at least nonce + GCM tag. The check
// is structural, so ordinary names, addresses, and free text (spaces,
// punctuation, wrong padding) are rejected without attempting decryption.
func (c *Cipher) IsEncrypted(value string) bool {
	return looksEncrypted(value, c.aead.NonceSize()+c.aead.Overhead())
}

// minCiphertextOverhead is the smallest decoded size Encrypt can produce:
// a 12-byte GCM nonce plus a 16-byte authentication tag.
const minCiphertextOverhead = 28

// IsEncryptedValue is the package-level form of Cipher.IsEncrypted for
// callers that have no cipher at hand (for example, the response-rewriting
// middleware when encryption is disabled).
func IsEncryptedValue(value string) bool {
	return looksEncrypted(value, minCiphertextOverhead)
}

func looksEncrypted(value string, minDecoded int) bool {
	// Fast charset reject before paying for a decode. Strict base64 also
	// requires the length to be a multiple of four.
	if len(value) < base64.StdEncoding.EncodedLen(minDecoded) || len(value)%4 != 0 {
		return false
	}
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
		case ch >= 'a' && ch <= 'z':
		case ch >= '0' && ch <= '9':
		case ch == '+' || ch == '/' || ch == '=':
		default:
			return false
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return false
	}
	return len(decoded) >= minDecoded
}
