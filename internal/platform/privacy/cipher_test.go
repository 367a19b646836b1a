package privacy

import (
	"crypto/rand"
	"errors"
	"testing"
)

func generateTestKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate test key: %v", err)
	}
	return key
}

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(generateTestKey(t))
	if err != nil {
		t.Fatalf("create cipher: %v", err)
	}
	return c
}

func TestNewCipher(t *testing.T) {
	t.Run("valid 32-byte key", func(t *testing.T) {
		c, err := NewCipher(generateTestKey(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c == nil {
			t.Fatal("expected non-nil cipher")
		}
	})

	t.Run("key too short", func(t *testing.T) {
		if _, err := NewCipher(make([]byte, 16)); err == nil {
			t.Fatal("expected error for 16-byte key")
		}
	})

	t.Run("empty key", func(t *testing.T) {
		if _, err := NewCipher(nil); err == nil {
			t.Fatal("expected error for nil key")
		}
	})
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	cases := []string{
		"Juan dela Cruz",
		"PhilHealth ID: 12-345678901-2",
		"Hypertension, stage 2. Maintenance: losartan 50mg daily.",
		"+63 917 123 4567",
		"\x00\x01binary\xff",
	}

	for _, plaintext := range cases {
		t.Run(plaintext, func(t *testing.T) {
			ciphertext, err := c.Encrypt(plaintext)
			if err != nil {
				t.Fatalf("encrypt: %v", err)
			}
			if ciphertext == plaintext {
				t.Fatal("ciphertext should differ from plaintext")
			}

			decrypted, err := c.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}
			if decrypted != plaintext {
				t.Fatalf("round trip mismatch: got %q, want %q", decrypted, plaintext)
			}
		})
	}
}

func TestEncryptEmptyString(t *testing.T) {
	c := newTestCipher(t)

	ciphertext, err := c.Encrypt("")
	if err != nil {
		t.Fatalf("encrypt empty: %v", err)
	}
	if ciphertext != "" {
		t.Fatalf("expected empty output for empty input, got %q", ciphertext)
	}

	plaintext, err := c.Decrypt("")
	if err != nil {
		t.Fatalf("decrypt empty: %v", err)
	}
	if plaintext != "" {
		t.Fatalf("expected empty output for empty input, got %q", plaintext)
	}
}

func TestEncryptNonDeterministic(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("same input")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := c.Encrypt("same input")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if a == b {
		t.Fatal("two encryptions of the same plaintext should differ (fresh nonce)")
	}
}

func TestDecryptFailures(t *testing.T) {
	c := newTestCipher(t)

	t.Run("invalid base64", func(t *testing.T) {
		_, err := c.Decrypt("not base64 at all!!!")
		var decErr *DecryptionError
		if !errors.As(err, &decErr) {
			t.Fatalf("expected *DecryptionError, got %v", err)
		}
	})

	t.Run("too short", func(t *testing.T) {
		_, err := c.Decrypt("QUJD") // "ABC", valid base64 but far below nonce+tag
		var decErr *DecryptionError
		if !errors.As(err, &decErr) {
			t.Fatalf("expected *DecryptionError, got %v", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other := newTestCipher(t)
		ciphertext, err := other.Encrypt("secret")
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		_, err = c.Decrypt(ciphertext)
		var decErr *DecryptionError
		if !errors.As(err, &decErr) {
			t.Fatalf("expected *DecryptionError for wrong key, got %v", err)
		}
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		ciphertext, err := c.Encrypt("secret")
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		tampered := []byte(ciphertext)
		// Flip a character in the base64 body without breaking the charset.
		if tampered[10] == 'A' {
			tampered[10] = 'B'
		} else {
			tampered[10] = 'A'
		}
		if _, err := c.Decrypt(string(tampered)); err == nil {
			t.Fatal("expected error for tampered ciphertext")
		}
	})
}

func TestIsEncrypted(t *testing.T) {
	c := newTestCipher(t)

	t.Run("fresh ciphertext is recognized", func(t *testing.T) {
		ciphertext, err := c.Encrypt("Maria Santos")
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		if !c.IsEncrypted(ciphertext) {
			t.Fatal("expected IsEncrypted to be true for ciphertext")
		}
		if !IsEncryptedValue(ciphertext) {
			t.Fatal("expected IsEncryptedValue to be true for ciphertext")
		}
	})

	plaintexts := []string{
		"",
		"Maria Santos",
		"123 Mabini St., Barangay Poblacion",
		"short",
		"has spaces but is long enough to pass the length check ok",
		"09171234567",
		"QUJD",                    // valid base64, too short when decoded
		"QUJDREVGR0hJSktMTU5PUA", // length not a multiple of 4
	}
	for _, v := range plaintexts {
		if c.IsEncrypted(v) {
			t.Errorf("IsEncrypted(%q) = true, want false", v)
		}
		if IsEncryptedValue(v) {
			t.Errorf("IsEncryptedValue(%q) = true, want false", v)
		}
	}
}
