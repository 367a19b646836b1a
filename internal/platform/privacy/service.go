package privacy

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bhcms/bhcms/internal/platform/auth"
)

// ViewDecryptedDataPermission is the explicit grant that entitles a
// principal to plaintext sensitive data, independent of role.
const ViewDecryptedDataPermission = "Privacy:ViewDecryptedData"

// elevatedRoles may always view decrypted sensitive data.
var elevatedRoles = []string{
	auth.RoleAdmin,
	auth.RoleSystemAdmin,
	auth.RoleDoctor,
	auth.RoleHeadDoctor,
	auth.RoleNurse,
	auth.RoleHeadNurse,
}

// Authorizer answers permission checks for the entitlement gate. The
// permission resolver satisfies it; tests supply fakes.
type Authorizer interface {
	Allowed(ctx context.Context, p *auth.Principal, permission string) bool
}

// Service provides field-level encryption for the application. It wraps a
// Cipher and adds a disabled mode for development environments where no
// encryption key is configured, plus the per-principal entitlement gate used
// by entity helpers and the response-rewriting middleware.
type Service struct {
	cipher     *Cipher
	enabled    bool
	authorizer Authorizer
	logger     zerolog.Logger
}

// NewService creates the encryption service.
//
// If key is empty, encryption is disabled (development mode) and a warning is
// logged: Encrypt/Decrypt calls become no-ops that return the value as-is.
// Otherwise key must be a 64-character hex string encoding a 32-byte AES-256
// key; an invalid key is an error so the application refuses to start
// misconfigured.
func NewService(key string, authorizer Authorizer, logger zerolog.Logger) (*Service, error) {
	if key == "" {
		logger.Warn().Msg("field encryption disabled: ENCRYPTION_KEY is not set")
		return &Service{enabled: false, authorizer: authorizer, logger: logger}, nil
	}

	keyBytes, err := hex.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(keyBytes))
	}

	cipher, err := NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create field cipher: %w", err)
	}

	logger.Info().Msg("field-level encryption enabled")
	return &Service{cipher: cipher, enabled: true, authorizer: authorizer, logger: logger}, nil
}

// IsEnabled returns true if encryption is active.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// EncryptField encrypts a single sensitive field value. Values already in
// ciphertext form are returned unchanged so callers never double-encrypt.
// Returns the original value unchanged if encryption is disabled.
func (s *Service) EncryptField(value string) (string, error) {
	if !s.enabled || value == "" || s.cipher.IsEncrypted(value) {
		return value, nil
	}
	return s.cipher.Encrypt(value)
}

// DecryptField decrypts a single sensitive field value without an
// entitlement check. Use DecryptForUser on any viewer-facing path. Returns
// the original value unchanged if encryption is disabled.
func (s *Service) DecryptField(value string) (string, error) {
	if !s.enabled {
		return value, nil
	}
	return s.cipher.Decrypt(value)
}

// IsEncrypted reports whether value is in ciphertext form.
func (s *Service) IsEncrypted(value string) bool {
	if !s.enabled {
		return IsEncryptedValue(value)
	}
	return s.cipher.IsEncrypted(value)
}

// CanUserDecrypt reports whether the principal is entitled to plaintext
// sensitive data: an elevated clinical/admin role, or an explicit
// ViewDecryptedData grant resolved through the permission resolver.
func (s *Service) CanUserDecrypt(ctx context.Context, p *auth.Principal) bool {
	if p == nil {
		return false
	}
	if p.HasAnyRole(elevatedRoles...) {
		return true
	}
	if s.authorizer != nil {
		return s.authorizer.Allowed(ctx, p, ViewDecryptedDataPermission)
	}
	return false
}

// DecryptForUser returns the decrypted value iff the principal is entitled
// and the value is ciphertext; otherwise it returns the input unchanged. A
// decryption failure (key mismatch, corrupt value) is logged and the
// original ciphertext returned, so a bad row degrades to unreadable text
// rather than a failed request.
func (s *Service) DecryptForUser(ctx context.Context, value string, p *auth.Principal) string {
	if !s.enabled || value == "" {
		return value
	}
	if !s.cipher.IsEncrypted(value) {
		return value
	}
	if !s.CanUserDecrypt(ctx, p) {
		return value
	}

	plaintext, err := s.cipher.Decrypt(value)
	if err != nil {
		var decErr *DecryptionError
		if errors.As(err, &decErr) {
			s.logger.Warn().Str("reason", decErr.Reason).Msg("failed to decrypt sensitive field")
		} else {
			s.logger.Warn().Err(err).Msg("failed to decrypt sensitive field")
		}
		return value
	}
	return plaintext
}
