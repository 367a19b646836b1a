package privacy

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bhcms/bhcms/internal/platform/auth"
)

type fakeAuthorizer struct {
	allowed map[string]bool
	calls   int
}

func (f *fakeAuthorizer) Allowed(ctx context.Context, p *auth.Principal, permission string) bool {
	f.calls++
	return f.allowed[permission]
}

func newTestService(t *testing.T, authorizer Authorizer) *Service {
	t.Helper()
	key := hex.EncodeToString(generateTestKey(t))
	svc, err := NewService(key, authorizer, zerolog.Nop())
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc
}

func TestNewServiceKeyValidation(t *testing.T) {
	t.Run("empty key disables encryption", func(t *testing.T) {
		svc, err := NewService("", nil, zerolog.Nop())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.IsEnabled() {
			t.Fatal("expected encryption disabled with empty key")
		}
	})

	t.Run("invalid hex", func(t *testing.T) {
		if _, err := NewService("zz", nil, zerolog.Nop()); err == nil {
			t.Fatal("expected error for invalid hex key")
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		if _, err := NewService("abcd", nil, zerolog.Nop()); err == nil {
			t.Fatal("expected error for 2-byte key")
		}
	})
}

func TestEncryptFieldSkipsCiphertext(t *testing.T) {
	svc := newTestService(t, nil)

	once, err := svc.EncryptField("Juan dela Cruz")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	twice, err := svc.EncryptField(once)
	if err != nil {
		t.Fatalf("encrypt again: %v", err)
	}
	if once != twice {
		t.Fatal("encrypting ciphertext should be a no-op")
	}

	plaintext, err := svc.DecryptField(twice)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plaintext != "Juan dela Cruz" {
		t.Fatalf("round trip mismatch: got %q", plaintext)
	}
}

func TestDisabledServiceIsPassthrough(t *testing.T) {
	svc, err := NewService("", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("create service: %v", err)
	}

	out, err := svc.EncryptField("plain value")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if out != "plain value" {
		t.Fatalf("disabled encrypt should pass through, got %q", out)
	}

	if got := svc.DecryptForUser(context.Background(), "plain value", &auth.Principal{Roles: []string{auth.RoleAdmin}}); got != "plain value" {
		t.Fatalf("disabled decrypt should pass through, got %q", got)
	}
}

func TestCanUserDecrypt(t *testing.T) {
	ctx := context.Background()

	t.Run("nil principal denied", func(t *testing.T) {
		svc := newTestService(t, nil)
		if svc.CanUserDecrypt(ctx, nil) {
			t.Fatal("nil principal must not be entitled")
		}
	})

	t.Run("elevated roles entitled without resolver call", func(t *testing.T) {
		authorizer := &fakeAuthorizer{}
		svc := newTestService(t, authorizer)
		for _, role := range []string{auth.RoleAdmin, auth.RoleSystemAdmin, auth.RoleDoctor, auth.RoleHeadDoctor, auth.RoleNurse, auth.RoleHeadNurse} {
			p := &auth.Principal{Subject: "u1", Roles: []string{role}}
			if !svc.CanUserDecrypt(ctx, p) {
				t.Errorf("role %s should be entitled", role)
			}
		}
		if authorizer.calls != 0 {
			t.Fatalf("elevated roles should not consult the resolver, got %d calls", authorizer.calls)
		}
	})

	t.Run("explicit grant entitles plain user", func(t *testing.T) {
		authorizer := &fakeAuthorizer{allowed: map[string]bool{ViewDecryptedDataPermission: true}}
		svc := newTestService(t, authorizer)
		p := &auth.Principal{Subject: "u1", Roles: []string{auth.RoleUser}}
		if !svc.CanUserDecrypt(ctx, p) {
			t.Fatal("user with ViewDecryptedData grant should be entitled")
		}
	})

	t.Run("plain user without grant denied", func(t *testing.T) {
		authorizer := &fakeAuthorizer{}
		svc := newTestService(t, authorizer)
		p := &auth.Principal{Subject: "u1", Roles: []string{auth.RoleUser}}
		if svc.CanUserDecrypt(ctx, p) {
			t.Fatal("user without grant must not be entitled")
		}
	})
}

func TestDecryptForUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &fakeAuthorizer{})

	ciphertext, err := svc.EncryptField("confidential diagnosis")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	doctor := &auth.Principal{Subject: "doc", Roles: []string{auth.RoleDoctor}}
	resident := &auth.Principal{Subject: "res", Roles: []string{auth.RoleUser}}

	t.Run("entitled viewer gets plaintext", func(t *testing.T) {
		if got := svc.DecryptForUser(ctx, ciphertext, doctor); got != "confidential diagnosis" {
			t.Fatalf("got %q, want plaintext", got)
		}
	})

	t.Run("non-entitled viewer gets ciphertext unchanged", func(t *testing.T) {
		if got := svc.DecryptForUser(ctx, ciphertext, resident); got != ciphertext {
			t.Fatalf("got %q, want ciphertext unchanged", got)
		}
	})

	t.Run("plaintext value returned unchanged", func(t *testing.T) {
		if got := svc.DecryptForUser(ctx, "already plain", doctor); got != "already plain" {
			t.Fatalf("got %q, want input unchanged", got)
		}
	})

	t.Run("undecryptable ciphertext soft-fails to input", func(t *testing.T) {
		other := newTestService(t, &fakeAuthorizer{})
		foreign, err := other.EncryptField("secret")
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		if got := svc.DecryptForUser(ctx, foreign, doctor); got != foreign {
			t.Fatalf("got %q, want original ciphertext on decrypt failure", got)
		}
	})
}
