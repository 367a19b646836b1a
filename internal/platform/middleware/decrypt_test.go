package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/privacy"
)

func newTestPrivacyService(t *testing.T) *privacy.Service {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	svc, err := privacy.NewService(hex.EncodeToString(key), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("create privacy service: %v", err)
	}
	return svc
}

// invoke runs the handler through the decrypt middleware for the given path
// and principal, returning the recorded response.
func invoke(t *testing.T, svc *privacy.Service, path string, p *auth.Principal, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := DecryptResponse(svc, privacy.DefaultRegistry(), DefaultDecryptExclusions(), zerolog.Nop())
	if err := mw(handler)(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec
}

func TestDecryptResponseForEntitledViewer(t *testing.T) {
	svc := newTestPrivacyService(t)
	ciphertext, err := svc.EncryptField("Juan dela Cruz")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	doctor := &auth.Principal{Subject: "doc", Roles: []string{auth.RoleDoctor}}
	rec := invoke(t, svc, "/api/v1/patients/1", doctor, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"full_name": ciphertext,
			"gender":    "Female",
		})
	})

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["full_name"] != "Juan dela Cruz" {
		t.Fatalf("full_name = %q, want plaintext", body["full_name"])
	}
	if body["gender"] != "Female" {
		t.Fatalf("gender = %q, want untouched", body["gender"])
	}
}

func TestDecryptResponseLeavesNonEntitledViewerUnchanged(t *testing.T) {
	svc := newTestPrivacyService(t)
	ciphertext, err := svc.EncryptField("Juan dela Cruz")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	payload := map[string]string{"full_name": ciphertext}
	handler := func(c echo.Context) error {
		return c.JSON(http.StatusOK, payload)
	}

	resident := &auth.Principal{Subject: "res", Roles: []string{auth.RoleUser}}
	got := invoke(t, svc, "/api/v1/patients/1", resident, handler).Body.Bytes()

	// Same handler without the middleware transform path: the body must be
	// byte-identical for a non-entitled viewer.
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/1", nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if string(got) != rec.Body.String() {
		t.Fatalf("non-entitled response was modified:\ngot  %s\nwant %s", got, rec.Body.String())
	}
}

func TestDecryptResponseSkipsExcludedPaths(t *testing.T) {
	svc := newTestPrivacyService(t)
	ciphertext, err := svc.EncryptField("secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	admin := &auth.Principal{Subject: "a", Roles: []string{auth.RoleAdmin}}
	rec := invoke(t, svc, "/health", admin, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"full_name": ciphertext})
	})

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["full_name"] != ciphertext {
		t.Fatal("excluded path must not be rewritten")
	}
}

func TestDecryptResponseSkipsNonJSON(t *testing.T) {
	svc := newTestPrivacyService(t)
	ciphertext, err := svc.EncryptField("secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	admin := &auth.Principal{Subject: "a", Roles: []string{auth.RoleAdmin}}
	rec := invoke(t, svc, "/api/v1/export", admin, func(c echo.Context) error {
		return c.String(http.StatusOK, ciphertext)
	})

	if rec.Body.String() != ciphertext {
		t.Fatal("non-JSON body must pass through unchanged")
	}
}

func TestDecryptResponseWalksNestedDocuments(t *testing.T) {
	svc := newTestPrivacyService(t)
	name, _ := svc.EncryptField("Maria Santos")
	diagnosis, _ := svc.EncryptField("Hypertension")

	doctor := &auth.Principal{Subject: "doc", Roles: []string{auth.RoleDoctor}}
	rec := invoke(t, svc, "/api/v1/patients", doctor, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"full_name": name,
					"records":   []map[string]string{{"diagnosis": diagnosis}},
				},
			},
			"total": 1,
		})
	})

	var body struct {
		Data []struct {
			FullName string `json:"full_name"`
			Records  []struct {
				Diagnosis string `json:"diagnosis"`
			} `json:"records"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Data[0].FullName != "Maria Santos" {
		t.Fatalf("full_name = %q", body.Data[0].FullName)
	}
	if body.Data[0].Records[0].Diagnosis != "Hypertension" {
		t.Fatalf("diagnosis = %q", body.Data[0].Records[0].Diagnosis)
	}
}

func TestDecryptResponsePreservesErrorHandling(t *testing.T) {
	svc := newTestPrivacyService(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := DecryptResponse(svc, privacy.DefaultRegistry(), DefaultDecryptExclusions(), zerolog.Nop())
	err := mw(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	})(c)

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError to propagate, got %v", err)
	}
}

// Verifies the fallback used by the middleware when encryption is disabled.
func TestDisabledServicePassthrough(t *testing.T) {
	svc, err := privacy.NewService("", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	p := &auth.Principal{Subject: "a", Roles: []string{auth.RoleAdmin}}
	rec := invoke(t, svc, "/api/v1/patients/1", p, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"full_name": "plain"})
	})

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["full_name"] != "plain" {
		t.Fatalf("full_name = %q", body["full_name"])
	}
}
