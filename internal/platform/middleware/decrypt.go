package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/privacy"
)

// DefaultDecryptExclusions lists path prefixes that bypass response
// decryption entirely: infrastructure endpoints and the pre-auth account
// endpoints, where buffering the body buys nothing.
func DefaultDecryptExclusions() []string {
	return []string{
		"/health",
		"/metrics",
		"/auth/",
		"/static/",
		"/assets/",
	}
}

// DecryptResponse returns middleware that rewrites outgoing JSON bodies for
// entitled viewers: every object key registered as a sensitive field whose
// value is a string is replaced with its decrypted form.
//
// Each request is in one of two states, chosen once: paths matching an
// excluded prefix pass bytes through untouched; everything else is buffered,
// and after the handler completes the buffered body is either transformed
// (status 200, JSON, entitled principal) or replayed as-is. A body that
// fails to parse or re-serialize is replayed unmodified — the middleware
// never drops a response.
func DecryptResponse(svc *privacy.Service, registry *privacy.Registry, exclusions []string, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, prefix := range exclusions {
				if strings.HasPrefix(path, prefix) {
					return next(c)
				}
			}

			res := c.Response()
			bw := &bufferedWriter{ResponseWriter: res.Writer}
			res.Writer = bw

			err := next(c)

			res.Writer = bw.ResponseWriter
			if err != nil {
				// The error handler writes its own response through the
				// restored writer; the buffered bytes are discarded.
				return err
			}
			if !bw.wrote {
				return nil
			}

			body := bw.buf.Bytes()
			out := body

			ctx := c.Request().Context()
			principal := auth.PrincipalFromContext(ctx)
			if bw.status == http.StatusOK && len(body) > 0 &&
				isJSONContentType(res.Header().Get(echo.HeaderContentType)) &&
				svc.CanUserDecrypt(ctx, principal) {
				if transformed, ok := decryptDocument(c, svc, registry, principal, body); ok {
					out = transformed
				} else {
					logger.Debug().Str("path", path).Msg("response not rewritten: body is not a JSON document")
				}
			}

			res.Header().Set(echo.HeaderContentLength, strconv.Itoa(len(out)))
			bw.ResponseWriter.WriteHeader(bw.status)
			_, werr := bw.ResponseWriter.Write(out)
			return werr
		}
	}
}

// bufferedWriter captures the downstream handler's status and body without
// committing them, so the body can be rewritten before the real write.
type bufferedWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
	wrote  bool
}

func (w *bufferedWriter) WriteHeader(status int) {
	if !w.wrote {
		w.status = status
		w.wrote = true
	}
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.status = http.StatusOK
		w.wrote = true
	}
	return w.buf.Write(b)
}

func isJSONContentType(ct string) bool {
	return strings.HasPrefix(ct, echo.MIMEApplicationJSON)
}

// decryptDocument parses body as a JSON document, decrypts sensitive string
// fields in place, and re-serializes. Returns ok=false when the body is not
// valid JSON or cannot be re-serialized.
func decryptDocument(c echo.Context, svc *privacy.Service, registry *privacy.Registry, p *auth.Principal, body []byte) ([]byte, bool) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, false
	}

	doc = decryptValue(c, svc, registry, p, doc)

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, false
	}
	return out, true
}

// decryptValue walks objects and arrays recursively. String values of keys
// in the sensitive-field name set are passed through DecryptForUser, which
// leaves them unchanged unless they are ciphertext the principal may read.
func decryptValue(c echo.Context, svc *privacy.Service, registry *privacy.Registry, p *auth.Principal, v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			if s, ok := val.(string); ok && registry.IsSensitive(k) {
				t[k] = svc.DecryptForUser(c.Request().Context(), s, p)
				continue
			}
			t[k] = decryptValue(c, svc, registry, p, val)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = decryptValue(c, svc, registry, p, t[i])
		}
		return t
	default:
		return v
	}
}
