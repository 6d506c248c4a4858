// Package middleware provides HTTP middleware for the webhook API.
package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const signatureHeader = "X-Hub-Signature-256"

// maxSignedBodySize bounds how much of a request body is buffered for
// signature verification (1MB, far above any Cloud API event).
const maxSignedBodySize = 1 << 20

// VerifySignature returns middleware that validates the Meta webhook
// payload signature against the app secret. With an empty secret the
// middleware is a pass-through, which is how local development runs.
func VerifySignature(appSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if appSecret == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBodySize+1))
			if err != nil || len(body) > maxSignedBodySize {
				http.Error(w, `{"error":"request body too large"}`, http.StatusRequestEntityTooLarge)
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !validSignature(appSecret, body, r.Header.Get(signatureHeader)) {
				slog.Warn("Webhook signature mismatch", "path", r.URL.Path)
				http.Error(w, `{"error":"invalid signature"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validSignature(secret string, body []byte, header string) bool {
	provided, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(provided)))
}
