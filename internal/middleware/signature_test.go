package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func signed(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func echoBody(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	_, _ = w.Write(b)
}

func TestVerifySignature_Valid(t *testing.T) {
	handler := VerifySignature("app-secret")(http.HandlerFunc(echoBody))

	body := `{"entry":[]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", signed("app-secret", body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	// The body must be readable downstream after verification.
	if rec.Body.String() != body {
		t.Errorf("Expected body to pass through, got %q", rec.Body.String())
	}
}

func TestVerifySignature_Invalid(t *testing.T) {
	handler := VerifySignature("app-secret")(http.HandlerFunc(echoBody))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"entry":[]}`))
	req.Header.Set("X-Hub-Signature-256", signed("wrong-secret", `{"entry":[]}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	handler := VerifySignature("app-secret")(http.HandlerFunc(echoBody))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without a signature header, got %d", rec.Code)
	}
}

func TestVerifySignature_NoSecretPassesThrough(t *testing.T) {
	handler := VerifySignature("")(http.HandlerFunc(echoBody))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected pass-through with no secret, got %d", rec.Code)
	}
}

func TestVerifySignature_SkipsGET(t *testing.T) {
	handler := VerifySignature("app-secret")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.challenge=42", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Verification challenge must not require a signature, got %d", rec.Code)
	}
}
