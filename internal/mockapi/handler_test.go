package mockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ashureev/whatsapp-agent/internal/store"
	"github.com/go-chi/chi/v5"
)

func newTestAPI(t *testing.T) (*httptest.Server, *OTPStore) {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "mock.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if _, err := store.SeedIfEmpty(context.Background(), repo); err != nil {
		t.Fatalf("SeedIfEmpty failed: %v", err)
	}

	otps := NewOTPStore()
	r := chi.NewRouter()
	NewHandler(repo, otps).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, otps
}

func TestLookupByPhoneEndpoint(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/external/v1/clients/lookup?phone=%2B15551234567")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var info map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if info["client_id"] != "ACME-1001" || info["name"] != "Alice Johnson" {
		t.Errorf("Unexpected payload %v", info)
	}
}

func TestLookupByPhoneEndpoint_NotFound(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/external/v1/clients/lookup?phone=%2B19999999999")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestLookupByClientIDEndpoint(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/external/v1/clients/GLX-2001")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var info map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if info["name"] != "Carol Davis" {
		t.Errorf("Expected Carol Davis, got %v", info)
	}
}

func TestOTPSendAndVerifyEndpoints(t *testing.T) {
	srv, otps := newTestAPI(t)

	body, _ := json.Marshal(map[string]string{"client_id": "ACME-1001"})
	resp, err := http.Post(srv.URL+"/external/v1/otp/send", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var sendOut map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&sendOut); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if sendOut["success"] != true {
		t.Fatalf("Expected success=true, got %v", sendOut)
	}

	// Replace the outstanding code with a known one for verification.
	otps.mu.Lock()
	otps.store["ACME-1001"] = otpEntry{code: "123456", createdAt: otps.now()}
	otps.mu.Unlock()

	verifyBody, _ := json.Marshal(map[string]string{"client_id": "ACME-1001", "otp": "123456"})
	resp2, err := http.Post(srv.URL+"/external/v1/otp/verify", "application/json", bytes.NewReader(verifyBody))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp2.Body.Close()

	var verifyOut map[string]bool
	if err := json.NewDecoder(resp2.Body).Decode(&verifyOut); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !verifyOut["valid"] {
		t.Error("Expected valid=true for the stored code")
	}
}

func TestOTPSendEndpoint_UnknownClient(t *testing.T) {
	srv, _ := newTestAPI(t)

	body, _ := json.Marshal(map[string]string{"client_id": "NOPE-0000"})
	resp, err := http.Post(srv.URL+"/external/v1/otp/send", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}
