package mockapi

import (
	"testing"
	"time"
)

func TestOTPStore_GenerateAndVerify(t *testing.T) {
	s := NewOTPStore()

	code := s.Generate("ACME-1001")
	if len(code) != 6 {
		t.Fatalf("Expected a 6-digit code, got %q", code)
	}

	if !s.Verify("ACME-1001", code) {
		t.Error("Expected the generated code to verify")
	}
	// Consumed on success.
	if s.Verify("ACME-1001", code) {
		t.Error("A code must verify at most once")
	}
}

func TestOTPStore_WrongCode(t *testing.T) {
	s := NewOTPStore()

	code := s.Generate("ACME-1001")
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	if s.Verify("ACME-1001", wrong) {
		t.Error("Wrong code must not verify")
	}
	// A failed attempt does not consume the stored code.
	if !s.Verify("ACME-1001", code) {
		t.Error("Correct code must still verify after a failed attempt")
	}
}

func TestOTPStore_UnknownClient(t *testing.T) {
	s := NewOTPStore()
	if s.Verify("GLX-2001", "123456") {
		t.Error("Verify must fail for a client with no outstanding code")
	}
}

func TestOTPStore_Expiry(t *testing.T) {
	s := NewOTPStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	code := s.Generate("ACME-1001")

	now = now.Add(OTPTTL + time.Second)
	if s.Verify("ACME-1001", code) {
		t.Error("Expired code must not verify")
	}
	// The expired entry is purged, so even rolling time back cannot revive it.
	now = now.Add(-OTPTTL)
	if s.Verify("ACME-1001", code) {
		t.Error("Expired code must be removed from the store")
	}
}

func TestOTPStore_RegenerateReplaces(t *testing.T) {
	s := NewOTPStore()

	first := s.Generate("ACME-1001")
	second := s.Generate("ACME-1001")

	if first != second && s.Verify("ACME-1001", first) {
		t.Error("A regenerated code must invalidate the previous one")
	}
	if !s.Verify("ACME-1001", second) {
		t.Error("The latest code must verify")
	}
}
