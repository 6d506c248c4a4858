package mockapi

import (
	"crypto/rand"
	"log/slog"
	"math/big"
	"sync"
	"time"
)

// OTPTTL is how long a generated code stays valid.
const OTPTTL = 5 * time.Minute

type otpEntry struct {
	code      string
	createdAt time.Time
}

// OTPStore is an in-memory one-time-code store keyed by client ID.
// Expired entries are purged lazily on access; a code is consumed by its
// first successful verification.
type OTPStore struct {
	mu    sync.Mutex
	store map[string]otpEntry
	now   func() time.Time
}

// NewOTPStore creates an empty OTP store.
func NewOTPStore() *OTPStore {
	return &OTPStore{
		store: make(map[string]otpEntry),
		now:   time.Now,
	}
}

// Generate creates and stores a 6-digit OTP for clientID, replacing any
// outstanding code.
func (s *OTPStore) Generate(clientID string) string {
	code := randomDigits(6)

	s.mu.Lock()
	s.store[clientID] = otpEntry{code: code, createdAt: s.now()}
	s.mu.Unlock()

	slog.Info("OTP generated", "client_id", clientID)
	return code
}

// Verify reports whether otp matches the stored code and is not expired.
// A successful verification consumes the code.
func (s *OTPStore) Verify(clientID, otp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.store[clientID]
	if !ok {
		return false
	}
	if s.now().Sub(entry.createdAt) > OTPTTL {
		delete(s.store, clientID)
		slog.Info("OTP expired", "client_id", clientID)
		return false
	}
	if otp != entry.code {
		return false
	}
	delete(s.store, clientID)
	return true
}

func randomDigits(n int) string {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand only fails if the system entropy source is broken.
			panic(err)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}
